// Package client is the participant-side implementation of the shared
// store: location writes and snapshots over HTTP, the live change feed over
// websocket. The presence engine runs against it unchanged.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nowly-app/nowly/internal/domain"
	"github.com/nowly-app/nowly/internal/infrastructure/ws"
	"go.uber.org/zap"
)

type Client struct {
	baseURL string
	http    *http.Client
	dialer  *websocket.Dialer
	logger  *zap.SugaredLogger
}

func New(baseURL string, logger *zap.SugaredLogger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		dialer:  websocket.DefaultDialer,
		logger:  logger,
	}
}

type CreateRoomResponse struct {
	RoomID    string    `json:"roomId"`
	ExpiresAt time.Time `json:"expiresAt"`
	ShareURL  string    `json:"shareUrl"`
}

func (c *Client) CreateRoom(ctx context.Context, durationMinutes int) (*CreateRoomResponse, error) {
	body := map[string]int{"durationMinutes": durationMinutes}

	var resp CreateRoomResponse
	if err := c.do(ctx, http.MethodPost, "/api/rooms", body, &resp); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	return &resp, nil
}

// GetRoom maps 404 onto ErrRoomNotFound so callers can treat an expired or
// unknown room as "redirect to the entry point", not as a fault.
func (c *Client) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	var room domain.Room
	err := c.do(ctx, http.MethodGet, "/api/rooms/"+url.PathEscape(roomID), nil, &room)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	return &room, nil
}

// Upsert implements domain.LocationStore.
func (c *Client) Upsert(ctx context.Context, rec domain.LocationRecord) error {
	path := locationPath(rec.RoomID, rec.UserID)
	body := ws.LocationPayload{UserID: rec.UserID, Lat: rec.Lat, Lng: rec.Lng, UpdatedAt: rec.UpdatedAt}
	return c.do(ctx, http.MethodPut, path, body, nil)
}

// Delete implements domain.LocationStore.
func (c *Client) Delete(ctx context.Context, roomID, userID string) error {
	return c.do(ctx, http.MethodDelete, locationPath(roomID, userID), nil, nil)
}

// SnapshotByRoom implements domain.LocationStore.
func (c *Client) SnapshotByRoom(ctx context.Context, roomID string) ([]domain.LocationRecord, error) {
	var recs []domain.LocationRecord
	path := "/api/rooms/" + url.PathEscape(roomID) + "/locations"
	if err := c.do(ctx, http.MethodGet, path, nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// Subscribe implements domain.LocationStore over the websocket feed. The
// returned channel closes when the server evicts the room or the connection
// drops; the cancel func closes the connection and is safe to call twice.
func (c *Client) Subscribe(ctx context.Context, roomID string) (<-chan domain.ChangeEvent, func(), error) {
	feedURL := wsURL(c.baseURL) + "/api/rooms/" + url.PathEscape(roomID) + "/feed"

	conn, resp, err := c.dialer.DialContext(ctx, feedURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("dial feed: %w", err)
	}

	events := make(chan domain.ChangeEvent, 64)
	cancel := func() { _ = conn.Close() }

	go func() {
		defer close(events)
		defer conn.Close()

		for {
			var env ws.Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			if env.Type == ws.RoomExpired {
				return
			}

			ev, ok, err := ws.ToChange(env)
			if err != nil {
				c.logger.Debugw("malformed feed event", "roomId", roomID, "error", err)
				continue
			}
			if !ok {
				continue
			}

			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, cancel, nil
}

func locationPath(roomID, userID string) string {
	return "/api/rooms/" + url.PathEscape(roomID) + "/locations/" + url.PathEscape(userID)
}

func wsURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.status, e.body)
}

func isStatus(err error, status int) bool {
	se, ok := err.(*statusError)
	return ok && se.status == status
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(data))}
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

package ws

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/nowly-app/nowly/internal/domain"
	"github.com/nowly-app/nowly/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// Feed upgrades HTTP requests to websocket subscriptions on a room's change
// feed. The store fans events out; Feed only pumps one subscription into one
// connection.
type Feed struct {
	store    domain.LocationStore
	upgrader websocket.Upgrader
	logger   *zap.SugaredLogger
}

func NewFeed(store domain.LocationStore, logger *zap.SugaredLogger) *Feed {
	return &Feed{
		store: store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeRoom runs until the subscription ends or the peer disconnects. When
// the store drops the room at expiry the feed channel closes; the client is
// told the room expired and then evicted.
func (f *Feed) ServeRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warnw("websocket upgrade failed", "roomId", roomID, "error", err)
		return
	}

	client := NewClient(conn, roomID)
	metrics.FeedClients.Inc()
	defer metrics.FeedClients.Dec()

	events, cancel, err := f.store.Subscribe(r.Context(), roomID)
	if err != nil {
		_ = client.WriteJSON(NewJoinFailed(roomID, "Cannot subscribe to room feed"))
		_ = client.Close()
		return
	}
	defer cancel()

	// Peer disconnect unblocks the pump below via closed.
	closed := make(chan struct{})
	go func() {
		client.WaitClosed()
		close(closed)
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				_ = client.WriteJSON(NewRoomExpired(roomID))
				_ = client.Close()
				return
			}
			if err := client.WriteJSON(FromChange(ev)); err != nil {
				f.logger.Debugw("feed write failed", "roomId", roomID, "error", err)
				_ = client.Close()
				return
			}
		case <-closed:
			return
		}
	}
}

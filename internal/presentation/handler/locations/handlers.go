package locations

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nowly-app/nowly/internal/domain"
	"github.com/nowly-app/nowly/internal/infrastructure/json"
	"github.com/nowly-app/nowly/internal/infrastructure/ws"
	"go.uber.org/zap"
)

type upsertRequest struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Handler struct {
	roomRepository domain.RoomRepository
	store          domain.LocationStore
	feed           *ws.Feed
	logger         *zap.SugaredLogger
}

func NewHandler(roomRepository domain.RoomRepository, store domain.LocationStore, feed *ws.Feed, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		roomRepository: roomRepository,
		store:          store,
		feed:           feed,
		logger:         logger,
	}
}

// UpsertHandler writes the caller's one live record in place. Writes into
// an expired or unknown room are refused the same way reads are: the room
// does not exist.
func (h *Handler) UpsertHandler(w http.ResponseWriter, r *http.Request) {
	roomID, userID, ok := h.params(w, r)
	if !ok {
		return
	}
	if !h.roomAlive(w, r, roomID) {
		return
	}

	var req upsertRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	rec := domain.LocationRecord{
		RoomID:    roomID,
		UserID:    userID,
		Lat:       req.Lat,
		Lng:       req.Lng,
		UpdatedAt: req.UpdatedAt,
	}
	if err := h.store.Upsert(r.Context(), rec); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			json.WriteBadRequestError(w, "invalid location record")
			return
		}
		json.WriteInternalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteHandler is the departure hook. It succeeds whether or not the
// record exists, and also after expiry: deleting from a dead room is a
// no-op, not a fault.
func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	roomID, userID, ok := h.params(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), roomID, userID); err != nil {
		h.logger.Debugw("location delete failed", "roomId", roomID, "userId", userID, "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SnapshotHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return
	}
	if !h.roomAlive(w, r, roomID) {
		return
	}

	recs, err := h.store.SnapshotByRoom(r.Context(), roomID)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, recs)
}

// FeedHandler upgrades to the room's live change feed.
func (h *Handler) FeedHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return
	}
	if !h.roomAlive(w, r, roomID) {
		return
	}

	h.feed.ServeRoom(w, r, roomID)
}

func (h *Handler) params(w http.ResponseWriter, r *http.Request) (roomID, userID string, ok bool) {
	roomID = chi.URLParam(r, "roomId")
	userID = chi.URLParam(r, "userId")
	if roomID == "" || userID == "" {
		json.WriteValidationError(w, errors.New("room ID and user ID are required"))
		return "", "", false
	}
	return roomID, userID, true
}

func (h *Handler) roomAlive(w http.ResponseWriter, r *http.Request, roomID string) bool {
	_, err := h.roomRepository.GetByID(r.Context(), roomID)
	if err == nil {
		return true
	}

	switch {
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrRoomExpired):
		json.WriteNotFoundError(w, "Room not found")
	default:
		json.WriteInternalError(w, err)
	}
	return false
}

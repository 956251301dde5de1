package rooms

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nowly-app/nowly/internal/domain"
	"github.com/nowly-app/nowly/internal/infrastructure/json"
	"github.com/nowly-app/nowly/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

type Handler struct {
	roomRepository domain.RoomRepository
	publicURL      string
	logger         *zap.SugaredLogger
	now            func() time.Time
}

func NewHandler(roomRepository domain.RoomRepository, publicURL string, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		roomRepository: roomRepository,
		publicURL:      publicURL,
		logger:         logger,
		now:            time.Now,
	}
}

// CreateRoomHandler validates the requested duration against the allow-list
// (anything else falls back to the 60-minute default), creates the room,
// and returns the share URL. The client may decorate the URL with a display
// name before distributing it.
func (h *Handler) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.Read(r, &req); err != nil {
		// A missing or unparsable body expresses no duration preference;
		// the room gets the default lifetime.
		req = createRoomRequest{}
	}

	room := domain.NewRoom(req.DurationMinutes, h.now())

	if err := h.roomRepository.Create(r.Context(), room); err != nil {
		h.logger.Errorw("room create failed", "roomId", room.ID, "error", err)
		json.WriteInternalError(w, err)
		return
	}

	metrics.RoomsCreated.Inc()
	h.logger.Infow("room created", "roomId", room.ID, "durationMinutes", room.DurationMinutes, "expiresAt", room.ExpiresAt)

	json.Write(w, http.StatusCreated, createRoomResponse{
		RoomID:    room.ID,
		ExpiresAt: room.ExpiresAt,
		ShareURL:  h.shareURL(room),
	})
}

// GetRoomHandler answers 404 for unknown and expired rooms alike: past its
// lifetime a room behaves as if it never existed.
func (h *Handler) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return
	}

	room, err := h.roomRepository.GetByID(r.Context(), roomID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrRoomExpired):
			json.WriteNotFoundError(w, "Room not found")
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	json.Write(w, http.StatusOK, roomResponse{
		RoomID:          room.ID,
		CreatedAt:       room.CreatedAt,
		DurationMinutes: room.DurationMinutes,
		ExpiresAt:       room.ExpiresAt,
	})
}

func (h *Handler) shareURL(room *domain.Room) string {
	return fmt.Sprintf("%s/r/%s?minutes=%d&expires=%s",
		h.publicURL, room.ID, room.DurationMinutes,
		url.QueryEscape(room.ExpiresAt.Format(time.RFC3339)))
}

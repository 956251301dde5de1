package health

import (
	"net/http"
	"time"

	"github.com/nowly-app/nowly/internal/infrastructure/json"
)

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	data := healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
	}
	json.Write(w, http.StatusOK, data)
}

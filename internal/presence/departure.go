package presence

import (
	"context"

	"github.com/nowly-app/nowly/internal/domain"
	"go.uber.org/zap"
)

// Departure removes the local participant's record on the way out. It is
// best-effort and idempotent: deleting a record that is gone, or that a
// late in-flight publish is about to recreate, is not an error — observers'
// staleness pruning covers whatever this misses.
type Departure struct {
	store  domain.LocationStore
	roomID string
	userID string
	logger *zap.SugaredLogger
}

func NewDeparture(store domain.LocationStore, roomID, userID string, logger *zap.SugaredLogger) *Departure {
	return &Departure{
		store:  store,
		roomID: roomID,
		userID: userID,
		logger: logger,
	}
}

// Cleanup is safe to call multiple times and concurrently with publishes.
func (d *Departure) Cleanup(ctx context.Context) {
	if err := d.store.Delete(ctx, d.roomID, d.userID); err != nil {
		d.logger.Debugw("departure cleanup failed", "roomId", d.roomID, "userId", d.userID, "error", err)
	}
}

package repository

import (
	"context"
	"time"

	"github.com/nowly-app/nowly/internal/domain"
	"github.com/nowly-app/nowly/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// Reaper periodically removes expired rooms and drops their presence data,
// evicting any feed subscribers still attached. Observers would stop
// rendering stale records on their own; the reaper is what makes the data
// itself self-destruct.
type Reaper struct {
	rooms     domain.RoomRepository
	locations *LocationStore
	interval  time.Duration
	logger    *zap.SugaredLogger
}

func NewReaper(rooms domain.RoomRepository, locations *LocationStore, interval time.Duration, logger *zap.SugaredLogger) *Reaper {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	return &Reaper{
		rooms:     rooms,
		locations: locations,
		interval:  interval,
		logger:    logger,
	}
}

func (rp *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(rp.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rp.reapOnce(ctx, time.Now())
		}
	}
}

func (rp *Reaper) reapOnce(ctx context.Context, now time.Time) {
	reaped, err := rp.rooms.ReapExpired(ctx, now)
	if err != nil {
		rp.logger.Warnw("room reap failed", "error", err)
		return
	}

	for _, roomID := range reaped {
		rp.locations.DropRoom(roomID)
		metrics.RoomsReaped.Inc()
		rp.logger.Infow("room expired", "roomId", roomID)
	}
}

package presence

import (
	"context"
	"time"

	"github.com/nowly-app/nowly/internal/domain"
	"go.uber.org/zap"
)

// Publisher upserts the local participant's record: once as soon as a fix
// exists, then on every publish interval while one does. Publishing is
// fire-and-forget; a failed cycle never stops the next one.
type Publisher struct {
	store    domain.LocationStore
	roomID   string
	userID   string
	interval time.Duration
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewPublisher(store domain.LocationStore, roomID, userID string, interval time.Duration, logger *zap.SugaredLogger) *Publisher {
	if interval <= 0 {
		interval = DefaultTimings().PublishInterval
	}

	return &Publisher{
		store:    store,
		roomID:   roomID,
		userID:   userID,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Run consumes the fix stream until ctx is cancelled or the source closes.
// The source closing means the device stopped producing fixes; publishing
// suspends rather than erroring.
func (p *Publisher) Run(ctx context.Context, fixes <-chan domain.Fix) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var latest *domain.Fix

	for {
		select {
		case <-ctx.Done():
			return

		case fix, ok := <-fixes:
			if !ok {
				return
			}
			first := latest == nil
			latest = &fix
			if first {
				p.publish(ctx, *latest)
			}

		case <-ticker.C:
			if latest != nil {
				p.publish(ctx, *latest)
			}
		}
	}
}

func (p *Publisher) publish(ctx context.Context, fix domain.Fix) {
	rec := domain.LocationRecord{
		RoomID:    p.roomID,
		UserID:    p.userID,
		Lat:       fix.Lat,
		Lng:       fix.Lng,
		UpdatedAt: p.now().UTC(),
	}

	if err := p.store.Upsert(ctx, rec); err != nil {
		p.logger.Debugw("location publish failed", "roomId", p.roomID, "error", err)
	}
}

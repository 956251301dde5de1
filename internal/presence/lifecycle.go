package presence

import (
	"context"
	"sync"
	"time"

	"github.com/nowly-app/nowly/internal/domain"
	"go.uber.org/zap"
)

// ResolveExpiry computes a room's expiry the way a share URL is read: an
// explicit, valid RFC3339 expiry wins over a duration-derived one; a bad or
// absent duration falls back to the default lifetime.
func ResolveExpiry(expires string, minutes int, now time.Time) time.Time {
	if expires != "" {
		if t, err := time.Parse(time.RFC3339, expires); err == nil {
			return t
		}
	}

	return now.Add(time.Duration(domain.ClampDuration(minutes)) * time.Minute)
}

// ControllerConfig wires a participant session together. The controller
// owns the lifetimes of the publisher and reconciler it starts.
type ControllerConfig struct {
	Room    *domain.Room
	UserID  string
	Store   domain.LocationStore
	Source  Source
	Timings Timings

	// OnChange is forwarded to the reconciler (the rendering boundary).
	OnChange func(domain.PresenceChange)
	// OnTick fires every countdown interval with the clamped remaining time.
	OnTick func(remaining time.Duration)
	// OnExpired is the redirect hook; it fires exactly once, after the
	// grace delay, and also when the room was already expired at load.
	OnExpired func()

	Logger *zap.SugaredLogger
}

// Controller drives the room's single forward transition, active → expired,
// and supervises every periodic activity under it. All of them stop on the
// earliest of room expiry, voluntary leave (ctx cancel), or never start at
// all if the room was already dead at load.
type Controller struct {
	cfg        ControllerConfig
	timings    Timings
	publisher  *Publisher
	reconciler *Reconciler
	departure  *Departure
	logger     *zap.SugaredLogger
	now        func() time.Time
	expireOnce sync.Once
}

func NewController(cfg ControllerConfig) *Controller {
	timings := cfg.Timings.withDefaults()

	return &Controller{
		cfg:        cfg,
		timings:    timings,
		publisher:  NewPublisher(cfg.Store, cfg.Room.ID, cfg.UserID, timings.PublishInterval, cfg.Logger),
		reconciler: NewReconciler(cfg.Store, cfg.Room.ID, cfg.UserID, timings, cfg.OnChange, cfg.Logger),
		departure:  NewDeparture(cfg.Store, cfg.Room.ID, cfg.UserID, cfg.Logger),
		logger:     cfg.Logger,
		now:        time.Now,
	}
}

// Reconciler exposes the live view for display purposes.
func (c *Controller) Reconciler() *Reconciler {
	return c.reconciler
}

// Run blocks until the room expires or ctx is cancelled. A room already
// expired at entry performs no writes and no subscription: the redirect
// hook fires immediately and nothing else ever starts.
func (c *Controller) Run(ctx context.Context) error {
	if c.cfg.Room.Expired(c.now()) {
		c.logger.Infow("room already expired at load", "roomId", c.cfg.Room.ID)
		if c.cfg.OnExpired != nil {
			c.cfg.OnExpired()
		}
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.publisher.Run(runCtx, c.cfg.Source.Watch(runCtx))
	}()
	go func() {
		defer wg.Done()
		c.reconciler.Run(runCtx)
	}()

	ticker := time.NewTicker(c.timings.CountdownInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Voluntary leave: stop everything, then best-effort removal of
			// our own record, detached from the dying context.
			cancel()
			wg.Wait()
			c.departure.Cleanup(context.Background())
			return ctx.Err()

		case <-ticker.C:
			remaining := c.cfg.Room.Remaining(c.now())
			if c.cfg.OnTick != nil {
				c.cfg.OnTick(remaining)
			}
			if remaining <= 0 {
				c.expire(cancel, &wg)
				return nil
			}
		}
	}
}

// expire performs the terminal transition at most once, however many ticks
// observe an elapsed countdown.
func (c *Controller) expire(cancel context.CancelFunc, wg *sync.WaitGroup) {
	c.expireOnce.Do(func() {
		c.logger.Infow("room expired", "roomId", c.cfg.Room.ID)

		cancel()
		wg.Wait()
		c.departure.Cleanup(context.Background())

		// Grace delay before the redirect, mirroring the exit animation
		// the UI plays over the torn-down map.
		if c.timings.RedirectGrace > 0 {
			time.Sleep(c.timings.RedirectGrace)
		}
		if c.cfg.OnExpired != nil {
			c.cfg.OnExpired()
		}
	})
}

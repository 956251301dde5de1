package presence

import (
	"context"
	"sync"
	"time"

	"github.com/nowly-app/nowly/internal/domain"
	"go.uber.org/zap"
)

// Reconciler maintains the local view of who else is visible in the room:
// one snapshot seed, then a live change feed, with a periodic sweep that
// evicts anyone whose record went quiet. Feed events and sweep ticks are
// processed by a single goroutine in delivery order; per entry the outcome
// is last-write-wins, so replaying either is idempotent.
type Reconciler struct {
	store   domain.LocationStore
	roomID  string
	selfID  string
	timings Timings

	// OnChange receives view diffs on the reconciler's goroutine. It is the
	// one-way boundary to the rendering layer, which owns any visual
	// resources keyed by userId.
	onChange func(domain.PresenceChange)

	logger *zap.SugaredLogger
	now    func() time.Time

	mu   sync.Mutex
	view *domain.PresenceView
}

func NewReconciler(store domain.LocationStore, roomID, selfID string, timings Timings, onChange func(domain.PresenceChange), logger *zap.SugaredLogger) *Reconciler {
	return &Reconciler{
		store:    store,
		roomID:   roomID,
		selfID:   selfID,
		timings:  timings.withDefaults(),
		onChange: onChange,
		logger:   logger,
		now:      time.Now,
		view:     domain.NewPresenceView(selfID),
	}
}

// Run blocks until ctx is cancelled, then tears everything down: the
// subscription, the sweep ticker, and every entry in the view.
func (r *Reconciler) Run(ctx context.Context) {
	r.seed(ctx)

	events, cancel, err := r.store.Subscribe(ctx, r.roomID)
	if err != nil {
		// No feed is degraded, not fatal: the sweep alone will age
		// everyone out, and the next session can resubscribe.
		r.logger.Warnw("feed subscribe failed", "roomId", r.roomID, "error", err)
		events = nil
		cancel = func() {}
	}
	defer cancel()
	defer r.teardown()

	ticker := time.NewTicker(r.timings.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				// Feed ended (room dropped server-side). Keep sweeping so
				// remaining entries age out until the lifecycle stops us.
				events = nil
				continue
			}
			r.Apply(ev)

		case <-ticker.C:
			r.SweepOnce()
		}
	}
}

// seed performs the one snapshot read, skipping self and anything already
// stale at read time. A failed read seeds nothing; the live feed still
// converges the view.
func (r *Reconciler) seed(ctx context.Context) {
	recs, err := r.store.SnapshotByRoom(ctx, r.roomID)
	if err != nil {
		r.logger.Warnw("snapshot read failed", "roomId", r.roomID, "error", err)
		return
	}

	for _, rec := range recs {
		r.Apply(domain.ChangeEvent{Type: domain.EventUpsert, Record: rec})
	}
}

// Apply folds one change event into the view.
func (r *Reconciler) Apply(ev domain.ChangeEvent) {
	r.mu.Lock()
	var change domain.PresenceChange
	var ok bool
	switch ev.Type {
	case domain.EventDelete:
		change, ok = r.view.ApplyDelete(ev.Record.UserID)
	default:
		change, ok = r.view.ApplyUpsert(ev.Record, r.now(), r.timings.StaleThreshold)
	}
	r.mu.Unlock()

	if ok {
		r.emit(change)
	}
}

// SweepOnce evicts every entry older than the staleness threshold.
func (r *Reconciler) SweepOnce() {
	r.mu.Lock()
	removed := r.view.Sweep(r.now(), r.timings.StaleThreshold)
	r.mu.Unlock()

	for _, change := range removed {
		r.emit(change)
	}
}

// Visible returns a copy of the current view.
func (r *Reconciler) Visible() map[string]domain.PresenceEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view.Entries()
}

func (r *Reconciler) teardown() {
	r.mu.Lock()
	removed := r.view.Clear()
	r.mu.Unlock()

	for _, change := range removed {
		r.emit(change)
	}
}

func (r *Reconciler) emit(change domain.PresenceChange) {
	if r.onChange != nil {
		r.onChange(change)
	}
}

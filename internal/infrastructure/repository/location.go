package repository

import (
	"context"
	"sync"
	"time"

	"github.com/nowly-app/nowly/internal/domain"
	"github.com/nowly-app/nowly/internal/infrastructure/metrics"
)

const subscriberBuffer = 64

type subscriber struct {
	ch     chan domain.ChangeEvent
	closed bool
}

// LocationStore is the in-memory shared store: one live record per
// (room, user), snapshot reads by room, and a room-scoped change feed.
type LocationStore struct {
	records map[string]map[string]domain.LocationRecord // roomID -> userID -> record
	subs    map[string]map[int]*subscriber              // roomID -> subID -> subscriber
	nextSub int
	mu      sync.RWMutex
}

func NewLocationStore() *LocationStore {
	return &LocationStore{
		records: make(map[string]map[string]domain.LocationRecord),
		subs:    make(map[string]map[int]*subscriber),
	}
}

// Upsert creates or overwrites in place the caller's record. Each write
// refreshes UpdatedAt if the caller left it zero.
func (s *LocationStore) Upsert(ctx context.Context, rec domain.LocationRecord) error {
	if rec.RoomID == "" || rec.UserID == "" {
		return domain.ErrInvalidInput
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.records[rec.RoomID]
	if !ok {
		room = make(map[string]domain.LocationRecord)
		s.records[rec.RoomID] = room
	}
	room[rec.UserID] = rec

	metrics.LocationWrites.WithLabelValues("upsert").Inc()
	s.publish(rec.RoomID, domain.ChangeEvent{Type: domain.EventUpsert, Record: rec})

	return nil
}

// Delete is idempotent; removing an absent record is not an error.
func (s *LocationStore) Delete(ctx context.Context, roomID, userID string) error {
	if roomID == "" || userID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.records[roomID]
	if !ok {
		return nil
	}
	rec, ok := room[userID]
	if !ok {
		return nil
	}

	delete(room, userID)
	if len(room) == 0 {
		delete(s.records, roomID)
	}

	metrics.LocationWrites.WithLabelValues("delete").Inc()
	s.publish(roomID, domain.ChangeEvent{Type: domain.EventDelete, Record: rec})

	return nil
}

func (s *LocationStore) SnapshotByRoom(ctx context.Context, roomID string) ([]domain.LocationRecord, error) {
	if roomID == "" {
		return nil, domain.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	room := s.records[roomID]
	out := make([]domain.LocationRecord, 0, len(room))
	for _, rec := range room {
		out = append(out, rec)
	}
	return out, nil
}

// Subscribe registers a room-scoped change feed. The returned cancel func is
// safe to call more than once. The channel closes when the subscription is
// cancelled or the room is dropped.
func (s *LocationStore) Subscribe(ctx context.Context, roomID string) (<-chan domain.ChangeEvent, func(), error) {
	if roomID == "" {
		return nil, nil, domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++

	sub := &subscriber{ch: make(chan domain.ChangeEvent, subscriberBuffer)}
	room, ok := s.subs[roomID]
	if !ok {
		room = make(map[int]*subscriber)
		s.subs[roomID] = room
	}
	room[id] = sub
	metrics.FeedSubscribers.Inc()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.closeSubscriber(roomID, id)
	}

	return sub.ch, cancel, nil
}

// DropRoom deletes every record of an expired room and ends its feed: each
// remaining record is announced as deleted, then all subscriber channels are
// closed. This is the server half of room self-destruction.
func (s *LocationStore) DropRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records[roomID] {
		metrics.LocationWrites.WithLabelValues("delete").Inc()
		s.publish(roomID, domain.ChangeEvent{Type: domain.EventDelete, Record: rec})
	}
	delete(s.records, roomID)

	for id := range s.subs[roomID] {
		s.closeSubscriber(roomID, id)
	}
}

// publish fans an event out without blocking; a subscriber that cannot keep
// up loses events rather than stalling the writer. Caller must hold the lock.
func (s *LocationStore) publish(roomID string, ev domain.ChangeEvent) {
	metrics.FeedEvents.WithLabelValues(string(ev.Type)).Inc()

	for _, sub := range s.subs[roomID] {
		if sub.closed {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			metrics.FeedDrops.Inc()
		}
	}
}

// closeSubscriber must be called with the lock held.
func (s *LocationStore) closeSubscriber(roomID string, id int) {
	room, ok := s.subs[roomID]
	if !ok {
		return
	}
	sub, ok := room[id]
	if !ok || sub.closed {
		return
	}

	sub.closed = true
	close(sub.ch)
	delete(room, id)
	if len(room) == 0 {
		delete(s.subs, roomID)
	}
	metrics.FeedSubscribers.Dec()
}

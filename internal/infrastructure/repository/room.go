package repository

import (
	"context"
	"sync"
	"time"

	"github.com/nowly-app/nowly/internal/domain"
)

type roomRepository struct {
	rooms    map[string]*domain.Room // ID -> Room
	capacity uint
	now      func() time.Time
	mu       sync.RWMutex
}

func NewRoomRepository(capacity uint) domain.RoomRepository {
	if capacity == 0 {
		capacity = 1000
	}

	return &roomRepository{
		rooms:    make(map[string]*domain.Room),
		capacity: capacity,
		now:      time.Now,
	}
}

// evictExpired drops expired rooms inline so reads never observe them even
// between reaper passes. Caller must hold the write lock.
func (r *roomRepository) evictExpired(now time.Time) []string {
	var evicted []string
	for id, room := range r.rooms {
		if room.Expired(now) {
			delete(r.rooms, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}

// enforceCapacity drops the rooms closest to expiry when over capacity.
// Caller must hold the write lock.
func (r *roomRepository) enforceCapacity() {
	for uint(len(r.rooms)) > r.capacity {
		var oldestID string
		var oldestExpiry time.Time
		for id, room := range r.rooms {
			if oldestID == "" || room.ExpiresAt.Before(oldestExpiry) {
				oldestID = id
				oldestExpiry = room.ExpiresAt
			}
		}
		delete(r.rooms, oldestID)
	}
}

func (r *roomRepository) Create(ctx context.Context, room *domain.Room) error {
	if room == nil || room.ID == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictExpired(r.now())

	if _, exists := r.rooms[room.ID]; exists {
		return domain.ErrRoomAlreadyExists
	}

	r.rooms[room.ID] = room
	r.enforceCapacity()

	return nil
}

// GetByID never returns an expired room: past its expiry a room behaves as
// if it never existed.
func (r *roomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.RLock()
	room, exists := r.rooms[id]
	r.mu.RUnlock()

	if !exists {
		return nil, domain.ErrRoomNotFound
	}
	if room.Expired(r.now()) {
		return nil, domain.ErrRoomExpired
	}

	return room, nil
}

func (r *roomRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[id]; !exists {
		return domain.ErrRoomNotFound
	}
	delete(r.rooms, id)

	return nil
}

func (r *roomRepository) ReapExpired(ctx context.Context, now time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.evictExpired(now), nil
}

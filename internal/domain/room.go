package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AllowedDurations is the enumerated set of room lifetimes a client may
// request. Anything else falls back to DefaultDurationMinutes.
var AllowedDurations = []int{30, 60, 180}

const DefaultDurationMinutes = 60

type Room struct {
	ID              string    `json:"roomId"`
	CreatedAt       time.Time `json:"createdAt"`
	DurationMinutes int       `json:"durationMinutes"`
	ExpiresAt       time.Time `json:"expiresAt"`
}

// ClampDuration validates a requested duration against the allow-list,
// returning the default for anything unknown.
func ClampDuration(minutes int) int {
	for _, m := range AllowedDurations {
		if minutes == m {
			return minutes
		}
	}
	return DefaultDurationMinutes
}

func NewRoom(durationMinutes int, now time.Time) *Room {
	minutes := ClampDuration(durationMinutes)
	createdAt := now.UTC()

	return &Room{
		ID:              uuid.NewString(),
		CreatedAt:       createdAt,
		DurationMinutes: minutes,
		ExpiresAt:       createdAt.Add(time.Duration(minutes) * time.Minute),
	}
}

func (r *Room) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Remaining never goes negative; an expired room has zero time left.
func (r *Room) Remaining(now time.Time) time.Duration {
	left := r.ExpiresAt.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

type RoomRepository interface {
	Create(ctx context.Context, room *Room) error
	GetByID(ctx context.Context, id string) (*Room, error)
	Delete(ctx context.Context, id string) error

	// ReapExpired removes every room whose expiry has passed and returns
	// the removed ids so callers can tear down dependent state.
	ReapExpired(ctx context.Context, now time.Time) ([]string, error)
}

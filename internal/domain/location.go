package domain

import (
	"context"
	"time"
)

// Fix is a single geolocation reading.
type Fix struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// FallbackFix frames the map before any real fix arrives. It is never
// published as a participant position.
var FallbackFix = Fix{Lat: 35.681236, Lng: 139.767125}

// LocationRecord is the one live row a participant owns in a room.
// A publish overwrites it in place; there is never more than one per
// (room, user) pair.
type LocationRecord struct {
	RoomID    string    `json:"roomId"`
	UserID    string    `json:"userId"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r LocationRecord) Position() Fix {
	return Fix{Lat: r.Lat, Lng: r.Lng}
}

type EventType string

const (
	EventUpsert EventType = "upsert"
	EventDelete EventType = "delete"
)

// ChangeEvent is one entry of a room's live change feed. For deletes the
// record carries the removed row.
type ChangeEvent struct {
	Type   EventType
	Record LocationRecord
}

// LocationStore is the shared-store collaborator: upsert/delete by composite
// key, filtered snapshot reads, and a room-scoped live change feed.
type LocationStore interface {
	Upsert(ctx context.Context, rec LocationRecord) error
	Delete(ctx context.Context, roomID, userID string) error
	SnapshotByRoom(ctx context.Context, roomID string) ([]LocationRecord, error)

	// Subscribe returns a feed of change events for one room plus a cancel
	// func. The channel is closed when the subscription ends, including when
	// the room's data is dropped at expiry.
	Subscribe(ctx context.Context, roomID string) (<-chan ChangeEvent, func(), error)
}

package ws

import (
	"encoding/json"
	"time"

	"github.com/nowly-app/nowly/internal/domain"
)

const (
	LocationUpserted = "location.upserted"
	LocationDeleted  = "location.deleted"
	RoomExpired      = "room.expired"

	ErrorEvent = "error"
	JoinFailed = "error.join"
)

type Message struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	Data   any    `json:"data"`
}

// Envelope is the inbound counterpart of Message: Data stays raw until the
// type is known.
type Envelope struct {
	Type   string          `json:"type"`
	RoomID string          `json:"roomId"`
	Data   json.RawMessage `json:"data"`
}

type LocationPayload struct {
	UserID    string    `json:"userId"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p LocationPayload) Record(roomID string) domain.LocationRecord {
	return domain.LocationRecord{
		RoomID:    roomID,
		UserID:    p.UserID,
		Lat:       p.Lat,
		Lng:       p.Lng,
		UpdatedAt: p.UpdatedAt,
	}
}

type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func NewLocationUpserted(rec domain.LocationRecord) *Message {
	return &Message{
		Type:   LocationUpserted,
		RoomID: rec.RoomID,
		Data: LocationPayload{
			UserID:    rec.UserID,
			Lat:       rec.Lat,
			Lng:       rec.Lng,
			UpdatedAt: rec.UpdatedAt,
		},
	}
}

func NewLocationDeleted(rec domain.LocationRecord) *Message {
	return &Message{
		Type:   LocationDeleted,
		RoomID: rec.RoomID,
		Data: LocationPayload{
			UserID:    rec.UserID,
			Lat:       rec.Lat,
			Lng:       rec.Lng,
			UpdatedAt: rec.UpdatedAt,
		},
	}
}

func NewRoomExpired(roomID string) *Message {
	return &Message{
		Type:   RoomExpired,
		RoomID: roomID,
	}
}

func NewJoinFailed(roomID, reason string) *Message {
	return &Message{
		Type:   JoinFailed,
		RoomID: roomID,
		Data: ErrorPayload{
			Code:    "JOIN_FAILED",
			Message: reason,
		},
	}
}

// FromChange maps a store change event onto the wire contract.
func FromChange(ev domain.ChangeEvent) *Message {
	if ev.Type == domain.EventDelete {
		return NewLocationDeleted(ev.Record)
	}
	return NewLocationUpserted(ev.Record)
}

// ToChange decodes an inbound envelope back into a store change event.
// The bool reports whether the envelope carried a location change at all.
func ToChange(env Envelope) (domain.ChangeEvent, bool, error) {
	switch env.Type {
	case LocationUpserted, LocationDeleted:
	default:
		return domain.ChangeEvent{}, false, nil
	}

	var payload LocationPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return domain.ChangeEvent{}, false, err
	}

	typ := domain.EventUpsert
	if env.Type == LocationDeleted {
		typ = domain.EventDelete
	}

	return domain.ChangeEvent{Type: typ, Record: payload.Record(env.RoomID)}, true, nil
}

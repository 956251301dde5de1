package rooms

import "time"

type createRoomRequest struct {
	DurationMinutes int `json:"durationMinutes"`
}

type createRoomResponse struct {
	RoomID    string    `json:"roomId"`
	ExpiresAt time.Time `json:"expiresAt"`
	ShareURL  string    `json:"shareUrl"`
}

type roomResponse struct {
	RoomID          string    `json:"roomId"`
	CreatedAt       time.Time `json:"createdAt"`
	DurationMinutes int       `json:"durationMinutes"`
	ExpiresAt       time.Time `json:"expiresAt"`
}

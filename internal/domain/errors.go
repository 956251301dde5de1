package domain

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomExpired       = errors.New("room expired")
	ErrRoomAlreadyExists = errors.New("room already exists")
)

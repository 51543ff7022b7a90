package domain

import "errors"

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionExpired    = errors.New("session expired")
	ErrReactionNotFound  = errors.New("reaction not found")
	ErrUnknownConnection = errors.New("unknown connection")
	ErrNotInRoom         = errors.New("connection not in the room")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrInvalidPayload    = errors.New("invalid payload")
)

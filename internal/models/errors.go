package models

import "errors"

var (
	// ErrNotFound is returned by stores when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrSessionConflict is returned when a session ID is already taken by
	// another user.
	ErrSessionConflict = errors.New("session id belongs to another user")
)

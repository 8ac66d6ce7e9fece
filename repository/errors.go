package repository

import "errors"

var (
	// ErrNotFound indicates an unknown track, version, comment or user id.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidReference indicates a version id that does not belong to the
	// referenced track.
	ErrInvalidReference = errors.New("invalid reference")
)

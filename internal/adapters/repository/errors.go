package repository

import "errors"

// Sentinel kinds for lead store errors.
var (
	ErrNotFound      = errors.New("lead not found")
	ErrInvalidLimit  = errors.New("invalid list limit")
	ErrInvalidFilter = errors.New("invalid lead filter")
	ErrUnknownDriver = errors.New("unknown lead store driver")
	ErrClosed        = errors.New("lead store closed")
)

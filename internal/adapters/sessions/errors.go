package sessions

import "errors"

// Sentinel kinds for session store errors.
var (
	ErrNotFound      = errors.New("session not found")
	ErrInvalidID     = errors.New("invalid session id")
	ErrUnknownDriver = errors.New("unknown session store driver")
)

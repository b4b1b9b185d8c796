package mail

import "errors"

// Sentinel kinds for mail errors.
var (
	ErrSend            = errors.New("mail send failed")
	ErrUnknownProvider = errors.New("unknown mail provider")
	ErrUnknownKind     = errors.New("unknown email kind")
	ErrNoRecipient     = errors.New("message has no recipient")
)

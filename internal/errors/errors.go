package errors

import (
	"errors"
	"fmt"
)

// Common error types for the back-office client
var (
	// Configuration errors
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrUnknownBackend     = errors.New("unknown session backend")
	ErrInvalidSessionKey  = errors.New("invalid session key")
	ErrMissingCredentials = errors.New("missing credentials")

	// Session store errors
	ErrStoreUnavailable = errors.New("session store unavailable")
	ErrCorruptStore     = errors.New("session store is corrupt")

	// Payload errors
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrResponseTooLarge = errors.New("response too large")

	// General errors
	ErrNotFound = errors.New("not found")
)

// Wrapf returns an error that matches kind with errors.Is and reads "kind: detail".
func Wrapf(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{kind}, args...)...)
}

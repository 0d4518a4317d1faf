package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationRequired means the call needs credentials and none are usable.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrSessionExpired means the session could not be recovered by a refresh.
	// It matches ErrAuthenticationRequired as well.
	ErrSessionExpired = fmt.Errorf("%w: session expired", ErrAuthenticationRequired)
)

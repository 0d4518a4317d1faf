package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/jrsteele09/go-practice-client/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestWrapf(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := errors.Wrapf(errors.ErrStoreUnavailable, "redis ping: %v", cause)

	require.EqualError(t, err, "session store unavailable: redis ping: connection refused")
	require.ErrorIs(t, err, errors.ErrStoreUnavailable)
	require.NotErrorIs(t, err, cause, "the cause is rendered, not wrapped")
	require.NotErrorIs(t, err, errors.ErrCorruptStore)
}

func TestWrapf_NoArgs(t *testing.T) {
	err := errors.Wrapf(errors.ErrInvalidPayload, "id is required")
	require.EqualError(t, err, "invalid payload: id is required")
}

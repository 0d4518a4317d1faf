package utils_test

import (
	"testing"

	"github.com/jrsteele09/go-practice-client/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestPtr(t *testing.T) {
	p := utils.Ptr("active")
	require.Equal(t, "active", *p)

	q := utils.Ptr("active")
	require.NotSame(t, p, q)
}


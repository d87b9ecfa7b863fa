package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError_Error(t *testing.T) {
	err := NewAPIError("twitter", 403, "forbidden")
	assert.Contains(t, err.Error(), "twitter")
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "forbidden")
}

func TestAPIError_Unwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := &APIError{Service: "twitter", StatusCode: 500, Message: "boom", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", NewAPIError("twitter", 429, "slow down"), true},
		{"server error", NewAPIError("twitter", 500, "oops"), true},
		{"bad gateway", NewAPIError("twitter", 502, "oops"), true},
		{"unauthorized", NewAPIError("twitter", 401, "nope"), false},
		{"bad request", NewAPIError("twitter", 400, "nope"), false},
		{"timeout sentinel", ErrTimeout, true},
		{"wrapped timeout", fmt.Errorf("call failed: %w", ErrTimeout), true},
		{"plain error", errors.New("whatever"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRetryable(tc.err))
		})
	}
}

package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "deadline exceeded",
			err:  context.DeadlineExceeded,
			want: true,
		},
		{
			name: "wrapped deadline exceeded",
			err:  fmt.Errorf("lookup: %w", context.DeadlineExceeded),
			want: true,
		},
		{
			name: "retryable persistence failure",
			err:  &RetryableError{Err: errors.New("database is locked"), Retryable: true},
			want: true,
		},
		{
			name: "non-retryable wrapped error",
			err:  &RetryableError{Err: errors.New("constraint violation"), Retryable: false},
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestRetryableErrorUnwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := &RetryableError{Err: inner, Retryable: true}

	assert.Equal(t, "disk full", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestUserError(t *testing.T) {
	inner := ErrNotFound
	err := NewUserError(`unknown category "Groceries"`, inner)

	assert.Equal(t, `unknown category "Groceries": not found`, err.Error())
	assert.ErrorIs(t, err, ErrNotFound)

	bare := &UserError{UserMessage: "nothing to import"}
	assert.Equal(t, "nothing to import", bare.Error())
}

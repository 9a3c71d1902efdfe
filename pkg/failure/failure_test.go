package failure

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"classified", New(Permanent, "fetch", base), Permanent},
		{"wrapped classified", fmt.Errorf("outer: %w", New(Transient, "fetch", base)), Transient},
		{"deadline", context.DeadlineExceeded, Timeout},
		{"wrapped cancel", fmt.Errorf("get: %w", context.Canceled), Timeout},
		{"plain", base, Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestNewNilError(t *testing.T) {
	assert.NoError(t, New(Permanent, "op", nil))
}

func TestErrorUnwrap(t *testing.T) {
	base := errors.New("status 404")
	err := New(Permanent, "fetch https://example.com", base)

	assert.ErrorIs(t, err, base)
	assert.Equal(t, "fetch https://example.com: status 404", err.Error())
	assert.True(t, Is(err, Permanent))
	assert.False(t, IsRetryable(err))
	assert.True(t, IsRetryable(Newf(Transient, "fetch", "status %d", 429)))
}

package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) Config {
	return Config{
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		MaxAttempts:  attempts,
		Multiplier:   2,
	}
}

func TestIsNetworkError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"op error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}, true},
		{"dns", &net.DNSError{Err: "no such host", Name: "example.invalid"}, true},
		{"wrapped message", fmt.Errorf("request: %w", errors.New("dial tcp 127.0.0.1:1: connection refused")), true},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("x: %w", context.DeadlineExceeded), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNetworkError(tt.err))
		})
	}
}

func TestDo_SucceedsAfterNetworkErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), "op", fastConfig(3), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset by peer")
		}
		return nil
	}, zerolog.Nop())

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_NonNetworkErrorNotRetried(t *testing.T) {
	sentinel := errors.New("not found")
	calls := 0
	err := Do(context.Background(), "op", fastConfig(5), func(context.Context) error {
		calls++
		return sentinel
	}, zerolog.Nop())

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), "op", fastConfig(2), func(context.Context) error {
		calls++
		return errors.New("i/o timeout")
	}, zerolog.Nop())

	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_StopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{InitialDelay: time.Hour, MaxDelay: time.Hour, MaxAttempts: 3, Multiplier: 2}

	calls := 0
	err := Do(ctx, "op", cfg, func(context.Context) error {
		calls++
		cancel()
		return errors.New("connection refused")
	}, zerolog.Nop())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRequestConfig_MinimumOneAttempt(t *testing.T) {
	assert.Equal(t, 1, RequestConfig(0).MaxAttempts)
	assert.Equal(t, 3, RequestConfig(3).MaxAttempts)
}

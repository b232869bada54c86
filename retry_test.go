package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetriesSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := withRetries(context.Background(), "test", 3, 0, ErrTrendFetchExhausted, nil,
		func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetriesFirstTrySkipsDelay(t *testing.T) {
	start := time.Now()
	err := withRetries(context.Background(), "test", 3, time.Hour, ErrTrendFetchExhausted, nil,
		func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWithRetriesExhaustionWrapsTerminal(t *testing.T) {
	calls := 0
	cause := errors.New("connection refused")
	err := withRetries(context.Background(), "test", 3, 0, ErrBrokerConnectExhausted, nil,
		func(context.Context) error {
			calls++
			return cause
		})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBrokerConnectExhausted))
	assert.Equal(t, 3, calls, "no attempts beyond the budget")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWithRetriesNonRetryableStopsImmediately(t *testing.T) {
	calls := 0
	fatal := errors.New("bad credentials")
	err := withRetries(context.Background(), "test", 5, 0, ErrBrokerConnectExhausted,
		func(err error) bool { return !errors.Is(err, fatal) },
		func(context.Context) error {
			calls++
			return fatal
		})
	require.ErrorIs(t, err, fatal)
	assert.False(t, errors.Is(err, ErrBrokerConnectExhausted))
	assert.Equal(t, 1, calls)
}

func TestWithRetriesHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := withRetries(ctx, "test", 3, time.Hour, ErrTrendFetchExhausted, nil,
		func(context.Context) error {
			calls++
			return errors.New("transient")
		})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "cancelled before the backoff sleep completes")
}

func TestWithRetriesZeroAttemptsStillTriesOnce(t *testing.T) {
	calls := 0
	err := withRetries(context.Background(), "test", 0, 0, ErrTrendFetchExhausted, nil,
		func(context.Context) error {
			calls++
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

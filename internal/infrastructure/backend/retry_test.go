package backend

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoStopsOnFirstSuccess(t *testing.T) {
	policy := NewRetryPolicy(3, time.Millisecond, 10*time.Millisecond)

	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return http.StatusOK, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesServerErrors(t *testing.T) {
	policy := NewRetryPolicy(3, time.Millisecond, 10*time.Millisecond)

	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return http.StatusInternalServerError, nil
		}
		return http.StatusOK, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	policy := NewRetryPolicy(3, time.Millisecond, 10*time.Millisecond)

	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return http.StatusBadGateway, nil
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	policy := NewRetryPolicy(3, time.Millisecond, 10*time.Millisecond)

	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return http.StatusNotFound, nil
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesThrottling(t *testing.T) {
	policy := NewRetryPolicy(2, time.Millisecond, 10*time.Millisecond)

	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return http.StatusTooManyRequests, nil
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestDoHonorsContextCancellation(t *testing.T) {
	policy := NewRetryPolicy(5, 100*time.Millisecond, time.Second)

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	errCh := make(chan error, 1)
	go func() {
		errCh <- policy.Do(ctx, func(ctx context.Context) (int, error) {
			calls++
			return 0, errors.New("transport down")
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	err := <-errCh
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNoRetrySingleAttempt(t *testing.T) {
	policy := NoRetry()

	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return http.StatusInternalServerError, nil
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(ErrTimeout))
	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.False(t, IsTimeout(errors.New("other")))
}

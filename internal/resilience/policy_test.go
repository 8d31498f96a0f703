package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), SingleRetry(time.Second, time.Millisecond), func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesOnceThenSucceeds(t *testing.T) {
	calls := 0
	var retried []int
	policy := SingleRetry(time.Second, time.Millisecond)
	policy.OnRetry = func(attempt int, err error) { retried = append(retried, attempt) }

	got, err := Do(context.Background(), policy, func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []int{1}, retried)
}

func TestDo_GivesUpAfterSingleRetry(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), SingleRetry(time.Second, time.Millisecond), func(context.Context) (int, error) {
		calls++
		return 0, errors.New("still down")
	})
	require.EqualError(t, err, "still down")
	assert.Equal(t, 2, calls)
}

func TestDo_SkipsNonRetryableErrors(t *testing.T) {
	permanent := errors.New("bad request")
	policy := SingleRetry(time.Second, time.Millisecond)
	policy.Retryable = func(err error) bool { return !errors.Is(err, permanent) }

	calls := 0
	_, err := Do(context.Background(), policy, func(context.Context) (int, error) {
		calls++
		return 0, permanent
	})
	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDo_AppliesPerAttemptTimeout(t *testing.T) {
	policy := Policy{Timeout: 10 * time.Millisecond}
	_, err := Do(context.Background(), policy, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDo_StopsWhenCallerCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Do(ctx, SingleRetry(0, time.Hour), func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("failed")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestPolicyDelayDoubles(t *testing.T) {
	p := Policy{Backoff: 100 * time.Millisecond}
	assert.Equal(t, 100*time.Millisecond, p.delay(1))
	assert.Equal(t, 200*time.Millisecond, p.delay(2))
	assert.Equal(t, time.Duration(0), Policy{}.delay(3))
}

func TestDo_DoesNotRetryPermanentErrors(t *testing.T) {
	base := errors.New("bad request")
	calls := 0
	_, err := Do(context.Background(), SingleRetry(time.Second, time.Millisecond), func(context.Context) (int, error) {
		calls++
		return 0, Permanent(base)
	})
	require.ErrorIs(t, err, base)
	assert.True(t, IsPermanent(err))
	assert.Equal(t, 1, calls)

	assert.Nil(t, Permanent(nil))
	assert.False(t, IsPermanent(base))
}

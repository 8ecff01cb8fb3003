package retrylimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusErr int

func (s statusErr) Error() string   { return "status" }
func (s statusErr) StatusCode() int { return int(s) }

func fast(attempts int) Policy {
	return Policy{Attempts: attempts, Backoff: time.Millisecond, RateLimitWait: time.Millisecond}
}

func TestDoSucceedsEventually(t *testing.T) {
	calls := 0
	err := fast(5).Do(context.Background(), nil, func() error {
		calls++
		if calls < 3 {
			return statusErr(503)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnFatal(t *testing.T) {
	boom := errors.New("bad request")
	calls := 0
	err := fast(5).Do(context.Background(), nil, func() error {
		calls++
		return Fatal(boom)
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestDoGivesUp(t *testing.T) {
	var retried []int
	p := fast(3)
	p.OnRetry = func(attempt int, _ error) { retried = append(retried, attempt) }

	err := p.Do(context.Background(), nil, func() error {
		return errors.New("still queued")
	})

	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, []int{1, 2, 3}, retried)
}

func TestRateLimitSlowsLimiter(t *testing.T) {
	lim := NewAdaptiveLimiter(1000, 1, 1000, 0, 0.5)
	calls := 0
	err := fast(2).Do(context.Background(), lim, func() error {
		calls++
		if calls == 1 {
			return statusErr(429)
		}
		return nil
	})

	require.NoError(t, err)
	assert.InDelta(t, 500.0, lim.Limit(), 0.001)
}

func TestLimiterAdjustsWithinBounds(t *testing.T) {
	lim := NewAdaptiveLimiter(4, 1, 4, 1, 0.5)

	lim.Slowdown()
	assert.InDelta(t, 2.0, lim.Limit(), 0.001)
	lim.Slowdown()
	lim.Slowdown()
	assert.InDelta(t, 1.0, lim.Limit(), 0.001)

	// no speed up right after a slowdown
	lim.Success()
	assert.InDelta(t, 1.0, lim.Limit(), 0.001)
}

func TestDoRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := DefaultPolicy().Do(ctx, nil, func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

// Package retrylimit paces calls to rate limited HTTP APIs and retries the
// ones that fail transiently.
//
//	lim := retrylimit.NewAdaptiveLimiter(rate.Every(15*time.Second), rate.Every(time.Minute), rate.Every(15*time.Second), 0, 0.5)
//	err := retrylimit.DefaultPolicy().Do(ctx, lim, func() error {
//	    return callAPI()
//	})
//
// Errors implementing StatusCoder drive the pacing: a 429 halves the limiter
// and waits RateLimitWait, a 5xx slows the limiter and backs off.
package retrylimit

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// quietPeriod is how long after a slowdown successes stop speeding up.
const quietPeriod = 10 * time.Second

// AdaptiveLimiter is a token bucket whose rate moves between lo and hi: up by
// a fixed step on success, down by a factor on overload.
type AdaptiveLimiter struct {
	mu       sync.Mutex
	bucket   *rate.Limiter
	lo, hi   rate.Limit
	step     rate.Limit
	factor   float64
	slowedAt time.Time
}

// NewAdaptiveLimiter starts at initial, clamped to [lo, hi].
func NewAdaptiveLimiter(initial, lo, hi, step rate.Limit, factor float64) *AdaptiveLimiter {
	if lo <= 0 {
		lo = rate.Every(10 * time.Second)
	}
	initial = min(max(initial, lo), hi)
	return &AdaptiveLimiter{
		bucket: rate.NewLimiter(initial, burst(initial)),
		lo:     lo,
		hi:     hi,
		step:   step,
		factor: factor,
	}
}

func burst(l rate.Limit) int { return max(1, int(l)) }

// Wait blocks for a token or until ctx is done.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.bucket.Wait(ctx)
}

func (a *AdaptiveLimiter) Success() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if time.Since(a.slowedAt) > quietPeriod {
		a.set(a.bucket.Limit() + a.step)
	}
}

func (a *AdaptiveLimiter) Slowdown() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.slowedAt = time.Now()
	a.set(rate.Limit(float64(a.bucket.Limit()) * a.factor))
}

// Limit is the current rate in events per second.
func (a *AdaptiveLimiter) Limit() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return float64(a.bucket.Limit())
}

func (a *AdaptiveLimiter) set(l rate.Limit) {
	l = min(max(l, a.lo), a.hi)
	if l != a.bucket.Limit() {
		a.bucket.SetLimit(l)
		a.bucket.SetBurst(burst(l))
	}
}

// StatusCoder is implemented by errors carrying an HTTP status.
type StatusCoder interface {
	error
	StatusCode() int
}

func statusOf(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return 0
}

type permanent struct{ err error }

func (p *permanent) Error() string { return p.err.Error() }
func (p *permanent) Unwrap() error { return p.err }

// Fatal marks err so Do returns it without retrying.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &permanent{err: err}
}

var ErrExhausted = errors.New("retries exhausted")

// Policy describes how Do retries.
type Policy struct {
	Attempts      int
	Backoff       time.Duration
	MaxBackoff    time.Duration
	RateLimitWait time.Duration
	Jitter        bool
	OnRetry       func(attempt int, err error)
}

func DefaultPolicy() Policy {
	return Policy{
		Attempts:      5,
		Backoff:       500 * time.Millisecond,
		MaxBackoff:    10 * time.Second,
		RateLimitWait: time.Second,
		Jitter:        true,
	}
}

// Do calls fn until it succeeds, returns a Fatal error, ctx ends or the
// attempts run out. lim may be nil. Backoff doubles after every failure.
func (p Policy) Do(ctx context.Context, lim *AdaptiveLimiter, fn func() error) error {
	attempts := max(p.Attempts, 1)
	backoff := p.Backoff
	var last error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lim != nil {
			if err := lim.Wait(ctx); err != nil {
				return err
			}
		}

		err := fn()
		if err == nil {
			if lim != nil {
				lim.Success()
			}
			return nil
		}
		var perm *permanent
		if errors.As(err, &perm) {
			return perm.err
		}
		last = err
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		if attempt == attempts {
			break
		}

		code := statusOf(err)
		if lim != nil && (code == http.StatusTooManyRequests || code >= 500) {
			lim.Slowdown()
		}
		pause := backoff
		if code == http.StatusTooManyRequests {
			pause = p.RateLimitWait
		} else {
			if p.Jitter && pause >= 4 {
				pause += time.Duration(rand.Int64N(int64(pause / 4)))
			}
			backoff *= 2
			if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
				backoff = p.MaxBackoff
			}
		}
		if err := Sleep(ctx, pause); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, last)
}

// Sleep pauses for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

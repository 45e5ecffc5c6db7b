package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/gutsytechster/comcast-bot/pkg/errors"
)

func fastConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return nil
	}, fastConfig(3))

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		if calls < 3 {
			return errs.New(errs.ErrorTypeNetwork, "connection reset")
		}
		return nil
	}, fastConfig(5))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	opErr := errs.New(errs.ErrorTypeServerError, "bad gateway")

	err := Do(func() error {
		calls++
		return opErr
	}, fastConfig(3))

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "max retry attempts (3) exceeded")
	assert.ErrorIs(t, err, opErr)
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	calls := 0
	opErr := errs.New(errs.ErrorTypeAuth, "invalid password")

	err := Do(func() error {
		calls++
		return opErr
	}, fastConfig(5))

	require.Error(t, err)
	assert.Equal(t, 1, calls, "auth errors must not be retried")
	assert.ErrorIs(t, err, opErr)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Second},
		RetryIf:     DefaultRetryIf,
		Context:     ctx,
	}

	calls := 0
	err := Do(func() error {
		calls++
		return errs.New(errs.ErrorTypeNetwork, "timeout")
	}, cfg)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	result, err := DoWithResult(func() (string, error) {
		calls++
		if calls < 2 {
			return "", errs.New(errs.ErrorTypeNetwork, "flaky")
		}
		return "bill.pdf", nil
	}, fastConfig(3))

	require.NoError(t, err)
	assert.Equal(t, "bill.pdf", result)
	assert.Equal(t, 2, calls)
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.False(t, DefaultRetryIf(context.Canceled))
	assert.False(t, DefaultRetryIf(context.DeadlineExceeded))
	assert.False(t, DefaultRetryIf(errs.New(errs.ErrorTypeParsing, "bad json")))
	assert.True(t, DefaultRetryIf(errs.New(errs.ErrorTypeRateLimit, "slow down")))
	assert.True(t, DefaultRetryIf(errors.New("something unclassified")))
}

func TestDoOnRetryCallback(t *testing.T) {
	var attempts []int
	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		attempts = append(attempts, attempt)
	}

	_ = Do(func() error {
		return errs.New(errs.ErrorTypeNetwork, "down")
	}, cfg)

	// Called before each retry wait, so all attempts except the rejected one.
	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestExponentialBackoffGrowth(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:  time.Second,
		MaxDelay:   10 * time.Second,
		Multiplier: 2.0,
	}

	assert.Equal(t, time.Duration(0), eb.NextDelay(0))
	assert.Equal(t, time.Second, eb.NextDelay(1))
	assert.Equal(t, 2*time.Second, eb.NextDelay(2))
	assert.Equal(t, 4*time.Second, eb.NextDelay(3))
	assert.Equal(t, 10*time.Second, eb.NextDelay(10), "should cap at max delay")
}

func TestExponentialBackoffJitterBounds(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:    time.Second,
		MaxDelay:     time.Minute,
		Multiplier:   2.0,
		JitterFactor: 0.5,
	}

	for i := 0; i < 100; i++ {
		delay := eb.NextDelay(2)
		assert.GreaterOrEqual(t, delay, time.Second)
		assert.LessOrEqual(t, delay, 3*time.Second)
	}
}

func TestLinearBackoff(t *testing.T) {
	lb := &LinearBackoff{
		BaseDelay: time.Second,
		Increment: time.Second,
		MaxDelay:  3 * time.Second,
	}

	assert.Equal(t, time.Second, lb.NextDelay(1))
	assert.Equal(t, 2*time.Second, lb.NextDelay(2))
	assert.Equal(t, 3*time.Second, lb.NextDelay(3))
	assert.Equal(t, 3*time.Second, lb.NextDelay(5), "should cap at max delay")
}

func TestErrorTypeBackoffSelection(t *testing.T) {
	etb := NewErrorTypeBackoff()

	assert.Same(t, etb.RateLimitBackoff, etb.GetBackoffForError("rate_limit"))
	assert.Same(t, etb.NetworkErrorBackoff, etb.GetBackoffForError("network"))
	assert.Same(t, etb.ServerErrorBackoff, etb.GetBackoffForError("server_error"))
	assert.Same(t, etb.DefaultBackoff, etb.GetBackoffForError("auth"))
}

func TestRateLimitBackoffLongerThanDefault(t *testing.T) {
	etb := NewErrorTypeBackoff()

	rateLimit := etb.RateLimitBackoff.NextDelay(1)
	standard := etb.DefaultBackoff.NextDelay(1)
	assert.Greater(t, rateLimit, standard, "rate limit stalls need far longer delays")
}

func TestWaitCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Wait(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)

	// Zero delay never blocks regardless of context state.
	assert.NoError(t, Wait(ctx, 0))
}

func TestDoBackoffForAppliesToClassifyingAttempt(t *testing.T) {
	rateLimitBackoff := &ConstantBackoff{Delay: 60 * time.Millisecond}

	cfg := fastConfig(3)
	cfg.BackoffFor = func(err error) BackoffStrategy {
		var portalErr *errs.Error
		if errors.As(err, &portalErr) && portalErr.Type == errs.ErrorTypeRateLimit {
			return rateLimitBackoff
		}
		return nil
	}

	start := time.Now()
	err := Do(func() error {
		return errs.New(errs.ErrorTypeRateLimit, "portal stalled")
	}, cfg)
	elapsed := time.Since(start)

	require.Error(t, err)
	// Three failed attempts, each waiting on the rate-limit curve: the
	// very first failure must already use the long delay, not the 1ms
	// default.
	assert.GreaterOrEqual(t, elapsed, 120*time.Millisecond,
		"rate-limit delays must apply within the run that classified the error")
}

func TestDoBackoffForNilKeepsDefault(t *testing.T) {
	cfg := fastConfig(3)
	cfg.BackoffFor = func(err error) BackoffStrategy { return nil }

	start := time.Now()
	err := Do(func() error {
		return errs.New(errs.ErrorTypeNetwork, "down")
	}, cfg)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Less(t, elapsed, 100*time.Millisecond, "nil selection keeps the configured backoff")
}

func TestDoBackoffForReportsSelectedDelay(t *testing.T) {
	rateLimitBackoff := &ConstantBackoff{Delay: 5 * time.Millisecond}

	var delays []time.Duration
	cfg := fastConfig(2)
	cfg.BackoffFor = func(err error) BackoffStrategy { return rateLimitBackoff }
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		delays = append(delays, delay)
	}

	_ = Do(func() error {
		return errs.New(errs.ErrorTypeRateLimit, "portal stalled")
	}, cfg)

	require.Len(t, delays, 2)
	for _, d := range delays {
		assert.Equal(t, 5*time.Millisecond, d, "OnRetry must see the delay actually waited")
	}
}

// Package retry provides exponential backoff and retry logic for handling
// transient failures in network operations, particularly for portal calls.
//
// Features:
//   - Multiple backoff strategies (exponential, linear, constant)
//   - Jitter to avoid thundering herd problems
//   - Context support for cancellation
//   - Error-type specific backoff strategies
//   - Configurable retry predicates
//   - Integration with the portal error taxonomy
//
// Basic usage:
//
//	// Simple retry with defaults
//	err := retry.Do(func() error {
//		return session.Login(ctx)
//	}, nil)
//
//	// Custom configuration
//	cfg := &retry.Config{
//		MaxAttempts: 5,
//		Backoff: &retry.ExponentialBackoff{
//			BaseDelay:    2 * time.Second,
//			MaxDelay:     30 * time.Second,
//			Multiplier:   2.0,
//			JitterFactor: 0.1,
//		},
//		RetryIf: retry.DefaultRetryIf,
//		Logger:  logger.GetLogger(),
//	}
//	err := retry.Do(operation, cfg)
//
// Error Type Handling:
//
// Config.BackoffFor lets a failure select its own backoff curve. The hook
// runs before the delay for that failure is computed, so for example a
// rate-limit error waits on a long rate-limit curve immediately instead of
// on the default one:
//
//	etb := retry.NewErrorTypeBackoff()
//	cfg.BackoffFor = func(err error) retry.BackoffStrategy {
//		var portalErr *errs.Error
//		if errors.As(err, &portalErr) && portalErr.Type == errs.ErrorTypeRateLimit {
//			return etb.RateLimitBackoff
//		}
//		return nil
//	}
//
// Auth, not-found and config errors are non-retryable under DefaultRetryIf
// and fail immediately.
package retry

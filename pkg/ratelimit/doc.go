// Package ratelimit paces operations against the portal.
//
// The portal throttles repeated login attempts within a short window and
// tolerates only modest billing API call rates, so the fetcher spaces its
// own traffic below those limits rather than tripping them and leaning on
// retries.
//
// Two limiters cover the two kinds of traffic:
//
//   - Pacer spaces billing API calls at a steady interval derived from a
//     per-minute budget.
//   - LoginWindow bounds login attempts within a rolling window, blocking
//     further attempts until the oldest one has aged out.
//
// Both implement Limiter: Wait blocks until the next operation may proceed
// or the context is cancelled, Reset clears the recorded state.
package ratelimit

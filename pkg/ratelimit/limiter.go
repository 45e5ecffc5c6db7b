package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter blocks until the next operation may proceed
type Limiter interface {
	// Wait blocks until the rate limit allows another operation or the
	// context is cancelled
	Wait(ctx context.Context) error
	// Reset clears the limiter state
	Reset()
}

// Pacer spaces operations at a steady interval. Each call reserves the
// slot after the previously reserved one, so a burst of callers is spread
// out evenly instead of being released all at once.
type Pacer struct {
	interval time.Duration

	mu   sync.Mutex
	next time.Time
}

// NewPacer creates a pacer allowing perMinute operations per minute
func NewPacer(perMinute int) *Pacer {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &Pacer{
		interval: time.Minute / time.Duration(perMinute),
	}
}

// Wait blocks until this caller's reserved slot arrives
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	now := time.Now()
	if p.next.Before(now) {
		p.next = now
	}
	wait := p.next.Sub(now)
	p.next = p.next.Add(p.interval)
	p.mu.Unlock()

	return sleep(ctx, wait)
}

// Reset forgets the reserved slots so the next call proceeds immediately
func (p *Pacer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next = time.Time{}
}

// LoginWindow bounds the number of login attempts within a rolling window.
// The portal rate-limits repeated logins; retrying inside its window only
// extends the lockout, so attempts beyond the budget block until the
// oldest one has aged out.
type LoginWindow struct {
	window      time.Duration
	maxAttempts int

	mu       sync.Mutex
	attempts []time.Time
}

// NewLoginWindow creates a limiter allowing maxAttempts logins per window
func NewLoginWindow(maxAttempts int, window time.Duration) *LoginWindow {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &LoginWindow{
		window:      window,
		maxAttempts: maxAttempts,
		attempts:    make([]time.Time, 0, maxAttempts),
	}
}

// Wait blocks until an attempt is allowed, then records it
func (w *LoginWindow) Wait(ctx context.Context) error {
	for {
		w.mu.Lock()
		now := time.Now()
		w.prune(now)

		if len(w.attempts) < w.maxAttempts {
			w.attempts = append(w.attempts, now)
			w.mu.Unlock()
			return nil
		}

		// Wait for the oldest attempt to leave the window
		wait := w.attempts[0].Add(w.window).Sub(now)
		w.mu.Unlock()

		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Reset forgets all recorded attempts
func (w *LoginWindow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.attempts = w.attempts[:0]
}

// prune drops attempts older than the window. Caller holds the lock.
func (w *LoginWindow) prune(now time.Time) {
	cutoff := now.Add(-w.window)

	i := 0
	for i < len(w.attempts) && w.attempts[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		copy(w.attempts, w.attempts[i:])
		w.attempts = w.attempts[:len(w.attempts)-i]
	}
}

// sleep waits for the given duration or until the context is cancelled
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

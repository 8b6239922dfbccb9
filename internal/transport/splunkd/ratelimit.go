package splunkd

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxRetryAfter caps the pause requested by a 429 response.
const maxRetryAfter = 30 * time.Second

// RateLimitConfig bounds the request rate to the backend.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate. Zero or less means unlimited.
	RequestsPerSecond float64
	// Burst is the token bucket size. Defaults to 1.
	Burst int
}

// rateLimiter is a token bucket that also honours Retry-After from 429 responses.
type rateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	limit, burst := rate.Inf, cfg.Burst
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{limiter: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a request may be sent.
func (r *rateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("rate limit wait: %w", ctx.Err())
		case <-timer.C:
		}
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

// backOff pauses all requests for d. Without a hint only the retry backoff applies.
func (r *rateLimiter) backOff(d time.Duration) {
	if d <= 0 {
		return
	}
	if d > maxRetryAfter {
		d = maxRetryAfter
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if at := time.Now().Add(d); at.After(r.retryAt) {
		r.retryAt = at
	}
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(h http.Header) time.Duration {
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

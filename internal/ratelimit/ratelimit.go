package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/amishk599/coldmail/internal/model"
)

// HostRateLimiter enforces a minimum delay between requests to the same host.
// A zero minDelay disables it.
type HostRateLimiter struct {
	mu       sync.Mutex
	lastCall map[string]time.Time // key: lower-cased host
	minDelay time.Duration
}

// NewHostRateLimiter creates a rate limiter that enforces minDelay between
// consecutive requests to the same host.
func NewHostRateLimiter(minDelay time.Duration) *HostRateLimiter {
	return &HostRateLimiter{
		lastCall: make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until enough time has passed since the last request to host.
// Returns an error if the context is cancelled while waiting.
func (r *HostRateLimiter) Wait(ctx context.Context, host string) error {
	if r.minDelay <= 0 {
		return nil
	}

	r.mu.Lock()
	last, ok := r.lastCall[host]
	now := time.Now()

	if !ok || now.Sub(last) >= r.minDelay {
		r.lastCall[host] = now
		r.mu.Unlock()
		return nil
	}

	remaining := r.minDelay - now.Sub(last)
	// Reserve the slot so concurrent callers queue behind this one.
	r.lastCall[host] = now.Add(remaining)
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", host, ctx.Err())
	case <-time.After(remaining):
	}
	return nil
}

// RateLimitedFetcher is a decorator that enforces per-host rate limiting
// before delegating to the wrapped PageFetcher.
type RateLimitedFetcher struct {
	inner   model.PageFetcher
	limiter *HostRateLimiter
}

var _ model.PageFetcher = (*RateLimitedFetcher)(nil)

// NewRateLimitedFetcher wraps a PageFetcher with per-host rate limiting.
func NewRateLimitedFetcher(inner model.PageFetcher, limiter *HostRateLimiter) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		inner:   inner,
		limiter: limiter,
	}
}

// Fetch waits for the limiter to allow a request to the URL's host, then delegates.
// URLs that do not parse are passed straight through so the inner fetcher reports the error.
func (f *RateLimitedFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		if err := f.limiter.Wait(ctx, strings.ToLower(u.Host)); err != nil {
			return "", err
		}
	}
	return f.inner.Fetch(ctx, rawURL)
}

package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestWait_SameHost_EnforcesMinDelay(t *testing.T) {
	limiter := NewHostRateLimiter(100 * time.Millisecond)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "boards.example.com"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "boards.example.com"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	// Allow 20ms for timer jitter.
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestWait_DifferentHosts_NoCrossBlocking(t *testing.T) {
	limiter := NewHostRateLimiter(200 * time.Millisecond)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "a.example.com"); err != nil {
		t.Fatalf("first host wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "b.example.com"); err != nil {
		t.Fatalf("second host wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected near-instant wait for a different host, got %v", elapsed)
	}
}

func TestWait_ZeroDelayDisabled(t *testing.T) {
	limiter := NewHostRateLimiter(0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := limiter.Wait(ctx, "example.com"); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("disabled limiter should not wait, took %v", elapsed)
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	limiter := NewHostRateLimiter(5 * time.Second)

	if err := limiter.Wait(context.Background(), "example.com"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Wait(ctx, "example.com"); err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
}

type recordingFetcher struct {
	called bool
	url    string
}

func (f *recordingFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.called = true
	f.url = url
	return "text", nil
}

func TestRateLimitedFetcher_WaitsBeforeDelegating(t *testing.T) {
	limiter := NewHostRateLimiter(100 * time.Millisecond)
	inner := &recordingFetcher{}
	fetcher := NewRateLimitedFetcher(inner, limiter)
	ctx := context.Background()

	if _, err := fetcher.Fetch(ctx, "https://jobs.example.com/1"); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if !inner.called {
		t.Fatal("inner fetcher was not called on first fetch")
	}

	inner.called = false

	start := time.Now()
	if _, err := fetcher.Fetch(ctx, "https://JOBS.example.com/2"); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	elapsed := time.Since(start)

	if !inner.called || inner.url != "https://JOBS.example.com/2" {
		t.Fatalf("inner fetcher not called with the original url, got %q", inner.url)
	}
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait on second fetch to the same host, got %v", elapsed)
	}
}

func TestRateLimitedFetcher_UnparseableURLPassesThrough(t *testing.T) {
	inner := &recordingFetcher{}
	fetcher := NewRateLimitedFetcher(inner, NewHostRateLimiter(time.Hour))

	if _, err := fetcher.Fetch(context.Background(), "not a url"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !inner.called {
		t.Fatal("inner fetcher should still be called")
	}
}

package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/amishk599/coldmail/internal/model"
)

// RetryFetcher is a decorator that retries transient page-fetch failures with
// exponential backoff and jitter before delegating to the wrapped PageFetcher.
// With maxRetries == 0 every failure is returned as-is.
type RetryFetcher struct {
	inner      model.PageFetcher
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

var _ model.PageFetcher = (*RetryFetcher)(nil)

// NewRetryFetcher wraps a PageFetcher with retry logic.
// maxRetries is the number of additional attempts after the first failure.
// baseDelay is the delay before the first retry, doubled on each subsequent retry.
func NewRetryFetcher(inner model.PageFetcher, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetryFetcher {
	return &RetryFetcher{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// Fetch fetches url, retrying transient failures up to maxRetries times.
func (f *RetryFetcher) Fetch(ctx context.Context, url string) (string, error) {
	for attempt := 0; ; attempt++ {
		text, err := f.inner.Fetch(ctx, url)
		if err == nil {
			return text, nil
		}
		if attempt >= f.maxRetries || !isRetryable(err) {
			return "", err
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("retry cancelled: %w", ctx.Err())
		}

		delay := f.backoffDelay(attempt+1, err)
		f.logger.Warn("retrying page fetch",
			"url", url,
			"attempt", attempt+1,
			"max_retries", f.maxRetries,
			"delay", delay,
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// backoffDelay is baseDelay doubled per attempt with +/-30% jitter, unless the
// server named a Retry-After.
func (f *RetryFetcher) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	delay := f.baseDelay << (attempt - 1)
	jitter := (rand.Float64()*2 - 1) * 0.3 * float64(delay)
	return delay + time.Duration(jitter)
}

// isRetryable reports whether err is a transient failure: network errors
// (client timeouts included), 429 and 5xx. A page without job text is final.
// Cancellation of the caller's context is checked separately in Fetch.
func isRetryable(err error) bool {
	if err == nil || errors.Is(err, model.ErrJobTextNotFound) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}

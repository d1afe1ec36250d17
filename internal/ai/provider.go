package ai

import (
	"context"
	"time"
)

// LLMProvider sends a prompt to an LLM and returns the raw text response.
// Implementations pin sampling temperature to zero.
type LLMProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// timeoutProvider bounds every Complete call with a fixed timeout.
type timeoutProvider struct {
	inner   LLMProvider
	timeout time.Duration
}

// WithTimeout wraps p so each call is cancelled after timeout. A non-positive timeout returns p unchanged.
func WithTimeout(p LLMProvider, timeout time.Duration) LLMProvider {
	if timeout <= 0 {
		return p
	}
	return &timeoutProvider{inner: p, timeout: timeout}
}

func (t *timeoutProvider) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Complete(ctx, prompt)
}

// unavailableProvider fails every call. It stands in for a provider that could not be constructed.
type unavailableProvider struct {
	err error
}

// Unavailable returns a provider whose every call fails with err.
func Unavailable(err error) LLMProvider {
	return &unavailableProvider{err: err}
}

func (u *unavailableProvider) Complete(context.Context, string) (string, error) {
	return "", u.err
}

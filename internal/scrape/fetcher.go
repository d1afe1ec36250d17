// Package scrape downloads job pages and pulls out the text most likely to be the job description.
package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/amishk599/coldmail/internal/model"
)

// DefaultTimeout matches what the page fetch is allowed before giving up.
const DefaultTimeout = 10 * time.Second

// maxBodyBytes bounds how much HTML is read from a single page.
const maxBodyBytes = 8 << 20

// browserHeaders is sent with every page request so job boards serve the normal HTML page.
// Accept-Encoding is left to net/http so gzip bodies are decoded transparently.
var browserHeaders = [][2]string{
	{"User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36"},
	{"Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"},
	{"Accept-Language", "en-US,en;q=0.9"},
	{"Cache-Control", "no-cache"},
	{"Pragma", "no-cache"},
	{"Connection", "keep-alive"},
	{"Upgrade-Insecure-Requests", "1"},
	{"DNT", "1"},
	{"Referer", "https://www.google.com/"},
	{"Sec-Fetch-Dest", "document"},
	{"Sec-Fetch-Mode", "navigate"},
	{"Sec-Fetch-Site", "cross-site"},
	{"Sec-Fetch-User", "?1"},
	{"Sec-Ch-Ua", `"Google Chrome";v="119", "Chromium";v="119", "Not?A_Brand";v="24"`},
	{"Sec-Ch-Ua-Mobile", "?0"},
}

// Fetcher implements model.PageFetcher over plain HTTP.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

var _ model.PageFetcher = (*Fetcher)(nil)

// NewFetcher returns a fetcher using client. client should carry the page timeout.
func NewFetcher(client *http.Client, logger *slog.Logger) *Fetcher {
	return &Fetcher{client: client, logger: logger}
}

// NewHTTPClient returns an http.Client with the given page timeout (DefaultTimeout if zero).
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Fetch downloads url and returns the job text found on it.
// Non-2xx responses come back as *model.HTTPError; pages with too little job text
// return model.ErrJobTextNotFound.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	for _, h := range browserHeaders {
		req.Header.Set(h[0], h[1])
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch %s: %w", url, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("fetch %s: read body: %w", url, err)
	}

	text := ExtractJobText(string(body))
	f.logger.Debug("extracted job text", "url", url, "html_bytes", len(body), "text_chars", utf8.RuneCountInString(text))

	if utf8.RuneCountInString(text) < model.MinJobTextLength {
		return "", model.ErrJobTextNotFound
	}
	return text, nil
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

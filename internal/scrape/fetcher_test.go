package scrape

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/coldmail/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var jobText = strings.Repeat("We are hiring a backend engineer to build Go services. ", 4)

func serveHTML(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_ReturnsJobContainerText(t *testing.T) {
	html := `<html><body><nav>Menu</nav><div class="job-desc">` + jobText + `</div></body></html>`
	srv := serveHTML(t, http.StatusOK, html)

	f := NewFetcher(srv.Client(), discardLogger())
	got, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(jobText), got)
}

func TestFetch_SendsBrowserHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`<p>` + jobText + `</p>`))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), discardLogger())
	_, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Len(t, browserHeaders, 15)
	for _, h := range browserHeaders {
		if h[0] == "Connection" {
			continue // hop-by-hop, consumed by the server
		}
		assert.Equal(t, h[1], got.Get(h[0]), "header %s", h[0])
	}
	assert.Contains(t, got.Get("User-Agent"), "Chrome/119")
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), discardLogger())
	text, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Empty(t, text)

	var httpErr *model.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	assert.Equal(t, 7*time.Second, httpErr.RetryAfter)
	assert.False(t, errors.Is(err, model.ErrJobTextNotFound))
}

func TestFetch_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := NewFetcher(&http.Client{Timeout: time.Second}, discardLogger())
	_, err := f.Fetch(context.Background(), url)
	require.Error(t, err)
	assert.False(t, errors.Is(err, model.ErrJobTextNotFound))
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	f := NewFetcher(&http.Client{Timeout: 50 * time.Millisecond}, discardLogger())
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestFetch_TooShortIsNotFound(t *testing.T) {
	srv := serveHTML(t, http.StatusOK, `<html><body><p>Apply now.</p></body></html>`)

	f := NewFetcher(srv.Client(), discardLogger())
	text, err := f.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, model.ErrJobTextNotFound)
	assert.Empty(t, text)
}

func TestFetch_NoContainersNoParagraphsIsNotFound(t *testing.T) {
	html := `<html><body><span>` + jobText + `</span><div class="header">` + jobText + `</div></body></html>`
	srv := serveHTML(t, http.StatusOK, html)

	f := NewFetcher(srv.Client(), discardLogger())
	_, err := f.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, model.ErrJobTextNotFound)
}

func TestFetch_InvalidURL(t *testing.T) {
	f := NewFetcher(NewHTTPClient(0), discardLogger())
	_, err := f.Fetch(context.Background(), "://bad")
	require.Error(t, err)
}

func TestNewHTTPClient_DefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, NewHTTPClient(0).Timeout)
	assert.Equal(t, 3*time.Second, NewHTTPClient(3*time.Second).Timeout)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 120*time.Second, parseRetryAfter("120"))
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))
}

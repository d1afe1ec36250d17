package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amishk599/coldmail/internal/ai"
	"github.com/amishk599/coldmail/internal/config"
	"github.com/amishk599/coldmail/internal/model"
	"github.com/amishk599/coldmail/internal/store"
)

func TestExitCode(t *testing.T) {
	cases := map[model.Status]int{
		model.StatusOK:          0,
		model.StatusMissingURL:  0,
		model.StatusNotFound:    0,
		model.StatusFetchFailed: 1,
		model.StatusNoJobs:      1,
	}
	for status, want := range cases {
		if got := exitCode(status); got != want {
			t.Errorf("exitCode(%s) = %d, want %d", status, got, want)
		}
	}
}

func TestWriteResultText(t *testing.T) {
	var buf bytes.Buffer
	r := &model.Result{
		Status:  model.StatusOK,
		Message: "Cold email generated.",
		Preview: "Hiring a Go engineer",
		Jobs:    []any{map[string]any{"role": "Engineer"}},
		Email:   "Dear Hiring Manager...",
	}
	if err := writeResultText(&buf, r); err != nil {
		t.Fatalf("writeResultText() = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"✅ Cold email generated.", "== Extracted Job Description ==", "Hiring a Go engineer", `"role": "Engineer"`, "== Generated Cold Email ==", "Dear Hiring Manager..."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteResultText_OnlyMessageOnWarning(t *testing.T) {
	var buf bytes.Buffer
	r := &model.Result{Status: model.StatusMissingURL, Message: "Please enter a valid job URL."}
	if err := writeResultText(&buf, r); err != nil {
		t.Fatalf("writeResultText() = %v", err)
	}
	if got := buf.String(); got != "⚠️ Please enter a valid job URL.\n" {
		t.Errorf("output = %q", got)
	}
}

func TestWriteResultJSON(t *testing.T) {
	var buf bytes.Buffer
	r := &model.Result{URL: "https://example.com", Status: model.StatusNoJobs, Message: "none"}
	if err := writeResultJSON(&buf, r); err != nil {
		t.Fatalf("writeResultJSON() = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got["status"] != "no_jobs" || got["url"] != "https://example.com" {
		t.Errorf("unexpected JSON: %v", got)
	}
}

func TestSenderFromConfig(t *testing.T) {
	def := ai.DefaultSender()

	if got := senderFromConfig(config.SenderConfig{}); got != def {
		t.Errorf("empty config = %+v, want default %+v", got, def)
	}

	got := senderFromConfig(config.SenderConfig{Name: "Ana", Company: "Acme"})
	if got.Name != "Ana" || got.Company != "Acme" {
		t.Errorf("overrides not applied: %+v", got)
	}
	if got.Title != def.Title || got.Pitch != def.Pitch {
		t.Errorf("unset fields should keep defaults: %+v", got)
	}
}

func TestGenerate_FetchFailureRecordsAndReturnsExitCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load() error: %v", err)
	}
	dbPath := filepath.Join(t.TempDir(), "history.db")
	cfg.History.Enabled = true
	cfg.History.Path = dbPath

	generateJSON = true
	t.Cleanup(func() { generateJSON = false })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if code := generate(cfg, srv.URL, logger); code != 1 {
		t.Fatalf("generate() = %d, want 1", code)
	}

	// The store was closed on return, so it can be reopened and read.
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopen history: %v", err)
	}
	defer s.Close()

	entries, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(entries) != 1 || entries[0].Status != model.StatusFetchFailed {
		t.Errorf("entries = %+v, want one fetch_failed run", entries)
	}
}

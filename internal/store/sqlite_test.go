package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/amishk599/coldmail/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordThenRecent(t *testing.T) {
	s := newTestStore(t)

	entry := model.HistoryEntry{
		URL:      "https://example.com/jobs/1",
		Status:   model.StatusOK,
		JobCount: 1,
		JobsJSON: `[{"role":"Engineer"}]`,
		Email:    "Dear Hiring Manager...",
	}
	if err := s.Record(entry); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	got := entries[0]
	if got.ID == "" {
		t.Error("expected Record to assign an ID")
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected Record to assign a timestamp")
	}
	if got.URL != entry.URL || got.Status != model.StatusOK || got.JobCount != 1 ||
		got.JobsJSON != entry.JobsJSON || got.Email != entry.Email {
		t.Errorf("entry = %+v", got)
	}
}

func TestRecordKeepsGivenID(t *testing.T) {
	s := newTestStore(t)

	if err := s.Record(model.HistoryEntry{ID: "fixed-id", URL: "u", Status: model.StatusNoJobs, JobsJSON: "[]"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Record(model.HistoryEntry{ID: "fixed-id", URL: "u", Status: model.StatusNoJobs, JobsJSON: "[]"}); err == nil {
		t.Error("expected duplicate ID to fail")
	}
}

func TestRecentNewestFirstAndLimited(t *testing.T) {
	s := newTestStore(t)

	base := time.Now().Add(-time.Hour)
	for i, url := range []string{"first", "second", "third"} {
		err := s.Record(model.HistoryEntry{
			URL:       url,
			Status:    model.StatusOK,
			JobsJSON:  "[]",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Record %s: %v", url, err)
		}
	}

	entries, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].URL != "third" || entries[1].URL != "second" {
		t.Errorf("order = %s, %s; want third, second", entries[0].URL, entries[1].URL)
	}
}

func TestRecentEmpty(t *testing.T) {
	s := newTestStore(t)

	entries, err := s.Recent(5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestCleanupRemovesOldKeepsFresh(t *testing.T) {
	s := newTestStore(t)

	old := model.HistoryEntry{URL: "old", Status: model.StatusOK, JobsJSON: "[]", CreatedAt: time.Now().Add(-48 * time.Hour)}
	if err := s.Record(old); err != nil {
		t.Fatalf("Record old: %v", err)
	}
	if err := s.Record(model.HistoryEntry{URL: "fresh", Status: model.StatusOK, JobsJSON: "[]"}); err != nil {
		t.Fatalf("Record fresh: %v", err)
	}

	// Cleanup anything older than 24 hours.
	if err := s.Cleanup(24 * time.Hour); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	entries, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 || entries[0].URL != "fresh" {
		t.Errorf("entries after cleanup = %+v, want only fresh", entries)
	}
}

func TestNopStore(t *testing.T) {
	var s model.HistoryStore = NewNopStore()

	if err := s.Record(model.HistoryEntry{URL: "u"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	entries, err := s.Recent(10)
	if err != nil || len(entries) != 0 {
		t.Errorf("Recent = %v, %v; want nothing", entries, err)
	}
}

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/amishk599/coldmail/internal/model"
)

// SQLiteStore keeps a history of pipeline runs in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the
// history table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS history (
		id         TEXT PRIMARY KEY,
		url        TEXT NOT NULL,
		status     TEXT NOT NULL,
		job_count  INTEGER NOT NULL,
		jobs_json  TEXT NOT NULL,
		email      TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Record stores a finished run. A missing ID or timestamp is filled in.
func (s *SQLiteStore) Record(entry model.HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(
		`INSERT INTO history (id, url, status, job_count, jobs_json, email, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.URL, string(entry.Status), entry.JobCount, entry.JobsJSON, entry.Email,
		entry.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", entry.ID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *SQLiteStore) Recent(limit int) ([]model.HistoryEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, url, status, job_count, jobs_json, email, created_at
		 FROM history ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var (
			e       model.HistoryEntry
			status  string
			created int64
		)
		if err := rows.Scan(&e.ID, &e.URL, &status, &e.JobCount, &e.JobsJSON, &e.Email, &created); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.Status = model.Status(status)
		e.CreatedAt = time.Unix(0, created)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history rows: %w", err)
	}
	return entries, nil
}

// Cleanup deletes runs older than the given duration.
func (s *SQLiteStore) Cleanup(olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	_, err := s.db.Exec("DELETE FROM history WHERE created_at < ?", cutoff.UnixNano())
	if err != nil {
		return fmt.Errorf("cleaning up history older than %v: %w", olderThan, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

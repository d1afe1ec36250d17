package store

import (
	"time"

	"github.com/amishk599/coldmail/internal/model"
)

// NopStore is used when history is disabled. Nothing is written and nothing is returned.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) Record(entry model.HistoryEntry) error { return nil }
func (s *NopStore) Recent(limit int) ([]model.HistoryEntry, error) { return nil, nil }
func (s *NopStore) Cleanup(olderThan time.Duration) error { return nil }

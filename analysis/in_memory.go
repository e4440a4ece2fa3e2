package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ErrNotFound is returned by Get for unknown analysis ids.
var ErrNotFound = fmt.Errorf("analysis record not found")

// InMemoryStore is a map-backed RecordStore for tests and local runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	// now is swappable for deterministic timestamps in tests.
	now func() time.Time
}

// NewInMemoryStore constructs an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: map[string]Record{},
		now:     time.Now,
	}
}

// Apply merges the non-empty fields of u into the record.
func (s *InMemoryStore) Apply(_ context.Context, analysisID string, u Update) error {
	if analysisID == "" {
		return fmt.Errorf("analysis id must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.records[analysisID]
	rec.AnalysisID = analysisID
	rec.LastUpdatedTimestamp = s.now().UTC().Format(time.RFC3339)

	if u.Status != "" {
		rec.Status = u.Status
	}
	if u.ErrorDetails != "" {
		rec.ErrorDetails = u.ErrorDetails
	}
	if u.S3Key != "" {
		rec.S3Key = u.S3Key
	}
	if u.FileName != "" {
		rec.FileName = u.FileName
	}
	if u.UserID != "" {
		rec.UserID = u.UserID
	}
	if u.UserSelectedState != "" {
		rec.UserSelectedState = u.UserSelectedState
	}

	s.records[analysisID] = rec

	return nil
}

// Get returns the stored record for analysisID.
func (s *InMemoryStore) Get(analysisID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[analysisID]
	if !ok {
		return Record{}, ErrNotFound
	}

	return rec, nil
}

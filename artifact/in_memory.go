package artifact

import (
	"sort"
	"sync"
)

// InMemoryStore keeps conversation artifacts (scraped pages, generated
// images, extracted document text) in process memory, scoped per session.
// It backs tests, examples and single-process runs; durable deployments use
// the S3 store instead. Bytes are copied on both save and read so callers
// can never mutate stored data through a shared slice.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string][]byte
}

// NewInMemoryStore returns an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]map[string][]byte)}
}

// Save stores or overwrites the artifact bytes under the session.
func (s *InMemoryStore) Save(sessionID, artifactID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	artifacts, ok := s.sessions[sessionID]
	if !ok {
		artifacts = make(map[string][]byte)
		s.sessions[sessionID] = artifacts
	}

	artifacts[artifactID] = cloneBytes(data)

	return nil
}

// Get returns a copy of the artifact bytes, or ErrNotFound.
func (s *InMemoryStore) Get(sessionID, artifactID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.sessions[sessionID][artifactID]
	if !ok {
		return nil, ErrNotFound
	}

	return cloneBytes(data), nil
}

// List returns the session's artifact ids in lexical order, matching the
// listing order of the S3 store.
func (s *InMemoryStore) List(sessionID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	artifacts := s.sessions[sessionID]

	ids := make([]string, 0, len(artifacts))
	for id := range artifacts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids, nil
}

// Delete removes the artifact, or returns ErrNotFound when absent.
func (s *InMemoryStore) Delete(sessionID, artifactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	artifacts, ok := s.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := artifacts[artifactID]; !ok {
		return ErrNotFound
	}

	delete(artifacts, artifactID)

	return nil
}

func cloneBytes(data []byte) []byte {
	cp := make([]byte, len(data))
	copy(cp, data)

	return cp
}

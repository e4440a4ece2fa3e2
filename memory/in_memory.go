package memory

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/groupmesh/core"
)

// ErrNotFound is returned when a note id does not exist for the session.
var ErrNotFound = fmt.Errorf("memory not found")

// note is one stored research note.
type note struct {
	id       string
	content  string
	metadata map[string]any
}

// InMemoryStore is a process-local MemoryStore holding session-scoped
// key/value memory plus append-only research notes (scrape results, findings
// participants want to recall in later turns). Search is a case-insensitive
// substring scan; every hit scores 1.0. Good enough for tests and local
// runs, not a substitute for a real retrieval index.
type InMemoryStore struct {
	mu     sync.RWMutex
	kv     map[string]map[string]any
	notes  map[string][]note
	nextID int
}

// NewInMemoryStore returns an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		kv:    make(map[string]map[string]any),
		notes: make(map[string][]note),
	}
}

// Get returns a copy of the session's key/value memory.
func (m *InMemoryStore) Get(sessionID string) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]any, len(m.kv[sessionID]))
	for k, v := range m.kv[sessionID] {
		result[k] = v
	}

	return result, nil
}

// Put merges the delta into the session's key/value memory.
func (m *InMemoryStore) Put(sessionID string, delta map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kv, ok := m.kv[sessionID]
	if !ok {
		kv = make(map[string]any)
		m.kv[sessionID] = kv
	}

	for k, v := range delta {
		kv[k] = v
	}

	return nil
}

// Search returns notes whose content contains the query, ignoring case, in
// insertion order up to limit. An empty query matches every note.
func (m *InMemoryStore) Search(sessionID string, query string, limit int) ([]core.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q := strings.ToLower(query)

	results := make([]core.SearchResult, 0, limit)
	for _, n := range m.notes[sessionID] {
		if len(results) >= limit {
			break
		}
		if q != "" && !strings.Contains(strings.ToLower(n.content), q) {
			continue
		}

		md := make(map[string]any, len(n.metadata))
		for k, v := range n.metadata {
			md[k] = v
		}

		results = append(results, core.SearchResult{
			ID:       n.id,
			Content:  n.content,
			Score:    1.0,
			Metadata: md,
		})
	}

	return results, nil
}

// Store appends a new note for the session.
func (m *InMemoryStore) Store(sessionID string, content string, metadata map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.notes[sessionID] = append(m.notes[sessionID], note{
		id:       fmt.Sprintf("note_%d", m.nextID),
		content:  content,
		metadata: metadata,
	})

	return nil
}

// Delete removes a note by id, or returns ErrNotFound.
func (m *InMemoryStore) Delete(sessionID string, memoryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	notes := m.notes[sessionID]
	for i, n := range notes {
		if n.id == memoryID {
			m.notes[sessionID] = append(notes[:i:i], notes[i+1:]...)
			return nil
		}
	}

	return ErrNotFound
}

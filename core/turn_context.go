package core

import (
	"context"
	"fmt"

	"maps"

	"github.com/hupe1980/groupmesh/logging"
)

// TurnContext carries execution state & helpers for one participant turn.
// It encapsulates the mutable, per-turn execution scope passed to a
// Participant's Respond method. It aggregates:
//
//   - The ambient cancellation Context
//   - Identifiers (SessionID, ChatID, current speaker info)
//   - Backing services (session, artifact, memory) for persistence concerns
//   - A working Session snapshot and pending StateDelta to commit
//
// State mutations performed via SetState accumulate in StateDelta until
// CommitStateDelta applies them. The conversation loop creates a fresh
// TurnContext per turn so deltas never leak between speakers.
type TurnContext struct {
	Context           context.Context
	SessionID, ChatID string
	Speaker           ParticipantInfo
	SessionStore      SessionStore
	ArtifactStore     ArtifactStore
	MemoryStore       MemoryStore
	Session           *Session
	StateDelta        map[string]any

	*loggerAdapter
}

// NewTurnContext constructs a TurnContext with an empty state delta.
func NewTurnContext(
	ctx context.Context,
	sessionID, chatID string,
	speaker ParticipantInfo,
	sess *Session,
	sessionStore SessionStore,
	artifactStore ArtifactStore,
	memoryStore MemoryStore,
	logger logging.Logger,
) *TurnContext {
	return &TurnContext{
		Context:       ctx,
		SessionID:     sessionID,
		ChatID:        chatID,
		Speaker:       speaker,
		Session:       sess,
		SessionStore:  sessionStore,
		ArtifactStore: artifactStore,
		MemoryStore:   memoryStore,
		StateDelta:    map[string]any{},
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (tc *TurnContext) Done() <-chan struct{} { return tc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (tc *TurnContext) Err() error { return tc.Context.Err() }

// GetState returns a staged (delta) value if present, else the persisted session value.
func (tc *TurnContext) GetState(k string) (any, bool) {
	if v, ok := tc.StateDelta[k]; ok {
		return v, true
	}

	if tc.Session != nil {
		return tc.Session.GetState(k)
	}

	return nil, false
}

// SetState stages a state mutation in the in-memory delta buffer.
func (tc *TurnContext) SetState(k string, v any) { tc.StateDelta[k] = v }

// ApplyStateDelta merges all pairs from d into the staged StateDelta.
func (tc *TurnContext) ApplyStateDelta(d map[string]any) {
	maps.Copy(tc.StateDelta, d)
}

// CommitStateDelta persists the accumulated StateDelta then clears the buffer.
func (tc *TurnContext) CommitStateDelta() error {
	if len(tc.StateDelta) == 0 {
		return nil
	}

	if tc.SessionStore == nil {
		return fmt.Errorf("session store not configured")
	}

	if err := tc.SessionStore.ApplyDelta(tc.SessionID, tc.StateDelta); err != nil {
		return err
	}

	tc.StateDelta = map[string]any{}

	return nil
}

// SaveArtifact stores bytes in the ArtifactStore scoped to this session.
func (tc *TurnContext) SaveArtifact(id string, data []byte) error {
	if tc.ArtifactStore == nil {
		return fmt.Errorf("artifact store not configured")
	}

	return tc.ArtifactStore.Save(tc.SessionID, id, data)
}

// GetArtifact retrieves previously saved artifact bytes.
func (tc *TurnContext) GetArtifact(id string) ([]byte, error) {
	if tc.ArtifactStore == nil {
		return nil, fmt.Errorf("artifact store not configured")
	}

	return tc.ArtifactStore.Get(tc.SessionID, id)
}

// ListArtifacts returns artifact IDs stored for the session.
func (tc *TurnContext) ListArtifacts() ([]string, error) {
	if tc.ArtifactStore == nil {
		return []string{}, nil
	}

	return tc.ArtifactStore.List(tc.SessionID)
}

// SearchMemory queries the MemoryStore for relevant content.
func (tc *TurnContext) SearchMemory(q string, limit int) ([]SearchResult, error) {
	if tc.MemoryStore == nil {
		return []SearchResult{}, nil
	}

	return tc.MemoryStore.Search(tc.SessionID, q, limit)
}

// StoreMemory appends content plus metadata to the MemoryStore.
func (tc *TurnContext) StoreMemory(content string, md map[string]any) error {
	if tc.MemoryStore == nil {
		return fmt.Errorf("memory store not configured")
	}
	return tc.MemoryStore.Store(tc.SessionID, content, md)
}

// RefreshSession reloads the session snapshot from the SessionStore.
func (tc *TurnContext) RefreshSession() error {
	if tc.SessionStore == nil {
		return fmt.Errorf("session store not configured")
	}

	s, err := tc.SessionStore.Get(tc.SessionID)
	if err != nil {
		return err
	}

	tc.Session = s

	return nil
}

// SpeakerName returns the name of the participant taking this turn.
func (tc *TurnContext) SpeakerName() string { return tc.Speaker.Name }

// SpeakerKind returns a categorization label for the participant.
func (tc *TurnContext) SpeakerKind() string { return tc.Speaker.Kind }

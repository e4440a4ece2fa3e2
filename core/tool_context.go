package core

import (
	"context"
	"fmt"

	"github.com/hupe1980/groupmesh/logging"
)

// ToolContext provides a constrained, auditable surface for tool
// implementations invoked during a participant turn. It exposes session
// state, artifact and memory helpers without handing tools the full
// TurnContext, and accumulates a state delta that is merged back into the
// turn when the tool completes.
type ToolContext struct {
	turnCtx    *TurnContext
	toolCallID string
	speaker    ParticipantInfo
	stateDelta map[string]any
	valid      bool

	*loggerAdapter
}

// NewToolContext constructs a tool context bound to a parent TurnContext
// and unique toolCallID.
func NewToolContext(turnCtx *TurnContext, toolCallID string) *ToolContext {
	return &ToolContext{
		turnCtx:       turnCtx,
		toolCallID:    toolCallID,
		speaker:       turnCtx.Speaker,
		stateDelta:    map[string]any{},
		valid:         true,
		loggerAdapter: newLoggerAdapter(turnCtx.Logger()),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.turnCtx.Context }

// SessionID returns the session ID associated with the tool invocation.
func (tc *ToolContext) SessionID() string { return tc.turnCtx.SessionID }

// ChatID returns the conversation ID associated with the tool invocation.
func (tc *ToolContext) ChatID() string { return tc.turnCtx.ChatID }

// Logger returns the logger associated with the tool invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.loggerAdapter.Logger() }

// ToolCallID returns the tool call ID associated with the invocation.
func (tc *ToolContext) ToolCallID() string { return tc.toolCallID }

// SpeakerName returns the participant name on whose turn the tool runs.
func (tc *ToolContext) SpeakerName() string { return tc.speaker.Name }

// GetState retrieves the state associated with the given key.
func (tc *ToolContext) GetState(k string) (any, bool) {
	if v, ok := tc.stateDelta[k]; ok {
		return v, true
	}
	return tc.turnCtx.GetState(k)
}

// SetState records a state mutation both on the underlying turn context
// (for immediate visibility) and in the local delta.
func (tc *ToolContext) SetState(k string, v any) {
	tc.turnCtx.SetState(k, v)
	tc.stateDelta[k] = v
}

// StateDelta returns the state mutations accumulated by this tool call.
func (tc *ToolContext) StateDelta() map[string]any { return tc.stateDelta }

// SaveArtifact persists artifact bytes scoped to the session.
func (tc *ToolContext) SaveArtifact(id string, data []byte) error {
	if tc.turnCtx.ArtifactStore == nil {
		return fmt.Errorf("artifact store not configured")
	}

	return tc.turnCtx.ArtifactStore.Save(tc.SessionID(), id, data)
}

// LoadArtifact retrieves a persisted artifact by id.
func (tc *ToolContext) LoadArtifact(id string) ([]byte, error) {
	if tc.turnCtx.ArtifactStore == nil {
		return nil, fmt.Errorf("artifact store not configured")
	}

	return tc.turnCtx.ArtifactStore.Get(tc.SessionID(), id)
}

// ListArtifacts returns artifact IDs stored for the session.
func (tc *ToolContext) ListArtifacts() ([]string, error) {
	if tc.turnCtx.ArtifactStore == nil {
		return nil, fmt.Errorf("artifact store not configured")
	}

	return tc.turnCtx.ArtifactStore.List(tc.SessionID())
}

// SearchMemory performs a recall query against the configured MemoryStore.
func (tc *ToolContext) SearchMemory(q string, limit int) ([]SearchResult, error) {
	if tc.turnCtx.MemoryStore == nil {
		return nil, fmt.Errorf("memory store not configured")
	}

	return tc.turnCtx.MemoryStore.Search(tc.SessionID(), q, limit)
}

// StoreMemory appends new content to the session's memory store with metadata.
func (tc *ToolContext) StoreMemory(content string, md map[string]any) error {
	if tc.turnCtx.MemoryStore == nil {
		return fmt.Errorf("memory store not configured")
	}

	return tc.turnCtx.MemoryStore.Store(tc.SessionID(), content, md)
}

// Transcript returns the session's conversation history as a read-only view.
func (tc *ToolContext) Transcript() Transcript {
	if tc.turnCtx.Session == nil {
		return Transcript{}
	}

	return tc.turnCtx.Session.GetTranscript()
}

// Validate performs a structural sanity check of the context.
func (tc *ToolContext) Validate() error {
	if !tc.valid || tc.turnCtx == nil || tc.turnCtx.SessionID == "" || tc.toolCallID == "" {
		return fmt.Errorf("invalid ToolContext")
	}

	return nil
}

// IsValid reports whether Validate would succeed (fast path).
func (tc *ToolContext) IsValid() bool {
	return tc.valid && tc.turnCtx != nil && tc.turnCtx.SessionID != "" && tc.toolCallID != ""
}

package testutil

import (
	"github.com/hupe1980/groupmesh/core"
)

// SessionBuilder helps construct sessions with fluent chaining for tests.
// Example:
//
//	sess := NewSessionBuilder("sess-1").State("k","v").Messages(m1, m2).Build()
type SessionBuilder struct {
	id       string
	state    map[string]any
	messages []core.Message
}

// NewSessionBuilder creates a new builder for a session with the given id.
// Use chainable methods (State, Message, Messages) then call Build.
func NewSessionBuilder(id string) *SessionBuilder {
	return &SessionBuilder{id: id, state: map[string]any{}}
}

// State sets or overwrites a state key/value pair on the resulting session (chainable).
func (b *SessionBuilder) State(key string, val any) *SessionBuilder {
	b.state[key] = val
	return b
}

// Message appends a single message to the session history (chainable).
func (b *SessionBuilder) Message(m core.Message) *SessionBuilder {
	b.messages = append(b.messages, m)
	return b
}

// Messages appends multiple messages to the session history (chainable).
func (b *SessionBuilder) Messages(msgs ...core.Message) *SessionBuilder {
	b.messages = append(b.messages, msgs...)
	return b
}

// Build returns a *core.Session with pre-populated state and messages.
func (b *SessionBuilder) Build() *core.Session {
	s := core.NewSession(b.id)

	for k, v := range b.state {
		s.State[k] = v
	}

	for _, m := range b.messages {
		s.AddMessage(m)
	}

	return s
}

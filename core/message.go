package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Part represents a polymorphic segment of message content. Concrete part
// types implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text     string         // Plain UTF-8 text
	Metadata map[string]any // Optional producer-provided metadata
}

// isPart implements the Part interface for TextPart.
func (TextPart) isPart() {}

// ToolCall describes a tool invocation request embedded in a message.
type ToolCall struct {
	ID        string `json:"id,omitempty"`        // Optional stable id (can be supplied later)
	Name      string `json:"name"`                // Registered tool name
	Arguments string `json:"arguments,omitempty"` // Serialized argument payload (JSON)
}

// ToolCallPart wraps a ToolCall as a content part.
type ToolCallPart struct {
	ToolCall ToolCall
	Metadata map[string]any
}

// isPart implements the Part interface for ToolCallPart.
func (ToolCallPart) isPart() {}

// ToolResponse describes the outcome of a tool call.
type ToolResponse struct {
	ID       string `json:"id,omitempty"`       // Matches originating ToolCall ID
	Name     string `json:"name"`               // Tool name
	Response any    `json:"response,omitempty"` // Successful result (any shape)
	Error    string `json:"error,omitempty"`    // Populated on failure
}

// ToolResponsePart wraps a ToolResponse as a content part.
type ToolResponsePart struct {
	ToolResponse ToolResponse
	Metadata     map[string]any
}

// isPart implements the Part interface for ToolResponsePart.
func (ToolResponsePart) isPart() {}

// Message is one turn of a group conversation. It is produced exactly once
// per turn and treated as immutable after it has been appended to a
// transcript. It captures:
//
//   - Correlation (ID, ChatID)
//   - Speaker identity (participant name) and conversational role
//   - Ordered heterogeneous content parts (text, tool calls, tool responses)
//   - High precision UTC timestamp
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id,omitempty"`
	Speaker   string    `json:"speaker"`
	Role      string    `json:"role"` // user, assistant or tool
	Parts     []Part    `json:"parts"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a bare message authored by 'speaker' with the given role.
// Prefer the helper constructors for common semantic categories.
func NewMessage(speaker, role string) Message {
	return Message{
		ID:        NewID(),
		Speaker:   speaker,
		Role:      role,
		Timestamp: time.Now().UTC(),
	}
}

// NewTextMessage constructs an assistant-style message with a single text part.
func NewTextMessage(speaker, text string) Message {
	m := NewMessage(speaker, "assistant")
	m.Parts = []Part{TextPart{Text: text}}
	return m
}

// NewUserMessage is a convenience wrapper for a user-authored text message.
func NewUserMessage(speaker, text string) Message {
	m := NewMessage(speaker, "user")
	m.Parts = []Part{TextPart{Text: text}}
	return m
}

// NewToolCallMessage represents a participant requesting execution of a named tool.
func NewToolCallMessage(speaker, id, toolName, args string) Message {
	m := NewMessage(speaker, "assistant")
	m.Parts = []Part{ToolCallPart{ToolCall: ToolCall{ID: id, Name: toolName, Arguments: args}}}
	return m
}

// NewToolResponseMessage records the completion result (or error) of a tool call.
// If err is non-nil its message is copied into the response Error field.
func NewToolResponseMessage(speaker, id, toolName string, result any, err error) Message {
	m := NewMessage(speaker, "tool")
	tr := ToolResponse{ID: id, Name: toolName, Response: result}
	if err != nil {
		tr.Error = err.Error()
	}
	m.Parts = []Part{ToolResponsePart{ToolResponse: tr}}
	return m
}

// NewID generates a new unique identifier for messages and tool calls.
func NewID() string { return uuid.NewString() }

// Text returns the concatenated text parts of the message in order. Tool call
// and tool response parts are skipped.
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if tp, ok := p.(TextPart); ok {
			b.WriteString(tp.Text)
		}
	}
	return b.String()
}

// ToolCalls returns any ToolCall parts contained within the message
// preserving their original order.
func (m Message) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, p := range m.Parts {
		if tc, ok := p.(ToolCallPart); ok {
			calls = append(calls, tc.ToolCall)
		}
	}
	return calls
}

// ToolResponses returns any ToolResponse parts contained within the message
// preserving their original order.
func (m Message) ToolResponses() []ToolResponse {
	var responses []ToolResponse
	for _, p := range m.Parts {
		if tr, ok := p.(ToolResponsePart); ok {
			responses = append(responses, tr.ToolResponse)
		}
	}
	return responses
}

// HasPendingToolCalls reports whether the message requests tool executions
// that have not been answered within the same message.
func (m Message) HasPendingToolCalls() bool {
	return len(m.ToolCalls()) > 0 && len(m.ToolResponses()) == 0
}

// EndsWith reports whether the trimmed message text ends with the given
// marker. Used by the conversation loop for termination detection.
func (m Message) EndsWith(marker string) bool {
	if marker == "" {
		return false
	}
	return strings.HasSuffix(strings.TrimSpace(m.Text()), marker)
}

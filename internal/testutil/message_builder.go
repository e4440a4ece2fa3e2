package testutil

import (
	"github.com/hupe1980/groupmesh/core"
)

// MessageBuilder provides a fluent helper for constructing messages in tests.
// Example:
//
//	msg := NewMessageBuilder().Speaker("Researcher").AssistantText("hello").Build()
//
// Chain only the parts you need; sensible defaults are applied.
type MessageBuilder struct {
	speaker       string
	chatID        string
	id            string
	role          string
	textParts     []string
	toolCalls     []core.ToolCall
	toolResponses []core.ToolResponse
	customParts   []core.Part
}

// NewMessageBuilder creates a builder with default speaker "participant".
func NewMessageBuilder() *MessageBuilder { return &MessageBuilder{speaker: "participant"} }

// Speaker sets the speaker name for the message (chainable).
func (b *MessageBuilder) Speaker(s string) *MessageBuilder { b.speaker = s; return b }

// Chat sets the chat ID associated with the message (chainable).
func (b *MessageBuilder) Chat(id string) *MessageBuilder { b.chatID = id; return b }

// ID overrides the auto-generated message ID (chainable). Use mainly in tests where determinism matters.
func (b *MessageBuilder) ID(id string) *MessageBuilder { b.id = id; return b }

// UserText appends a user role text part and sets role to user (chainable).
func (b *MessageBuilder) UserText(t string) *MessageBuilder {
	b.role = "user"
	b.textParts = append(b.textParts, t)
	return b
}

// AssistantText appends an assistant role text part and sets role to assistant (chainable).
func (b *MessageBuilder) AssistantText(t string) *MessageBuilder {
	b.role = "assistant"
	b.textParts = append(b.textParts, t)
	return b
}

// AddPart appends a custom content part (chainable).
func (b *MessageBuilder) AddPart(p core.Part) *MessageBuilder {
	b.customParts = append(b.customParts, p)
	return b
}

// ToolCall adds a tool call part with the provided name and JSON argument string (chainable).
func (b *MessageBuilder) ToolCall(id, name, args string) *MessageBuilder {
	b.toolCalls = append(b.toolCalls, core.ToolCall{ID: id, Name: name, Arguments: args})
	return b
}

// ToolResponse adds a tool response part representing execution output (chainable).
func (b *MessageBuilder) ToolResponse(id, name string, result interface{}, err error) *MessageBuilder {
	tr := core.ToolResponse{ID: id, Name: name, Response: result}
	if err != nil {
		tr.Error = err.Error()
	}
	b.toolResponses = append(b.toolResponses, tr)
	return b
}

// Build constructs the core.Message value.
func (b *MessageBuilder) Build() core.Message {
	role := b.role
	if role == "" {
		role = "assistant"
	}

	m := core.NewMessage(b.speaker, role)
	if b.id != "" {
		m.ID = b.id
	}
	m.ChatID = b.chatID

	estimatedParts := len(b.textParts) + len(b.toolCalls) + len(b.toolResponses) + len(b.customParts)
	parts := make([]core.Part, 0, estimatedParts)
	for _, t := range b.textParts {
		parts = append(parts, core.TextPart{Text: t})
	}
	for _, tc := range b.toolCalls {
		parts = append(parts, core.ToolCallPart{ToolCall: tc})
	}
	for _, tr := range b.toolResponses {
		parts = append(parts, core.ToolResponsePart{ToolResponse: tr})
	}
	parts = append(parts, b.customParts...)
	m.Parts = parts

	return m
}

package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageText(t *testing.T) {
	m := NewMessage("Researcher", "assistant")
	m.Parts = []Part{
		TextPart{Text: "found "},
		ToolCallPart{ToolCall: ToolCall{Name: "bing_search"}},
		TextPart{Text: "details"},
	}

	assert.Equal(t, "found details", m.Text())
}

func TestMessageToolCalls(t *testing.T) {
	m := NewToolCallMessage("Researcher", "call-1", "bing_search", `{"search_term":"cruise"}`)

	calls := m.ToolCalls()
	assert.Len(t, calls, 1)
	assert.Equal(t, "bing_search", calls[0].Name)
	assert.True(t, m.HasPendingToolCalls())
	assert.Empty(t, m.ToolResponses())
}

func TestMessageToolResponses(t *testing.T) {
	ok := NewToolResponseMessage("Executor", "call-1", "bing_search", "results", nil)
	responses := ok.ToolResponses()
	assert.Len(t, responses, 1)
	assert.Empty(t, responses[0].Error)
	assert.False(t, ok.HasPendingToolCalls())

	failed := NewToolResponseMessage("Executor", "call-2", "bing_search", nil, errors.New("boom"))
	assert.Equal(t, "boom", failed.ToolResponses()[0].Error)
}

func TestMessageEndsWith(t *testing.T) {
	m := NewTextMessage("Writer", "Here is the ad.\nTERMINATE\n")

	assert.True(t, m.EndsWith("TERMINATE"))
	assert.False(t, m.EndsWith("COMPLETE"))
	assert.False(t, m.EndsWith(""))
}

func TestNewMessageIdentity(t *testing.T) {
	a := NewTextMessage("Admin", "hello")
	b := NewTextMessage("Admin", "hello")

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "Admin", a.Speaker)
	assert.False(t, a.Timestamp.IsZero())
}

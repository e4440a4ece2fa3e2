package participant

import (
	"fmt"

	"github.com/hupe1980/groupmesh/core"
	"github.com/hupe1980/groupmesh/internal/util"
)

// Provider supplies dynamic instruction text at runtime.
// Implementations can derive instructions from session state, environment, etc.
type Provider interface {
	Instruction(*core.TurnContext) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(*core.TurnContext) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(tc *core.TurnContext) (string, error) { return f(tc) }

// Instruction represents either a static instruction string or a dynamic provider.
// This mirrors a union of string | provider in a Go-idiomatic way.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(*core.TurnContext) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
// The result is rendered as a template against the session state, so
// instructions can reference values like {{.topic}} set by earlier turns.
func (i Instruction) Resolve(tc *core.TurnContext) (string, error) {
	text := i.text

	if i.provider != nil {
		var err error
		if text, err = i.provider.Instruction(tc); err != nil {
			return "", err
		}
	}

	var state map[string]any
	if tc != nil && tc.Session != nil {
		state = tc.Session.State
	}

	rendered, err := util.RenderTemplate(text, state)
	if err != nil {
		return "", fmt.Errorf("render instruction template: %w", err)
	}

	return rendered, nil
}

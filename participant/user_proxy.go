package participant

import (
	"fmt"

	"github.com/hupe1980/groupmesh/core"
)

// InputFunc supplies the next human (or scripted) utterance for a UserProxy
// turn. Returning an empty string yields a silent turn.
type InputFunc func(turnCtx *core.TurnContext, transcript core.Transcript) (string, error)

// UserProxyOptions configure a UserProxy.
type UserProxyOptions struct {
	Description string
	// Script is a fixed sequence of replies consumed one per turn. Used for
	// tests and fully automated runs.
	Script []string
	// Input supplies replies interactively. Takes precedence over Script.
	Input InputFunc
}

// UserProxy stands in for a human admin in the conversation. Each turn it
// produces a user-role message from either an interactive input function or
// a pre-recorded script. Once a script is exhausted the proxy goes silent
// (empty text), which typically lets termination or routing rules end the
// conversation.
type UserProxy struct {
	name        string
	description string
	script      []string
	input       InputFunc
	cursor      int
}

// NewUserProxy constructs a UserProxy with the given name.
func NewUserProxy(name string, optFns ...func(o *UserProxyOptions)) *UserProxy {
	opts := UserProxyOptions{}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &UserProxy{
		name:        name,
		description: opts.Description,
		script:      opts.Script,
		input:       opts.Input,
	}
}

// Name returns the participant name used for routing and transcripts.
func (p *UserProxy) Name() string { return p.name }

// Description returns the short role description shown to auto-selectors.
func (p *UserProxy) Description() string { return p.description }

// Respond implements core.Participant.
func (p *UserProxy) Respond(turnCtx *core.TurnContext, transcript core.Transcript) (core.Message, error) {
	if p.input != nil {
		text, err := p.input(turnCtx, transcript)
		if err != nil {
			return core.Message{}, fmt.Errorf("user input failed for %s: %w", p.name, err)
		}
		return p.message(turnCtx, text), nil
	}

	if p.cursor < len(p.script) {
		text := p.script[p.cursor]
		p.cursor++
		return p.message(turnCtx, text), nil
	}

	// Script exhausted: silent turn.
	return p.message(turnCtx, ""), nil
}

func (p *UserProxy) message(turnCtx *core.TurnContext, text string) core.Message {
	m := core.NewUserMessage(p.name, text)
	m.ChatID = turnCtx.ChatID
	return m
}

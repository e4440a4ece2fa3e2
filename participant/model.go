package participant

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/groupmesh/core"
	"github.com/hupe1980/groupmesh/model"
	"github.com/hupe1980/groupmesh/tool"
)

// ModelParticipantOptions configures a ModelParticipant instance.
//
// Use functional options with NewModelParticipant to override defaults.
type ModelParticipantOptions struct {
	Description        string
	Instruction        Instruction
	Tools              *tool.Registry
	MaxHistoryMessages int
	MaxToolIterations  int
	ToolTimeout        time.Duration
}

// ModelParticipant integrates a language model into a group conversation.
//
// On its turn it converts the shared transcript into a provider request,
// generates a completion, and resolves any tool calls through the explicit
// tool registry before returning the final message. Messages from other
// participants are presented to the model as user turns prefixed with the
// speaker's name so the model can follow the multi-party thread.
type ModelParticipant struct {
	name              string
	description       string
	llm               model.Model
	instruction       Instruction
	tools             *tool.Registry
	maxHistory        int
	maxToolIterations int
	toolTimeout       time.Duration
}

// NewModelParticipant creates a model-backed participant with sensible defaults.
//
// Defaults:
//   - Instruction introducing the participant by name
//   - 20-message transcript window
//   - Up to 5 tool resolution rounds per turn
//   - 15-second timeout per tool call
func NewModelParticipant(name string, llm model.Model, optFns ...func(o *ModelParticipantOptions)) *ModelParticipant {
	opts := ModelParticipantOptions{
		Instruction:        NewInstructionFromText(fmt.Sprintf("You are %s, a helpful assistant.", name)),
		MaxHistoryMessages: 20,
		MaxToolIterations:  5,
		ToolTimeout:        15 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &ModelParticipant{
		name:              name,
		description:       opts.Description,
		llm:               llm,
		instruction:       opts.Instruction,
		tools:             opts.Tools,
		maxHistory:        opts.MaxHistoryMessages,
		maxToolIterations: opts.MaxToolIterations,
		toolTimeout:       opts.ToolTimeout,
	}
}

// Name returns the participant name used for routing and transcripts.
func (p *ModelParticipant) Name() string { return p.name }

// Description returns the short role description shown to auto-selectors.
func (p *ModelParticipant) Description() string { return p.description }

// Tools returns the registry backing this participant (nil when tool calling
// is disabled).
func (p *ModelParticipant) Tools() *tool.Registry { return p.tools }

// Respond implements core.Participant. It drives the model, resolves tool
// calls and returns the participant's final message for this turn.
func (p *ModelParticipant) Respond(turnCtx *core.TurnContext, transcript core.Transcript) (core.Message, error) {
	instructions, err := p.instruction.Resolve(turnCtx)
	if err != nil {
		return core.Message{}, fmt.Errorf("resolve instructions: %w", err)
	}

	messages := p.buildMessages(transcript)

	for iteration := 0; ; iteration++ {
		resp, err := p.generate(turnCtx, instructions, messages)
		if err != nil {
			return core.Message{}, err
		}

		final := resp.Message
		final.ID = core.NewID()
		final.ChatID = turnCtx.ChatID
		final.Speaker = p.name
		final.Timestamp = time.Now().UTC()

		if !final.HasPendingToolCalls() || p.tools == nil {
			return final, nil
		}

		if iteration >= p.maxToolIterations {
			return core.Message{}, fmt.Errorf("participant %s exceeded %d tool iterations", p.name, p.maxToolIterations)
		}

		messages = append(messages, final)
		messages = append(messages, p.executeToolCalls(turnCtx, final)...)
	}
}

// generate performs a single model call, draining the streaming channels and
// returning the final (non-partial) response.
func (p *ModelParticipant) generate(turnCtx *core.TurnContext, instructions string, messages []core.Message) (model.Response, error) {
	req := model.Request{
		Instructions: instructions,
		Messages:     messages,
	}

	if p.tools != nil {
		for name, t := range p.tools.All() {
			req.Tools = append(req.Tools, model.ToolDefinition{
				Type: "function",
				Function: model.FunctionDefinition{
					Name:        name,
					Description: t.Description(),
					Parameters:  t.Parameters(),
				},
			})
		}
	}

	respCh, errCh := p.llm.Generate(turnCtx.Context, req)

	var final model.Response
	var got bool
	for resp := range respCh {
		if !resp.Partial {
			final = resp
			got = true
		}
	}

	if err := <-errCh; err != nil {
		return model.Response{}, fmt.Errorf("model call failed for %s: %w", p.name, err)
	}

	if !got {
		return model.Response{}, fmt.Errorf("model returned no final response for %s", p.name)
	}

	return final, nil
}

// executeToolCalls runs each pending tool call through the registry and
// returns the resulting tool response messages. Tool failures become error
// responses rather than aborting the turn so the model can react to them.
func (p *ModelParticipant) executeToolCalls(turnCtx *core.TurnContext, msg core.Message) []core.Message {
	var responses []core.Message

	for _, call := range msg.ToolCalls() {
		callID := call.ID
		if callID == "" {
			callID = core.NewID()
		}

		callTurnCtx := turnCtx
		if p.toolTimeout > 0 {
			ctx, cancel := context.WithTimeout(turnCtx.Context, p.toolTimeout)
			defer cancel()
			scoped := *turnCtx
			scoped.Context = ctx
			callTurnCtx = &scoped
		}

		toolCtx := core.NewToolContext(callTurnCtx, callID)

		result, err := p.tools.Execute(toolCtx, call.Name, call.Arguments)
		if err != nil {
			turnCtx.Logger().Warn("participant.tool.error", "participant", p.name, "tool", call.Name, "error", err.Error())
			responses = append(responses, core.NewToolResponseMessage(p.name, callID, call.Name, nil, err))
			continue
		}

		turnCtx.ApplyStateDelta(toolCtx.StateDelta())
		responses = append(responses, core.NewToolResponseMessage(p.name, callID, call.Name, result, nil))
	}

	return responses
}

// buildMessages converts the shared transcript into the participant's private
// view: own messages replay as assistant turns, tool traffic passes through,
// and everyone else's messages become named user turns.
func (p *ModelParticipant) buildMessages(transcript core.Transcript) []core.Message {
	msgs := transcript.Messages()
	if p.maxHistory > 0 && len(msgs) > p.maxHistory {
		msgs = msgs[len(msgs)-p.maxHistory:]
	}

	out := make([]core.Message, 0, len(msgs))
	for _, m := range msgs {
		switch {
		case m.Speaker == p.name:
			m.Role = "assistant"
		case m.Role == "tool":
			// keep tool responses as-is
		default:
			text := m.Text()
			if m.Speaker != "" {
				text = fmt.Sprintf("%s: %s", m.Speaker, text)
			}
			m = core.Message{
				ID:        m.ID,
				ChatID:    m.ChatID,
				Speaker:   m.Speaker,
				Role:      "user",
				Parts:     []core.Part{core.TextPart{Text: text}},
				Timestamp: m.Timestamp,
			}
		}
		out = append(out, m)
	}

	return out
}

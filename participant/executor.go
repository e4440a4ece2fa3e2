package participant

import (
	"fmt"
	"strings"

	"github.com/hupe1980/groupmesh/core"
	"github.com/hupe1980/groupmesh/tool"
)

// FailureCode is the literal text an Executor reports when execution fails.
// Routing policies match it by exact equality, so it must not be decorated.
const FailureCode = "exitcode: 1"

// ExecutorOptions configure an Executor.
type ExecutorOptions struct {
	Description string
	FailureCode string
}

// Executor runs the tool calls requested by the most recent transcript
// message. It reports a plain-text outcome: on success the collected tool
// output, on any failure the exact failure code so deterministic routing can
// detect it and retry.
type Executor struct {
	name        string
	description string
	tools       *tool.Registry
	failureCode string
}

// NewExecutor constructs an Executor backed by the given tool registry.
func NewExecutor(name string, tools *tool.Registry, optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{
		FailureCode: FailureCode,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Executor{
		name:        name,
		description: opts.Description,
		tools:       tools,
		failureCode: opts.FailureCode,
	}
}

// Name returns the participant name used for routing and transcripts.
func (p *Executor) Name() string { return p.name }

// Description returns the short role description shown to auto-selectors.
func (p *Executor) Description() string { return p.description }

// Respond implements core.Participant. It scans the transcript backwards for
// the latest message with unanswered tool calls and executes them in order.
func (p *Executor) Respond(turnCtx *core.TurnContext, transcript core.Transcript) (core.Message, error) {
	pending, ok := p.latestPending(transcript)
	if !ok {
		m := core.NewTextMessage(p.name, "nothing to execute")
		m.ChatID = turnCtx.ChatID
		return m, nil
	}

	var outputs []string
	var parts []core.Part
	failed := false

	for _, call := range pending.ToolCalls() {
		callID := call.ID
		if callID == "" {
			callID = core.NewID()
		}

		toolCtx := core.NewToolContext(turnCtx, callID)

		result, err := p.tools.Execute(toolCtx, call.Name, call.Arguments)
		if err != nil {
			turnCtx.Logger().Warn("executor.tool.error", "executor", p.name, "tool", call.Name, "error", err.Error())
			parts = append(parts, core.ToolResponsePart{ToolResponse: core.ToolResponse{ID: callID, Name: call.Name, Error: err.Error()}})
			failed = true
			continue
		}

		turnCtx.ApplyStateDelta(toolCtx.StateDelta())
		parts = append(parts, core.ToolResponsePart{ToolResponse: core.ToolResponse{ID: callID, Name: call.Name, Response: result}})
		outputs = append(outputs, fmt.Sprintf("%v", result))
	}

	var text string
	if failed {
		text = p.failureCode
	} else {
		text = fmt.Sprintf("exitcode: 0 (execution succeeded)\n%s", strings.Join(outputs, "\n"))
	}

	m := core.NewMessage(p.name, "assistant")
	m.ChatID = turnCtx.ChatID
	m.Parts = append([]core.Part{core.TextPart{Text: text}}, parts...)

	return m, nil
}

// latestPending walks the transcript from newest to oldest looking for a
// message with unanswered tool calls.
func (p *Executor) latestPending(transcript core.Transcript) (core.Message, bool) {
	for i := transcript.Len() - 1; i >= 0; i-- {
		m := transcript.At(i)
		if m.HasPendingToolCalls() {
			return m, true
		}
	}
	return core.Message{}, false
}

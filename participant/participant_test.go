package participant

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/groupmesh/core"
	"github.com/hupe1980/groupmesh/internal/testutil"
	"github.com/hupe1980/groupmesh/logging"
	"github.com/hupe1980/groupmesh/model"
	"github.com/hupe1980/groupmesh/tool"
)

// Interface compliance (compile-time assertions)
var (
	_ core.Participant = (*ModelParticipant)(nil)
	_ core.Participant = (*UserProxy)(nil)
	_ core.Participant = (*Executor)(nil)
)

// scriptedModel returns queued responses one Generate call at a time.
type scriptedModel struct {
	responses []model.Response
	calls     int
}

func (m *scriptedModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	respCh := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)
		if m.calls >= len(m.responses) {
			errCh <- fmt.Errorf("no scripted response left")
			return
		}
		respCh <- m.responses[m.calls]
		m.calls++
	}()

	return respCh, errCh
}

func (m *scriptedModel) Info() model.Info {
	return model.Info{Name: "scripted", Provider: "test", SupportsTools: true}
}

func newTurnContext(t *testing.T, speaker string) *core.TurnContext {
	t.Helper()

	return core.NewTurnContext(
		context.Background(),
		"sess1", "chat1",
		core.ParticipantInfo{Name: speaker, Kind: "test"},
		testutil.NewSessionBuilder("sess1").Build(),
		nil, nil, nil,
		logging.NewNoOpLogger(),
	)
}

func echoRegistry(t *testing.T) *tool.Registry {
	t.Helper()

	echo := tool.NewFunctionTool(
		"echo",
		"Echo the input back",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
			},
			"required": []string{"text"},
		},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			return args["text"], nil
		},
	)

	return tool.NewRegistry(echo)
}

func TestModelParticipantRespond(t *testing.T) {
	llm := model.NewMockModel("mock", "test")
	llm.AddResponse("Admin: research summer cruises", "On it, compiling research.")

	p := NewModelParticipant("Researcher", llm, func(o *ModelParticipantOptions) {
		o.Description = "Finds information"
	})

	tr := core.NewTranscript(core.NewUserMessage("Admin", "research summer cruises"))

	msg, err := p.Respond(newTurnContext(t, "Researcher"), tr)
	require.NoError(t, err)
	assert.Equal(t, "Researcher", msg.Speaker)
	assert.Equal(t, "assistant", msg.Role)
	assert.Equal(t, "On it, compiling research.", msg.Text())
	assert.Equal(t, "chat1", msg.ChatID)
}

func TestModelParticipantToolLoop(t *testing.T) {
	llm := &scriptedModel{responses: []model.Response{
		{
			Message: core.Message{
				Role: "assistant",
				Parts: []core.Part{core.ToolCallPart{ToolCall: core.ToolCall{
					ID: "call1", Name: "echo", Arguments: `{"text":"ping"}`,
				}}},
			},
			FinishReason: "tool_calls",
		},
		{
			Message: core.Message{
				Role:  "assistant",
				Parts: []core.Part{core.TextPart{Text: "the tool said ping"}},
			},
			FinishReason: "stop",
		},
	}}

	p := NewModelParticipant("Researcher", llm, func(o *ModelParticipantOptions) {
		o.Tools = echoRegistry(t)
	})

	tr := core.NewTranscript(core.NewUserMessage("Admin", "use the tool"))

	msg, err := p.Respond(newTurnContext(t, "Researcher"), tr)
	require.NoError(t, err)
	assert.Equal(t, "the tool said ping", msg.Text())
	assert.Equal(t, 2, llm.calls)
}

func TestModelParticipantToolIterationLimit(t *testing.T) {
	// A model that always asks for another tool call must eventually error.
	loop := model.Response{
		Message: core.Message{
			Role: "assistant",
			Parts: []core.Part{core.ToolCallPart{ToolCall: core.ToolCall{
				ID: "call", Name: "echo", Arguments: `{"text":"again"}`,
			}}},
		},
		FinishReason: "tool_calls",
	}
	llm := &scriptedModel{responses: []model.Response{loop, loop, loop}}

	p := NewModelParticipant("Researcher", llm, func(o *ModelParticipantOptions) {
		o.Tools = echoRegistry(t)
		o.MaxToolIterations = 1
	})

	tr := core.NewTranscript(core.NewUserMessage("Admin", "go"))

	_, err := p.Respond(newTurnContext(t, "Researcher"), tr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool iterations")
}

func TestInstructionResolvesTemplate(t *testing.T) {
	instr := NewInstructionFromText("Research the topic {{.topic}} thoroughly.")

	tc := core.NewTurnContext(
		context.Background(),
		"sess1", "chat1",
		core.ParticipantInfo{Name: "Researcher", Kind: "test"},
		testutil.NewSessionBuilder("sess1").State("topic", "summer cruises").Build(),
		nil, nil, nil,
		logging.NewNoOpLogger(),
	)

	text, err := instr.Resolve(tc)
	require.NoError(t, err)
	assert.Equal(t, "Research the topic summer cruises thoroughly.", text)
}

func TestInstructionStaticWithoutMarkers(t *testing.T) {
	instr := NewInstructionFromText("You are the planner.")

	text, err := instr.Resolve(newTurnContext(t, "Planner"))
	require.NoError(t, err)
	assert.Equal(t, "You are the planner.", text)
}

func TestUserProxyScript(t *testing.T) {
	p := NewUserProxy("Admin", func(o *UserProxyOptions) {
		o.Script = []string{"find a cruise", "looks good"}
	})

	tc := newTurnContext(t, "Admin")
	tr := core.NewTranscript()

	msg, err := p.Respond(tc, tr)
	require.NoError(t, err)
	assert.Equal(t, "find a cruise", msg.Text())
	assert.Equal(t, "user", msg.Role)

	msg, err = p.Respond(tc, tr)
	require.NoError(t, err)
	assert.Equal(t, "looks good", msg.Text())

	// Script exhausted -> silent turn.
	msg, err = p.Respond(tc, tr)
	require.NoError(t, err)
	assert.Empty(t, msg.Text())
}

func TestUserProxyInputFunc(t *testing.T) {
	p := NewUserProxy("Admin", func(o *UserProxyOptions) {
		o.Input = func(tc *core.TurnContext, tr core.Transcript) (string, error) {
			return fmt.Sprintf("transcript has %d messages", tr.Len()), nil
		}
	})

	tr := core.NewTranscript(core.NewTextMessage("Planner", "plan"))

	msg, err := p.Respond(newTurnContext(t, "Admin"), tr)
	require.NoError(t, err)
	assert.Equal(t, "transcript has 1 messages", msg.Text())
}

func TestExecutorSuccess(t *testing.T) {
	p := NewExecutor("Executor", echoRegistry(t))

	tr := core.NewTranscript(
		testutil.NewMessageBuilder().Speaker("Researcher").ToolCall("call1", "echo", `{"text":"found it"}`).Build(),
	)

	msg, err := p.Respond(newTurnContext(t, "Executor"), tr)
	require.NoError(t, err)
	assert.Contains(t, msg.Text(), "exitcode: 0")
	assert.Contains(t, msg.Text(), "found it")

	responses := msg.ToolResponses()
	require.Len(t, responses, 1)
	assert.Equal(t, "found it", responses[0].Response)
}

func TestExecutorFailureReportsExactCode(t *testing.T) {
	failing := tool.NewFunctionTool(
		"always_fails",
		"A tool that always fails",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			return nil, fmt.Errorf("boom")
		},
	)

	p := NewExecutor("Executor", tool.NewRegistry(failing))

	tr := core.NewTranscript(
		core.NewToolCallMessage("Researcher", "call1", "always_fails", `{}`),
	)

	msg, err := p.Respond(newTurnContext(t, "Executor"), tr)
	require.NoError(t, err)

	// Exact equality is what deterministic routing checks.
	assert.Equal(t, "exitcode: 1", msg.Text())

	responses := msg.ToolResponses()
	require.Len(t, responses, 1)
	assert.NotEmpty(t, responses[0].Error)
}

func TestExecutorNothingToExecute(t *testing.T) {
	p := NewExecutor("Executor", echoRegistry(t))

	tr := core.NewTranscript(core.NewTextMessage("Planner", "just talk"))

	msg, err := p.Respond(newTurnContext(t, "Executor"), tr)
	require.NoError(t, err)
	assert.Equal(t, "nothing to execute", msg.Text())
}

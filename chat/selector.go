package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/groupmesh/core"
	"github.com/hupe1980/groupmesh/model"
)

// AutoSelector picks the next speaker when no deterministic routing rule
// applies (an AUTO decision). Implementations must not mutate the transcript.
type AutoSelector interface {
	Select(ctx context.Context, candidates []core.Participant, lastSpeaker string, transcript core.Transcript) (string, error)
}

// RoundRobinSelector cycles through the candidates in registration order,
// skipping the participant who just spoke.
type RoundRobinSelector struct {
	cursor int
}

// NewRoundRobinSelector constructs a RoundRobinSelector.
func NewRoundRobinSelector() *RoundRobinSelector {
	return &RoundRobinSelector{}
}

// Select implements AutoSelector.
func (s *RoundRobinSelector) Select(ctx context.Context, candidates []core.Participant, lastSpeaker string, transcript core.Transcript) (string, error) {
	if len(candidates) == 0 {
		return "", fmt.Errorf("no candidates to select from")
	}

	for i := 0; i < len(candidates); i++ {
		c := candidates[(s.cursor+i)%len(candidates)]
		if c.Name() == lastSpeaker && len(candidates) > 1 {
			continue
		}
		s.cursor = (s.cursor + i + 1) % len(candidates)
		return c.Name(), nil
	}

	return candidates[0].Name(), nil
}

// ModelSelectorOptions configure a ModelSelector.
type ModelSelectorOptions struct {
	// Instructions override the default selection prompt preamble.
	Instructions string
	// HistoryWindow limits how many transcript messages are shown to the
	// selection model (0 = all).
	HistoryWindow int
}

// ModelSelector asks a language model to choose the next speaker based on
// the participant descriptions and the recent transcript. When the model
// answer does not name a known participant the selector falls back to round
// robin, so a confused model can never stall the conversation.
type ModelSelector struct {
	llm           model.Model
	instructions  string
	historyWindow int
	fallback      *RoundRobinSelector
}

// NewModelSelector constructs a ModelSelector backed by the given model.
func NewModelSelector(llm model.Model, optFns ...func(o *ModelSelectorOptions)) *ModelSelector {
	opts := ModelSelectorOptions{
		Instructions:  "You moderate a group conversation. Read the roles and the transcript, then reply with only the name of the participant who should speak next.",
		HistoryWindow: 10,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &ModelSelector{
		llm:           llm,
		instructions:  opts.Instructions,
		historyWindow: opts.HistoryWindow,
		fallback:      NewRoundRobinSelector(),
	}
}

// Select implements AutoSelector.
func (s *ModelSelector) Select(ctx context.Context, candidates []core.Participant, lastSpeaker string, transcript core.Transcript) (string, error) {
	prompt := s.buildPrompt(candidates, lastSpeaker, transcript)

	respCh, errCh := s.llm.Generate(ctx, model.Request{
		Instructions: s.instructions,
		Messages:     []core.Message{core.NewUserMessage("moderator", prompt)},
	})

	var answer string
	for resp := range respCh {
		if !resp.Partial {
			answer = resp.Message.Text()
		}
	}
	if err := <-errCh; err != nil {
		return "", fmt.Errorf("speaker selection failed: %w", err)
	}

	answer = strings.TrimSpace(answer)
	for _, c := range candidates {
		if strings.EqualFold(answer, c.Name()) || strings.Contains(answer, c.Name()) {
			return c.Name(), nil
		}
	}

	// No usable answer: degrade to round robin.
	return s.fallback.Select(ctx, candidates, lastSpeaker, transcript)
}

func (s *ModelSelector) buildPrompt(candidates []core.Participant, lastSpeaker string, transcript core.Transcript) string {
	var b strings.Builder

	b.WriteString("Participants:\n")
	for _, c := range candidates {
		desc := c.Description()
		if desc == "" {
			desc = "no description"
		}
		fmt.Fprintf(&b, "- %s: %s\n", c.Name(), desc)
	}

	msgs := transcript.Messages()
	if s.historyWindow > 0 && len(msgs) > s.historyWindow {
		msgs = msgs[len(msgs)-s.historyWindow:]
	}

	b.WriteString("\nTranscript:\n")
	for _, m := range msgs {
		fmt.Fprintf(&b, "%s: %s\n", m.Speaker, m.Text())
	}

	fmt.Fprintf(&b, "\nLast speaker was %s. Who should speak next?", lastSpeaker)

	return b.String()
}

package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/groupmesh/core"
	"github.com/hupe1980/groupmesh/logging"
	"github.com/hupe1980/groupmesh/router"
	"github.com/hupe1980/groupmesh/session"
)

// SpeakerRouter decides who speaks next from the last speaker and transcript.
// *router.Router satisfies it; custom deterministic policies can be plugged
// in without depending on the router package.
type SpeakerRouter interface {
	Route(lastSpeaker string, transcript core.Transcript) (core.RoutingDecision, error)
}

// StopReason records why a conversation ended.
type StopReason string

const (
	// StopTerminated means a message ended with the termination marker.
	StopTerminated StopReason = "terminated"
	// StopMaxRounds means the round limit was reached.
	StopMaxRounds StopReason = "max_rounds"
	// StopRouted means the router returned an explicit end decision.
	StopRouted StopReason = "routed_end"
)

// Result summarizes a finished conversation run.
type Result struct {
	Transcript core.Transcript
	Rounds     int
	Reason     StopReason
}

// Options configure a GroupChat.
type Options struct {
	// ChatID identifies the conversation in messages and logs. A random id
	// is generated when empty.
	ChatID string
	// Router is consulted first for every speaker selection. Nil means all
	// selection is automatic.
	Router SpeakerRouter
	// Selector handles AUTO decisions and router fallback. Defaults to
	// round robin.
	Selector AutoSelector
	// MaxRounds caps the number of participant turns (default 50, 0 keeps
	// the default; use a negative value for unlimited).
	MaxRounds int
	// TerminationMarker ends the conversation when a message's trimmed text
	// ends with it (default "TERMINATE").
	TerminationMarker string
	// FallbackToAuto downgrades an unmatched-speaker routing error to
	// automatic selection instead of aborting the run.
	FallbackToAuto bool
	// SessionStore persists the transcript and state. Defaults to an
	// in-memory store.
	SessionStore core.SessionStore
	// ArtifactStore and MemoryStore are handed to participants via the turn
	// context. Both optional.
	ArtifactStore core.ArtifactStore
	MemoryStore   core.MemoryStore
	// Logger receives structured progress events. Defaults to slog.
	Logger logging.Logger
	// OnMessage is invoked after each appended message (observer hook).
	OnMessage func(core.Message)
}

// DefaultMaxRounds caps conversations that never hit a termination condition.
const DefaultMaxRounds = 50

// GroupChat orchestrates a multi-participant conversation. It is the sole
// owner of the shared transcript: participants receive a read-only view and
// return one message per turn.
type GroupChat struct {
	chatID            string
	participants      map[string]core.Participant
	order             []core.Participant
	router            SpeakerRouter
	selector          AutoSelector
	maxRounds         int
	terminationMarker string
	fallbackToAuto    bool
	sessionStore      core.SessionStore
	artifactStore     core.ArtifactStore
	memoryStore       core.MemoryStore
	logger            logging.Logger
	onMessage         func(core.Message)
}

// New constructs a GroupChat over the given participants. Participant names
// must be unique; they are the keys routing decisions refer to.
func New(participants []core.Participant, optFns ...func(o *Options)) (*GroupChat, error) {
	opts := Options{
		MaxRounds:         DefaultMaxRounds,
		TerminationMarker: "TERMINATE",
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if len(participants) == 0 {
		return nil, fmt.Errorf("at least one participant is required")
	}

	if opts.ChatID == "" {
		opts.ChatID = core.NewID()
	}
	if opts.Selector == nil {
		opts.Selector = NewRoundRobinSelector()
	}
	if opts.SessionStore == nil {
		opts.SessionStore = session.NewInMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewDefaultSlogLogger()
	}
	if opts.MaxRounds == 0 {
		opts.MaxRounds = DefaultMaxRounds
	}

	byName := make(map[string]core.Participant, len(participants))
	for _, p := range participants {
		if p.Name() == "" {
			return nil, fmt.Errorf("participant with empty name")
		}
		if _, exists := byName[p.Name()]; exists {
			return nil, fmt.Errorf("duplicate participant name %q", p.Name())
		}
		byName[p.Name()] = p
	}

	return &GroupChat{
		chatID:            opts.ChatID,
		participants:      byName,
		order:             participants,
		router:            opts.Router,
		selector:          opts.Selector,
		maxRounds:         opts.MaxRounds,
		terminationMarker: opts.TerminationMarker,
		fallbackToAuto:    opts.FallbackToAuto,
		sessionStore:      opts.SessionStore,
		artifactStore:     opts.ArtifactStore,
		memoryStore:       opts.MemoryStore,
		logger:            opts.Logger,
		onMessage:         opts.OnMessage,
	}, nil
}

// ChatID returns the conversation identifier.
func (g *GroupChat) ChatID() string { return g.chatID }

// Participants returns the participants in registration order.
func (g *GroupChat) Participants() []core.Participant {
	out := make([]core.Participant, len(g.order))
	copy(out, g.order)
	return out
}

// Run executes the conversation loop until a termination condition is met.
// The initial message seeds the transcript; its speaker is the first "last
// speaker" routing sees. The returned Result carries the final transcript,
// the number of participant turns taken and the stop reason.
func (g *GroupChat) Run(ctx context.Context, sessionID string, initial core.Message) (Result, error) {
	start := time.Now()

	sess, err := g.sessionStore.Get(sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	initial.ChatID = g.chatID
	if err := g.sessionStore.AppendMessage(sessionID, initial); err != nil {
		return Result{}, fmt.Errorf("append initial message: %w", err)
	}

	transcript := sess.GetTranscript().Append(initial)
	lastSpeaker := initial.Speaker
	limiter := core.NewRoundLimiter(g.maxRounds)

	g.logger.Info("chat.run.start", "chat_id", g.chatID, "session_id", sessionID, "participants", len(g.order))

	g.notify(initial)

	result := Result{}
	for {
		if err := ctx.Err(); err != nil {
			result.Transcript = transcript
			result.Rounds = limiter.Count()
			return result, err
		}

		if last, ok := transcript.Last(); ok && last.EndsWith(g.terminationMarker) {
			result.Reason = StopTerminated
			break
		}

		if err := limiter.Increment(); err != nil {
			g.logger.Warn("chat.run.max_rounds", "chat_id", g.chatID, "max_rounds", g.maxRounds)
			result.Reason = StopMaxRounds
			break
		}

		next, stop, err := g.nextSpeaker(ctx, lastSpeaker, transcript)
		if err != nil {
			result.Transcript = transcript
			result.Rounds = limiter.Count() - 1
			return result, err
		}
		if stop {
			result.Reason = StopRouted
			break
		}

		p, ok := g.participants[next]
		if !ok {
			result.Transcript = transcript
			result.Rounds = limiter.Count() - 1
			return result, fmt.Errorf("routing selected unknown participant %q", next)
		}

		msg, err := g.takeTurn(ctx, sessionID, p, transcript)
		if err != nil {
			result.Transcript = transcript
			result.Rounds = limiter.Count() - 1
			return result, err
		}

		transcript = transcript.Append(msg)
		lastSpeaker = next

		g.notify(msg)
	}

	result.Transcript = transcript
	result.Rounds = limiter.Count()
	if result.Reason == StopMaxRounds {
		result.Rounds = limiter.Count() - 1
	}

	g.logger.Info(
		"chat.run.complete",
		"chat_id", g.chatID,
		"rounds", result.Rounds,
		"reason", string(result.Reason),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}

// nextSpeaker resolves the router decision and the auto selector into a
// participant name, or signals an explicit end.
func (g *GroupChat) nextSpeaker(ctx context.Context, lastSpeaker string, transcript core.Transcript) (string, bool, error) {
	if g.router != nil {
		decision, err := g.router.Route(lastSpeaker, transcript)
		switch {
		case err == nil:
			g.logger.Debug("chat.route", "chat_id", g.chatID, "last_speaker", lastSpeaker, "decision", decision.String())

			if decision.IsEnd() {
				return "", true, nil
			}
			if name, ok := decision.Next(); ok {
				return name, false, nil
			}
			// AUTO: fall through to the selector.
		case g.fallbackToAuto && errors.Is(err, router.ErrNoRule):
			g.logger.Warn("chat.route.fallback", "chat_id", g.chatID, "last_speaker", lastSpeaker, "error", err.Error())
		default:
			return "", false, fmt.Errorf("route after %s: %w", lastSpeaker, err)
		}
	}

	name, err := g.selector.Select(ctx, g.order, lastSpeaker, transcript)
	if err != nil {
		return "", false, fmt.Errorf("auto selection after %s: %w", lastSpeaker, err)
	}

	return name, false, nil
}

// takeTurn runs a single participant turn: build the turn context, obtain the
// message, persist state delta and transcript entry.
func (g *GroupChat) takeTurn(ctx context.Context, sessionID string, p core.Participant, transcript core.Transcript) (core.Message, error) {
	sess, err := g.sessionStore.Get(sessionID)
	if err != nil {
		return core.Message{}, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	turnCtx := core.NewTurnContext(
		ctx,
		sessionID,
		g.chatID,
		core.ParticipantInfo{Name: p.Name(), Kind: participantKind(p)},
		sess,
		g.sessionStore,
		g.artifactStore,
		g.memoryStore,
		g.logger,
	)

	msg, err := p.Respond(turnCtx, transcript)
	if err != nil {
		return core.Message{}, fmt.Errorf("turn of %s: %w", p.Name(), err)
	}

	if msg.Speaker == "" {
		msg.Speaker = p.Name()
	}
	msg.ChatID = g.chatID

	if err := turnCtx.CommitStateDelta(); err != nil {
		return core.Message{}, fmt.Errorf("commit state delta for %s: %w", p.Name(), err)
	}

	if err := g.sessionStore.AppendMessage(sessionID, msg); err != nil {
		return core.Message{}, fmt.Errorf("append message of %s: %w", p.Name(), err)
	}

	g.logger.Debug("chat.turn", "chat_id", g.chatID, "speaker", p.Name(), "text_len", len(msg.Text()))

	return msg, nil
}

func (g *GroupChat) notify(msg core.Message) {
	if g.onMessage != nil {
		g.onMessage(msg)
	}
}

// participantKind derives a coarse category label for logging.
func participantKind(p core.Participant) string {
	type kinder interface{ Kind() string }
	if k, ok := p.(kinder); ok {
		return k.Kind()
	}
	return "participant"
}

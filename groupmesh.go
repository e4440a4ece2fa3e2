// Package groupmesh provides a high-level façade over the group conversation
// loop and its service abstractions (sessions, artifacts, memory & logging)
// enabling rapid construction of multi-participant chat systems. Most
// applications interact with this package by:
//  1. Creating a GroupMesh via New() (optionally overriding default in-memory services)
//  2. Building one or more group chats from participants and a routing policy
//  3. Running a chat synchronously with an opening message
//
// The façade delegates orchestration to chat.GroupChat while keeping setup
// ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply durable store
// implementations and a structured logger.
package groupmesh

import (
	"context"

	"github.com/hupe1980/groupmesh/artifact"
	"github.com/hupe1980/groupmesh/chat"
	"github.com/hupe1980/groupmesh/core"
	"github.com/hupe1980/groupmesh/logging"
	"github.com/hupe1980/groupmesh/memory"
	"github.com/hupe1980/groupmesh/session"
)

// Options configures the GroupMesh instance.
type Options struct {
	// Stores (default to in-memory implementations if not provided)
	SessionStore  core.SessionStore
	ArtifactStore core.ArtifactStore
	MemoryStore   core.MemoryStore

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// GroupMesh is the high-level façade aggregating shared services for chats.
type GroupMesh struct {
	opts Options
}

// New creates a new GroupMesh instance with optional overrides. Any unset
// service is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *GroupMesh {
	opts := Options{
		SessionStore:  session.NewInMemoryStore(),
		ArtifactStore: artifact.NewInMemoryStore(),
		MemoryStore:   memory.NewInMemoryStore(),
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &GroupMesh{opts: opts}
}

// NewChat builds a group chat wired to the mesh's shared services. Chat
// options passed here are applied after the service wiring, so callers can
// still override stores per chat.
func (m *GroupMesh) NewChat(participants []core.Participant, optFns ...func(o *chat.Options)) (*chat.GroupChat, error) {
	wired := append([]func(o *chat.Options){func(o *chat.Options) {
		o.SessionStore = m.opts.SessionStore
		o.ArtifactStore = m.opts.ArtifactStore
		o.MemoryStore = m.opts.MemoryStore
		o.Logger = m.opts.Logger
	}}, optFns...)

	return chat.New(participants, wired...)
}

// Run is a convenience helper that builds a chat and runs it to completion
// with the given opening message.
func (m *GroupMesh) Run(
	ctx context.Context,
	sessionID string,
	participants []core.Participant,
	initial core.Message,
	optFns ...func(o *chat.Options),
) (chat.Result, error) {
	gc, err := m.NewChat(participants, optFns...)
	if err != nil {
		return chat.Result{}, err
	}

	return gc.Run(ctx, sessionID, initial)
}

// SessionStore returns the mesh's session store.
func (m *GroupMesh) SessionStore() core.SessionStore { return m.opts.SessionStore }

// ArtifactStore returns the mesh's artifact store.
func (m *GroupMesh) ArtifactStore() core.ArtifactStore { return m.opts.ArtifactStore }

// MemoryStore returns the mesh's memory store.
func (m *GroupMesh) MemoryStore() core.MemoryStore { return m.opts.MemoryStore }

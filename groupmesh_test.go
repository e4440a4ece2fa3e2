package groupmesh

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/groupmesh/chat"
	"github.com/hupe1980/groupmesh/core"
)

type echo struct{ name string }

func (p *echo) Name() string        { return p.name }
func (p *echo) Description() string { return "echo " + p.name }

func (p *echo) Respond(turnCtx *core.TurnContext, transcript core.Transcript) (core.Message, error) {
	return core.NewTextMessage(p.name, "done TERMINATE"), nil
}

func TestMeshRunsChatWithSharedStores(t *testing.T) {
	mesh := New()

	result, err := mesh.Run(
		context.Background(),
		"sess1",
		[]core.Participant{&echo{name: "Solo"}},
		core.NewUserMessage("User", "go"),
	)
	require.NoError(t, err)
	assert.Equal(t, chat.StopTerminated, result.Reason)

	// The chat persisted its transcript into the mesh's session store.
	sess, err := mesh.SessionStore().Get("sess1")
	require.NoError(t, err)
	assert.Equal(t, 2, sess.GetTranscript().Len())
}

func TestNewChatAppliesOverrides(t *testing.T) {
	mesh := New()

	gc, err := mesh.NewChat([]core.Participant{&echo{name: "Solo"}}, func(o *chat.Options) {
		o.ChatID = "chat-override"
	})
	require.NoError(t, err)
	assert.Equal(t, "chat-override", gc.ChatID())
}

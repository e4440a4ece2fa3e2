package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/groupmesh/core"
)

// Interface compliance (compile-time assertion)
var _ core.SessionStore = (*InMemoryStore)(nil)

func TestInMemoryStoreAppendAndGet(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.AppendMessage("s1", core.NewTextMessage("Admin", "start")))
	require.NoError(t, store.AppendMessage("s1", core.NewTextMessage("Planner", "plan")))

	sess, err := store.Get("s1")
	require.NoError(t, err)
	assert.Len(t, sess.GetMessages(), 2)

	// Returned session is a clone; mutations do not leak back.
	sess.AddMessage(core.NewTextMessage("Mallory", "sneak"))
	fresh, err := store.Get("s1")
	require.NoError(t, err)
	assert.Len(t, fresh.GetMessages(), 2)
}

func TestInMemoryStoreApplyDelta(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.ApplyDelta("s1", map[string]interface{}{"topic": "cruise"}))

	sess, err := store.Get("s1")
	require.NoError(t, err)
	v, ok := sess.GetState("topic")
	assert.True(t, ok)
	assert.Equal(t, "cruise", v)
}

func TestInMemoryStoreLazyCreate(t *testing.T) {
	store := NewInMemoryStore()

	sess, err := store.Get("missing")
	require.NoError(t, err)
	assert.Equal(t, "missing", sess.ID)
	assert.Empty(t, sess.GetMessages())
}

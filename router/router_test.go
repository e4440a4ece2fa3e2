package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/groupmesh/core"
)

func next(t *testing.T, d core.RoutingDecision) string {
	t.Helper()
	name, ok := d.Next()
	require.True(t, ok, "expected a concrete decision, got %s", d)
	return name
}

func TestLinearTransitions(t *testing.T) {
	r := New(PolicyLinear)

	tests := []struct {
		name        string
		lastSpeaker string
		lastText    string
		want        string
		wantAuto    bool
	}{
		{name: "admin starts planning", lastSpeaker: "Admin", want: "Planner"},
		{name: "planner defers to auto", lastSpeaker: "Planner", wantAuto: true},
		{name: "researcher hands to executor", lastSpeaker: "Researcher", lastText: "searching...", want: "Executor"},
		{name: "executor failure retries research", lastSpeaker: "Executor", lastText: "exitcode: 1", want: "Researcher"},
		{name: "executor success resumes planning", lastSpeaker: "Executor", lastText: "results: ...", want: "Planner"},
		{name: "failure code must match exactly", lastSpeaker: "Executor", lastText: "exitcode: 1 (error)", want: "Planner"},
		{name: "writer closes the cycle", lastSpeaker: "Writer", lastText: "the ad TERMINATE", want: "Admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := core.NewTranscript(core.NewTextMessage(tt.lastSpeaker, tt.lastText))
			d, err := r.Route(tt.lastSpeaker, tr)
			require.NoError(t, err)
			if tt.wantAuto {
				assert.True(t, d.IsAuto())
				return
			}
			assert.Equal(t, tt.want, next(t, d))
		})
	}
}

func TestLinearHandoffTransitions(t *testing.T) {
	r := New(PolicyLinearHandoff)

	tr := core.NewTranscript(core.NewTextMessage("Researcher", "Full report ... COMPLETE"))
	d, err := r.Route("Researcher", tr)
	require.NoError(t, err)
	assert.Equal(t, "Writer", next(t, d))

	tr = core.NewTranscript(core.NewTextMessage("Researcher", "still digging"))
	d, err = r.Route("Researcher", tr)
	require.NoError(t, err)
	assert.Equal(t, "Planner", next(t, d))
}

func TestCompletionTokenTransitions(t *testing.T) {
	r := New(PolicyCompletionToken)

	tests := []struct {
		name        string
		lastSpeaker string
		lastText    string
		want        string
		wantAuto    bool
	}{
		{name: "admin starts planning", lastSpeaker: "Admin", want: "Planner"},
		{name: "planner defers to auto", lastSpeaker: "Planner", wantAuto: true},
		{name: "researcher complete returns to planner", lastSpeaker: "Researcher", lastText: "Report is COMPLETE", want: "Planner"},
		{name: "researcher incomplete loops to executor", lastSpeaker: "Researcher", lastText: "still gathering data", want: "Executor"},
		{name: "token match is case sensitive", lastSpeaker: "Researcher", lastText: "report complete", want: "Executor"},
		{name: "executor complete returns to planner", lastSpeaker: "Executor", lastText: "done, COMPLETE", want: "Planner"},
		{name: "executor incomplete loops to researcher", lastSpeaker: "Executor", lastText: "partial output", want: "Researcher"},
		{name: "writer defers to auto", lastSpeaker: "Writer", wantAuto: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := core.NewTranscript(core.NewTextMessage(tt.lastSpeaker, tt.lastText))
			d, err := r.Route(tt.lastSpeaker, tr)
			require.NoError(t, err)
			if tt.wantAuto {
				assert.True(t, d.IsAuto())
				return
			}
			assert.Equal(t, tt.want, next(t, d))
		})
	}
}

func TestUnmatchedSpeakerIsHardError(t *testing.T) {
	for _, p := range []Policy{PolicyLinear, PolicyLinearHandoff, PolicyCompletionToken} {
		r := New(p)
		tr := core.NewTranscript(core.NewTextMessage("Critic", "my two cents"))

		_, err := r.Route("Critic", tr)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoRule)
		assert.Contains(t, err.Error(), "Critic")
	}
}

func TestRouteIsDeterministicAndReadOnly(t *testing.T) {
	r := New(PolicyCompletionToken)
	tr := core.NewTranscript(
		core.NewTextMessage("Admin", "research this cruise"),
		core.NewTextMessage("Researcher", "still gathering data"),
	)

	first, err := r.Route("Researcher", tr)
	require.NoError(t, err)
	second, err := r.Route("Researcher", tr)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, "still gathering data", tr.At(1).Text())
}

func TestCustomRolesAndTokens(t *testing.T) {
	r := New(PolicyLinear, func(o *Options) {
		o.Roles = Roles{Admin: "Chief", Planner: "Strategist", Researcher: "Scout", Executor: "Runner", Writer: "Scribe"}
		o.FailureCode = "exit status 1"
	})

	tr := core.NewTranscript(core.NewTextMessage("Runner", "exit status 1"))
	d, err := r.Route("Runner", tr)
	require.NoError(t, err)
	assert.Equal(t, "Scout", next(t, d))

	// Default role names no longer match once overridden.
	_, err = r.Route("Admin", tr)
	assert.ErrorIs(t, err, ErrNoRule)
}

func TestEmptyTranscriptContentBranches(t *testing.T) {
	// With no messages at all the content checks see empty text: exact
	// failure-code match fails and token containment fails.
	linear := New(PolicyLinear)
	d, err := linear.Route("Executor", core.NewTranscript())
	require.NoError(t, err)
	assert.Equal(t, "Planner", next(t, d))

	token := New(PolicyCompletionToken)
	d, err = token.Route("Researcher", core.NewTranscript())
	require.NoError(t, err)
	assert.Equal(t, "Executor", next(t, d))
}

// Package router implements deterministic speaker selection for group
// conversations. A Router is a pure function of (last speaker, transcript):
// it inspects who spoke last and the literal content of the most recent
// message, and returns the next participant, an AUTO deferral, or an end
// signal. It never mutates the transcript and never calls external services.
package router

import (
	"fmt"
	"strings"

	"github.com/hupe1980/groupmesh/core"
)

// Policy selects one of the supported routing strategies. It is a tagged
// variant consumed by a single table-driven router rather than a callback,
// so the active strategy is explicit and serializable.
type Policy int

const (
	// PolicyLinear is a linear pipeline with retry-on-failure:
	// Admin -> Planner -> AUTO -> Researcher -> Executor -> {Researcher|Planner} -> Writer -> Admin.
	// The Executor branch retries via the Researcher when the last message is
	// exactly the failure code, otherwise resumes planning.
	PolicyLinear Policy = iota

	// PolicyLinearHandoff extends PolicyLinear with a Researcher content
	// branch: a completed report (completion token present) hands off
	// directly to the Writer instead of returning to the Planner.
	PolicyLinearHandoff

	// PolicyCompletionToken routes on completion-token detection for both
	// the Researcher and the Executor, looping research/execution until the
	// token appears, then returning to the Planner.
	PolicyCompletionToken
)

// String returns the policy name used in logs.
func (p Policy) String() string {
	switch p {
	case PolicyLinear:
		return "linear"
	case PolicyLinearHandoff:
		return "linear-handoff"
	case PolicyCompletionToken:
		return "completion-token"
	default:
		return "unknown"
	}
}

// Roles names the participants the routing tables refer to. Defaults match
// the canonical five-role promo pipeline; override when participants are
// registered under different names.
type Roles struct {
	Admin      string
	Planner    string
	Researcher string
	Executor   string
	Writer     string
}

// DefaultRoles returns the canonical role names.
func DefaultRoles() Roles {
	return Roles{
		Admin:      "Admin",
		Planner:    "Planner",
		Researcher: "Researcher",
		Executor:   "Executor",
		Writer:     "Writer",
	}
}

// Options configure a Router instance.
type Options struct {
	// Roles maps the routing tables onto participant names.
	Roles Roles
	// CompletionToken is the literal substring signalling a finished
	// research/writing step (case-sensitive, matched anywhere).
	CompletionToken string
	// FailureCode is the literal content reported by the executor on a
	// failed execution (matched by exact equality).
	FailureCode string
}

// Router selects the next speaker for a group conversation. It holds no
// mutable state; the same Router value can serve many conversations.
type Router struct {
	policy          Policy
	roles           Roles
	completionToken string
	failureCode     string
}

// New constructs a Router for the given policy with optional overrides.
func New(policy Policy, optFns ...func(o *Options)) *Router {
	opts := Options{
		Roles:           DefaultRoles(),
		CompletionToken: "COMPLETE",
		FailureCode:     "exitcode: 1",
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Router{
		policy:          policy,
		roles:           opts.Roles,
		completionToken: opts.CompletionToken,
		failureCode:     opts.FailureCode,
	}
}

// Policy returns the active routing policy.
func (r *Router) Policy() Policy { return r.policy }

// Route returns the routing decision for the participant that should speak
// after lastSpeaker. The decision depends only on lastSpeaker and the text
// of the most recent transcript message; identical inputs always yield the
// identical decision.
//
// A speaker with no transition rule is a hard error wrapping ErrNoRule;
// the caller decides whether to abort or fall back to automatic selection.
func (r *Router) Route(lastSpeaker string, transcript core.Transcript) (core.RoutingDecision, error) {
	var lastText string
	if last, ok := transcript.Last(); ok {
		lastText = last.Text()
	}

	switch r.policy {
	case PolicyLinear:
		return r.routeLinear(lastSpeaker, lastText, false)
	case PolicyLinearHandoff:
		return r.routeLinear(lastSpeaker, lastText, true)
	case PolicyCompletionToken:
		return r.routeCompletionToken(lastSpeaker, lastText)
	default:
		return core.RoutingDecision{}, fmt.Errorf("%w: unknown policy %d", ErrNoRule, r.policy)
	}
}

// routeLinear implements the retry-on-failure pipeline. With handoff enabled
// a completed Researcher report goes straight to the Writer.
func (r *Router) routeLinear(lastSpeaker, lastText string, handoff bool) (core.RoutingDecision, error) {
	switch lastSpeaker {
	case r.roles.Admin:
		// init -> plan
		return core.RouteTo(r.roles.Planner), nil
	case r.roles.Planner:
		return core.RouteAuto(), nil
	case r.roles.Researcher:
		if handoff && strings.Contains(lastText, r.completionToken) {
			return core.RouteTo(r.roles.Writer), nil
		}
		if handoff {
			return core.RouteTo(r.roles.Planner), nil
		}
		return core.RouteTo(r.roles.Executor), nil
	case r.roles.Executor:
		if lastText == r.failureCode {
			// execution failed -> retry research
			return core.RouteTo(r.roles.Researcher), nil
		}
		// execution succeeded -> resume planning
		return core.RouteTo(r.roles.Planner), nil
	case r.roles.Writer:
		// end of cycle
		return core.RouteTo(r.roles.Admin), nil
	}

	return core.RoutingDecision{}, fmt.Errorf("%w: speaker %q", ErrNoRule, lastSpeaker)
}

// routeCompletionToken implements the completion-token pipeline.
func (r *Router) routeCompletionToken(lastSpeaker, lastText string) (core.RoutingDecision, error) {
	switch lastSpeaker {
	case r.roles.Executor:
		if strings.Contains(lastText, r.completionToken) {
			return core.RouteTo(r.roles.Planner), nil
		}
		return core.RouteTo(r.roles.Researcher), nil
	case r.roles.Planner:
		return core.RouteAuto(), nil
	case r.roles.Researcher:
		if strings.Contains(lastText, r.completionToken) {
			return core.RouteTo(r.roles.Planner), nil
		}
		return core.RouteTo(r.roles.Executor), nil
	case r.roles.Admin:
		return core.RouteTo(r.roles.Planner), nil
	case r.roles.Writer:
		return core.RouteAuto(), nil
	}

	return core.RoutingDecision{}, fmt.Errorf("%w: speaker %q", ErrNoRule, lastSpeaker)
}

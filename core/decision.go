package core

// routeKind discriminates the RoutingDecision variants.
type routeKind int

const (
	routeNext routeKind = iota
	routeAuto
	routeEnd
)

// RoutingDecision is the outcome of a speaker selection: either a concrete
// next participant, a deferral to the automatic selection policy (AUTO), or
// the end of the conversation. The zero value is not a valid decision; use
// the constructors.
type RoutingDecision struct {
	kind routeKind
	next string
}

// RouteTo selects the named participant as the next speaker.
func RouteTo(name string) RoutingDecision {
	return RoutingDecision{kind: routeNext, next: name}
}

// RouteAuto defers the selection to the configured automatic policy.
func RouteAuto() RoutingDecision { return RoutingDecision{kind: routeAuto} }

// RouteEnd terminates the conversation.
func RouteEnd() RoutingDecision { return RoutingDecision{kind: routeEnd} }

// Next returns the selected participant name and true for a concrete
// decision, or "" and false for the AUTO / END sentinels.
func (d RoutingDecision) Next() (string, bool) {
	if d.kind != routeNext {
		return "", false
	}
	return d.next, true
}

// IsAuto reports whether the decision defers to automatic selection.
func (d RoutingDecision) IsAuto() bool { return d.kind == routeAuto }

// IsEnd reports whether the decision ends the conversation.
func (d RoutingDecision) IsEnd() bool { return d.kind == routeEnd }

// String returns a human-readable form used in logs.
func (d RoutingDecision) String() string {
	switch d.kind {
	case routeAuto:
		return "AUTO"
	case routeEnd:
		return "END"
	default:
		return d.next
	}
}

package router

import "errors"

// ErrNoRule is returned when the last speaker matches none of the enumerated
// roles of the active policy. The router never silently defaults: an
// unmatched speaker is surfaced to the conversation loop, which decides
// whether to abort the conversation or fall back to automatic selection.
var ErrNoRule = errors.New("no routing rule matched")

// Package core provides the foundational domain types, interfaces and execution
// contexts used by GroupMesh. It defines the core abstractions for:
//
//   - Participants (named roles taking turns in a group conversation)
//   - Messages (immutable turn records with text and tool-call parts)
//   - Transcripts (append-only, read-only conversation history views)
//   - RoutingDecisions (next speaker, AUTO deferral, or end of conversation)
//   - TurnContext / ToolContext (scoped execution & tool sandboxing)
//   - Pluggable stores for session state, artifacts and memory recall/search
//
// The package intentionally keeps implementation concerns (persistence, chat
// orchestration, concrete participants) out of scope, exposing small
// interfaces to enable custom backends and extensions.
package core

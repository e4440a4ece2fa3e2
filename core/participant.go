package core

// Participant defines the interface all conversational roles in GroupMesh
// must implement.
//
// A participant receives the read-only transcript for the current
// conversation plus a TurnContext scoping stores and logging, and produces
// exactly one message for its turn. Identity is the participant name; the
// conversation loop and the speaker router compare participants by name only.
//
// Implementations must:
//   - Respect context cancellation exposed through the TurnContext
//   - Never mutate the transcript (it is a value type, reads only)
//   - Return an error instead of a message when the turn cannot be produced
type Participant interface {
	Name() string
	Description() string
	Respond(turnCtx *TurnContext, transcript Transcript) (Message, error)
}

// ParticipantInfo carries identifying details about a participant used in
// contexts and logs. Name is the external identifier; Kind categorizes the
// implementation (e.g. "model", "proxy", "executor").
type ParticipantInfo struct{ Name, Kind string }

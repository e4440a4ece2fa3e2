// Package participant provides concrete implementations of core.Participant:
// model-backed speakers, human (or scripted) proxies and a tool executor.
//
// A participant produces exactly one message per turn when the conversation
// loop selects it. The package keeps participants decoupled from speaker
// selection: who talks next is decided by the router and the loop, never by
// the participants themselves.
package participant

// Package testutil provides fluent builders for the core conversation
// types (messages with text/tool-call/tool-response parts, sessions with
// seeded state and history) so tests can construct realistic transcripts
// without repeating Part-assembly boilerplate. Test-only; nothing here is
// part of the public API.
package testutil

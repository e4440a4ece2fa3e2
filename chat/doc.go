// Package chat implements the group conversation loop. A GroupChat owns the
// shared transcript, selects the next speaker each round (deterministic
// router first, automatic selector as fallback), enforces the round limit and
// detects termination markers. Participants never talk to each other
// directly; every message flows through the loop.
package chat

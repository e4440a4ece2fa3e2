package core

import (
	"fmt"
	"sync"
)

// RoundLimiter enforces a maximum number of turns per conversation.
type RoundLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewRoundLimiter creates a new limiter with a max number of rounds.
// If max == 0, unlimited rounds are allowed.
func NewRoundLimiter(max int) *RoundLimiter {
	return &RoundLimiter{max: max}
}

// Increment increases the round counter and returns an error if the limit is exceeded.
func (rl *RoundLimiter) Increment() error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.count++
	if rl.max > 0 && rl.count > rl.max {
		return fmt.Errorf("exceeded max rounds: %d", rl.max)
	}

	return nil
}

// Count returns the current number of rounds taken.
func (rl *RoundLimiter) Count() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return rl.count
}

// Remaining returns how many rounds are left before hitting the limit.
func (rl *RoundLimiter) Remaining() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.max == 0 {
		return -1 // unlimited
	}

	return rl.max - rl.count
}

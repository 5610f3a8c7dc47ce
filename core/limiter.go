package core

import (
	"fmt"
	"sync"
)

// IterationLimiter enforces the maximum number of action/observation
// pairs allowed per run.
type IterationLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewIterationLimiter creates a limiter with a max number of iterations.
// If max == 0, unlimited iterations are allowed.
func NewIterationLimiter(max int) *IterationLimiter {
	return &IterationLimiter{max: max}
}

// Increment increases the iteration counter and returns an error if the
// budget is exceeded.
func (il *IterationLimiter) Increment() error {
	il.mu.Lock()
	defer il.mu.Unlock()

	il.count++
	if il.max > 0 && il.count > il.max {
		return fmt.Errorf("exceeded max iterations: %d", il.max)
	}

	return nil
}

// Exhausted reports whether the budget has been fully spent.
func (il *IterationLimiter) Exhausted() bool {
	il.mu.Lock()
	defer il.mu.Unlock()

	return il.max > 0 && il.count >= il.max
}

// Count returns the current number of iterations.
func (il *IterationLimiter) Count() int {
	il.mu.Lock()
	defer il.mu.Unlock()

	return il.count
}

// Remaining returns how many iterations are left before hitting the
// limit, or -1 when unlimited.
func (il *IterationLimiter) Remaining() int {
	il.mu.Lock()
	defer il.mu.Unlock()

	if il.max == 0 {
		return -1
	}

	return il.max - il.count
}

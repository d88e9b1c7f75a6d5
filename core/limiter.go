package core

import (
	"fmt"
	"sync"
)

// DepthLimiter enforces the maximum tool-call recursion depth per turn.
type DepthLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewDepthLimiter creates a limiter with a maximum depth. If max == 0,
// unlimited depth is allowed.
func NewDepthLimiter(max int) *DepthLimiter {
	return &DepthLimiter{max: max}
}

// Increment increases the depth counter and returns an error wrapping
// ErrRecursionLimitExceeded once the configured depth would be exceeded.
func (dl *DepthLimiter) Increment() error {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	dl.count++
	if dl.max > 0 && dl.count > dl.max {
		return fmt.Errorf("%w: depth %d", ErrRecursionLimitExceeded, dl.max)
	}

	return nil
}

// Count returns the current depth.
func (dl *DepthLimiter) Count() int {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	return dl.count
}

// Remaining returns how many tool rounds are left, or -1 when unlimited.
func (dl *DepthLimiter) Remaining() int {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	if dl.max == 0 {
		return -1
	}

	return dl.max - dl.count
}

package task

import (
	"fmt"
	"runtime"
	"sync/atomic"
)

// Counter tracks the number of outstanding tasks in one phase of a frame.
// The task whose Done call brings it to zero is responsible for starting the next phase.
type Counter struct {
	pending atomic.Int64
}

// Add registers n more outstanding tasks. It must be called before the tasks are submitted.
func (c *Counter) Add(n int) {
	c.pending.Add(int64(n))
}

// Done marks one task complete.
//
// Returns:
//   - bool: true for exactly one caller, the one that completed the last outstanding task
func (c *Counter) Done() bool {
	v := c.pending.Add(-1)
	if v < 0 {
		panic(fmt.Sprintf("task: counter decremented below zero (%d)", v))
	}
	return v == 0
}

// Pending returns the number of outstanding tasks.
func (c *Counter) Pending() int {
	return int(c.pending.Load())
}

// IsZero reports whether all registered tasks have completed.
func (c *Counter) IsZero() bool {
	return c.pending.Load() == 0
}

// Reset forgets all outstanding tasks. Only call it between frames.
func (c *Counter) Reset() {
	c.pending.Store(0)
}

// WaitUntilZero polls until the counter reaches zero. Between polls it calls idle,
// or yields the goroutine when idle is nil, so the caller can interleave other work.
func (c *Counter) WaitUntilZero(idle func()) {
	for c.pending.Load() > 0 {
		if idle != nil {
			idle()
		} else {
			runtime.Gosched()
		}
	}
}

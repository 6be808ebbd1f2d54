package worker

import "sync/atomic"

// CancelFlag is the one-way, monotonic cancellation signal shared by all
// workers of a single job run. Once set it is never cleared until the
// run's tracking state is reset for the next start.
type CancelFlag struct {
	set atomic.Bool
}

// Set raises the flag. Safe to call from any worker or from the stop
// protocol; repeated calls are harmless.
func (c *CancelFlag) Set() {
	c.set.Store(true)
}

// IsSet reports whether the flag has been raised.
func (c *CancelFlag) IsSet() bool {
	return c.set.Load()
}

package runner

import "sync/atomic"

// Recorder aggregates send outcomes across workers. Record methods are
// called concurrently from every worker; Snapshot is only called after all
// workers have stopped.
type Recorder interface {
	RecordSuccess()
	RecordFailure()
	Snapshot() (successes, failures uint64)
}

// Counters is the default Recorder: two increment-only atomic counters.
type Counters struct {
	successes atomic.Uint64
	failures  atomic.Uint64
}

// NewCounters returns zeroed counters.
func NewCounters() *Counters {
	return &Counters{}
}

func (c *Counters) RecordSuccess() { c.successes.Add(1) }

func (c *Counters) RecordFailure() { c.failures.Add(1) }

// Snapshot returns the current counts.
func (c *Counters) Snapshot() (successes, failures uint64) {
	return c.successes.Load(), c.failures.Load()
}

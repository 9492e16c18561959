package server

import (
	"sync"
	"time"
)

// JobHealthTracker records each scheduled job's last successful run,
// satisfying scheduler.Reporter. It is the only piece of job state
// the dashboard API reads; everything else comes from the entity
// store.
type JobHealthTracker struct {
	mu   sync.Mutex
	last map[string]time.Time
}

// NewJobHealthTracker builds an empty tracker.
func NewJobHealthTracker() *JobHealthTracker {
	return &JobHealthTracker{last: make(map[string]time.Time)}
}

// RecordSuccess implements scheduler.Reporter.
func (t *JobHealthTracker) RecordSuccess(job string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[job] = at
}

// Snapshot returns a copy of every job's last-success timestamp.
func (t *JobHealthTracker) Snapshot() map[string]time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]time.Time, len(t.last))
	for k, v := range t.last {
		out[k] = v
	}
	return out
}

package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fakeJob struct {
	name string
	run  func(ctx context.Context) error
}

func (f *fakeJob) Name() string                  { return f.name }
func (f *fakeJob) Run(ctx context.Context) error { return f.run(ctx) }

type fakeReporter struct {
	mu   sync.Mutex
	jobs []string
}

func (r *fakeReporter) RecordSuccess(job string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
}

func (r *fakeReporter) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.jobs...)
}

func TestScheduler_RunNowReportsSuccess(t *testing.T) {
	sched := New(zerolog.Nop())
	reporter := &fakeReporter{}
	sched.SetReporter(reporter)

	job := &fakeJob{name: "trending_seed", run: func(ctx context.Context) error { return nil }}
	sched.RunNow(job, time.Second)

	assert.Equal(t, []string{"trending_seed"}, reporter.recorded())
}

func TestScheduler_RunNowDoesNotReportOnFailure(t *testing.T) {
	sched := New(zerolog.Nop())
	reporter := &fakeReporter{}
	sched.SetReporter(reporter)

	job := &fakeJob{name: "wallet_discovery", run: func(ctx context.Context) error { return errors.New("boom") }}
	sched.RunNow(job, time.Second)

	assert.Empty(t, reporter.recorded())
}

func TestScheduler_RunNowAppliesTimeout(t *testing.T) {
	sched := New(zerolog.Nop())

	var sawDeadline bool
	job := &fakeJob{name: "whale_discovery", run: func(ctx context.Context) error {
		_, sawDeadline = ctx.Deadline()
		return nil
	}}
	sched.RunNow(job, 50*time.Millisecond)

	assert.True(t, sawDeadline, "a positive timeout must produce a context deadline")
}

func TestScheduler_RunNowWithoutReporterDoesNotPanic(t *testing.T) {
	sched := New(zerolog.Nop())
	job := &fakeJob{name: "stats_rollup", run: func(ctx context.Context) error { return nil }}
	assert.NotPanics(t, func() { sched.RunNow(job, time.Second) })
}

func TestScheduler_AddJobRejectsInvalidSchedule(t *testing.T) {
	sched := New(zerolog.Nop())
	job := &fakeJob{name: "position_management", run: func(ctx context.Context) error { return nil }}
	err := sched.AddJob("not a cron schedule", job, time.Second)
	assert.Error(t, err)
}

func TestScheduler_AddJobAcceptsValidSchedule(t *testing.T) {
	sched := New(zerolog.Nop())
	job := &fakeJob{name: "watchlist_maintenance", run: func(ctx context.Context) error { return nil }}
	err := sched.AddJob("0 */5 * * * *", job, time.Second)
	assert.NoError(t, err)
}

package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job represents a scheduled job. Run must release any session or
// adapter resource it acquires on every exit path, including ctx
// cancellation.
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Reporter observes job completions, for the /health endpoint's
// per-job last-success view. Optional: a nil Reporter on Scheduler
// disables reporting entirely.
type Reporter interface {
	RecordSuccess(job string, at time.Time)
}

// Scheduler manages background jobs with at-most-one-concurrent-
// instance-per-job and an outer timeout per run.
type Scheduler struct {
	cron     *cron.Cron
	log      zerolog.Logger
	reporter Reporter
}

// New creates a new scheduler.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds(), cron.WithChain(
			cron.Recover(cron.DefaultLogger),
		)),
		log: log.With().Str("component", "scheduler").Logger(),
	}
}

// SetReporter attaches a job-completion observer used for every
// subsequent run.
func (s *Scheduler) SetReporter(r Reporter) { s.reporter = r }

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop drains in-flight jobs and stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}

// AddJob registers a job on a cron schedule with a per-run timeout.
// SkipIfStillRunning guarantees the job-level mutual exclusion the
// concurrency model requires: a slow run is never doubled up by the
// next tick.
//
// Schedule examples:
//   - "0 */5 * * * *"   - every 5 minutes
//   - "@hourly"         - every hour
//   - "@every 30s"      - every 30 seconds
func (s *Scheduler) AddJob(schedule string, job Job, timeout time.Duration) error {
	wrapped := cron.NewChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
	).Then(cron.FuncJob(func() {
		s.runOnce(job, timeout)
	}))

	_, err := s.cron.AddJob(schedule, wrapped)
	if err != nil {
		return err
	}

	s.log.Info().Str("schedule", schedule).Str("job", job.Name()).Msg("job registered")
	return nil
}

func (s *Scheduler) runOnce(job Job, timeout time.Duration) {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	s.log.Debug().Str("job", job.Name()).Msg("running job")
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.log.Error().Err(err).Str("job", job.Name()).Dur("elapsed", time.Since(start)).Msg("job failed")
		return
	}
	if s.reporter != nil {
		s.reporter.RecordSuccess(job.Name(), time.Now())
	}
	s.log.Debug().Str("job", job.Name()).Dur("elapsed", time.Since(start)).Msg("job completed")
}

// RunNow executes a job immediately, outside its schedule, bounded by
// the same timeout discipline.
func (s *Scheduler) RunNow(job Job, timeout time.Duration) {
	s.log.Info().Str("job", job.Name()).Msg("running job immediately")
	s.runOnce(job, timeout)
}

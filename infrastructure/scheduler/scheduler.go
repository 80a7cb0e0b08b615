// Package scheduler runs the platform's periodic jobs: start-of-day limit
// rebuilds, the inventory drift-verification sweep, and locate expiry.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/globalprime/inventory-platform/infrastructure/hotlog"
)

// Job is one periodic unit of work. Run receives its caller's context;
// runs fired by the schedule get context.Background(), which has no
// deadline and is never cancelled.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobFunc adapts a function to Job.
type JobFunc struct {
	JobName string
	Fn      func(ctx context.Context) error
}

func (f JobFunc) Name() string                      { return f.JobName }
func (f JobFunc) Run(ctx context.Context) error      { return f.Fn(ctx) }

// Scheduler wraps a cron.Cron instance with structured logging around each
// job invocation.
type Scheduler struct {
	cron *cron.Cron
	log  hotlog.Logger
}

// New builds a Scheduler. Seconds-resolution schedules are supported, since
// the locate-expiry sweep runs sub-minute in practice.
func New(log hotlog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log,
	}
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop blocks until running jobs finish or the context given to Stop's
// caller is irrelevant — cron.Cron.Stop returns a context that closes when
// drained.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	<-done.Done()
	s.log.Info().Msg("scheduler stopped")
}

// AddJob registers job against a standard cron schedule expression (with
// seconds field, e.g. "0 0 * * * *" for hourly on the minute, or
// "@every 30s").
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx := context.Background()
		if err := job.Run(ctx); err != nil {
			s.log.Error().Err(err).Str("job", job.Name()).Msg("scheduled job failed")
			return
		}
		s.log.Debug().Str("job", job.Name()).Msg("scheduled job completed")
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("schedule", schedule).Str("job", job.Name()).Msg("job registered")
	return nil
}

// RunNow executes job immediately, outside its schedule — used for manual
// operator-triggered reruns.
func (s *Scheduler) RunNow(ctx context.Context, job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("running job on demand")
	return job.Run(ctx)
}

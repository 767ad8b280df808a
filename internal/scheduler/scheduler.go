// Package scheduler drives periodic pipeline runs on a cron schedule
// (spec §5's operator-facing scheduling surface), independent of any
// runs triggered ad hoc through the HTTP API.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Runner triggers one pipeline run.
type Runner interface {
	TriggerRun(ctx context.Context) error
}

// Scheduler wraps a cron instance dedicated to periodic run triggers.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	log    zerolog.Logger
}

// New builds a Scheduler that has not yet been started.
func New(runner Runner, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		runner: runner,
		log:    log,
	}
}

// Schedule registers spec as a standard 6-field cron expression (with
// seconds) that triggers a run each time it fires.
func (s *Scheduler) Schedule(spec string) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, func() {
		if err := s.runner.TriggerRun(context.Background()); err != nil {
			s.log.Error().Err(err).Msg("scheduled run failed")
		}
	})
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler, waiting for any in-flight job to return.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

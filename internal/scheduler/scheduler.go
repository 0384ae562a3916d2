package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"Certus/internal/usecase"
	applogger "Certus/pkg/logger"
)

// Specs are six-field cron expressions (with seconds). An empty spec
// disables the job.
type Specs struct {
	Markets   string
	Feeds     string
	Quotes    string
	Analytics string
}

// Runner is the part of the pipeline runner the scheduler needs.
type Runner interface {
	Run(ctx context.Context, stages []string) (usecase.RunReport, error)
}

// Scheduler triggers pipeline runs on cron schedules. A job that is still
// running when its next tick fires is skipped.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	l      *applogger.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a new Scheduler.
func NewScheduler(runner Runner, l *applogger.Logger) *Scheduler {
	if l == nil {
		l = applogger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		runner: runner,
		l:      l.With(applogger.String("component", "scheduler")),
		ctx:    ctx,
		cancel: cancel,
	}
}

// RegisterAll registers one job per non-empty spec.
func (s *Scheduler) RegisterAll(specs Specs) error {
	jobs := []struct {
		name   string
		spec   string
		stages []string
	}{
		{"markets", specs.Markets, []string{usecase.StageMarkets}},
		{"feeds", specs.Feeds, []string{usecase.StageFeeds}},
		{"quotes", specs.Quotes, []string{usecase.StageQuotes}},
		{"analytics", specs.Analytics, usecase.AnalyticsOnly},
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(j.spec, s.job(j.name, j.stages)); err != nil {
			return fmt.Errorf("register %s job: %w", j.name, err)
		}
		s.l.Info("job registered", applogger.String("job", j.name), applogger.String("spec", j.spec))
	}
	return nil
}

func (s *Scheduler) job(name string, stages []string) func() {
	return func() {
		rep, err := s.runner.Run(s.ctx, stages)
		switch {
		case errors.Is(err, usecase.ErrPaused):
			// logged by the runner
		case err != nil:
			s.l.Error("scheduled run failed", applogger.String("job", name), applogger.String("run_id", rep.RunID), applogger.Error(err))
		default:
			s.l.Debug("scheduled run done", applogger.String("job", name), applogger.String("run_id", rep.RunID))
		}
	}
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.l.Info("scheduler started")
}

// Stop cancels in-flight runs and waits for them to return or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	s.l.Info("scheduler stopped")
}

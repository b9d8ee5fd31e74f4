// Package schedule runs the standing collection and reporting jobs on
// wall-clock cron schedules.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"f0oster/zbxspy/jobs"
	"f0oster/zbxspy/metrics"
	"f0oster/zbxspy/period"
)

// Specs holds the cron expressions for the three standing jobs.
type Specs struct {
	Daily   string
	Weekly  string
	Monthly string
}

// Scheduler owns the cron runner. Jobs are chained through
// DelayIfStillRunning, so an overlapping trigger waits for the previous
// run instead of racing it, and panics are recovered and logged.
type Scheduler struct {
	cron    *cron.Cron
	runner  *jobs.Runner
	log     *slog.Logger
	now     func() time.Time
	dailyID cron.EntryID
}

func New(runner *jobs.Runner, log *slog.Logger) *Scheduler {
	s := &Scheduler{runner: runner, log: log, now: time.Now}
	cl := cronLogger{log: log}
	s.cron = cron.New(cron.WithChain(
		cron.Recover(cl),
		cron.DelayIfStillRunning(cl),
	))
	return s
}

// Register installs the standing jobs. Invalid cron expressions fail fast.
func (s *Scheduler) Register(specs Specs) error {
	id, err := s.cron.AddFunc(specs.Daily, s.job("daily", s.daily))
	if err != nil {
		return fmt.Errorf("daily schedule %q: %w", specs.Daily, err)
	}
	s.dailyID = id
	if _, err := s.cron.AddFunc(specs.Weekly, s.job("weekly", s.weekly)); err != nil {
		return fmt.Errorf("weekly schedule %q: %w", specs.Weekly, err)
	}
	if _, err := s.cron.AddFunc(specs.Monthly, s.job("monthly", s.monthly)); err != nil {
		return fmt.Errorf("monthly schedule %q: %w", specs.Monthly, err)
	}
	return nil
}

// Start begins scheduling in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop halts scheduling; the returned context is done once any running
// job has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunDailyNow executes the daily job once, outside its schedule, through
// the same recovery and serialization chain as a cron trigger. It is a
// no-op before Register.
func (s *Scheduler) RunDailyNow() {
	if entry := s.cron.Entry(s.dailyID); entry.Valid() {
		entry.WrappedJob.Run()
	}
}

// job wraps one standing job with a run id, timing, metrics and outcome
// classification. Missing-data conditions are skips, not failures.
func (s *Scheduler) job(name string, fn func(context.Context, *slog.Logger) error) func() {
	return func() {
		log := s.log.With("job", name, "run_id", uuid.NewString())
		start := s.now()
		log.Info("job started")

		err := fn(context.Background(), log)

		elapsed := time.Since(start)
		metrics.JobDuration.WithLabelValues(name).Observe(elapsed.Seconds())
		switch {
		case err == nil:
			metrics.JobRuns.WithLabelValues(name, "ok").Inc()
			log.Info("job finished", "elapsed", elapsed)
		case errors.Is(err, period.ErrInsufficientData), errors.Is(err, jobs.ErrMissingSnapshot):
			metrics.JobRuns.WithLabelValues(name, "skipped").Inc()
			log.Warn("job skipped", "reason", err)
		default:
			metrics.JobRuns.WithLabelValues(name, "error").Inc()
			log.Error("job failed", "error", err)
		}
	}
}

// daily collects today's snapshot and reports against the previous one.
// A failed collection skips the report; yesterday's data stays untouched.
func (s *Scheduler) daily(ctx context.Context, log *slog.Logger) error {
	runner := s.runner.WithLogger(log)

	if _, err := runner.Collect(ctx, true); err != nil {
		return err
	}
	return runner.DailyReport(ctx, "", "")
}

func (s *Scheduler) weekly(ctx context.Context, log *slog.Logger) error {
	return s.runner.WithLogger(log).PeriodReport(ctx, "Weekly", 7)
}

// monthly fires every day at its scheduled time but only does work on the
// first of the month, covering the longest month's trailing window.
func (s *Scheduler) monthly(ctx context.Context, log *slog.Logger) error {
	if s.now().Day() != 1 {
		log.Debug("not the first of the month, skipping")
		return nil
	}
	return s.runner.WithLogger(log).PeriodReport(ctx, "Monthly", 31)
}

// cronLogger adapts slog to the cron logger interface.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}

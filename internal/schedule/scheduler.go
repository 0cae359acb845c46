package schedule

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Job is a named task that runs at a fixed local time each day.
type Job struct {
	Name string
	At   string // "15:04"
	Run  func(ctx context.Context) error

	hour, minute int
}

// Scheduler runs daily jobs. It is deliberately small: the jobs here
// are a daily scan and a deadline check, which do not need cron
// expressions.
type Scheduler struct {
	jobs   []*Job
	logger *zap.Logger
	now    func() time.Time
}

func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{logger: logger.Named("scheduler"), now: time.Now}
}

// Daily registers a job to run every day at the given wall-clock time.
func (s *Scheduler) Daily(name, at string, run func(ctx context.Context) error) error {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return fmt.Errorf("job %s: invalid time %q: %w", name, at, err)
	}
	s.jobs = append(s.jobs, &Job{
		Name:   name,
		At:     at,
		Run:    run,
		hour:   t.Hour(),
		minute: t.Minute(),
	})
	return nil
}

// Run blocks until the context is canceled, firing each job at its
// scheduled time. A failing job is logged and rescheduled for the next
// day.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.jobs) == 0 {
		return fmt.Errorf("no jobs registered")
	}

	for _, job := range s.jobs {
		s.logger.Info("job scheduled", zap.String("job", job.Name), zap.String("at", job.At))
		go s.runJobLoop(ctx, job)
	}

	<-ctx.Done()
	return ctx.Err()
}

func (s *Scheduler) runJobLoop(ctx context.Context, job *Job) {
	for {
		wait := time.Until(nextRunTime(s.now(), job.hour, job.minute))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		s.runJob(ctx, job)
	}
}

func (s *Scheduler) runJob(ctx context.Context, job *Job) {
	start := s.now()
	s.logger.Info("job started", zap.String("job", job.Name))
	if err := job.Run(ctx); err != nil {
		s.logger.Error("job failed",
			zap.String("job", job.Name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return
	}
	s.logger.Info("job complete",
		zap.String("job", job.Name),
		zap.Duration("duration", time.Since(start)))
}

// RunOnce executes every registered job immediately, in order.
func (s *Scheduler) RunOnce(ctx context.Context) {
	for _, job := range s.jobs {
		s.runJob(ctx, job)
	}
}

// nextRunTime returns the next occurrence of hour:minute strictly
// after now, in now's location.
func nextRunTime(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

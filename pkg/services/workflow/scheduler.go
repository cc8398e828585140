package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock reads "HH:MM" in 24 hour form.
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid time of day %q, expected HH:MM: %w", s, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Job is one scheduled execution, given the time it was due.
type Job func(ctx context.Context, now time.Time) error

// Scheduler wakes once a day at a fixed local time. It stands in for cron
// on hosts that do not have it.
type Scheduler struct {
	At             Clock
	RunImmediately bool

	job     Job
	nowFn   func() time.Time
	afterFn func(time.Duration) <-chan time.Time
}

func NewScheduler(at Clock, job Job) *Scheduler {
	return &Scheduler{
		At:      at,
		job:     job,
		nowFn:   time.Now,
		afterFn: time.After,
	}
}

// Next returns the first wake time strictly after now, in now's location.
func (s *Scheduler) Next(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.At.Hour, s.At.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run blocks until ctx is cancelled. A failing job is logged and the
// scheduler waits for the next day.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.job == nil {
		return fmt.Errorf("scheduler has no job")
	}
	logger := zerolog.Ctx(ctx)
	logger.Info().Str("at", s.At.String()).Bool("run_immediately", s.RunImmediately).Msg("scheduler started")

	if s.RunImmediately {
		s.execute(ctx, s.nowFn())
	}

	for ctx.Err() == nil {
		now := s.nowFn()
		wakeAt := s.Next(now)
		wait := wakeAt.Sub(now)
		logger.Info().
			Time("next_run", wakeAt).
			Dur("wait", wait.Truncate(time.Second)).
			Msg("waiting for next run")

		select {
		case <-ctx.Done():
		case <-s.afterFn(wait):
			s.execute(ctx, wakeAt)
		}
	}
	logger.Info().Msg("scheduler stopped")
	return nil
}

func (s *Scheduler) execute(ctx context.Context, now time.Time) {
	logger := zerolog.Ctx(ctx)
	start := s.nowFn()
	if err := s.job(ctx, now); err != nil {
		logger.Error().Err(err).Msg("scheduled run failed")
		return
	}
	logger.Info().Dur("elapsed", s.nowFn().Sub(start)).Msg("scheduled run finished")
}

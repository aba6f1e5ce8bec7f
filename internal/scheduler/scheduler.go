package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// CycleFunc is invoked once per collection cycle.
type CycleFunc func(ctx context.Context, cycle time.Time) error

// Options tune scheduler behaviour.
type Options struct {
	Interval     time.Duration
	AlignToStart bool
	StartupDelay time.Duration
}

// Scheduler drives aligned execution of collection cycles.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Scheduler{opts: opts, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Run blocks, invoking fn at each aligned interval until ctx is cancelled.
// Cycle errors are logged, never fatal: the next cycle always runs.
func (s *Scheduler) Run(ctx context.Context, fn CycleFunc) error {
	if s.opts.StartupDelay > 0 {
		timer := time.NewTimer(s.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	next := s.nextCycle(time.Now().UTC())
	for {
		delay := time.Until(next)
		if delay < 0 {
			next = s.nextCycle(time.Now().UTC())
			delay = time.Until(next)
		}

		timer := time.NewTimer(delay)
		s.logger.Debug().Time("next_cycle", next).Msg("waiting for next cycle")

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			timer.Stop()
		}

		cycle := s.cycleStart(next)
		s.logger.Info().Time("cycle", cycle).Msg("executing collection cycle")

		if err := fn(ctx, cycle); err != nil {
			s.logger.Error().Err(err).Time("cycle", cycle).Msg("cycle execution failed")
		}

		next = next.Add(s.opts.Interval)
	}
}

func (s *Scheduler) nextCycle(now time.Time) time.Time {
	if !s.opts.AlignToStart {
		return now.Add(s.opts.Interval)
	}
	cycle := now.Truncate(s.opts.Interval)
	if !cycle.After(now) {
		cycle = cycle.Add(s.opts.Interval)
	}
	return cycle
}

func (s *Scheduler) cycleStart(t time.Time) time.Time {
	if !s.opts.AlignToStart {
		return t
	}
	return t.Truncate(s.opts.Interval)
}

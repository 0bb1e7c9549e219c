// internal/sched/step.go

package sched

import (
	"context"
	"time"
)

// Step executes one tick: the running job consumes a tick of its budget,
// the clock advances, an exhausted job waits for its next period, and the
// tick interrupt runs the scheduling point. Jobs dispatched at the new
// instant draw their budget from their workload; zero-cost jobs complete
// immediately.
func (s *Scheduler) Step(ctx context.Context) Tick {
	s.mu.Lock()
	defer s.unlock()

	if !s.started {
		s.startLocked()
	}
	s.dispatchBudgets(ctx, s.clock.Now())

	var cur *task
	if s.running != NoTask {
		cur = s.registry.mustGet(s.running)
		if cur.budget > 0 {
			cur.budget--
		}
	}

	now := s.clock.Advance()
	if cur != nil && cur.state == StateRunning && cur.budget == 0 {
		s.completeJob(cur, now)
	}
	s.tick(now)
	s.dispatchBudgets(ctx, now)
	return now
}

// dispatchBudgets draws the budget of the running job if it has none yet and
// completes jobs that need no CPU, until the running job has work left or
// the CPU is idle.
func (s *Scheduler) dispatchBudgets(ctx context.Context, now Tick) {
	for s.running != NoTask {
		t := s.registry.mustGet(s.running)
		if !t.drawn {
			if t.work != nil {
				t.budget = t.work(ctx, t.job())
			}
			t.drawn = true
		}
		if t.budget > 0 {
			return
		}
		s.completeJob(t, now)
		s.schedule(now)
	}
}

// Simulate runs Start and then n steps, stopping early if ctx is done. With
// n <= 0 it steps until ctx is done.
func (s *Scheduler) Simulate(ctx context.Context, n int) Tick {
	s.Start()
	for i := 0; n <= 0 || i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		s.Step(ctx)
	}
	return s.clock.Now()
}

// Run steps the scheduler once per wall-clock tick (Config.TickMS) until the
// context is cancelled or Config.DurationTicks ticks have run. The clock's
// pulses can only be started once, so Run may only be called once.
func (s *Scheduler) Run(ctx context.Context) error {
	s.clock.Start(time.Duration(s.cfg.TickMS) * time.Millisecond)
	// stop the underlying clock to release its goroutine
	defer s.clock.Stop()

	s.Start()
	s.mu.Lock()
	s.dispatchBudgets(ctx, s.clock.Now())
	s.unlock()

	for steps := 0; s.cfg.DurationTicks == 0 || steps < s.cfg.DurationTicks; steps++ {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-s.clock.Ch:
			if !ok || ctx.Err() != nil {
				return nil
			}
			s.Step(ctx)
		}
	}
	return nil
}

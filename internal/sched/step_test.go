package sched_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edfsched/internal/sched"
)

// cancelAt returns a workload costing one tick that cancels ctx when job seq
// is dispatched.
func cancelAt(seq uint64, cancel context.CancelFunc) sched.Workload {
	return func(_ context.Context, j sched.Job) sched.Ticks {
		if j.Seq == seq {
			cancel()
		}
		return 1
	}
}

func TestSimulate_UnboundedStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, _ := newScheduler(t, emptyConfig())
	id := mustCreate(t, s, "A", 10, cancelAt(3, cancel))

	assert.Equal(t, sched.Tick(30), s.Simulate(ctx, 0))
	info, err := s.Task(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), info.JobsCompleted)
	assert.Equal(t, uint64(4), info.JobsStarted)
}

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("stops after duration", func(t *testing.T) {
		t.Parallel()

		cfg := emptyConfig()
		cfg.StartTick = 100
		cfg.DurationTicks = 5
		log := &switchLog{}
		s, _ := newScheduler(t, cfg, sched.WithSwitchHook(log))
		id := mustCreate(t, s, "A", 4, fixed(2), sched.WithAccounting())

		require.NoError(t, s.Run(context.Background()))
		assert.Equal(t, sched.Tick(105), s.Now())

		// jobs at 100 and 104, the second one half done
		info, err := s.Task(id)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), info.JobsCompleted)
		assert.Equal(t, uint64(2), info.JobsStarted)
		assert.Equal(t, []sched.TaskID{id, id}, log.ins())
	})

	t.Run("returns on cancel", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		cfg := emptyConfig()
		cfg.DurationTicks = 0
		s, _ := newScheduler(t, cfg)
		mustCreate(t, s, "A", 3, cancelAt(2, cancel))

		done := make(chan error, 1)
		go func() { done <- s.Run(ctx) }()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
		assert.Equal(t, sched.Tick(6), s.Now())
	})

	t.Run("zero-cost first job at start", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		s, _ := newScheduler(t, emptyConfig())
		id := mustCreate(t, s, "A", 10, fixed(0))

		require.NoError(t, s.Run(ctx))
		info, err := s.Task(id)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), info.JobsCompleted, "completed before the first pulse")
		assert.Equal(t, sched.Tick(0), s.Now())
	})
}

package job

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"

	"edfsched/internal/sched"
)

// Fixed returns a workload whose every job costs the same number of ticks.
func Fixed(cost sched.Ticks) sched.Workload {
	return func(ctx context.Context, _ sched.Job) sched.Ticks {
		return cost
	}
}

// Idle returns a workload whose jobs need no CPU, such as a monitor that
// only samples an input.
func Idle() sched.Workload {
	return Fixed(0)
}

// Sequence cycles through costs, one per job. The job sequence number picks
// the cost, so a preempted job keeps the cost it was given.
func Sequence(costs ...sched.Ticks) sched.Workload {
	if len(costs) == 0 {
		return Idle()
	}
	return func(ctx context.Context, j sched.Job) sched.Ticks {
		return costs[j.Seq%uint64(len(costs))]
	}
}

// Jitter returns a workload with normally distributed cost around mean,
// clamped to [0, ceiling]. The draws are reproducible for a given seed.
func Jitter(mean sched.Ticks, stddev float64, ceiling sched.Ticks, seed uint64) sched.Workload {
	var mu sync.Mutex
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return func(ctx context.Context, _ sched.Job) sched.Ticks {
		mu.Lock()
		v := rng.NormFloat64()*stddev + float64(mean)
		mu.Unlock()
		switch {
		case v <= 0:
			return 0
		case v >= float64(ceiling):
			return ceiling
		}
		return sched.Ticks(math.Round(v))
	}
}

// Instrumented wraps w and calls body once per job before the cost is
// returned. body stands in for the side effect of the job (sampling a
// button, sending a frame).
func Instrumented(w sched.Workload, body func(j sched.Job)) sched.Workload {
	return func(ctx context.Context, j sched.Job) sched.Ticks {
		body(j)
		return w(ctx, j)
	}
}

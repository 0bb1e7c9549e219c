package sched

import (
	"errors"
	"fmt"
)

var (
	// ErrRegistryFull is returned when the task table has no free entry.
	ErrRegistryFull = errors.New("task registry full")
	// ErrInvalidPeriod is returned for a zero period.
	ErrInvalidPeriod = errors.New("period must be positive")
	// ErrUnknownTask is returned for an id that was never registered.
	ErrUnknownTask = errors.New("unknown task")
)

// registry is the fixed-capacity task table. Entries are never reused, so a
// TaskID stays unique after deletion.
type registry struct {
	tasks []*task
	cap   int
}

func newRegistry(capacity int) *registry {
	return &registry{
		tasks: make([]*task, 0, capacity),
		cap:   capacity,
	}
}

func (r *registry) add(name string, period Ticks, work Workload) (*task, error) {
	if period == 0 {
		return nil, fmt.Errorf("task %q: %w", name, ErrInvalidPeriod)
	}
	if len(r.tasks) >= r.cap {
		return nil, fmt.Errorf("task %q: %w (capacity %d)", name, ErrRegistryFull, r.cap)
	}
	t := &task{
		id:     TaskID(len(r.tasks)),
		name:   name,
		period: period,
		tag:    NoTag,
		work:   work,
	}
	r.tasks = append(r.tasks, t)
	return t, nil
}

func (r *registry) get(id TaskID) (*task, error) {
	if id < 0 || int(id) >= len(r.tasks) {
		return nil, fmt.Errorf("task %d: %w", id, ErrUnknownTask)
	}
	return r.tasks[id], nil
}

// mustGet is for ids the scheduler itself holds (ready set, running slot).
func (r *registry) mustGet(id TaskID) *task {
	t, err := r.get(id)
	if err != nil {
		panic(err)
	}
	return t
}

func (r *registry) len() int { return len(r.tasks) }

package sched

import "context"

// TaskID identifies a task for its whole lifetime. It is the task's index in
// the registry arena, so ascending ids follow creation order.
type TaskID int

// NoTask is returned where no task applies (idle CPU, empty ready set).
const NoTask TaskID = -1

// TaskState is the scheduling state of a task.
type TaskState int

const (
	StateReady TaskState = iota
	StateRunning
	StateBlocked
	StateSuspended
	StateDeleted
)

func (s TaskState) String() string {
	switch s {
	case StateReady:
		return "Ready"
	case StateRunning:
		return "Running"
	case StateBlocked:
		return "Blocked"
	case StateSuspended:
		return "Suspended"
	case StateDeleted:
		return "Deleted"
	default:
		return "Unknown"
	}
}

// Job describes one released instance of a periodic task.
type Job struct {
	Task     TaskID
	Seq      uint64 // 0 for the first instance
	Release  Tick
	Deadline Tick
}

// Workload returns the number of ticks of CPU the given job needs. It is
// called once, when the job is first dispatched. Zero is valid.
type Workload func(ctx context.Context, job Job) Ticks

// task is the registry's control entry. Only the registry and the scheduler
// touch it, always under the scheduler lock.
type task struct {
	id       TaskID
	name     string
	period   Ticks
	deadline Tick // absolute deadline of the current job
	release  Tick // release instant of the current (or next, while blocked) job
	state    TaskState
	tag      Tag
	work     Workload

	budget    Ticks // ticks of CPU the current job still needs
	drawn     bool  // budget has been drawn from work for the current job
	begun     bool  // current job has been dispatched at least once
	missed    bool  // current job already counted as a deadline miss
	jobSeq    uint64
	started   uint64 // jobs dispatched
	done      uint64 // jobs completed
	misses    uint64
	switchIns uint64
}

// TaskInfo is a read-only snapshot of a task.
type TaskInfo struct {
	ID             TaskID
	Name           string
	Period         Ticks
	Deadline       Tick
	Release        Tick
	State          TaskState
	Tag            Tag
	JobsStarted    uint64
	JobsCompleted  uint64
	DeadlineMisses uint64
	SwitchIns      uint64
	BusyTicks      uint64
}

func (t *task) info() TaskInfo {
	return TaskInfo{
		ID:             t.id,
		Name:           t.name,
		Period:         t.period,
		Deadline:       t.deadline,
		Release:        t.release,
		State:          t.state,
		Tag:            t.tag,
		JobsStarted:    t.started,
		JobsCompleted:  t.done,
		DeadlineMisses: t.misses,
		SwitchIns:      t.switchIns,
	}
}

func (t *task) job() Job {
	return Job{
		Task:     t.id,
		Seq:      t.jobSeq,
		Release:  t.release,
		Deadline: t.deadline,
	}
}

// TaskOption configures a task at creation.
type TaskOption func(*taskOptions)

type taskOptions struct {
	accounting bool
}

// WithAccounting opts the task into execution-time accounting.
func WithAccounting() TaskOption {
	return func(o *taskOptions) {
		o.accounting = true
	}
}

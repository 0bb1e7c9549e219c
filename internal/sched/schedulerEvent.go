// internal/sched/schedulerEvent.go

package sched

import (
	"time"
)

// StatusKind represents the type of scheduler event
type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusCreate
	StatusRelease
	StatusDispatch
	StatusPreempt
	StatusFinish
	StatusDeadlineMiss
	StatusSuspend
	StatusResume
	StatusDelete
)

// StatusEvent is emitted on every scheduling action. Events raised inside
// the critical section are delivered to sinks after the lock is released.
type StatusEvent struct {
	Time     time.Time
	Tick     Tick
	Kind     StatusKind
	TaskID   TaskID
	Name     string
	Deadline Tick
	Job      uint64
}

// EventSink consumes status events, in the order they were raised.
type EventSink interface {
	OnEvent(ev StatusEvent)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ev StatusEvent)

// OnEvent calls f(ev).
func (f EventSinkFunc) OnEvent(ev StatusEvent) { f(ev) }

func (sk StatusKind) String() string {
	switch sk {
	case StatusIdle:
		return "Idle"
	case StatusCreate:
		return "Create"
	case StatusRelease:
		return "Release"
	case StatusDispatch:
		return "Dispatch"
	case StatusPreempt:
		return "Preempt"
	case StatusFinish:
		return "Finish"
	case StatusDeadlineMiss:
		return "DeadlineMiss"
	case StatusSuspend:
		return "Suspend"
	case StatusResume:
		return "Resume"
	case StatusDelete:
		return "Delete"
	default:
		return "Unknown"
	}
}

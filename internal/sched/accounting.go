package sched

import (
	"errors"
	"fmt"
)

// ErrNotTracked is returned by accounting queries for tasks that did not opt
// in with WithAccounting.
var ErrNotTracked = errors.New("task not tracked by accounting")

// Tag is an accounting slot. Tracked tasks carry the slot of their
// accumulator so the hooks never search for it.
type Tag int

// NoTag marks a task that is not tracked.
const NoTag Tag = -1

// SwitchHook observes context switches. Hooks run inside the scheduler's
// critical section on every switch; they must be short and must not call
// back into the scheduler.
type SwitchHook interface {
	OnSwitchOut(id TaskID, now Tick)
	OnSwitchIn(id TaskID, now Tick)
}

// TickHook runs on every tick interrupt.
type TickHook interface {
	OnTick(now Tick)
}

// IdleHook runs when a scheduling decision leaves the CPU idle.
type IdleHook interface {
	OnIdle(now Tick)
}

type accumulator struct {
	busy      uint64
	switchIn  Tick
	isRunning bool
}

// Accounting accumulates per-task busy time and aggregate CPU load from
// switch-in/switch-out stamps. Totals are consistent as of the last switch.
type Accounting struct {
	slots []accumulator
	tags  map[TaskID]Tag

	last    Tick   // most recent instant folded into elapsed
	elapsed uint64 // ticks since epoch, kept 64-bit across counter wraps
	sumBusy uint64
	outs    uint64 // tracked switch-outs since epoch
	load    float64
}

// NewAccounting creates an accounting context measuring from epoch.
func NewAccounting(epoch Tick) *Accounting {
	return &Accounting{
		tags: make(map[TaskID]Tag),
		last: epoch,
	}
}

// Track opts id into accounting and returns its tag. Tracking an id twice
// returns the existing tag.
func (a *Accounting) Track(id TaskID) Tag {
	if tag, ok := a.tags[id]; ok {
		return tag
	}
	tag := Tag(len(a.slots))
	a.slots = append(a.slots, accumulator{})
	a.tags[id] = tag
	return tag
}

// OnSwitchOut folds the time id held the processor into its accumulator.
// Elapsed time is advanced first so the busy total never runs ahead of it.
func (a *Accounting) OnSwitchOut(id TaskID, now Tick) {
	a.advance(now)
	tag, ok := a.tags[id]
	if !ok {
		return
	}
	acc := &a.slots[tag]
	if !acc.isRunning {
		return
	}
	busy := uint64(now.Sub(acc.switchIn))
	acc.busy += busy
	acc.isRunning = false
	a.sumBusy += busy
	a.outs++
}

// OnSwitchIn stamps the instant id starts running and recomputes CPU load.
func (a *Accounting) OnSwitchIn(id TaskID, now Tick) {
	if tag, ok := a.tags[id]; ok {
		acc := &a.slots[tag]
		acc.switchIn = now
		acc.isRunning = true
	}
	a.advance(now)
	// no load figure until a tracked task has been switched out once
	if a.outs > 0 && a.elapsed > 0 {
		a.load = float64(a.sumBusy) * 100 / float64(a.elapsed)
	}
}

func (a *Accounting) advance(now Tick) {
	if now.Before(a.last) {
		return
	}
	a.elapsed += uint64(now.Sub(a.last))
	a.last = now
}

// BusyTicks returns the ticks id has held the processor, as of its last
// switch-out.
func (a *Accounting) BusyTicks(id TaskID) (uint64, error) {
	tag, ok := a.tags[id]
	if !ok {
		return 0, fmt.Errorf("task %d: %w", id, ErrNotTracked)
	}
	return a.slots[tag].busy, nil
}

// CPULoad returns the percentage of elapsed time spent in tracked tasks, as
// of the last switch-in.
func (a *Accounting) CPULoad() float64 { return a.load }

// SumBusy returns the busy ticks summed over all tracked tasks.
func (a *Accounting) SumBusy() uint64 { return a.sumBusy }

// Elapsed returns the ticks between the epoch and the last switch.
func (a *Accounting) Elapsed() uint64 { return a.elapsed }

// Reset zeroes every accumulator and restarts the window at now. A task
// running at now keeps running and is measured from now.
func (a *Accounting) Reset(now Tick) {
	for i := range a.slots {
		a.slots[i].busy = 0
		if a.slots[i].isRunning {
			a.slots[i].switchIn = now
		}
	}
	a.last = now
	a.elapsed = 0
	a.sumBusy = 0
	a.outs = 0
	a.load = 0
}

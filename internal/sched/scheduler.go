// internal/sched/scheduler.go

package sched

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNotRunning is returned when a task other than the running one asks
	// to wait for its next period.
	ErrNotRunning = errors.New("task is not running")
	// ErrTaskDeleted is returned for operations on a deleted task.
	ErrTaskDeleted = errors.New("task deleted")
)

// Scheduler is an earliest-deadline-first scheduler for periodic tasks on a
// single CPU. The running task stays in the ready set; every trigger
// compares the earliest deadline in the set against the running slot and
// switches when they differ.
type Scheduler struct {
	mu       sync.Mutex // the critical section around ready set, registry and hooks
	cfg      Config
	clock    *TickClock
	registry *registry
	ready    *ReadySet
	releases *binaryheap.Heap // releaseKey, blocked tasks by release instant
	pending  []TaskID         // releases handed off by the tick interrupt
	acct     *Accounting
	running  TaskID
	started  bool
	misses   uint64

	switchHooks []SwitchHook
	tickHooks   []TickHook
	idleHooks   []IdleHook
	sinks       []EventSink
	outbox      []StatusEvent

	log *logrus.Entry
}

// New creates a new Scheduler instance with the given configuration.
func New(cfg Config, opts ...Option) *Scheduler {
	cfg.clamp()
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.clock == nil {
		o.clock = NewTickClock(Tick(cfg.StartTick), 1)
	}
	if o.logger == nil {
		o.logger = logrus.StandardLogger()
	}

	return &Scheduler{
		cfg:         cfg,
		clock:       o.clock,
		registry:    newRegistry(cfg.MaxTasks),
		ready:       NewReadySet(),
		releases:    binaryheap.NewWith(compareReleaseKeys),
		acct:        NewAccounting(o.clock.Now()),
		running:     NoTask,
		switchHooks: o.switchHooks,
		tickHooks:   o.tickHooks,
		idleHooks:   o.idleHooks,
		sinks:       o.sinks,
		log:         o.logger.WithField("component", "sched"),
	}
}

// unlock leaves the critical section, then delivers the events it raised.
func (s *Scheduler) unlock() {
	events := s.outbox
	s.outbox = nil
	s.mu.Unlock()

	for _, ev := range events {
		for _, sink := range s.sinks {
			sink.OnEvent(ev)
		}
	}
}

func (s *Scheduler) emit(kind StatusKind, t *task, now Tick) {
	if len(s.sinks) == 0 {
		return
	}
	ev := StatusEvent{
		Time:   time.Now(),
		Tick:   now,
		Kind:   kind,
		TaskID: NoTask,
	}
	if t != nil {
		ev.TaskID = t.id
		ev.Name = t.name
		ev.Deadline = t.deadline
		ev.Job = t.jobSeq
	}
	s.outbox = append(s.outbox, ev)
}

// Start makes the first scheduling decision. Tasks created before Start are
// released at their creation tick.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.unlock()
	s.startLocked()
}

func (s *Scheduler) startLocked() {
	if s.started {
		return
	}
	s.started = true
	now := s.clock.Now()
	s.log.WithFields(logrus.Fields{
		"tick":  now,
		"tasks": s.registry.len(),
	}).Info("scheduler started")
	s.schedule(now)
}

// Tick is the tick interrupt for drivers that execute jobs themselves and
// report completion through WaitForNextPeriod. It advances the clock, hands
// due releases to the scheduler and reschedules.
func (s *Scheduler) Tick() Tick {
	s.mu.Lock()
	defer s.unlock()
	now := s.clock.Advance()
	s.tick(now)
	return now
}

func (s *Scheduler) tick(now Tick) {
	s.onTickInterrupt(now)

	if s.running != NoTask {
		t := s.registry.mustGet(s.running)
		if t.state == StateRunning && !t.missed && now.AtOrAfter(t.deadline) {
			s.recordMiss(t, now)
		}
	}

	if s.started {
		s.schedule(now)
	} else {
		s.drainPending(now)
	}
}

// onTickInterrupt moves due releases onto the pending list. It never touches
// the ready set; schedule drains the list.
func (s *Scheduler) onTickInterrupt(now Tick) {
	for _, h := range s.tickHooks {
		h.OnTick(now)
	}
	for {
		v, ok := s.releases.Peek()
		if !ok {
			return
		}
		key := v.(releaseKey)
		if now.Before(key.at) {
			return
		}
		s.releases.Pop()
		t := s.registry.mustGet(key.id)
		if t.state != StateBlocked || t.release != key.at {
			// stale: the task was suspended, deleted or re-queued since
			continue
		}
		t.state = StateReady
		s.pending = append(s.pending, key.id)
	}
}

// drainPending inserts the releases handed off by the tick interrupt.
func (s *Scheduler) drainPending(now Tick) {
	for _, id := range s.pending {
		t := s.registry.mustGet(id)
		s.mustInsert(t)
		s.release(t, now)
	}
	s.pending = s.pending[:0]
}

// schedule is the decision engine. It runs on every trigger with the lock
// held.
func (s *Scheduler) schedule(now Tick) {
	s.drainPending(now)

	next, ok := s.ready.PeekMin()
	if next == s.running {
		if !ok {
			s.idle(now)
			return
		}
		// same task, possibly already on its next job
		t := s.registry.mustGet(next)
		t.state = StateRunning
		s.beginJob(t, now)
		return
	}

	if s.running != NoTask {
		old := s.registry.mustGet(s.running)
		if old.state == StateRunning {
			old.state = StateReady
			s.emit(StatusPreempt, old, now)
		}
		s.logSwitch("switch out", old, now)
		s.acct.OnSwitchOut(old.id, now)
		for _, h := range s.switchHooks {
			h.OnSwitchOut(old.id, now)
		}
	}

	if !ok {
		s.running = NoTask
		s.emit(StatusIdle, nil, now)
		s.idle(now)
		return
	}

	t := s.registry.mustGet(next)
	t.state = StateRunning
	t.switchIns++
	s.running = next
	s.logSwitch("switch in", t, now)
	s.acct.OnSwitchIn(t.id, now)
	for _, h := range s.switchHooks {
		h.OnSwitchIn(t.id, now)
	}
	s.beginJob(t, now)
}

func (s *Scheduler) logSwitch(msg string, t *task, now Tick) {
	if !s.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	s.log.WithFields(logrus.Fields{
		"tick":     now,
		"task":     t.name,
		"deadline": t.deadline,
	}).Debug(msg)
}

func (s *Scheduler) release(t *task, now Tick) {
	if s.log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		s.log.WithFields(logrus.Fields{
			"tick":     now,
			"task":     t.name,
			"job":      t.jobSeq,
			"deadline": t.deadline,
		}).Trace("release")
	}
	s.emit(StatusRelease, t, now)
}

func (s *Scheduler) idle(now Tick) {
	for _, h := range s.idleHooks {
		h.OnIdle(now)
	}
}

// beginJob counts the first dispatch of the current job.
func (s *Scheduler) beginJob(t *task, now Tick) {
	if t.begun {
		return
	}
	t.begun = true
	t.started++
	s.emit(StatusDispatch, t, now)
}

func (s *Scheduler) recordMiss(t *task, now Tick) {
	t.missed = true
	t.misses++
	s.misses++
	s.log.WithFields(logrus.Fields{
		"tick":     now,
		"task":     t.name,
		"job":      t.jobSeq,
		"deadline": t.deadline,
	}).Warn("deadline miss")
	s.emit(StatusDeadlineMiss, t, now)
}

// Ready set misuse is a bug in the scheduler itself.
func (s *Scheduler) mustInsert(t *task) {
	if err := s.ready.Insert(t.id, t.deadline); err != nil {
		panic(err)
	}
}

func (s *Scheduler) mustRemove(t *task) {
	if err := s.ready.Remove(t.id); err != nil {
		panic(err)
	}
}

// Suspend takes a task out of scheduling until Resume. Its current job, if
// any, is kept.
func (s *Scheduler) Suspend(id TaskID) error {
	s.mu.Lock()
	defer s.unlock()

	t, err := s.live(id)
	if err != nil {
		return err
	}
	switch t.state {
	case StateSuspended:
		return nil
	case StateReady, StateRunning:
		s.mustRemove(t)
	}
	t.state = StateSuspended
	now := s.clock.Now()
	s.emit(StatusSuspend, t, now)
	if s.started {
		s.schedule(now)
	}
	return nil
}

// Resume returns a suspended task to scheduling. If its release instant has
// passed it is ready at once, otherwise it waits for the release.
func (s *Scheduler) Resume(id TaskID) error {
	s.mu.Lock()
	defer s.unlock()

	t, err := s.live(id)
	if err != nil {
		return err
	}
	if t.state != StateSuspended {
		return nil
	}
	now := s.clock.Now()
	s.emit(StatusResume, t, now)
	if now.AtOrAfter(t.release) {
		t.state = StateReady
		s.mustInsert(t)
	} else {
		t.state = StateBlocked
		s.releases.Push(releaseKey{at: t.release, id: t.id})
	}
	if s.started {
		s.schedule(now)
	}
	return nil
}

// DeleteTask removes a task permanently. Its id is never reused.
func (s *Scheduler) DeleteTask(id TaskID) error {
	s.mu.Lock()
	defer s.unlock()

	t, err := s.live(id)
	if err != nil {
		return err
	}
	if s.ready.Contains(id) {
		s.mustRemove(t)
	}
	t.state = StateDeleted
	now := s.clock.Now()
	s.log.WithFields(logrus.Fields{"tick": now, "task": t.name}).Info("task deleted")
	s.emit(StatusDelete, t, now)
	if s.started {
		s.schedule(now)
	}
	return nil
}

func (s *Scheduler) live(id TaskID) (*task, error) {
	t, err := s.registry.get(id)
	if err != nil {
		return nil, err
	}
	if t.state == StateDeleted {
		return nil, fmt.Errorf("task %d: %w", id, ErrTaskDeleted)
	}
	return t, nil
}

// Running returns the task holding the CPU, or NoTask when idle.
func (s *Scheduler) Running() TaskID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Now returns the scheduler's current tick.
func (s *Scheduler) Now() Tick {
	return s.clock.Now()
}

// Clock returns the scheduler's time source.
func (s *Scheduler) Clock() *TickClock {
	return s.clock
}

// Task returns a snapshot of one task.
func (s *Scheduler) Task(id TaskID) (TaskInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.registry.get(id)
	if err != nil {
		return TaskInfo{}, err
	}
	return s.infoLocked(t), nil
}

// Tasks returns snapshots of every registered task, in id order.
func (s *Scheduler) Tasks() []TaskInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	infos := make([]TaskInfo, 0, s.registry.len())
	for _, t := range s.registry.tasks {
		infos = append(infos, s.infoLocked(t))
	}
	return infos
}

func (s *Scheduler) infoLocked(t *task) TaskInfo {
	info := t.info()
	if busy, err := s.acct.BusyTicks(t.id); err == nil {
		info.BusyTicks = busy
	}
	return info
}

// DeadlineMisses returns the number of deadline misses over all tasks.
func (s *Scheduler) DeadlineMisses() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.misses
}

// BusyTicks returns the accumulated busy time of a tracked task.
func (s *Scheduler) BusyTicks(id TaskID) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.registry.get(id); err != nil {
		return 0, err
	}
	return s.acct.BusyTicks(id)
}

// CPULoad returns the percentage of elapsed time spent in tracked tasks.
func (s *Scheduler) CPULoad() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acct.CPULoad()
}

// AccountingTotals returns the summed busy ticks of tracked tasks and the
// elapsed ticks of the measurement window, as of the last switch.
func (s *Scheduler) AccountingTotals() (sumBusy, elapsed uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acct.SumBusy(), s.acct.Elapsed()
}

// ResetAccounting zeroes busy times and CPU load and restarts the
// measurement window at the current tick.
func (s *Scheduler) ResetAccounting() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acct.Reset(s.clock.Now())
}

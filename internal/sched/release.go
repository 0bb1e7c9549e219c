package sched

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// CreatePeriodicTask registers a periodic task. Its first job is released at
// the current tick with deadline now+period. work may be nil when jobs are
// executed outside Step.
func (s *Scheduler) CreatePeriodicTask(name string, period Ticks, work Workload, opts ...TaskOption) (TaskID, error) {
	o := &taskOptions{}
	for _, opt := range opts {
		opt(o)
	}

	s.mu.Lock()
	defer s.unlock()

	t, err := s.registry.add(name, period, work)
	if err != nil {
		s.log.WithError(err).Error("create periodic task")
		return NoTask, err
	}
	if o.accounting {
		t.tag = s.acct.Track(t.id)
	}

	now := s.clock.Now()
	t.release = now
	t.deadline = now.Add(period)
	t.state = StateReady
	s.mustInsert(t)

	s.log.WithFields(logrus.Fields{
		"tick":     now,
		"task":     name,
		"id":       t.id,
		"period":   period,
		"deadline": t.deadline,
		"tracked":  o.accounting,
	}).Debug("task created")
	s.emit(StatusCreate, t, now)
	s.emit(StatusRelease, t, now)

	if s.started {
		s.schedule(now)
	}
	return t.id, nil
}

// WaitForNextPeriod ends the running task's current job. The next deadline
// is the current one plus exactly one period; the task is ready again at
// the old deadline, immediately if that has already passed.
func (s *Scheduler) WaitForNextPeriod(id TaskID) error {
	s.mu.Lock()
	defer s.unlock()

	t, err := s.live(id)
	if err != nil {
		return err
	}
	if s.running != id || t.state != StateRunning {
		return fmt.Errorf("wait for next period: task %d: %w", id, ErrNotRunning)
	}
	now := s.clock.Now()
	s.completeJob(t, now)
	s.schedule(now)
	return nil
}

// completeJob finishes the current job of the running task t and releases
// or blocks the next one. The caller reschedules.
func (s *Scheduler) completeJob(t *task, now Tick) {
	if !t.missed && t.deadline.Before(now) {
		s.recordMiss(t, now)
	}
	t.done++
	s.emit(StatusFinish, t, now)
	s.mustRemove(t)

	t.release = t.deadline
	t.deadline = t.deadline.Add(t.period)
	t.jobSeq++
	t.budget = 0
	t.drawn = false
	t.begun = false
	t.missed = false

	if now.AtOrAfter(t.release) {
		t.state = StateReady
		s.mustInsert(t)
		s.release(t, now)
	} else {
		t.state = StateBlocked
		s.releases.Push(releaseKey{at: t.release, id: t.id})
	}

	// overran by more than a period: the new job cannot make its deadline
	if now.AtOrAfter(t.deadline) {
		s.recordMiss(t, now)
	}
}

// releaseKey orders blocked tasks by release instant, then id.
type releaseKey struct {
	at Tick
	id TaskID
}

func compareReleaseKeys(a, b any) int {
	ka, kb := a.(releaseKey), b.(releaseKey)
	switch {
	case ka.at.Before(kb.at):
		return -1
	case kb.at.Before(ka.at):
		return 1
	case ka.id < kb.id:
		return -1
	case ka.id > kb.id:
		return 1
	default:
		return 0
	}
}

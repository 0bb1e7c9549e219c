// internal/sched/readyset.go

package sched

import (
	"errors"
	"fmt"

	"github.com/emirpasic/gods/trees/redblacktree"
)

var (
	// ErrDuplicateInsertion is returned when a task is already in the set.
	ErrDuplicateInsertion = errors.New("task already in ready set")
	// ErrNotFound is returned when removing a task that is not in the set.
	ErrNotFound = errors.New("task not in ready set")
)

// ReadySet orders ready tasks by absolute deadline, lowest TaskID first on
// equal deadlines. It holds ids only; descriptors stay in the registry.
type ReadySet struct {
	rbt       *redblacktree.Tree // deadlineKey -> TaskID
	deadlines map[TaskID]Tick    // membership and the key needed for removal
}

// NewReadySet creates an empty ready set.
func NewReadySet() *ReadySet {
	return &ReadySet{
		rbt:       redblacktree.NewWith(compareDeadlineKeys),
		deadlines: make(map[TaskID]Tick),
	}
}

// Insert adds id with the given absolute deadline.
func (r *ReadySet) Insert(id TaskID, deadline Tick) error {
	if _, dup := r.deadlines[id]; dup {
		return fmt.Errorf("task %d: %w", id, ErrDuplicateInsertion)
	}
	r.rbt.Put(deadlineKey{deadline: deadline, id: id}, id)
	r.deadlines[id] = deadline
	return nil
}

// Remove deletes id from the set.
func (r *ReadySet) Remove(id TaskID) error {
	deadline, ok := r.deadlines[id]
	if !ok {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	r.rbt.Remove(deadlineKey{deadline: deadline, id: id})
	delete(r.deadlines, id)
	return nil
}

// PeekMin returns the task with the earliest deadline, or NoTask and false
// when the set is empty.
func (r *ReadySet) PeekMin() (TaskID, bool) {
	node := r.rbt.Left()
	if node == nil {
		return NoTask, false
	}
	return node.Value.(TaskID), true
}

// Contains reports whether id is in the set.
func (r *ReadySet) Contains(id TaskID) bool {
	_, ok := r.deadlines[id]
	return ok
}

// Len returns the number of ready tasks.
func (r *ReadySet) Len() int { return len(r.deadlines) }

// IDs returns the members in EDF order.
func (r *ReadySet) IDs() []TaskID {
	ids := make([]TaskID, 0, r.Len())
	it := r.rbt.Iterator()
	for it.Next() {
		ids = append(ids, it.Value().(TaskID))
	}
	return ids
}

// deadlineKey is used as a key in the red-black tree.
type deadlineKey struct {
	deadline Tick
	id       TaskID
}

// compareDeadlineKeys orders deadlines with wraparound-safe arithmetic, so
// all deadlines in the tree must lie within 2^31 ticks of each other.
func compareDeadlineKeys(a, b any) int {
	ka, kb := a.(deadlineKey), b.(deadlineKey)
	switch {
	case ka.deadline.Before(kb.deadline):
		return -1
	case kb.deadline.Before(ka.deadline):
		return 1
	case ka.id < kb.id:
		return -1
	case ka.id > kb.id:
		return 1
	default:
		return 0
	}
}

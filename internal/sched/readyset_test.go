package sched_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edfsched/internal/sched"
)

func TestReadySet_PeekMin(t *testing.T) {
	t.Parallel()

	type entry struct {
		id       sched.TaskID
		deadline sched.Tick
	}
	tests := map[string]struct {
		entries []entry
		want    sched.TaskID
		order   []sched.TaskID
	}{
		"earliest deadline first": {
			entries: []entry{{0, 30}, {1, 10}, {2, 20}},
			want:    1,
			order:   []sched.TaskID{1, 2, 0},
		},
		"equal deadlines by ascending id": {
			entries: []entry{{2, 10}, {0, 10}, {1, 10}},
			want:    0,
			order:   []sched.TaskID{0, 1, 2},
		},
		"deadlines across the counter wrap": {
			entries: []entry{{0, 5}, {1, math.MaxUint32 - 5}, {2, math.MaxUint32}},
			want:    1,
			order:   []sched.TaskID{1, 2, 0},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r := sched.NewReadySet()
			for _, e := range tt.entries {
				require.NoError(t, r.Insert(e.id, e.deadline))
			}
			got, ok := r.PeekMin()
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.order, r.IDs())
		})
	}
}

func TestReadySet_Empty(t *testing.T) {
	t.Parallel()

	r := sched.NewReadySet()
	id, ok := r.PeekMin()
	assert.False(t, ok)
	assert.Equal(t, sched.NoTask, id)
	assert.Zero(t, r.Len())
}

func TestReadySet_Misuse(t *testing.T) {
	t.Parallel()

	r := sched.NewReadySet()
	require.NoError(t, r.Insert(3, 100))
	assert.ErrorIs(t, r.Insert(3, 200), sched.ErrDuplicateInsertion)
	assert.ErrorIs(t, r.Remove(4), sched.ErrNotFound)

	require.NoError(t, r.Remove(3))
	assert.False(t, r.Contains(3))
	assert.ErrorIs(t, r.Remove(3), sched.ErrNotFound)
}

func TestReadySet_RemoveThenReinsert(t *testing.T) {
	t.Parallel()

	r := sched.NewReadySet()
	require.NoError(t, r.Insert(0, 10))
	require.NoError(t, r.Insert(1, 20))
	require.NoError(t, r.Remove(0))
	require.NoError(t, r.Insert(0, 30))

	got, ok := r.PeekMin()
	require.True(t, ok)
	assert.Equal(t, sched.TaskID(1), got)
	assert.Equal(t, 2, r.Len())
	assert.True(t, r.Contains(0))
}

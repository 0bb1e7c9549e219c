package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edfsched/internal/sched"
)

func TestApp_Workloads(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tc   sched.TaskConfig
		want []sched.Ticks
	}{
		{"fixed", sched.TaskConfig{Period: 10, Cost: 3}, []sched.Ticks{3, 3, 3}},
		{"costs cycle", sched.TaskConfig{Period: 10, Cost: 9, Jitter: 2, Costs: []uint32{1, 4}}, []sched.Ticks{1, 4, 1}},
		{"idle", sched.TaskConfig{Period: 10}, []sched.Ticks{0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w, err := newApp().workload(tt.tc, 1)
			require.NoError(t, err)
			for seq, want := range tt.want {
				assert.Equal(t, want, w(context.Background(), sched.Job{Seq: uint64(seq)}), "job %d", seq)
			}
		})
	}
}

func TestApp_ButtonPresses(t *testing.T) {
	t.Parallel()

	a := newApp()
	w, err := a.workload(sched.TaskConfig{Name: "b", Period: 50, Cost: 1, Action: "button"}, 1)
	require.NoError(t, err)
	for seq := range uint64(20) {
		w(context.Background(), sched.Job{Seq: seq})
	}

	f := a.fields()
	assert.Equal(t, uint64(20), f["samples"])
	// rising edges at jobs 4 and 12
	assert.Equal(t, uint64(2), f["presses"])
}

func TestApp_UartLoopback(t *testing.T) {
	t.Parallel()

	a := newApp()
	tx, err := a.workload(sched.TaskConfig{Name: "tx", Period: 100, Cost: 1, Action: "transmit"}, 1)
	require.NoError(t, err)
	rx, err := a.workload(sched.TaskConfig{Name: "rx", Period: 20, Cost: 1, Action: "receive"}, 2)
	require.NoError(t, err)

	ctx := context.Background()
	rx(ctx, sched.Job{})
	tx(ctx, sched.Job{})
	tx(ctx, sched.Job{Seq: 1})
	for seq := range uint64(3) {
		rx(ctx, sched.Job{Seq: seq + 1})
	}

	f := a.fields()
	assert.Equal(t, uint64(2), f["sent"])
	assert.Equal(t, uint64(2), f["received"], "a receive with nothing queued reads nothing")
}

package trace_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edfsched/internal/job"
	"edfsched/internal/sched"
	"edfsched/internal/trace"
)

func TestWriteRunTimeStats(t *testing.T) {
	t.Parallel()

	s, _, _ := tracedScheduler(t)
	_, err := s.CreatePeriodicTask("Load 1", 10, job.Fixed(5), sched.WithAccounting())
	require.NoError(t, err)
	_, err = s.CreatePeriodicTask("Button", 50, job.Idle())
	require.NoError(t, err)
	s.Simulate(context.Background(), 100)

	var buf bytes.Buffer
	_, elapsed := s.AccountingTotals()
	require.NoError(t, trace.WriteRunTimeStats(&buf, s.Tasks(), elapsed, s.CPULoad()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"Task", "State", "Jobs", "Misses", "Busy", "%"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"Load", "1", "Running", "10", "0", "50", "50%"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"Button", "Ready", "2", "0", "-", "-"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"CPU", "load", "50.00%"}, strings.Fields(lines[3]))
}

func TestLogSink(t *testing.T) {
	t.Parallel()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	sink := trace.NewLogSink(logger)

	sink.OnEvent(sched.StatusEvent{Tick: 4, Kind: sched.StatusDispatch, TaskID: 2, Name: "rx", Deadline: 20, Job: 1})
	sink.OnEvent(sched.StatusEvent{Tick: 5, Kind: sched.StatusIdle, TaskID: sched.NoTask})

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Dispatch", entries[0].Message)
	assert.Equal(t, "rx", entries[0].Data["task"])
	assert.Equal(t, sched.Tick(20), entries[0].Data["deadline"])
	assert.Equal(t, "Idle", entries[1].Message)
	assert.NotContains(t, entries[1].Data, "task")
	assert.Equal(t, "events", entries[1].Data["component"])

	hook.Reset()
	logger.SetLevel(logrus.InfoLevel)
	sink.OnEvent(sched.StatusEvent{Kind: sched.StatusIdle, TaskID: sched.NoTask})
	assert.Empty(t, hook.AllEntries())
}

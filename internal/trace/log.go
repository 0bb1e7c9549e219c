package trace

import (
	"github.com/sirupsen/logrus"

	"edfsched/internal/sched"
)

// LogSink renders status events through logrus. Deadline misses are already
// logged by the scheduler at warn level, so every event here is debug.
type LogSink struct {
	log *logrus.Entry
}

var _ sched.EventSink = (*LogSink)(nil)

// NewLogSink creates a sink logging to l.
func NewLogSink(l logrus.FieldLogger) *LogSink {
	return &LogSink{log: l.WithField("component", "events")}
}

func (s *LogSink) OnEvent(ev sched.StatusEvent) {
	if !s.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	fields := logrus.Fields{"tick": ev.Tick}
	if ev.TaskID != sched.NoTask {
		fields["task"] = ev.Name
		fields["job"] = ev.Job
		fields["deadline"] = ev.Deadline
	}
	s.log.WithFields(fields).Debug(ev.Kind.String())
}

package trace

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"edfsched/internal/sched"
)

// CSVSink writes every status event as a CSV record.
type CSVSink struct {
	mu     sync.Mutex
	closer io.Closer
	w      *csv.Writer
	err    error
}

var _ sched.EventSink = (*CSVSink)(nil)

// NewCSVSink writes the header and returns a sink writing to w.
func NewCSVSink(w io.Writer) *CSVSink {
	cw := csv.NewWriter(w)
	s := &CSVSink{w: cw}
	s.err = cw.Write([]string{"timestamp", "tick", "event", "task_id", "task", "job", "deadline"})
	cw.Flush()
	return s
}

// CreateCSVSink opens the given file path for CSV logging of events.
func CreateCSVSink(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	s := NewCSVSink(f)
	s.closer = f
	return s, nil
}

func (s *CSVSink) OnEvent(ev sched.StatusEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	rec := []string{
		ev.Time.Format(time.RFC3339Nano),
		strconv.FormatUint(uint64(ev.Tick), 10),
		ev.Kind.String(),
		strconv.Itoa(int(ev.TaskID)),
		ev.Name,
		strconv.FormatUint(ev.Job, 10),
		strconv.FormatUint(uint64(ev.Deadline), 10),
	}
	if ev.TaskID == sched.NoTask {
		rec[5], rec[6] = "", ""
	}
	s.err = s.w.Write(rec)
	s.w.Flush()
	if s.err == nil {
		s.err = s.w.Error()
	}
}

// Close flushes the writer and closes the file, if the sink opened one. It
// returns the first write error.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	if s.err == nil {
		s.err = s.w.Error()
	}
	if s.closer != nil {
		if err := s.closer.Close(); err != nil && s.err == nil {
			s.err = err
		}
		s.closer = nil
	}
	return s.err
}

// WriteCSV writes the recorded edges as tick,pin,level records.
func (r *Recorder) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"tick", "pin", "level"}); err != nil {
		return err
	}
	for _, e := range r.Edges() {
		level := "0"
		if e.High {
			level = "1"
		}
		if err := cw.Write([]string{
			strconv.FormatUint(uint64(e.Tick), 10),
			strconv.Itoa(e.Pin),
			level,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

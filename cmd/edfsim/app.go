package main

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"edfsched/internal/job"
	"edfsched/internal/sched"
)

// app is the application the demo tasks drive: button monitors sample a
// button, the transmitter queues a frame for the UART and the receiver
// drains one frame per job.
type app struct {
	mu       sync.Mutex
	samples  map[string]uint64
	presses  map[string]uint64
	pressed  map[string]bool
	sent     uint64
	received uint64
	queued   uint64
}

func newApp() *app {
	return &app{
		samples: make(map[string]uint64),
		presses: make(map[string]uint64),
		pressed: make(map[string]bool),
	}
}

// workload builds the cost model of tc and attaches its side effect.
func (a *app) workload(tc sched.TaskConfig, seed uint64) (sched.Workload, error) {
	var work sched.Workload
	switch {
	case len(tc.Costs) > 0:
		costs := make([]sched.Ticks, len(tc.Costs))
		for i, c := range tc.Costs {
			costs[i] = sched.Ticks(c)
		}
		work = job.Sequence(costs...)
	case tc.Jitter > 0:
		work = job.Jitter(sched.Ticks(tc.Cost), tc.Jitter, sched.Ticks(tc.Period), seed)
	default:
		work = job.Fixed(sched.Ticks(tc.Cost))
	}

	switch tc.Action {
	case "":
		return work, nil
	case "button":
		return job.Instrumented(work, func(j sched.Job) { a.sampleButton(tc.Name, j) }), nil
	case "transmit":
		return job.Instrumented(work, func(sched.Job) { a.transmit() }), nil
	case "receive":
		return job.Instrumented(work, func(sched.Job) { a.receive() }), nil
	default:
		return nil, fmt.Errorf("task %q: unknown action %q", tc.Name, tc.Action)
	}
}

// sampleButton reads a button held down for four samples out of every eight
// and counts presses on the rising edge.
func (a *app) sampleButton(name string, j sched.Job) {
	level := j.Seq%8 >= 4
	a.mu.Lock()
	defer a.mu.Unlock()
	a.samples[name]++
	if level && !a.pressed[name] {
		a.presses[name]++
	}
	a.pressed[name] = level
}

func (a *app) transmit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent++
	a.queued++
}

func (a *app) receive() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.queued > 0 {
		a.queued--
		a.received++
	}
}

func (a *app) fields() logrus.Fields {
	a.mu.Lock()
	defer a.mu.Unlock()
	var samples, presses uint64
	for name, n := range a.samples {
		samples += n
		presses += a.presses[name]
	}
	return logrus.Fields{
		"samples":  samples,
		"presses":  presses,
		"sent":     a.sent,
		"received": a.received,
	}
}

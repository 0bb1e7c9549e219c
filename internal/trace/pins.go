// Package trace holds optional subscribers to scheduler activity: a pin
// tracer for logic-analyser style waveforms, CSV and log event sinks, and the
// run-time stats table.
package trace

import (
	"sync"

	"edfsched/internal/sched"
)

// Port is a digital output port.
type Port interface {
	Write(pin int, high bool)
}

// PinTracer drives one output pin per traced task high while the task holds
// the CPU, pulses a tick pin on every tick and raises an idle pin while the
// CPU idles. Pin 0 disables the corresponding output.
type PinTracer struct {
	port    Port
	taskPin map[sched.TaskID]int
	tickPin int
	idlePin int
	idle    bool
}

var (
	_ sched.SwitchHook = (*PinTracer)(nil)
	_ sched.TickHook   = (*PinTracer)(nil)
	_ sched.IdleHook   = (*PinTracer)(nil)
)

// NewPinTracer creates a tracer writing to port.
func NewPinTracer(port Port, tickPin, idlePin int) *PinTracer {
	return &PinTracer{
		port:    port,
		taskPin: make(map[sched.TaskID]int),
		tickPin: tickPin,
		idlePin: idlePin,
	}
}

// Trace assigns pin to task id.
func (p *PinTracer) Trace(id sched.TaskID, pin int) {
	if pin == 0 {
		return
	}
	p.taskPin[id] = pin
}

func (p *PinTracer) OnSwitchOut(id sched.TaskID, now sched.Tick) {
	if pin, ok := p.taskPin[id]; ok {
		p.port.Write(pin, false)
	}
}

func (p *PinTracer) OnSwitchIn(id sched.TaskID, now sched.Tick) {
	if p.idle {
		p.idle = false
		if p.idlePin != 0 {
			p.port.Write(p.idlePin, false)
		}
	}
	if pin, ok := p.taskPin[id]; ok {
		p.port.Write(pin, true)
	}
}

func (p *PinTracer) OnTick(now sched.Tick) {
	if p.tickPin == 0 {
		return
	}
	p.port.Write(p.tickPin, true)
	p.port.Write(p.tickPin, false)
}

func (p *PinTracer) OnIdle(now sched.Tick) {
	if p.idle {
		return
	}
	p.idle = true
	if p.idlePin != 0 {
		p.port.Write(p.idlePin, true)
	}
}

// Edge is one recorded pin transition.
type Edge struct {
	Tick sched.Tick
	Pin  int
	High bool
}

// Recorder is a Port that records level changes against a time source.
type Recorder struct {
	mu     sync.Mutex
	clock  sched.TimeSource
	levels map[int]bool
	edges  []Edge
}

// NewRecorder creates a recorder stamping edges with clock.
func NewRecorder(clock sched.TimeSource) *Recorder {
	return &Recorder{
		clock:  clock,
		levels: make(map[int]bool),
	}
}

// Write records an edge when the level of pin changes. A pulse within one
// tick records both edges.
func (r *Recorder) Write(pin int, high bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.levels[pin] == high {
		return
	}
	r.levels[pin] = high
	r.edges = append(r.edges, Edge{Tick: r.clock.Now(), Pin: pin, High: high})
}

// Level returns the current level of pin.
func (r *Recorder) Level(pin int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.levels[pin]
}

// Edges returns a copy of the recorded edges.
func (r *Recorder) Edges() []Edge {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Edge(nil), r.edges...)
}

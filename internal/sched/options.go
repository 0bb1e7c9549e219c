package sched

import "github.com/sirupsen/logrus"

// Option configures a [Scheduler].
type Option func(*options)

type options struct {
	logger      logrus.FieldLogger
	clock       *TickClock
	switchHooks []SwitchHook
	tickHooks   []TickHook
	idleHooks   []IdleHook
	sinks       []EventSink
}

// WithLogger sets the logger. Defaults to logrus.StandardLogger().
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithClock shares an existing clock instead of creating one from
// Config.StartTick.
func WithClock(c *TickClock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithSwitchHook subscribes h to context switches. Hooks fire after the
// scheduler's own accounting, in registration order.
func WithSwitchHook(h SwitchHook) Option {
	return func(o *options) {
		o.switchHooks = append(o.switchHooks, h)
	}
}

// WithTickHook subscribes h to tick interrupts.
func WithTickHook(h TickHook) Option {
	return func(o *options) {
		o.tickHooks = append(o.tickHooks, h)
	}
}

// WithIdleHook subscribes h to idle decisions.
func WithIdleHook(h IdleHook) Option {
	return func(o *options) {
		o.idleHooks = append(o.idleHooks, h)
	}
}

// WithEventSink subscribes sink to status events.
func WithEventSink(sink EventSink) Option {
	return func(o *options) {
		o.sinks = append(o.sinks, sink)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"edfsched/internal/sched"
	"edfsched/internal/trace"
)

const (
	tickPin = 5
	idlePin = 1
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config (built-in task set when empty)")
	realtime := flag.Bool("realtime", false, "pace ticks with the wall clock instead of simulating them back to back")
	ticks := flag.Int("ticks", -1, "override duration_ticks")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Read the configuration
	cfg, err := sched.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	if *ticks >= 0 {
		cfg.DurationTicks = *ticks
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithError(err).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if err := run(cfg, *realtime, log); err != nil {
		log.WithError(err).Fatal("edfsim")
	}
}

func run(cfg sched.Config, realtime bool, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := sched.NewTickClock(sched.Tick(cfg.StartTick), 1)
	pins := trace.NewRecorder(clock)
	tracer := trace.NewPinTracer(pins, tickPin, idlePin)

	opts := []sched.Option{
		sched.WithClock(clock),
		sched.WithLogger(log),
		sched.WithSwitchHook(tracer),
		sched.WithTickHook(tracer),
		sched.WithIdleHook(tracer),
		sched.WithEventSink(trace.NewLogSink(log)),
	}
	if cfg.CSVPath != "" {
		sink, err := trace.CreateCSVSink(cfg.CSVPath)
		if err != nil {
			return fmt.Errorf("open event log: %w", err)
		}
		defer func() {
			if err := sink.Close(); err != nil {
				log.WithError(err).Error("close event log")
			}
		}()
		opts = append(opts, sched.WithEventSink(sink))
	}

	s := sched.New(cfg, opts...)
	application := newApp()
	for i, tc := range cfg.Tasks {
		work, err := application.workload(tc, uint64(i+1))
		if err != nil {
			return err
		}
		var taskOpts []sched.TaskOption
		if tc.Accounting {
			taskOpts = append(taskOpts, sched.WithAccounting())
		}
		id, err := s.CreatePeriodicTask(tc.Name, sched.Ticks(tc.Period), work, taskOpts...)
		if err != nil {
			return err
		}
		tracer.Trace(id, tc.Pin)
	}

	if realtime {
		if err := s.Run(ctx); err != nil {
			return err
		}
	} else {
		s.Simulate(ctx, cfg.DurationTicks)
	}

	_, elapsed := s.AccountingTotals()
	if err := trace.WriteRunTimeStats(os.Stdout, s.Tasks(), elapsed, s.CPULoad()); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"tick":   s.Now(),
		"misses": s.DeadlineMisses(),
		"load":   fmt.Sprintf("%.2f%%", s.CPULoad()),
	}).Info("done")
	log.WithFields(application.fields()).Info("application")

	if cfg.PinsCSVPath != "" {
		f, err := os.Create(cfg.PinsCSVPath)
		if err != nil {
			return fmt.Errorf("create pin trace: %w", err)
		}
		defer f.Close()
		if err := pins.WriteCSV(f); err != nil {
			return fmt.Errorf("write pin trace: %w", err)
		}
	}
	return nil
}

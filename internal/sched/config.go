package sched

import (
	"fmt"
	"os"

	yaml "github.com/goccy/go-yaml"
)

// Config mirrors config.yml
type Config struct {
	TickMS        int          `yaml:"tick_ms"`        // 1 (by default)
	MaxTasks      int          `yaml:"max_tasks"`      // 8 (by default)
	StartTick     uint32       `yaml:"start_tick"`     // 0 (by default)
	DurationTicks int          `yaml:"duration_ticks"` // 1000 (by default); 0 runs until interrupted
	LogLevel      string       `yaml:"log_level"`      // "info" (by default)
	CSVPath       string       `yaml:"csv_path"`       // status event log, empty disables it
	PinsCSVPath   string       `yaml:"pins_csv_path"`  // pin waveform, empty disables it
	Tasks         []TaskConfig `yaml:"tasks"`
}

// TaskConfig describes one periodic task of the application.
type TaskConfig struct {
	Name       string   `yaml:"name"`
	Period     uint32   `yaml:"period"`
	Cost       uint32   `yaml:"cost"`       // ticks of CPU per job
	Costs      []uint32 `yaml:"costs"`      // per-job costs cycled in order, overrides cost and jitter
	Jitter     float64  `yaml:"jitter"`     // standard deviation of the cost, 0 for a fixed cost
	Action     string   `yaml:"action"`     // application side effect: button, transmit, receive or empty
	Accounting bool     `yaml:"accounting"` // opt into busy-time accounting
	Pin        int      `yaml:"pin"`        // trace pin, 0 for none
}

// The default application: two button monitors, a transmitter, a receiver
// and two CPU loads, the first two tracked by accounting.
func defaultConfig() Config {
	return Config{
		TickMS:        1,
		MaxTasks:      8,
		DurationTicks: 1000,
		LogLevel:      "info",
		Tasks: []TaskConfig{
			{Name: "Button 1 Monitor", Period: 50, Cost: 1, Action: "button", Accounting: true, Pin: 2},
			{Name: "Button 2 Monitor", Period: 50, Cost: 1, Action: "button", Accounting: true, Pin: 3},
			{Name: "Periodic Transmitter", Period: 100, Cost: 1, Action: "transmit", Pin: 6},
			{Name: "Uart Receiver", Period: 20, Cost: 1, Action: "receive", Pin: 7},
			{Name: "Load 1 Simulation", Period: 10, Cost: 5, Jitter: 1.5, Pin: 4},
			{Name: "Load 2 Simulation", Period: 100, Cost: 12},
		},
	}
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config { return defaultConfig() }

// Load reads YAML and overrides defaults; empty path = defaults only
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.clamp()
	return cfg, nil
}

// sanity clamps
func (cfg *Config) clamp() {
	if cfg.TickMS <= 0 {
		cfg.TickMS = 1
	}
	if cfg.MaxTasks <= 0 {
		cfg.MaxTasks = 8
	}
	if cfg.DurationTicks < 0 {
		cfg.DurationTicks = 0
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	for i := range cfg.Tasks {
		if cfg.Tasks[i].Jitter < 0 {
			cfg.Tasks[i].Jitter = 0
		}
	}
}

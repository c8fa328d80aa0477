// File: runtime/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package runtime

import (
	"fmt"
	"os"
	goruntime "runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML configs can use "5ms"-style strings.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	td, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(td)
	return nil
}

// Config controls runtime sizing and the reactor cycle.
type Config struct {
	// Workers is the worker thread count; defaults to the logical CPU count.
	Workers int `yaml:"workers"`
	// MaxEvents bounds how many readiness events one Wait call can return.
	MaxEvents int `yaml:"max_events"`
	// TickInterval is the reactor wait timeout and therefore the timer
	// granularity.
	TickInterval Duration `yaml:"tick_interval"`
	// PinWorkers pins each worker to a CPU on Linux; elsewhere it is a
	// no-op.
	PinWorkers bool `yaml:"pin_workers"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		Workers:      goruntime.NumCPU(),
		MaxEvents:    1024,
		TickInterval: Duration(time.Millisecond),
		PinWorkers:   false,
	}
}

// LoadConfig reads a YAML config file; absent keys keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("config: workers must be positive, got %d", c.Workers)
	}
	if c.MaxEvents <= 0 {
		return fmt.Errorf("config: max_events must be positive, got %d", c.MaxEvents)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("config: tick_interval must be positive")
	}
	return nil
}

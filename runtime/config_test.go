// File: runtime/config_test.go

package runtime

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runtime.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
workers: 4
max_events: 256
tick_interval: 5ms
pin_workers: true
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.MaxEvents != 256 {
		t.Errorf("MaxEvents = %d, want 256", cfg.MaxEvents)
	}
	if time.Duration(cfg.TickInterval) != 5*time.Millisecond {
		t.Errorf("TickInterval = %v, want 5ms", time.Duration(cfg.TickInterval))
	}
	if !cfg.PinWorkers {
		t.Error("PinWorkers = false, want true")
	}
}

func TestLoadConfigPartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "workers: 2\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	def := DefaultConfig()
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Workers)
	}
	if cfg.MaxEvents != def.MaxEvents {
		t.Errorf("MaxEvents = %d, want default %d", cfg.MaxEvents, def.MaxEvents)
	}
	if cfg.TickInterval != def.TickInterval {
		t.Errorf("TickInterval = %v, want default %v", cfg.TickInterval, def.TickInterval)
	}
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, "tick_interval: not-a-duration\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig accepted a malformed duration")
	}
}

func TestConfigValidate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"negative max_events", func(c *Config) { c.MaxEvents = -1 }},
		{"zero tick_interval", func(c *Config) { c.TickInterval = 0 }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.validate(); err == nil {
				t.Error("validate accepted an invalid config")
			}
		})
	}
}

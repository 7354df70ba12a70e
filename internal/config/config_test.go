package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to be valid but found %v", err)
	}
	if cfg.MaxLapsPerCall != 5 {
		t.Errorf("expected max laps per call %d but found %d", 5, cfg.MaxLapsPerCall)
	}
	if !cfg.MetricsEnabled() {
		t.Errorf("expected metrics to be enabled by default")
	}
}

func TestLoad(t *testing.T) {
	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "f1sim.json")
		content := `{"addr": ":9090", "sessionTTL": "5m", "logLevel": "debug", "enableMetrics": false}`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("expected no error but found %v", err)
		}
		if cfg.Addr != ":9090" {
			t.Errorf("expected addr '%s' but found '%s'", ":9090", cfg.Addr)
		}
		if time.Duration(cfg.SessionTTL) != 5*time.Minute {
			t.Errorf("expected session ttl %s but found %s", 5*time.Minute, time.Duration(cfg.SessionTTL))
		}
		if cfg.MaxLapsPerCall != 5 {
			t.Errorf("expected unset fields to keep their default but found max laps %d", cfg.MaxLapsPerCall)
		}
		if cfg.MetricsEnabled() {
			t.Errorf("expected metrics to be disabled by the file")
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
			t.Errorf("expected an error for a missing file")
		}
	})

	t.Run("MalformedFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "f1sim.json")
		if err := os.WriteFile(path, []byte(`{"addr": `), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("expected an error for a malformed file")
		}
	})

	t.Run("Environment", func(t *testing.T) {
		t.Setenv("F1SIM_ADDR", ":7070")
		t.Setenv("F1SIM_MAX_LAPS", "10")
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("expected no error but found %v", err)
		}
		if cfg.Addr != ":7070" || cfg.MaxLapsPerCall != 10 {
			t.Errorf("expected environment overrides but found addr '%s' and max laps %d", cfg.Addr, cfg.MaxLapsPerCall)
		}
	})
}

func TestFromEnv(t *testing.T) {
	env := map[string]string{
		"F1SIM_LOG_LEVEL":       " warn ",
		"F1SIM_STREAM_INTERVAL": "500ms",
		"F1SIM_SEED":            "42",
		"F1SIM_ENABLE_METRICS":  "false",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	c, err := fromEnv(lookup)
	if err != nil {
		t.Fatalf("expected no error but found %v", err)
	}
	if c.LogLevel != "warn" {
		t.Errorf("expected log level '%s' but found '%s'", "warn", c.LogLevel)
	}
	if time.Duration(c.StreamInterval) != 500*time.Millisecond {
		t.Errorf("expected stream interval %s but found %s", 500*time.Millisecond, time.Duration(c.StreamInterval))
	}
	if c.Seed != 42 {
		t.Errorf("expected seed %d but found %d", 42, c.Seed)
	}
	if c.EnableMetrics == nil || *c.EnableMetrics {
		t.Errorf("expected metrics to be explicitly disabled")
	}
	if c.Addr != "" {
		t.Errorf("expected unset variables to stay empty but found addr '%s'", c.Addr)
	}

	t.Run("Invalid", func(t *testing.T) {
		for _, kv := range [][2]string{
			{"F1SIM_SESSION_TTL", "forever"},
			{"F1SIM_MAX_LAPS", "many"},
			{"F1SIM_SEED", "-1"},
			{"F1SIM_ENABLE_METRICS", "maybe"},
		} {
			_, err := fromEnv(func(k string) (string, bool) {
				if k == kv[0] {
					return kv[1], true
				}
				return "", false
			})
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("%s=%s: expected ErrInvalid but found %v", kv[0], kv[1], err)
			}
		}
	})
}

func TestValidate(t *testing.T) {
	tests := map[string]func(c *Config){
		"NoAddr":          func(c *Config) { c.Addr = "" },
		"NoLaps":          func(c *Config) { c.MaxLapsPerCall = 0 },
		"NoTTL":           func(c *Config) { c.SessionTTL = 0 },
		"StreamTooFast":   func(c *Config) { c.StreamInterval = Duration(time.Millisecond) },
		"UnknownLogLevel": func(c *Config) { c.LogLevel = "loud" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(&c)
			if err := c.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid but found %v", err)
			}
		})
	}
}

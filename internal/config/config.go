// Package config loads the simulator configuration from defaults, an optional JSON file and
// F1SIM_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Duration is a time.Duration that reads and writes Go duration strings, e.g. "30m".
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

type Config struct {
	Addr              string   `json:"addr"`              // Addr is the listen address of the HTTP server
	MaxLapsPerCall    int      `json:"maxLapsPerCall"`    // MaxLapsPerCall bounds the laps a single request may advance
	SessionTTL        Duration `json:"sessionTTL"`        // SessionTTL is how long idle sessions are kept
	JanitorInterval   Duration `json:"janitorInterval"`   // JanitorInterval is how often idle sessions are evicted
	StreamInterval    Duration `json:"streamInterval"`    // StreamInterval is the default lap interval of the stream
	MinStreamPeriod   Duration `json:"minStreamPeriod"`   // MinStreamPeriod is the shortest interval a client may ask for
	Seed              uint64   `json:"seed"`              // Seed makes races reproducible when non-zero
	LogLevel          string   `json:"logLevel"`          // LogLevel is one of debug, info, warn, error
	LogFile           string   `json:"logFile"`           // LogFile is written to instead of stderr when set
	ShutdownTimeout   Duration `json:"shutdownTimeout"`   // ShutdownTimeout bounds the graceful shutdown of the server
	EnableMetrics     *bool    `json:"enableMetrics"`     // EnableMetrics serves /metrics when true
	ReadHeaderTimeout Duration `json:"readHeaderTimeout"` // ReadHeaderTimeout bounds reading request headers
}

// Default returns the configuration used when nothing else is provided.
func Default() Config {
	enabled := true
	return Config{
		Addr:              ":8080",
		MaxLapsPerCall:    5,
		SessionTTL:        Duration(30 * time.Minute),
		JanitorInterval:   Duration(time.Minute),
		StreamInterval:    Duration(2 * time.Second),
		MinStreamPeriod:   Duration(100 * time.Millisecond),
		LogLevel:          "info",
		ShutdownTimeout:   Duration(10 * time.Second),
		EnableMetrics:     &enabled,
		ReadHeaderTimeout: Duration(5 * time.Second),
	}
}

// Load builds the configuration. path may be empty, in which case no file is read.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		fileCfg, err := readFile(path)
		if err != nil {
			return cfg, err
		}
		if err := merge(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("error merging config file: %w", err)
		}
	}

	envCfg, err := fromEnv(os.LookupEnv)
	if err != nil {
		return cfg, err
	}
	if err := merge(&cfg, envCfg); err != nil {
		return cfg, fmt.Errorf("error merging environment config: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate checks that the configuration can be used to start the server.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr is required", ErrInvalid)
	}
	if c.MaxLapsPerCall < 1 {
		return fmt.Errorf("%w: maxLapsPerCall must be at least 1, got %d", ErrInvalid, c.MaxLapsPerCall)
	}
	if c.SessionTTL <= 0 || c.JanitorInterval <= 0 {
		return fmt.Errorf("%w: sessionTTL and janitorInterval must be positive", ErrInvalid)
	}
	if c.StreamInterval < c.MinStreamPeriod {
		return fmt.Errorf("%w: streamInterval must not be below minStreamPeriod", ErrInvalid)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level converts LogLevel to a slog level.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("%w: logLevel %q", ErrInvalid, c.LogLevel)
	}
	return l, nil
}

// MetricsEnabled reports whether /metrics should be served.
func (c Config) MetricsEnabled() bool {
	return c.EnableMetrics == nil || *c.EnableMetrics
}

// merge overrides dst with every non-zero field of src. mergo skips zero values, so an explicit
// enableMetrics=false is carried over by hand.
func merge(dst *Config, src Config) error {
	metrics := src.EnableMetrics
	src.EnableMetrics = nil
	if err := mergo.Merge(dst, src, mergo.WithOverride); err != nil {
		return err
	}
	if metrics != nil {
		v := *metrics
		dst.EnableMetrics = &v
	}
	return nil
}

func readFile(path string) (Config, error) {
	var c Config
	b, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("error reading config file: %w", err)
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	return c, nil
}

// fromEnv reads F1SIM_* variables; unset variables leave the zero value so they don't override.
func fromEnv(lookup func(string) (string, bool)) (Config, error) {
	var c Config
	var err error
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	dur := func(name string, dst *Duration) {
		if v, ok := lookup(name); ok && err == nil {
			if perr := dst.UnmarshalText([]byte(v)); perr != nil {
				err = fmt.Errorf("%w: %s: %v", ErrInvalid, name, perr)
			}
		}
	}

	str("F1SIM_ADDR", &c.Addr)
	str("F1SIM_LOG_LEVEL", &c.LogLevel)
	str("F1SIM_LOG_FILE", &c.LogFile)
	dur("F1SIM_SESSION_TTL", &c.SessionTTL)
	dur("F1SIM_STREAM_INTERVAL", &c.StreamInterval)
	dur("F1SIM_SHUTDOWN_TIMEOUT", &c.ShutdownTimeout)
	if v, ok := lookup("F1SIM_MAX_LAPS"); ok && err == nil {
		n, perr := strconv.Atoi(v)
		if perr != nil {
			err = fmt.Errorf("%w: F1SIM_MAX_LAPS: %v", ErrInvalid, perr)
		}
		c.MaxLapsPerCall = n
	}
	if v, ok := lookup("F1SIM_SEED"); ok && err == nil {
		n, perr := strconv.ParseUint(v, 10, 64)
		if perr != nil {
			err = fmt.Errorf("%w: F1SIM_SEED: %v", ErrInvalid, perr)
		}
		c.Seed = n
	}
	if v, ok := lookup("F1SIM_ENABLE_METRICS"); ok && err == nil {
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			err = fmt.Errorf("%w: F1SIM_ENABLE_METRICS: %v", ErrInvalid, perr)
		}
		c.EnableMetrics = &b
	}
	return c, err
}

// Package config loads CLI defaults from an optional simstep.yaml file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where LoadOrDefault looks when no path is given.
const DefaultPath = "simstep.yaml"

// Config holds CLI defaults. Flags override these values.
type Config struct {
	// Rate is the default target tick rate in ticks per second.
	Rate float64 `yaml:"rate,omitempty"`

	// Journal is the default journal database path.
	Journal string `yaml:"journal,omitempty"`

	Log LogConfig `yaml:"log,omitempty"`
}

// LogConfig controls diagnostic output.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug | info | warn | error
	Format string `yaml:"format,omitempty"` // text | json
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Rate:    60,
		Journal: "simstep.db",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads and validates a config file. Fields left unset in the file keep
// their defaults. Unknown fields are rejected so typos fail loudly.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return parse(data)
}

// LoadOrDefault loads the config at path, or DefaultPath when path is empty.
// A missing file is not an error: the defaults apply.
func LoadOrDefault(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	cfg, err := Load(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, err
	}
	return cfg, nil
}

func parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.check(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) check() error {
	if c.Rate <= 0 {
		return fmt.Errorf("invalid config: rate must be positive, got %v", c.Rate)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid config: unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid config: unknown log format %q", c.Log.Format)
	}
	return nil
}

// SlogLevel maps the configured log level to its slog value.
func (c Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

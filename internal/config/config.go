// Package config provides runtime configuration values read from SHELF_*
// environment variables.
package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Prefix is the environment variable prefix.
const Prefix = "SHELF"

// Config holds the knobs shared by the CLI and the HTTP server. Command-line
// flags override these values.
type Config struct {
	DB              string        `envconfig:"DB" default:"shelf.db"`
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	// Admin is the principal installed by the V1 migration step when no
	// --admin flag is given.
	Admin string `envconfig:"ADMIN"`
}

// Load collects configuration from the environment with defaults.
func Load() (Config, error) {
	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		return Config{}, errors.Wrap(err, "load config")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return Config{}, err
	}
	return c, nil
}

// ParseLevel maps debug|info|warn|error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(s)))); err != nil {
		return 0, errors.Errorf("invalid log level %q", s)
	}
	return lvl, nil
}

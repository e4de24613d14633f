// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	"battleship/internal/game"
)

// MaxDimension is the largest board the game accepts.
const MaxDimension = game.MaxDimension

// Config is shared by every subcommand; flags override what the
// environment sets.
type Config struct {
	Dimension          int    `env:"BATTLESHIP_DIMENSION" envDefault:"10"`
	AllowAdjacentShips bool   `env:"BATTLESHIP_ALLOW_ADJACENT" envDefault:"true"`
	Strategy           string `env:"BATTLESHIP_STRATEGY" envDefault:"hunt"`

	// Seed of 0 draws a fresh seed per game.
	Seed uint64 `env:"BATTLESHIP_SEED" envDefault:"0"`

	LogLevel  string `env:"BATTLESHIP_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"BATTLESHIP_LOG_FORMAT" envDefault:"console"`

	Addr    string `env:"BATTLESHIP_ADDR" envDefault:":8080"`
	KeysDir string `env:"BATTLESHIP_KEYS_DIR" envDefault:"./keys"`
	Proofs  bool   `env:"BATTLESHIP_PROOFS" envDefault:"false"`
}

// Load parses the environment into a validated Config.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Dimension < game.MinDimension || c.Dimension > MaxDimension {
		errs = append(errs, fmt.Errorf("dimension %d outside [%d,%d]", c.Dimension, game.MinDimension, MaxDimension))
	}
	switch c.Strategy {
	case "random", "hunt":
	default:
		errs = append(errs, fmt.Errorf("unknown strategy %q", c.Strategy))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Rules translates the placement settings.
func (c Config) Rules() game.Rules {
	return game.Rules{AllowAdjacentShips: c.AllowAdjacentShips}
}

// Logger builds the process logger writing to w, or stderr when w is nil.
func (c Config) Logger(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	if c.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Package config loads the optional TOML configuration of ltictl.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hammal/lti/internal/logging"
	"github.com/hammal/lti/pss"
)

var ErrInvalid = errors.New("config: invalid")

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config holds the tool settings.
type Config struct {
	// Tolerance is the smallest reciprocal condition number accepted for
	// feedback loops.
	Tolerance float64
	LogLevel  string
	Format    string
}

type fileConfig struct {
	Tolerance float64 `toml:"tolerance"`
	LogLevel  string  `toml:"log_level"`
	Format    string  `toml:"format"`
}

func Default() Config {
	return Config{
		Tolerance: pss.DefaultTolerance,
		LogLevel:  "info",
		Format:    FormatJSON,
	}
}

// Load reads path on top of the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("unknown key %q: %w", undecoded[0].String(), ErrInvalid)
	}

	if meta.IsDefined("tolerance") {
		cfg.Tolerance = raw.Tolerance
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("format") {
		cfg.Format = strings.ToLower(strings.TrimSpace(raw.Format))
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if !(cfg.Tolerance >= 0 && cfg.Tolerance < 1) {
		return fmt.Errorf("tolerance %v outside [0, 1): %w", cfg.Tolerance, ErrInvalid)
	}
	if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("log level %q: %w", cfg.LogLevel, ErrInvalid)
	}
	switch cfg.Format {
	case FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("format %q: %w", cfg.Format, ErrInvalid)
	}
	return nil
}

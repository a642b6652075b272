// Package config provides configuration loading for olsfit.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix is the prefix of environment variables read by Load.
	EnvPrefix = "OLSFIT_"

	maxConfigFileSize = 1024 * 1024 // 1MB

	defaultAlpha    = 0.05
	defaultLogLevel = "info"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the settings of one olsfit run.
type Config struct {
	Data       string    `koanf:"data"`
	Response   string    `koanf:"response"`
	Predictors []string  `koanf:"predictors"`
	Intercept  bool      `koanf:"intercept"`
	Alpha      float64   `koanf:"alpha"`
	Predict    string    `koanf:"predict"`
	RowLabels  string    `koanf:"row_labels"`
	Log        LogConfig `koanf:"log"`
}

// LogConfig controls the library logger.
type LogConfig struct {
	Level string `koanf:"level"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	return &Config{
		Alpha: defaultAlpha,
		Log:   LogConfig{Level: defaultLogLevel},
	}
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"alpha":     defaultAlpha,
		"log.level": defaultLogLevel,
	}
}

// Load reads configuration from an optional YAML file, then overrides it with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (OLSFIT_ALPHA, OLSFIT_LOG_LEVEL, etc.)
//  2. YAML config file at path, skipped when path is empty
//  3. Hardcoded defaults
//
// Environment variables map to keys by dropping the prefix and lowercasing,
// with LOG_ selecting the log section:
//
//	OLSFIT_ALPHA      -> alpha
//	OLSFIT_ROW_LABELS -> row_labels
//	OLSFIT_LOG_LEVEL  -> log.level
//
// Load does not validate; callers apply their own overrides first and then call Validate.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if rest, ok := strings.CutPrefix(key, "log_"); ok {
		return "log." + rest
	}
	return key
}

// Validate reports the first setting that cannot be used to fit a model.
func (c *Config) Validate() error {
	if c.Data == "" {
		return fmt.Errorf("%w: data file is required", ErrInvalidConfig)
	}
	if c.Response == "" {
		return fmt.Errorf("%w: response column is required", ErrInvalidConfig)
	}
	if len(c.Predictors) == 0 {
		return fmt.Errorf("%w: at least one predictor is required", ErrInvalidConfig)
	}
	for _, p := range c.Predictors {
		if p == c.Response {
			return fmt.Errorf("%w: response %q is also a predictor", ErrInvalidConfig, p)
		}
	}
	if !(c.Alpha > 0 && c.Alpha < 1) {
		return fmt.Errorf("%w: alpha must be in (0, 1), got %v", ErrInvalidConfig, c.Alpha)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Log.Level)
	}
	return nil
}

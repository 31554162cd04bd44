// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config provides YAML-based configuration loading for the
// tensorproto command.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root application configuration.
type Config struct {
	// Log holds logging configuration
	Log LogConfig `mapstructure:"log"`
	// Output controls how messages are serialized
	Output OutputConfig `mapstructure:"output"`
	// Model holds the defaults of the model spec of predict requests
	Model ModelConfig `mapstructure:"model"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`
	// Rotation controls file rotation when writing to files
	Rotation RotationConfig `mapstructure:"rotation"`
	// Development toggles development-friendly logging options
	Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// OutputConfig selects the serialized form of written messages.
type OutputConfig struct {
	// Format: proto, json or cbor. A file extension recognized by the
	// codec registry takes precedence.
	Format string `mapstructure:"format"`
}

// ModelConfig is the default model spec of predict requests.
type ModelConfig struct {
	Name          string `mapstructure:"name"`
	SignatureName string `mapstructure:"signature_name"`
	// Version is ignored when negative.
	Version      int64  `mapstructure:"version"`
	VersionLabel string `mapstructure:"version_label"`
}

var outputFormats = map[string]bool{"proto": true, "json": true, "cbor": true}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
			Rotation: RotationConfig{
				Filename:   "logs/tensorproto.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
		Output: OutputConfig{Format: "proto"},
		Model: ModelConfig{
			SignatureName: "serving_default",
			Version:       -1,
		},
	}
}

// Load reads configuration from the provided path (if non-empty),
// otherwise it searches common locations. Environment variables use the
// prefix TENSORPROTO, with `.` and `-` replaced by `_`.
// Example: TENSORPROTO_LOG_LEVEL=debug
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TENSORPROTO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults so env-only configs work
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
	v.SetDefault("output.format", cfg.Output.Format)
	v.SetDefault("model.name", cfg.Model.Name)
	v.SetDefault("model.signature_name", cfg.Model.SignatureName)
	v.SetDefault("model.version", cfg.Model.Version)
	v.SetDefault("model.version_label", cfg.Model.VersionLabel)

	if path == "" {
		path = os.Getenv("TENSORPROTO_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("tensorproto")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".tensorproto"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stderr"}
	}

	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if !outputFormats[c.Output.Format] {
		return fmt.Errorf("invalid output.format: %q", c.Output.Format)
	}

	if c.Model.Version >= 0 && c.Model.VersionLabel != "" {
		return errors.New("model.version and model.version_label are mutually exclusive")
	}
	return nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyFort Contributors

// Package config loads KeyFort configuration from defaults, an optional
// YAML file, and command-line flags, in that order of precedence.
package config

import (
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config is the full KeyFort configuration tree.
type Config struct {
	Log           LogConfig           `koanf:"log"`
	Session       SessionConfig       `koanf:"session"`
	Password      PasswordConfig      `koanf:"password"`
	Hasher        HasherConfig        `koanf:"hasher"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Format string `koanf:"format"` // "json" or "text"
	Level  string `koanf:"level"`  // "debug", "info", "warn", "error"
}

// SessionConfig configures session issuance and reclamation.
type SessionConfig struct {
	TTL           time.Duration `koanf:"ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	SingleSession bool          `koanf:"single_session"`
}

// PasswordConfig configures the password acceptance policy.
type PasswordConfig struct {
	MinLength     int  `koanf:"min_length"`
	RequireUpper  bool `koanf:"require_upper"`
	RequireLower  bool `koanf:"require_lower"`
	RequireDigit  bool `koanf:"require_digit"`
	RequireSymbol bool `koanf:"require_symbol"`
}

// HasherConfig configures argon2id cost parameters and the hashing
// concurrency bound.
type HasherConfig struct {
	Time        uint32 `koanf:"time"`
	Memory      uint32 `koanf:"memory"`
	Threads     uint8  `koanf:"threads"`
	Concurrency int    `koanf:"concurrency"`
}

// ObservabilityConfig configures the metrics/health HTTP server.
type ObservabilityConfig struct {
	Addr string `koanf:"addr"`
}

// defaults is the base configuration layer.
func defaults() map[string]any {
	return map[string]any{
		"log.format":             "json",
		"log.level":              "info",
		"session.ttl":            24 * time.Hour,
		"session.sweep_interval": time.Minute,
		"session.single_session": false,
		"password.min_length":    8,
		"password.require_lower": true,
		"password.require_digit": true,
		"hasher.time":            uint32(1),
		"hasher.memory":          uint32(64 * 1024),
		"hasher.threads":         uint8(4),
		"hasher.concurrency":     8,
		"observability.addr":     "127.0.0.1:9100",
	}
}

// Load builds a Config from defaults, then the YAML file at path (if
// non-empty), then the given flag set (if non-nil).
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").
			With("operation", "load defaults").
			Wrap(err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("operation", "load config file").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("operation", "load flags").
				Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").
			With("operation", "unmarshal config").
			Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Session.TTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("session.ttl must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("session.sweep_interval must be positive")
	}
	if c.Password.MinLength < 1 {
		return oops.Code("CONFIG_INVALID").Errorf("password.min_length must be at least 1")
	}
	if c.Hasher.Concurrency < 1 {
		return oops.Code("CONFIG_INVALID").Errorf("hasher.concurrency must be at least 1")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return oops.Code("CONFIG_INVALID").Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	return nil
}

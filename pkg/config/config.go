// Package config loads kerf settings from the environment and builds the
// logger the CLI hands to the library packages.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/chazu/kerf/pkg/query"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds every environment-controlled setting.
type Config struct {
	Seed            uint64  `env:"KERF_SEED"              envDefault:"1"`
	RayLength       float64 `env:"KERF_RAY_LENGTH"        envDefault:"1000"`
	RatioDigits     int     `env:"KERF_RATIO_DIGITS"      envDefault:"3"`
	Tolerance       float64 `env:"KERF_TOLERANCE"         envDefault:"1e-7"`
	MaxBasisRetries int     `env:"KERF_MAX_BASIS_RETRIES" envDefault:"64"`

	LogLevel string `env:"KERF_LOG_LEVEL" envDefault:"warn"`
	Env      string `env:"KERF_ENV"       envDefault:"production"`
	Format   string `env:"KERF_FORMAT"    envDefault:"json"`
}

// Load parses Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// QueryOptions returns the query kernel options described by cfg.
func (c Config) QueryOptions() query.Options {
	return query.Options{
		RayLength:       c.RayLength,
		RatioDigits:     c.RatioDigits,
		Tolerance:       c.Tolerance,
		MaxBasisRetries: c.MaxBasisRetries,
	}
}

// NewLogger builds a zap logger writing to stderr. "development" gives the
// console encoder; anything else gives JSON.
func (c Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	var zc zap.Config
	if c.Env == "development" {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc = zap.NewProductionConfig()
		zc.Sampling = nil
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

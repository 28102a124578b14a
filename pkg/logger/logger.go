// Package logger provides the structured logging constructor shared across
// the decoder pipeline. The packages that report diagnostics — the sector
// sources, the decoder, and the public filemaker API — take a
// *zap.SugaredLogger built by this package rather than rolling their own
// logging setup, so that a single service tag and level policy governs the
// whole pipeline. Block/chunk decoding, metadata extraction, and row
// assembly do no logging of their own.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Option configures the logger returned by New.
type Option func(*config)

type config struct {
	development bool
	level       zapcore.Level
}

// WithDevelopment switches the logger to zap's development preset: human
// readable console encoding, stack traces on warnings, and no sampling.
// Production workloads should leave this unset to get JSON encoding and
// sampling instead.
func WithDevelopment() Option {
	return func(c *config) { c.development = true }
}

// WithLevel sets the minimum level the logger emits. Defaults to Info.
func WithLevel(level zapcore.Level) Option {
	return func(c *config) { c.level = level }
}

// New builds a *zap.SugaredLogger tagged with the given service name. The
// returned logger is safe for concurrent use, matching how a single decoder
// File context shares one logger between its sector source, decoder, and
// public API layer.
//
// Diagnostics written through the returned logger are advisory only (spec
// §7): sector counts, table counts, and per-phase progress are side-channel
// information, never load-bearing for correctness.
func New(service string, opts ...Option) *zap.SugaredLogger {
	cfg := config{level: zapcore.InfoLevel}
	for _, opt := range opts {
		opt(&cfg)
	}

	var zapCfg zap.Config
	if cfg.development {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.level)

	base, err := zapCfg.Build()
	if err != nil {
		// Logging must never be the reason the decoder fails to open a file;
		// fall back to a no-op core rather than propagating a build error.
		base = zap.NewNop()
	}

	return base.With(zap.String("service", service)).Sugar()
}

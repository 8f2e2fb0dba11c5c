// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package logging builds the console logger shared by the CLI commands.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/design3/easel/internal/config"
	"github.com/rs/zerolog"
)

// Environment overrides, applied over the configuration file
const (
	EnvLevel     = "EASEL_LOG_LEVEL"
	EnvNoColor   = "EASEL_LOG_NOCOLOR"
	EnvTimestamp = "EASEL_LOG_TIMESTAMP"
)

// New builds a console logger writing to out with a component field.
// Extra writers receive the same events as JSON lines.
func New(cfg config.LogConfig, out io.Writer, component string, extra ...io.Writer) zerolog.Logger {
	cfg = ApplyEnv(cfg, os.LookupEnv)

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	console := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    cfg.NoColor,
		TimeFormat: time.RFC3339,
	}
	if !cfg.Timestamp {
		console.PartsExclude = []string{zerolog.TimestampFieldName}
	}

	var w io.Writer = console
	if len(extra) > 0 {
		w = zerolog.MultiLevelWriter(append([]io.Writer{console}, extra...)...)
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

// ApplyEnv overlays the EASEL_LOG_* variables found by lookup onto cfg.
// Unparseable booleans are ignored.
func ApplyEnv(cfg config.LogConfig, lookup func(string) (string, bool)) config.LogConfig {
	if v, ok := lookup(EnvLevel); ok && strings.TrimSpace(v) != "" {
		cfg.Level = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvNoColor); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.NoColor = b
		}
	}
	if v, ok := lookup(EnvTimestamp); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Timestamp = b
		}
	}
	return cfg
}

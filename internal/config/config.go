// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads the robot's TOML configuration file.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/design3/easel/pkg/stm32"
	"github.com/design3/easel/pkg/telemetry"
	"github.com/rs/zerolog"
)

// Config is the complete robot configuration
type Config struct {
	Serial    SerialConfig
	Log       LogConfig
	Telemetry TelemetryConfig
}

// SerialConfig selects the STM32 serial device
type SerialConfig struct {
	// Port skips discovery when set
	Port        string
	Candidates  []string
	BaudRate    int
	ReadTimeout time.Duration
}

type LogConfig struct {
	Level     string
	NoColor   bool
	Timestamp bool
}

// TelemetryConfig describes the base station link; an empty URL disables it
type TelemetryConfig struct {
	URL         string
	Username    string
	QueueSize   int
	NoSSLVerify bool
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Serial: SerialConfig{
			BaudRate:    stm32.DefaultBaudRate,
			ReadTimeout: stm32.DefaultReadTimeout,
		},
		Log: LogConfig{
			Level:     "info",
			Timestamp: true,
		},
		Telemetry: TelemetryConfig{
			QueueSize: telemetry.DefaultQueueSize,
		},
	}
}

type fileConfig struct {
	Serial struct {
		Port        string   `toml:"port"`
		Candidates  []string `toml:"candidates"`
		BaudRate    int      `toml:"baud_rate"`
		ReadTimeout string   `toml:"read_timeout"`
	} `toml:"serial"`
	Log struct {
		Level     string `toml:"level"`
		NoColor   bool   `toml:"no_color"`
		Timestamp bool   `toml:"timestamp"`
	} `toml:"log"`
	Telemetry struct {
		URL         string `toml:"url"`
		Username    string `toml:"username"`
		QueueSize   int    `toml:"queue_size"`
		NoSSLVerify bool   `toml:"no_ssl_verify"`
	} `toml:"telemetry"`
}

// Load reads path over the defaults. Keys absent from the file keep their
// default value. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("serial", "port") {
		cfg.Serial.Port = strings.TrimSpace(raw.Serial.Port)
	}
	if meta.IsDefined("serial", "candidates") {
		cfg.Serial.Candidates = normalizeList(raw.Serial.Candidates)
	}
	if meta.IsDefined("serial", "baud_rate") {
		cfg.Serial.BaudRate = raw.Serial.BaudRate
	}
	if meta.IsDefined("serial", "read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Serial.ReadTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse serial.read_timeout: %w", err)
		}
		cfg.Serial.ReadTimeout = d
	}

	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "no_color") {
		cfg.Log.NoColor = raw.Log.NoColor
	}
	if meta.IsDefined("log", "timestamp") {
		cfg.Log.Timestamp = raw.Log.Timestamp
	}

	if meta.IsDefined("telemetry", "url") {
		cfg.Telemetry.URL = strings.TrimSpace(raw.Telemetry.URL)
	}
	if meta.IsDefined("telemetry", "username") {
		cfg.Telemetry.Username = strings.TrimSpace(raw.Telemetry.Username)
	}
	if meta.IsDefined("telemetry", "queue_size") {
		cfg.Telemetry.QueueSize = raw.Telemetry.QueueSize
	}
	if meta.IsDefined("telemetry", "no_ssl_verify") {
		cfg.Telemetry.NoSSLVerify = raw.Telemetry.NoSSLVerify
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field against its allowed range
func (c Config) Validate() error {
	if c.Serial.BaudRate <= 0 {
		return fmt.Errorf("serial.baud_rate must be positive, got %d", c.Serial.BaudRate)
	}
	if c.Serial.ReadTimeout <= 0 {
		return fmt.Errorf("serial.read_timeout must be positive, got %v", c.Serial.ReadTimeout)
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	if c.Telemetry.QueueSize <= 0 {
		return fmt.Errorf("telemetry.queue_size must be positive, got %d", c.Telemetry.QueueSize)
	}
	if c.Telemetry.URL != "" {
		u, err := url.Parse(c.Telemetry.URL)
		if err != nil {
			return fmt.Errorf("telemetry.url: %w", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("telemetry.url: unsupported scheme %q (use ws:// or wss://)", u.Scheme)
		}
	}
	return nil
}

// DriverConfig maps the serial section onto the driver's configuration
func (c Config) DriverConfig(log *zerolog.Logger) stm32.Config {
	candidates := c.Serial.Candidates
	if c.Serial.Port != "" {
		candidates = []string{c.Serial.Port}
	}
	return stm32.Config{
		Candidates:  candidates,
		BaudRate:    c.Serial.BaudRate,
		ReadTimeout: c.Serial.ReadTimeout,
		Logger:      log,
	}
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/design3/easel/internal/config"
	"github.com/design3/easel/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string

	// Serial connection flags
	portName string
	baudRate int

	// Base station flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool
)

var (
	appConfig = config.Default()
	appLog    = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "easel",
	Short: "Robot control core for the painting robot",
	Long: `Easel - drives the painting robot's STM32 board and its decision steps.

Provides commands for moving the robot by hand, watching the serial link,
inspecting how each decision step is dispatched and streaming telemetry to
the base station.

Serial:       --port /dev/ttyACM0 [--baud 19200]
              Without --port the first serial device that opens is used.
Base station: --url ws://host/path [--username user]

For base station authentication, the password is read from the EASEL_PASSWORD
environment variable, or prompted interactively if not set.

Settings can also come from a TOML file given with --config. Flags override
the file.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")

	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device (skips discovery)")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 19200, "Baud rate")

	// Base station flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "Base station WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
}

// setup loads the configuration, applies flag overrides and builds the logger
func setup(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
	}

	applyFlags(&cfg, cmd)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	appConfig = cfg
	appLog = logging.New(cfg.Log, os.Stderr, cmd.Name())
	return nil
}

// applyFlags copies explicitly set flags over cfg
func applyFlags(cfg *config.Config, cmd *cobra.Command) {
	flags := cmd.Flags()

	if flags.Changed("port") {
		cfg.Serial.Port = portName
	}
	if flags.Changed("baud") {
		cfg.Serial.BaudRate = baudRate
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("url") {
		cfg.Telemetry.URL = wsURL
	}
	if flags.Changed("username") {
		cfg.Telemetry.Username = wsUsername
	}
	if flags.Changed("no-ssl-verify") {
		cfg.Telemetry.NoSSLVerify = wsNoSSLVerify
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

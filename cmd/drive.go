// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/design3/easel/pkg/stm32"
	"github.com/spf13/cobra"
)

var (
	driveWaitReady bool
	driveDegrees   bool
)

var driveCmd = &cobra.Command{
	Use:   "drive",
	Short: "Send a single command to the board",
	Long: `Send one validated command to the STM32 board and exit.

Parameters are checked before anything is written: translations are limited
to [-32768, 32767] mm, rotations to [-2π, 2π] rad and green LED flashes to
[0, 65535] ms.`,
}

func init() {
	rootCmd.AddCommand(driveCmd)
	driveCmd.PersistentFlags().BoolVar(&driveWaitReady, "wait-ready", false, "Wait for STM_READY before sending")

	driveCmd.AddCommand(
		&cobra.Command{
			Use:   "translate <dx> <dy>",
			Short: "Move by dx, dy millimetres",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				dx, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid dx %q: %w", args[0], err)
				}
				dy, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid dy %q: %w", args[1], err)
				}
				return withDriver(cmd, func(d *stm32.Driver) error { return d.Translate(dx, dy) })
			},
		},
		rotateCmd(),
		simpleDriveCmd("stop", "Halt any motion in progress", (*stm32.Driver).Stop),
		simpleDriveCmd("reset", "Reboot the board", (*stm32.Driver).Reset),
		simpleDriveCmd("manchester", "Start Manchester decoding on the board", (*stm32.Driver).DecodeManchester),
		toggleDriveCmd("red-led", "Turn the red LED on or off", (*stm32.Driver).SetRedLED),
		toggleDriveCmd("sampling", "Start or stop signal strength sampling", (*stm32.Driver).SetSampling),
		&cobra.Command{
			Use:   "green-led <ms>",
			Short: "Flash the green LED for ms milliseconds",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ms, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid duration %q: %w", args[0], err)
				}
				return withDriver(cmd, func(d *stm32.Driver) error { return d.FlashGreenLED(ms) })
			},
		},
	)
}

func rotateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "rotate <theta>",
		Short: "Turn by theta radians (or degrees with --degrees)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			theta, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid theta %q: %w", args[0], err)
			}
			if driveDegrees {
				theta = theta * math.Pi / 180
			}
			return withDriver(cmd, func(d *stm32.Driver) error { return d.Rotate(theta) })
		},
	}
	c.Flags().BoolVar(&driveDegrees, "degrees", false, "Interpret theta in degrees")
	return c
}

func simpleDriveCmd(name, short string, send func(*stm32.Driver) error) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDriver(cmd, send)
		},
	}
}

func toggleDriveCmd(name, short string, send func(*stm32.Driver, bool) error) *cobra.Command {
	return &cobra.Command{
		Use:       name + " <on|off>",
		Short:     short,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled, err := parseOnOff(args[0])
			if err != nil {
				return err
			}
			return withDriver(cmd, func(d *stm32.Driver) error { return send(d, enabled) })
		},
	}
}

// parseOnOff accepts on/off as well as anything strconv.ParseBool does
func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
	return b, nil
}

// withDriver opens the board, runs send and closes the link
func withDriver(cmd *cobra.Command, send func(*stm32.Driver) error) error {
	driver, connInfo, err := OpenDriver(&appLog)
	if err != nil {
		return err
	}
	defer driver.Close()

	appLog.Debug().Str("connection", connInfo).Msg("driver opened")

	if driveWaitReady {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		if err := driver.WaitReady(ctx); err != nil {
			return fmt.Errorf("board not ready: %w", err)
		}
	}

	if err := send(driver); err != nil {
		return err
	}
	appLog.Info().Str("command", cmd.Name()).Strs("args", cmd.Flags().Args()).Msg("command sent")
	return nil
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var waitReadyTimeout int

var waitReadyCmd = &cobra.Command{
	Use:   "wait_ready",
	Short: "Test the serial link by waiting for STM_READY",
	Long: `Open the board and wait until it reports STM_READY.

Corrupt frames received while waiting are ignored.

Exit codes:
  0 - Board ready before timeout
  1 - Timeout reached without STM_READY
  2 - Connection error

Useful in start scripts to block until the board has booted.`,
	RunE: runWaitReady,
}

func init() {
	rootCmd.AddCommand(waitReadyCmd)
	waitReadyCmd.Flags().IntVar(&waitReadyTimeout, "timeout", 10, "Timeout in seconds to wait for the board")
}

func runWaitReady(cmd *cobra.Command, args []string) error {
	driver, connInfo, err := OpenDriver(&appLog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("Easel - Wait Ready\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n\n", waitReadyTimeout)

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(waitReadyTimeout)*time.Second)
	err = driver.WaitReady(ctx)
	cancel()

	stats := driver.Stats()
	driver.Close()

	switch {
	case err == nil:
		fmt.Printf("SUCCESS: Board ready\n")
		fmt.Printf("  Frames: %d (%d rejected)\n", stats.TotalFrames, stats.Errors())
		os.Exit(0)
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No STM_READY received within %d seconds\n", waitReadyTimeout)
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	return nil
}

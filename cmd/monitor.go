// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/design3/easel/pkg/stm32"
	"github.com/spf13/cobra"
)

var (
	monitorErrorsOnly   bool
	monitorStatsSeconds int
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Display raw response frames in human-readable format",
	Long: `Continuously decode and display STM32 response frames as they arrive.

The port is read directly, without starting the driver, so no command is sent
to the board. Each frame is shown with a timestamp, its opcode and the decoded
parameter. Corrupt frames are reported and counted.

A statistics summary is printed every --stats-interval seconds and on exit.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&monitorErrorsOnly, "errors-only", false, "Only show rejected frames")
	monitorCmd.Flags().IntVar(&monitorStatsSeconds, "stats-interval", 0, "Statistics interval in seconds (0 disables)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	port, connInfo, err := OpenSerialPort()
	if err != nil {
		return err
	}
	defer port.Close()

	fmt.Printf("Easel - Frame Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	stats := stm32.NewStatistics()
	err = monitorStream(ctx, port, os.Stdout, stats, monitorOptions{
		errorsOnly:    monitorErrorsOnly,
		statsInterval: time.Duration(monitorStatsSeconds) * time.Second,
	})

	fmt.Printf("\n%s", stats)
	return err
}

type monitorOptions struct {
	errorsOnly    bool
	statsInterval time.Duration
}

// monitorStream decodes frames from r until ctx is done or r reaches EOF.
// Other read errors are reported and reading continues.
func monitorStream(ctx context.Context, r io.Reader, out io.Writer, stats *stm32.Statistics, opts monitorOptions) error {
	decoder := stm32.NewDecoder()
	buf := make([]byte, 64)
	lastStats := time.Now()

	printFrame := func(frame []byte) {
		resp, err := stm32.DecodeResponse(frame)
		stats.Update(&resp, err)

		if err != nil {
			fmt.Fprintf(out, "[%s] [ERROR] %v (% X)\n", time.Now().Format("15:04:05.000"), err, frame)
			return
		}
		if !opts.errorsOnly {
			fmt.Fprint(out, stm32.FormatResponse(resp))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			decoder.Feed(buf[:n], printFrame)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			fmt.Fprintf(out, "Read error: %v\n", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(10 * time.Millisecond):
			}
		}

		if opts.statsInterval > 0 && time.Since(lastStats) >= opts.statsInterval {
			lastStats = time.Now()
			fmt.Fprint(out, stats.String())
		}
	}
}

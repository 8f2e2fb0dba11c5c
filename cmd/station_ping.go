// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/design3/easel/pkg/telemetry"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var (
	stationPingTimeout int
	stationPingCount   int
)

var stationPingCmd = &cobra.Command{
	Use:   "station_ping",
	Short: "Test the base station link with WebSocket pings",
	Long: `Send WebSocket ping frames to the base station and wait for each pong.

This command tests the base station link without touching the board:
  - WebSocket connection is established
  - HTTP Basic authentication works
  - The base station answers control frames

Telemetry packets received while waiting are reported and otherwise ignored.

Exit codes:
  0 - All pings answered
  1 - One or more pings failed or timed out
  2 - Connection error`,
	RunE: runStationPing,
}

func init() {
	rootCmd.AddCommand(stationPingCmd)
	stationPingCmd.Flags().IntVar(&stationPingTimeout, "timeout", 5, "Timeout in seconds for each ping")
	stationPingCmd.Flags().IntVar(&stationPingCount, "count", 3, "Number of pings to send")
}

func runStationPing(cmd *cobra.Command, args []string) error {
	if stationPingCount < 1 {
		return fmt.Errorf("--count must be at least 1, got %d", stationPingCount)
	}

	conn, connInfo, err := DialBaseStation(cmd.Context())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Easel - Base Station Ping\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds per ping\n", stationPingTimeout)
	fmt.Printf("Count: %d pings\n\n", stationPingCount)

	pongs := make(chan string, 1)
	conn.SetPongHandler(func(data string) error {
		select {
		case pongs <- data:
		default:
		}
		return nil
	})

	// Control frames are only processed while a read is in progress
	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			if p, err := telemetry.DecodePacket(data); err == nil {
				fmt.Printf("  (received %s)\n", p.Type)
			}
		}
	}()

	successCount := 0
	failCount := 0
	timeout := time.Duration(stationPingTimeout) * time.Second

	for i := 1; i <= stationPingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, stationPingCount)

		payload := strconv.Itoa(i)
		startTime := time.Now()
		if err := conn.WriteControl(websocket.PingMessage, []byte(payload), startTime.Add(timeout)); err != nil {
			fmt.Printf("SEND FAILED: %v\n", err)
			failCount++
			continue
		}

		deadline := time.After(timeout)
	wait:
		for {
			select {
			case data := <-pongs:
				if data != payload {
					continue
				}
				fmt.Printf("PONG, rtt=%v\n", time.Since(startTime).Round(time.Millisecond))
				successCount++
				break wait

			case err := <-readErr:
				fmt.Printf("READ FAILED: %v\n", err)
				failCount += stationPingCount - i + 1
				i = stationPingCount
				break wait

			case <-deadline:
				fmt.Printf("TIMEOUT (no response in %ds)\n", stationPingTimeout)
				failCount++
				break wait
			}
		}

		if i < stationPingCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	fmt.Printf("\n--- Ping statistics ---\n")
	fmt.Printf("%d pings sent, %d pongs received, %.0f%% loss\n",
		stationPingCount, successCount, float64(failCount)/float64(stationPingCount)*100)

	if failCount > 0 {
		os.Exit(1)
	}
	return nil
}

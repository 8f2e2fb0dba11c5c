// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/design3/easel/internal/logging"
	"github.com/design3/easel/pkg/decision"
	"github.com/design3/easel/pkg/telemetry"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	findRobotFlashMs    = 2000
	commandPollInterval = 50 * time.Millisecond
)

var telemetryForwardLogs bool

var telemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "Stream board events to the base station",
	Long: `Connect the board to the base station over WebSocket.

Signal strength and antenna information are forwarded as they are decoded.
Commands from the base station are applied to the board:

  START_CYCLE - start signal strength sampling, report STANDBY
  STOP_CYCLE  - halt motion and stop sampling
  FIND_ROBOT  - flash the green LED

With --forward-logs every log line is also sent to the base station.`,
	RunE: runTelemetry,
}

func init() {
	rootCmd.AddCommand(telemetryCmd)
	telemetryCmd.Flags().BoolVar(&telemetryForwardLogs, "forward-logs", false, "Send log lines to the base station")
}

func runTelemetry(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	handler := telemetry.NewHandler(appConfig.Telemetry.QueueSize)

	log := appLog
	if telemetryForwardLogs {
		log = logging.New(appConfig.Log, os.Stderr, cmd.Name(), telemetry.NewLogWriter(handler))
	}

	conn, stationInfo, err := DialBaseStation(ctx)
	if err != nil {
		return err
	}

	driver, boardInfo, err := OpenDriver(&log)
	if err != nil {
		conn.Close()
		return err
	}
	defer driver.Close()

	driver.RegisterObserver(telemetry.NewForwarder(driver, handler, log))

	log.Info().
		Str("board", boardInfo).
		Str("base_station", stationInfo).
		Msg("telemetry bridge started")

	go pollBaseStation(ctx, handler, driver, log)

	link := telemetry.NewLink(conn, handler, log)
	err = link.Run(ctx)

	log.Info().Uint64("dropped", handler.Dropped()).Msg("telemetry bridge stopped")
	return err
}

// board is the part of the driver the base station can drive
type board interface {
	Stop() error
	SetSampling(enabled bool) error
	FlashGreenLED(ms int) error
}

// pollBaseStation drains base station commands until ctx is done
func pollBaseStation(ctx context.Context, handler *telemetry.Handler, b board, log zerolog.Logger) {
	ticker := time.NewTicker(commandPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for {
			p, ok := handler.FetchCommand()
			if !ok {
				break
			}
			if err := applyBaseStationCommand(p, b, handler); err != nil {
				log.Error().Err(err).Stringer("packet", p.Type).Msg("base station command failed")
				continue
			}
			log.Info().Stringer("packet", p.Type).Msg("base station command applied")
		}
	}
}

// applyBaseStationCommand performs one command received from the base station
func applyBaseStationCommand(p telemetry.Packet, b board, handler *telemetry.Handler) error {
	switch p.Type {
	case telemetry.PacketStartCycle:
		if err := b.SetSampling(true); err != nil {
			return err
		}
		handler.PutCommand(telemetry.NewStepPacket(decision.StepStandby.String()))
		return nil

	case telemetry.PacketStopCycle:
		if err := b.Stop(); err != nil {
			return err
		}
		return b.SetSampling(false)

	case telemetry.PacketFindRobot:
		return b.FlashGreenLED(findRobotFlashMs)

	default:
		return fmt.Errorf("unexpected packet from base station: %s", p.Type)
	}
}

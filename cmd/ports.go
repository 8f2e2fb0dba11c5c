// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/design3/easel/pkg/stm32"
	"github.com/spf13/cobra"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial devices that can be opened",
	Long: `Probe every candidate serial device and list those that open.

Candidates come from serial.candidates in the configuration file, or from the
platform enumeration otherwise. The first device listed is the one the other
commands use when --port is not given.

Exit codes:
  0 - At least one device found
  1 - No device could be opened`,
	RunE: runPorts,
}

func init() {
	rootCmd.AddCommand(portsCmd)
}

func runPorts(cmd *cobra.Command, args []string) error {
	candidates := appConfig.Serial.Candidates
	if len(candidates) == 0 {
		var err error
		candidates, err = stm32.CandidatePorts()
		if err != nil {
			return err
		}
	}

	fmt.Printf("Probing %d candidate(s) at %d baud\n\n", len(candidates), appConfig.Serial.BaudRate)

	found := stm32.DetectSerialPorts(candidates, stm32.OpenSerialPort, appConfig.Serial.BaudRate, appLog)
	if len(found) == 0 {
		fmt.Fprintln(os.Stderr, "No serial device could be opened")
		os.Exit(1)
	}

	for i, name := range found {
		marker := " "
		if i == 0 {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, name)
	}
	return nil
}

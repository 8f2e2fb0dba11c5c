// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package stm32

import (
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"go.bug.st/serial"
)

// Port is the byte transport the driver reads frames from and writes frames to.
// Read must return within a bounded timeout, returning (0, nil) when no data arrived.
type Port interface {
	io.Reader
	io.Writer
	io.Closer
}

// PortOpener opens a named port with the given baud rate and read timeout
type PortOpener func(name string, baudRate int, readTimeout time.Duration) (Port, error)

// OpenSerialPort opens a serial device in 8N1 mode with a bounded read timeout
func OpenSerialPort(name string, baudRate int, readTimeout time.Duration) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}

	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", name, err)
	}

	return port, nil
}

// CandidatePorts lists the serial device paths worth probing on this platform.
// The serial library's enumeration is used first, then the platform globs.
func CandidatePorts() ([]string, error) {
	if ports, err := serial.GetPortsList(); err == nil && len(ports) > 0 {
		return ports, nil
	}
	return platformCandidates(runtime.GOOS)
}

func platformCandidates(goos string) ([]string, error) {
	switch goos {
	case "windows":
		ports := make([]string, 0, 256)
		for i := 1; i <= 256; i++ {
			ports = append(ports, fmt.Sprintf("COM%d", i))
		}
		return ports, nil
	case "linux":
		// excludes the controlling terminal /dev/tty
		return filepath.Glob("/dev/tty[A-Za-z]*")
	case "darwin":
		return filepath.Glob("/dev/tty.*")
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// DetectSerialPorts returns the candidates that open and close successfully
func DetectSerialPorts(candidates []string, open PortOpener, baudRate int, log zerolog.Logger) []string {
	result := make([]string, 0, len(candidates))
	for _, name := range candidates {
		port, err := open(name, baudRate, DefaultReadTimeout)
		if err != nil {
			log.Debug().Err(err).Str("port", name).Msg("probe failed")
			continue
		}
		if err := port.Close(); err != nil {
			log.Debug().Err(err).Str("port", name).Msg("failed to close port after probe")
			continue
		}
		result = append(result, name)
	}
	return result
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/design3/easel/pkg/stm32"
	"github.com/design3/easel/pkg/telemetry"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// EnvPassword holds the base station password
const EnvPassword = "EASEL_PASSWORD"

// ErrNoTelemetryURL is returned when a base station command has no URL to dial
var ErrNoTelemetryURL = errors.New("either --url or telemetry.url must be specified")

// OpenDriver detects the board and starts the driver with the given logger
func OpenDriver(log *zerolog.Logger) (*stm32.Driver, string, error) {
	driver, err := stm32.Open(appConfig.DriverConfig(log))
	if err != nil {
		return nil, "", err
	}
	return driver, fmt.Sprintf("Serial: %s @ %d baud", driver.PortName(), appConfig.Serial.BaudRate), nil
}

// OpenSerialPort opens the configured port without starting a driver.
// Without a configured port the first candidate that opens is used.
func OpenSerialPort() (stm32.Port, string, error) {
	name := appConfig.Serial.Port
	if name == "" {
		candidates := appConfig.Serial.Candidates
		if len(candidates) == 0 {
			var err error
			candidates, err = stm32.CandidatePorts()
			if err != nil {
				return nil, "", err
			}
		}
		found := stm32.DetectSerialPorts(candidates, stm32.OpenSerialPort, appConfig.Serial.BaudRate, appLog)
		if len(found) == 0 {
			return nil, "", stm32.ErrNoDeviceFound
		}
		name = found[0]
	}

	port, err := stm32.OpenSerialPort(name, appConfig.Serial.BaudRate, appConfig.Serial.ReadTimeout)
	if err != nil {
		return nil, "", err
	}
	return port, fmt.Sprintf("Serial: %s @ %d baud", name, appConfig.Serial.BaudRate), nil
}

// DialBaseStation opens the telemetry websocket, prompting for a password
// when a username is configured
func DialBaseStation(ctx context.Context) (*websocket.Conn, string, error) {
	cfg := appConfig.Telemetry
	if cfg.URL == "" {
		return nil, "", ErrNoTelemetryURL
	}

	password := ""
	if cfg.Username != "" {
		var err error
		password, err = GetPassword(os.Stdin, os.Stderr)
		if err != nil {
			return nil, "", err
		}
	}

	conn, err := telemetry.Dial(ctx, telemetry.DialConfig{
		URL:           cfg.URL,
		Username:      cfg.Username,
		Password:      password,
		SkipSSLVerify: cfg.NoSSLVerify,
	})
	if err != nil {
		return nil, "", err
	}
	return conn, fmt.Sprintf("WebSocket: %s", cfg.URL), nil
}

// GetPassword retrieves the password from the environment or prompts on prompt.
// Input is read without echo when in is a terminal.
func GetPassword(in *os.File, prompt io.Writer) (string, error) {
	if pw := os.Getenv(EnvPassword); pw != "" {
		return pw, nil
	}

	fmt.Fprint(prompt, "Password: ")

	passwordBytes, err := term.ReadPassword(int(in.Fd()))
	if err != nil {
		// Not a terminal
		reader := bufio.NewReader(in)
		password, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && password != "") {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(prompt)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(prompt)
	return string(passwordBytes), nil
}

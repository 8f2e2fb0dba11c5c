// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package stm32

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// readRetryDelay is the pause after a transport read error
const readRetryDelay = 10 * time.Millisecond

// Config configures how the driver finds and opens the board
type Config struct {
	// Candidates overrides platform port enumeration when non-empty
	Candidates  []string
	BaudRate    int
	ReadTimeout time.Duration

	// Opener defaults to OpenSerialPort
	Opener PortOpener
	// Logger defaults to a disabled logger
	Logger *zerolog.Logger
}

func (c Config) withDefaults() Config {
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.Opener == nil {
		c.Opener = OpenSerialPort
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
	return c
}

// Driver owns the serial link to the STM32 board.
// It exposes validated commands and runs a background receive loop that
// decodes responses, stores the latest telemetry and notifies observers.
type Driver struct {
	port      Port
	portName  string
	log       zerolog.Logger
	observers *Registry

	writeMu sync.Mutex
	closed  atomic.Bool
	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	// Written only by the receive loop
	ready          atomic.Bool
	signalStrength atomic.Pointer[uint16]
	antenna        atomic.Pointer[AntennaInformation]

	statsMu sync.Mutex
	stats   *Statistics
}

// Open detects the board's serial device, opens it and starts the receive loop.
// Returns ErrNoDeviceFound if no candidate port can be opened.
func Open(cfg Config) (*Driver, error) {
	cfg = cfg.withDefaults()
	log := *cfg.Logger

	candidates := cfg.Candidates
	if len(candidates) == 0 {
		var err error
		candidates, err = CandidatePorts()
		if err != nil {
			return nil, errors.Join(ErrNoDeviceFound, err)
		}
	}

	found := DetectSerialPorts(candidates, cfg.Opener, cfg.BaudRate, log)
	if len(found) == 0 {
		return nil, ErrNoDeviceFound
	}

	name := found[0]
	port, err := cfg.Opener(name, cfg.BaudRate, cfg.ReadTimeout)
	if err != nil {
		return nil, ioError("open "+name, err)
	}

	log.Info().Str("port", name).Int("baud", cfg.BaudRate).Msg("serial link opened")
	return New(port, name, cfg), nil
}

// New wraps an already open port and starts the receive loop
func New(port Port, name string, cfg Config) *Driver {
	cfg = cfg.withDefaults()
	log := cfg.Logger.With().Str("port", name).Logger()

	d := &Driver{
		port:      port,
		portName:  name,
		log:       log,
		observers: NewRegistry(log),
		done:      make(chan struct{}),
		stats:     NewStatistics(),
	}

	d.running.Store(true)
	d.wg.Add(1)
	go d.run()

	return d
}

// PortName returns the device path of the open port
func (d *Driver) PortName() string {
	return d.portName
}

// RegisterObserver adds an observer notified from the receive loop
func (d *Driver) RegisterObserver(o Observer) {
	d.observers.Register(o)
}

// Ready returns true once the board has sent STM_READY
func (d *Driver) Ready() bool {
	return d.ready.Load()
}

// SignalStrength returns the latest signal strength, if any was received
func (d *Driver) SignalStrength() (uint16, bool) {
	v := d.signalStrength.Load()
	if v == nil {
		return 0, false
	}
	return *v, true
}

// AntennaInformation returns the latest decoded antenna telemetry, if any
func (d *Driver) AntennaInformation() (AntennaInformation, bool) {
	v := d.antenna.Load()
	if v == nil {
		return AntennaInformation{}, false
	}
	return *v, true
}

// Stats returns a snapshot of the link statistics
func (d *Driver) Stats() Statistics {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	d.stats.CalculateRates()
	return *d.stats
}

// Running returns true while the receive loop is active
func (d *Driver) Running() bool {
	return d.running.Load()
}

// WaitReady blocks until the board reports STM_READY or ctx is done
func (d *Driver) WaitReady(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for !d.Ready() {
		if d.closed.Load() {
			return ErrDriverClosed
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

//////////////////////////////////////////////////////////////
// Commands
//////////////////////////////////////////////////////////////

// Translate moves the robot by dx, dy millimetres
func (d *Driver) Translate(dx, dy int) error {
	if err := checkRange("dx", float64(dx), MinTranslation, MaxTranslation); err != nil {
		return err
	}
	if err := checkRange("dy", float64(dy), MinTranslation, MaxTranslation); err != nil {
		return err
	}
	return d.send(OpTranslate, uint16(dx+translationOffset), uint16(dy+translationOffset))
}

// Rotate turns the robot by theta radians, theta in [-2π, 2π]
func (d *Driver) Rotate(theta float64) error {
	if err := checkRange("theta", theta, -2*math.Pi, 2*math.Pi); err != nil {
		return err
	}
	converted := int((theta + 2*math.Pi) * rotationScale)
	return d.send(OpRotate, uint16(converted), EmptyParam)
}

// Stop halts any motion in progress
func (d *Driver) Stop() error {
	return d.send(OpStop, EmptyParam, EmptyParam)
}

// Reset reboots the board
func (d *Driver) Reset() error {
	return d.send(OpReset, EmptyParam, EmptyParam)
}

// SetRedLED turns the red LED on or off
func (d *Driver) SetRedLED(enabled bool) error {
	return d.send(OpEnableRedLED, enableParam(enabled), EmptyParam)
}

// FlashGreenLED turns the green LED on for ms milliseconds, then off
func (d *Driver) FlashGreenLED(ms int) error {
	if err := checkRange("milliseconds", float64(ms), MinFlashDuration, MaxFlashDuration); err != nil {
		return err
	}
	return d.send(OpFlashGreenLED, uint16(ms), EmptyParam)
}

// SetSampling starts or stops the Manchester signal strength measurement
func (d *Driver) SetSampling(enabled bool) error {
	return d.send(OpEnableADC, enableParam(enabled), EmptyParam)
}

// DecodeManchester starts the Manchester decoding algorithm on the board
func (d *Driver) DecodeManchester() error {
	return d.send(OpDecodeManchester, EmptyParam, EmptyParam)
}

func enableParam(enabled bool) uint16 {
	if enabled {
		return Enabled
	}
	return Disabled
}

// checkRange also rejects NaN
func checkRange(name string, v, min, max float64) error {
	if v >= min && v <= max {
		return nil
	}
	return &ParameterError{Name: name, Value: v, Min: min, Max: max}
}

func (d *Driver) send(opcode Opcode, param1, param2 uint16) error {
	if d.closed.Load() {
		return ErrDriverClosed
	}

	frame := EncodeCommand(opcode, param1, param2)

	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	// Close may have won the race for the lock
	if d.closed.Load() {
		return ErrDriverClosed
	}

	n, err := d.port.Write(frame)
	if err == nil && n != len(frame) {
		err = io.ErrShortWrite
	}

	d.statsMu.Lock()
	d.stats.RecordCommand(err)
	d.statsMu.Unlock()

	if err != nil {
		d.log.Error().Err(err).Stringer("opcode", opcode).Msg("command write failed")
		return ioError("write "+opcode.String(), err)
	}

	d.log.Debug().
		Stringer("opcode", opcode).
		Uint16("param1", param1).
		Uint16("param2", param2).
		Msg("command sent")
	return nil
}

//////////////////////////////////////////////////////////////
// Receive loop
//////////////////////////////////////////////////////////////

func (d *Driver) run() {
	defer d.wg.Done()
	defer d.running.Store(false)

	buf := make([]byte, 64)
	decoder := NewDecoder()

	for {
		select {
		case <-d.done:
			return
		default:
		}

		n, err := d.port.Read(buf)
		if n > 0 {
			decoder.Feed(buf[:n], d.handleFrame)
		}

		if err != nil {
			select {
			case <-d.done:
				return
			default:
			}
			d.log.Warn().Err(err).Msg("read error")
			select {
			case <-d.done:
				return
			case <-time.After(readRetryDelay):
			}
		}
	}
}

func (d *Driver) handleFrame(data []byte) {
	resp, err := DecodeResponse(data)

	d.statsMu.Lock()
	d.stats.Update(&resp, err)
	d.statsMu.Unlock()

	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) && de.Kind == DecodeChecksum {
			d.log.Warn().Int("expected", 0).Uint16("calculated", de.Sum).Msg("invalid checksum")
		} else {
			d.log.Warn().Err(err).Msg("invalid received frame")
		}
		return
	}

	switch resp.Opcode {
	case OpSTMReady:
		d.ready.Store(true)
		d.log.Info().Msg("board ready")

	case OpSignalStrength:
		strength := resp.Param
		d.signalStrength.Store(&strength)
		d.observers.NotifyAll(EventSignalStrength)

	case OpSignalData:
		info := DecodeAntennaInformation(resp.Param)
		d.antenna.Store(&info)
		d.log.Debug().Stringer("antenna", info).Msg("antenna information decoded")
		d.observers.NotifyAll(EventSignalData)

	default:
		d.log.Warn().Uint16("opcode", uint16(resp.Opcode)).Msg("invalid opcode")
	}
}

// Close stops the receive loop, waits for it to exit and closes the port.
// The wait is bounded by one read timeout. Commands issued afterwards
// return ErrDriverClosed.
func (d *Driver) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return ErrDriverClosed
	}

	close(d.done)
	d.wg.Wait()

	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	if err := d.port.Close(); err != nil {
		return ioError("close", err)
	}
	d.log.Info().Msg("serial link closed")
	return nil
}

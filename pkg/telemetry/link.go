// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package telemetry

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// writeWait is how long to wait for a write to complete
	writeWait = 10 * time.Second

	// DefaultPingPeriod keeps idle links alive through proxies
	DefaultPingPeriod = 30 * time.Second

	handshakeTimeout = 10 * time.Second
	dialTimeout      = 15 * time.Second
)

// Conn is the message transport a Link pumps. *websocket.Conn implements it.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// DialConfig describes the base station endpoint
type DialConfig struct {
	URL           string
	Username      string
	Password      string
	SkipSSLVerify bool
}

// Dial opens a websocket to the base station with optional HTTP Basic auth
func Dial(ctx context.Context, cfg DialConfig) (*websocket.Conn, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: cfg.SkipSSLVerify,
		}
	}

	headers := http.Header{}
	if cfg.Username != "" && cfg.Password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, cfg.URL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket connection failed: %w", err)
	}
	return conn, nil
}

// Link pumps packets between a Handler and the base station connection.
// Only the Run goroutine writes to the connection.
type Link struct {
	conn       Conn
	handler    *Handler
	log        zerolog.Logger
	pingPeriod time.Duration
}

// NewLink binds a connection to a handler
func NewLink(conn Conn, handler *Handler, log zerolog.Logger) *Link {
	return &Link{
		conn:       conn,
		handler:    handler,
		log:        log,
		pingPeriod: DefaultPingPeriod,
	}
}

// Run pumps packets until ctx is done or the connection fails.
// The connection is closed on return. Cancellation returns nil.
func (l *Link) Run(ctx context.Context) error {
	readErr := make(chan error, 1)
	go func() {
		readErr <- l.readPump()
	}()

	ticker := time.NewTicker(l.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.conn.SetWriteDeadline(time.Now().Add(writeWait))
			l.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			l.conn.Close()
			<-readErr
			return nil

		case err := <-readErr:
			l.conn.Close()
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("telemetry link read failed: %w", err)

		case p := <-l.handler.consumed:
			if err := l.write(p); err != nil {
				l.conn.Close()
				<-readErr
				return err
			}

		case <-ticker.C:
			l.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := l.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				l.conn.Close()
				<-readErr
				return fmt.Errorf("telemetry ping failed: %w", err)
			}
		}
	}
}

func (l *Link) write(p Packet) error {
	data, err := p.Encode()
	if err != nil {
		// A packet that cannot be encoded is dropped, the link stays up
		l.log.Warn().Err(err).Msg("dropping telemetry packet")
		return nil
	}

	l.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := l.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("telemetry write failed: %w", err)
	}
	return nil
}

func (l *Link) readPump() error {
	for {
		messageType, data, err := l.conn.ReadMessage()
		if err != nil {
			return err
		}

		// Packets only travel in binary messages
		if messageType != websocket.BinaryMessage {
			continue
		}

		p, err := DecodePacket(data)
		if err != nil {
			l.log.Warn().Err(err).Msg("invalid telemetry packet")
			continue
		}
		if !l.handler.deliver(p) {
			l.log.Warn().Stringer("type", p.Type).Msg("command queue full, packet dropped")
		}
	}
}

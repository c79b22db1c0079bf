// Package nats carries the bridge over a NATS server. Topics are mapped to
// subjects the same way the NATS MQTT gateway maps them, so Home Assistant
// can stay on MQTT while the bridge talks NATS. NATS has no retained
// messages; the retain flag is ignored.
package nats

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"ha-host-bridge/config"
	"ha-host-bridge/internal/logger"
	"ha-host-bridge/internal/transport"
)

// Transport is a NATS-backed session. Each Connect dials a fresh
// connection with client-side reconnects disabled.
type Transport struct {
	url      string
	name     string
	username string
	password string
	timeout  time.Duration

	events transport.Events
	logger *logger.Logger

	mu        sync.RWMutex
	conn      *nats.Conn
	connected atomic.Bool
	closing   atomic.Bool
}

// NewTransport creates an unconnected NATS transport from the bridge config.
func NewTransport(cfg *config.Config, events transport.Events, log *logger.Logger) *Transport {
	return &Transport{
		url:      cfg.NATS.URL,
		name:     cfg.MQTT.ClientID,
		username: cfg.MQTT.Username,
		password: cfg.MQTT.Password,
		timeout:  cfg.Reconnect.Timeout(),
		events:   events,
		logger:   log,
	}
}

// Connect establishes connection to the NATS server
func (t *Transport) Connect(ctx context.Context) error {
	opts := []nats.Option{
		nats.Name(t.name),
		nats.NoReconnect(),
		nats.DisconnectErrHandler(t.handleDisconnect),
		nats.ClosedHandler(t.handleClosed),
	}

	timeout := t.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	if timeout > 0 {
		opts = append(opts, nats.Timeout(timeout))
	}

	// Add authentication if configured
	if t.username != "" {
		opts = append(opts, nats.UserInfo(t.username, t.password))
	}

	t.logger.Debug("connecting to NATS server", "url", t.url)

	if err := ctx.Err(); err != nil {
		return &transport.Error{Op: "connect", Err: err}
	}

	conn, err := nats.Connect(t.url, opts...)
	if err != nil {
		return &transport.Error{Op: "connect", Err: err}
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
	t.closing.Store(false)
	t.connected.Store(true)

	t.logger.Info("connected to NATS server", "url", conn.ConnectedUrl())
	return nil
}

// Disconnect cleanly disconnects from the NATS server
func (t *Transport) Disconnect() {
	t.closing.Store(true)
	t.connected.Store(false)

	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn != nil {
		t.logger.Info("disconnecting from NATS server")
		conn.Close()
	}
}

// IsConnected returns the current connection status
func (t *Transport) IsConnected() bool {
	conn := t.connection()
	return conn != nil && conn.IsConnected() && t.connected.Load()
}

func (t *Transport) connection() *nats.Conn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.conn
}

func (t *Transport) handleDisconnect(_ *nats.Conn, err error) {
	if !t.connected.Swap(false) || t.closing.Load() {
		return
	}
	if t.events.OnConnectionLost != nil {
		t.events.OnConnectionLost(&transport.Error{Op: "connection", Err: err})
	}
}

func (t *Transport) handleClosed(_ *nats.Conn) {
	t.logger.Debug("NATS connection closed")
	t.connected.Store(false)
}

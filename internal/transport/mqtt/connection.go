package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"ha-host-bridge/config"
	"ha-host-bridge/internal/logger"
	"ha-host-bridge/internal/transport"
)

const (
	defaultQoS        byte = 0
	operationTimeout       = 5 * time.Second
	disconnectQuiesce uint = 250
)

// Transport is a paho-backed MQTT session. Paho's own reconnect logic is
// disabled; the broker package drives reconnection.
type Transport struct {
	client    mqtt.Client
	events    transport.Events
	logger    *logger.Logger
	broker    string
	connected atomic.Bool
}

// NewTransport creates an unconnected MQTT transport from the bridge config.
func NewTransport(cfg *config.Config, events transport.Events, log *logger.Logger) (*Transport, error) {
	t := &Transport{
		events: events,
		logger: log,
		broker: cfg.MQTT.BrokerURL(),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(t.broker).
		SetClientID(cfg.MQTT.ClientID).
		SetUsername(cfg.MQTT.Username).
		SetPassword(cfg.MQTT.Password).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetOrderMatters(true).
		SetConnectTimeout(cfg.Reconnect.Timeout())

	opts.SetConnectionLostHandler(t.handleConnectionLost)

	// Configure TLS if enabled
	if cfg.MQTT.TLS.Enable {
		tlsConfig, err := newTLSConfig(cfg.MQTT.TLS.CertFile, cfg.MQTT.TLS.KeyFile, cfg.MQTT.TLS.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		opts.SetTLSConfig(tlsConfig)
	}

	t.client = mqtt.NewClient(opts)
	return t, nil
}

// NewTransportWithClient creates a transport around a provided client (for testing)
func NewTransportWithClient(client mqtt.Client, events transport.Events, log *logger.Logger) *Transport {
	return &Transport{
		client: client,
		events: events,
		logger: log,
		broker: "test",
	}
}

// Connect performs one connection attempt, bounded by ctx.
func (t *Transport) Connect(ctx context.Context) error {
	t.logger.Debug("connecting to mqtt broker", "broker", t.broker)

	token := t.client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		t.abortConnect(token)
		return &transport.Error{Op: "connect", Err: ctx.Err()}
	}
	if err := token.Error(); err != nil {
		return &transport.Error{Op: "connect", Err: err}
	}

	t.connected.Store(true)
	t.logger.Info("mqtt client connected", "broker", t.broker)
	return nil
}

// abortConnect tears down an attempt that outlived its deadline so paho is
// back in the disconnected state before the next Connect.
func (t *Transport) abortConnect(token mqtt.Token) {
	t.client.Disconnect(0)
	if !token.WaitTimeout(operationTimeout) {
		t.logger.Warn("abandoned mqtt connect attempt still pending", "broker", t.broker)
	}
}

// Disconnect cleanly disconnects from the MQTT broker
func (t *Transport) Disconnect() {
	t.connected.Store(false)
	if t.client.IsConnected() {
		t.logger.Info("disconnecting from mqtt broker", "broker", t.broker)
		t.client.Disconnect(disconnectQuiesce)
	}
}

// IsConnected returns current connection status
func (t *Transport) IsConnected() bool {
	return t.connected.Load() && t.client.IsConnected()
}

// handleConnectionLost processes connection loss
func (t *Transport) handleConnectionLost(_ mqtt.Client, err error) {
	t.connected.Store(false)
	if t.events.OnConnectionLost != nil {
		t.events.OnConnectionLost(&transport.Error{Op: "connection", Err: err})
	}
}

// waitToken waits for a paho token with the operation timeout.
func waitToken(op string, token mqtt.Token) error {
	if !token.WaitTimeout(operationTimeout) {
		return &transport.Error{Op: op, Err: fmt.Errorf("timeout after %v", operationTimeout)}
	}
	if err := token.Error(); err != nil {
		return &transport.Error{Op: op, Err: err}
	}
	return nil
}

// newTLSConfig creates a new TLS configuration
func newTLSConfig(certFile, keyFile, caFile string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load client certificate: %w", err)
	}

	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      caCertPool,
		MinVersion:   tls.VersionTLS12,
	}, nil
}

package broker

import (
	"fmt"
	"sync"

	"ha-host-bridge/config"
	"ha-host-bridge/internal/logger"
	"ha-host-bridge/internal/metrics"
	"ha-host-bridge/internal/stats"
	"ha-host-bridge/internal/transport"
	mqtttransport "ha-host-bridge/internal/transport/mqtt"
	natstransport "ha-host-bridge/internal/transport/nats"
)

// TransportFactory builds the wire session for a connection.
type TransportFactory func(cfg *config.Config, events transport.Events, log *logger.Logger) (transport.Transport, error)

// DefaultTransportFactory selects the MQTT or NATS transport from config.
func DefaultTransportFactory(cfg *config.Config, events transport.Events, log *logger.Logger) (transport.Transport, error) {
	switch cfg.Transport {
	case config.TransportMQTT, "":
		return mqtttransport.NewTransport(cfg, events, log)
	case config.TransportNATS:
		return natstransport.NewTransport(cfg, events, log), nil
	default:
		return nil, &config.ConfigError{Field: "BRIDGE_TRANSPORT", Message: fmt.Sprintf("unknown transport: %s", cfg.Transport)}
	}
}

// Option configures a Provider
type Option func(*Provider)

// WithMetrics attaches Prometheus instrumentation to the connection.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Provider) {
		p.metrics = m
	}
}

// WithStats attaches runtime counters to the connection.
func WithStats(s *stats.StatsCollector) Option {
	return func(p *Provider) {
		p.stats = s
	}
}

// WithTransportFactory overrides how the wire session is built.
func WithTransportFactory(f TransportFactory) Option {
	return func(p *Provider) {
		p.factory = f
	}
}

// Provider hands out the process's single Connection. It is created once in
// main and closed at shutdown; it replaces a package-level singleton.
type Provider struct {
	logger  *logger.Logger
	metrics *metrics.Metrics
	stats   *stats.StatsCollector
	factory TransportFactory

	mu     sync.Mutex
	conn   *Connection
	closed bool
}

// NewProvider creates a provider; no connection exists until Acquire.
func NewProvider(log *logger.Logger, opts ...Option) *Provider {
	p := &Provider{
		logger:  log,
		factory: DefaultTransportFactory,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Acquire returns the existing connection, or creates one from cfg and
// starts connecting in the background. Later calls ignore cfg.
func (p *Provider) Acquire(cfg *config.Config) (*Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if p.conn != nil {
		return p.conn, nil
	}

	if cfg == nil {
		return nil, &config.ConfigError{Field: "config", Message: "configuration is required"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	conn := newConnection(cfg.Instance, p.logger, p.metrics, p.stats)
	conn.reconnectDelay = cfg.Reconnect.ReconnectDelay()
	conn.connectTimeout = cfg.Reconnect.Timeout()
	conn.maxAttempts = cfg.Reconnect.MaxAttempts

	tr, err := p.factory(cfg, conn.events(), p.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}
	conn.transport = tr

	p.logger.Info("acquiring broker connection",
		"transport", cfg.Transport,
		"instance", cfg.Instance,
		"clientId", cfg.MQTT.ClientID)

	conn.start()
	p.conn = conn
	return conn, nil
}

// Close tears down the connection, if one was acquired.
func (p *Provider) Close() {
	p.mu.Lock()
	conn := p.conn
	p.conn = nil
	p.closed = true
	p.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

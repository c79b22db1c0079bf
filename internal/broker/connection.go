package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ha-host-bridge/internal/logger"
	"ha-host-bridge/internal/metrics"
	"ha-host-bridge/internal/stats"
	"ha-host-bridge/internal/transport"
)

// Connection is the process-wide broker session shared by every feature
// module. Obtain it from Provider.Acquire.
//
// Inbound messages are dispatched one at a time: a handler runs to
// completion before the next message is looked up, so a slow shell command
// delays everything queued behind it.
type Connection struct {
	instance       string
	transport      transport.Transport
	registry       *Registry
	logger         *logger.Logger
	metrics        *metrics.Metrics
	stats          *stats.StatsCollector
	reconnectDelay time.Duration
	connectTimeout time.Duration
	maxAttempts    int

	state     State
	lastError error
	onConnect []func()
	mu        sync.RWMutex

	// subMu serializes registry mutation against subscription replay.
	subMu sync.Mutex
	// dispatchMu keeps handler execution single-stream.
	dispatchMu sync.Mutex

	lost   chan error
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newConnection(instance string, log *logger.Logger, m *metrics.Metrics, s *stats.StatsCollector) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		instance: instance,
		registry: NewRegistry(),
		logger:   log,
		metrics:  m,
		stats:    s,
		state:    StateDisconnected,
		lost:     make(chan error, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// events returns the callbacks handed to the transport.
func (c *Connection) events() transport.Events {
	return transport.Events{
		OnMessage:        c.deliver,
		OnConnectionLost: c.handleConnectionLost,
	}
}

// start launches the connect loop without blocking the caller.
func (c *Connection) start() {
	c.setState(StateConnecting)
	c.wg.Add(1)
	go c.run()
}

// run drives the state machine: connect, wait for loss, retry on a fixed
// delay until the attempt budget is spent or the connection is closed.
func (c *Connection) run() {
	defer c.wg.Done()

	attempts := 0
	for {
		err := c.connectOnce()
		if err == nil {
			attempts = 0

			select {
			case <-c.ctx.Done():
				return
			case err = <-c.lost:
			}
			c.logger.Error("broker connection lost", "error", err)
		} else {
			if c.ctx.Err() != nil {
				return
			}
			attempts++
			c.setLastError(err)
			c.logger.Error("broker connection attempt failed",
				"attempt", attempts,
				"error", err)

			if c.maxAttempts > 0 && attempts >= c.maxAttempts {
				c.setState(StateDisconnected)
				c.logger.Error("giving up on broker connection",
					"attempts", attempts,
					"error", fmt.Errorf("%w: %w", ErrRetryExhausted, err))
				return
			}
		}

		c.setState(StateReconnecting)
		c.logger.Info("broker reconnecting", "delay", c.reconnectDelay.String())

		select {
		case <-c.ctx.Done():
			return
		case <-time.After(c.reconnectDelay):
		}

		if c.metrics != nil {
			c.metrics.IncReconnects()
		}
		if c.stats != nil {
			c.stats.IncReconnects()
		}
	}
}

// connectOnce performs one bounded connection attempt and, on success,
// replays every subscription before reporting Connected.
func (c *Connection) connectOnce() error {
	// discard a loss notification left over from the previous session
	select {
	case <-c.lost:
	default:
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.connectTimeout)
	defer cancel()

	if err := c.transport.Connect(ctx); err != nil {
		return err
	}

	c.handleConnect()
	c.runConnectHooks()
	return nil
}

// handleConnect replays all registered subscriptions, in registration
// order and exactly once each, then marks the connection Connected.
func (c *Connection) handleConnect() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	topics := c.registry.Topics()
	for _, topic := range topics {
		if err := c.transport.Subscribe(topic); err != nil {
			c.logger.Error("failed to resubscribe",
				"topic", topic,
				"error", err)
		}
	}

	c.setState(StateConnected)
	c.setLastError(nil)

	c.logger.Info("broker connected",
		"instance", c.instance,
		"subscriptions", len(topics))

	if c.metrics != nil {
		c.metrics.SetConnectionStatus(true)
	}
}

// runConnectHooks calls every OnConnect callback after subscriptions have
// been replayed.
func (c *Connection) runConnectHooks() {
	c.mu.RLock()
	hooks := make([]func(), len(c.onConnect))
	copy(hooks, c.onConnect)
	c.mu.RUnlock()

	for _, hook := range hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error("connect hook panic recovered", "panic", r)
				}
			}()
			hook()
		}()
	}
}

// handleConnectionLost is called by the transport when the session drops.
func (c *Connection) handleConnectionLost(err error) {
	if c.ctx.Err() != nil {
		return
	}

	c.setLastError(err)
	c.setState(StateReconnecting)

	if c.metrics != nil {
		c.metrics.SetConnectionStatus(false)
	}

	select {
	case c.lost <- err:
	default:
	}
}

// deliver dispatches one inbound message to the handler registered for its
// exact topic. Messages for unknown topics are discarded.
func (c *Connection) deliver(topic string, payload []byte) {
	if c.stats != nil {
		c.stats.IncReceived()
	}
	if c.metrics != nil {
		c.metrics.IncMessagesTotal("received")
	}

	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	handler := c.registry.Get(topic)
	if handler == nil {
		c.logger.Debug("no handler for topic", "topic", topic)
		if c.stats != nil {
			c.stats.IncDropped()
		}
		if c.metrics != nil {
			c.metrics.IncMessagesTotal("unhandled")
		}
		return
	}

	c.invoke(handler, topic, payload)

	if c.stats != nil {
		c.stats.IncHandled()
	}
	if c.metrics != nil {
		c.metrics.IncMessagesTotal("dispatched")
	}
}

// invoke runs a handler with panic recovery.
func (c *Connection) invoke(handler Handler, topic string, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("handler panic recovered",
				"topic", topic,
				"panic", r)
		}
	}()
	handler(topic, payload)
}

// Subscribe registers handler for topic, replacing any earlier handler. A
// live subscription is issued only when connected; otherwise it is issued
// by the next (re)connect. Only an invalid topic or a nil handler is
// reported as an error.
func (c *Connection) Subscribe(topic string, handler Handler) error {
	if err := validateTopicName(topic); err != nil {
		return err
	}
	if handler == nil {
		return ErrNilHandler
	}

	c.subMu.Lock()
	defer c.subMu.Unlock()

	if replaced := c.registry.Set(topic, handler); replaced {
		c.logger.Warn("topic handler replaced", "topic", topic)
	}
	if c.metrics != nil {
		c.metrics.SetSubscriptions(c.registry.Len())
	}

	if c.State() != StateConnected {
		c.logger.Debug("subscription deferred until connected", "topic", topic)
		return nil
	}

	if err := c.transport.Subscribe(topic); err != nil {
		// the handler stays registered and is replayed on the next connect
		c.logger.Warn("live subscribe failed, deferring to reconnect",
			"topic", topic,
			"error", err)
		return nil
	}
	c.logger.Debug("subscribed to topic", "topic", topic)
	return nil
}

// OnConnect registers fn to run each time the connection enters Connected,
// after every subscription has been replayed. Feature modules use it to
// re-announce retained discovery messages.
func (c *Connection) OnConnect(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.onConnect = append(c.onConnect, fn)
	c.mu.Unlock()
}

// Publish sends payload to topic. While not connected the message is
// dropped and ErrNotConnected returned; it is never queued or retried.
func (c *Connection) Publish(topic string, payload []byte, opts PublishOptions) error {
	if c.State() != StateConnected || !c.transport.IsConnected() {
		c.logger.Debug("dropping publish while disconnected", "topic", topic)
		if c.stats != nil {
			c.stats.IncPublishDropped()
		}
		if c.metrics != nil {
			c.metrics.IncPublishTotal("dropped")
		}
		return ErrNotConnected
	}

	if err := c.transport.Publish(topic, payload, opts.Retain); err != nil {
		if c.metrics != nil {
			c.metrics.IncPublishTotal("error")
		}
		if errors.Is(err, transport.ErrNotConnected) {
			return ErrNotConnected
		}
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	if c.stats != nil {
		c.stats.IncPublished()
	}
	if c.metrics != nil {
		c.metrics.IncPublishTotal("success")
	}
	return nil
}

// InstanceName returns the configured instance identifier.
func (c *Connection) InstanceName() string {
	return c.instance
}

// State returns the current connection state
func (c *Connection) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// LastError returns the most recent transport error, or nil once connected.
func (c *Connection) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError
}

// Subscriptions returns registered topics in registration order.
func (c *Connection) Subscriptions() []string {
	return c.registry.Topics()
}

// Close stops the reconnect loop and closes the network session. In-flight
// handlers are not interrupted.
func (c *Connection) Close() {
	c.cancel()
	c.wg.Wait()

	c.transport.Disconnect()
	c.setState(StateDisconnected)

	if c.metrics != nil {
		c.metrics.SetConnectionStatus(false)
	}
	c.logger.Info("broker connection closed")
}

func (c *Connection) setState(s State) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()

	if prev != s {
		c.logger.Debug("broker state changed", "from", string(prev), "to", string(s))
	}
}

func (c *Connection) setLastError(err error) {
	c.mu.Lock()
	c.lastError = err
	c.mu.Unlock()
}

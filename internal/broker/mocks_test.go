package broker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"ha-host-bridge/config"
	"ha-host-bridge/internal/logger"
	"ha-host-bridge/internal/transport"
)

var errRefused = errors.New("connection refused")

// fakeTransport records every call the connection makes on the wire.
type fakeTransport struct {
	mu           sync.Mutex
	events       transport.Events
	connected    bool
	connectCalls int
	connectErrs  []error // consumed per Connect call; nil entries succeed
	failAlways   bool
	gate         chan struct{}
	subscribes   []string
	published    []fakePublish
	disconnects  int
}

type fakePublish struct {
	topic   string
	payload string
	retain  bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{}
}

func (f *fakeTransport) Connect(ctx context.Context) error {
	f.mu.Lock()
	f.connectCalls++
	gate := f.gate
	var err error
	if f.failAlways {
		err = errRefused
	} else if len(f.connectErrs) > 0 {
		err = f.connectErrs[0]
		f.connectErrs = f.connectErrs[1:]
	}
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return &transport.Error{Op: "connect", Err: ctx.Err()}
		}
	}
	if err != nil {
		return &transport.Error{Op: "connect", Err: err}
	}

	f.mu.Lock()
	f.connected = true
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) Subscribe(topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return transport.ErrNotConnected
	}
	f.subscribes = append(f.subscribes, topic)
	return nil
}

func (f *fakeTransport) Publish(topic string, payload []byte, retain bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return transport.ErrNotConnected
	}
	f.published = append(f.published, fakePublish{topic: topic, payload: string(payload), retain: retain})
	return nil
}

func (f *fakeTransport) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeTransport) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	f.disconnects++
}

// drop simulates a transport-level connection loss.
func (f *fakeTransport) drop() {
	f.mu.Lock()
	f.connected = false
	events := f.events
	f.mu.Unlock()
	events.OnConnectionLost(&transport.Error{Op: "connection", Err: errRefused})
}

// sever drops the wire without notifying the connection, as when the
// transport has not yet noticed the loss.
func (f *fakeTransport) sever() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
}

// inbound simulates a message arriving from the broker.
func (f *fakeTransport) inbound(topic, payload string) {
	f.mu.Lock()
	events := f.events
	f.mu.Unlock()
	events.OnMessage(topic, []byte(payload))
}

func (f *fakeTransport) subscribed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.subscribes))
	copy(out, f.subscribes)
	return out
}

func (f *fakeTransport) resetSubscribed() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribes = nil
}

func (f *fakeTransport) publishes() []fakePublish {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]fakePublish, len(f.published))
	copy(out, f.published)
	return out
}

func (f *fakeTransport) connects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connectCalls
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger(&config.LogConfig{
		Level:      "error",
		OutputPath: "stdout",
		Encoding:   "json",
	})
	require.NoError(t, err)
	return log
}

func testConfig() *config.Config {
	cfg := &config.Config{
		Instance:  "lenovo-legion7",
		Transport: config.TransportMQTT,
	}
	cfg.MQTT.Host = "localhost"
	cfg.MQTT.Port = 1883
	cfg.MQTT.ClientID = "ha-scenes-test"
	cfg.Reconnect.Delay = "10ms"
	cfg.Reconnect.ConnectTimeout = "500ms"
	cfg.Logging.Level = "error"
	cfg.Logging.Encoding = "json"
	return cfg
}

// newTestProvider returns a provider whose factory always yields ft.
func newTestProvider(t *testing.T, ft *fakeTransport, opts ...Option) (*Provider, *int) {
	t.Helper()
	calls := 0
	factory := func(cfg *config.Config, events transport.Events, log *logger.Logger) (transport.Transport, error) {
		calls++
		ft.mu.Lock()
		ft.events = events
		ft.mu.Unlock()
		return ft, nil
	}
	p := NewProvider(newTestLogger(t), append([]Option{WithTransportFactory(factory)}, opts...)...)
	t.Cleanup(p.Close)
	return p, &calls
}

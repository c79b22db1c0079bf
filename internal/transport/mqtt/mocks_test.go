package mqtt

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"ha-host-bridge/config"
	"ha-host-bridge/internal/logger"
)

// MockToken implements mqtt.Token for testing
type MockToken struct {
	err     error
	done    chan struct{}
	timeout bool
}

func NewMockToken(err error) *MockToken {
	t := &MockToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

// newPendingToken never completes.
func newPendingToken() *MockToken {
	return &MockToken{done: make(chan struct{}), timeout: true}
}

func (t *MockToken) Wait() bool                       { return !t.timeout }
func (t *MockToken) WaitTimeout(d time.Duration) bool { return !t.timeout }
func (t *MockToken) Error() error                     { return t.err }
func (t *MockToken) Done() <-chan struct{}            { return t.done }

type published struct {
	topic   string
	retain  bool
	payload []byte
}

// MockClient implements mqtt.Client for testing
type MockClient struct {
	connected    atomic.Bool
	disconnects  atomic.Int32
	connectToken mqtt.Token
	subscribeErr error
	publishErr   error

	mu         sync.Mutex
	subscribed []string
	handlers   map[string]mqtt.MessageHandler
	published  []published
}

func NewMockClient() *MockClient {
	return &MockClient{handlers: make(map[string]mqtt.MessageHandler)}
}

func (m *MockClient) Connect() mqtt.Token {
	if m.connectToken != nil {
		return m.connectToken
	}
	m.connected.Store(true)
	return NewMockToken(nil)
}
func (m *MockClient) Disconnect(quiesce uint) {
	m.disconnects.Add(1)
	m.connected.Store(false)
}
func (m *MockClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	if m.publishErr != nil {
		return NewMockToken(m.publishErr)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, published{topic: topic, retain: retained, payload: payload.([]byte)})
	return NewMockToken(nil)
}
func (m *MockClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	if m.subscribeErr != nil {
		return NewMockToken(m.subscribeErr)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribed = append(m.subscribed, topic)
	m.handlers[topic] = callback
	return NewMockToken(nil)
}
func (m *MockClient) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	return NewMockToken(nil)
}
func (m *MockClient) Unsubscribe(topics ...string) mqtt.Token             { return NewMockToken(nil) }
func (m *MockClient) AddRoute(topic string, callback mqtt.MessageHandler) {}
func (m *MockClient) IsConnected() bool                                   { return m.connected.Load() }
func (m *MockClient) IsConnectionOpen() bool                              { return m.connected.Load() }
func (m *MockClient) OptionsReader() mqtt.ClientOptionsReader             { return mqtt.ClientOptionsReader{} }

// deliver simulates an inbound message on a subscribed topic.
func (m *MockClient) deliver(topic string, payload []byte) {
	m.mu.Lock()
	h := m.handlers[topic]
	m.mu.Unlock()
	if h != nil {
		h(m, &mockMessage{topic: topic, payload: payload})
	}
}

type mockMessage struct {
	topic   string
	payload []byte
}

func (m *mockMessage) Duplicate() bool   { return false }
func (m *mockMessage) Qos() byte         { return 0 }
func (m *mockMessage) Retained() bool    { return false }
func (m *mockMessage) Topic() string     { return m.topic }
func (m *mockMessage) MessageID() uint16 { return 0 }
func (m *mockMessage) Payload() []byte   { return m.payload }
func (m *mockMessage) Ack()              {}

var errBroker = errors.New("broker refused")

func newTestLogger() *logger.Logger {
	log, _ := logger.NewLogger(&config.LogConfig{
		Level:      "error",
		OutputPath: "stdout",
		Encoding:   "json",
	})
	return log
}

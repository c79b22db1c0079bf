package mqtt

import (
	"context"
	"errors"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ha-host-bridge/config"
	"ha-host-bridge/internal/transport"
)

func TestNewTransport(t *testing.T) {
	cfg := &config.Config{Instance: "desk"}
	cfg.MQTT.Host = "localhost"
	cfg.MQTT.Port = 1883
	cfg.MQTT.ClientID = "ha-scenes-test"
	cfg.Reconnect.ConnectTimeout = "4s"

	tr, err := NewTransport(cfg, transport.Events{}, newTestLogger())
	require.NoError(t, err)
	assert.Equal(t, "tcp://localhost:1883", tr.broker)
	assert.False(t, tr.IsConnected())
}

func TestNewTransportBadTLS(t *testing.T) {
	cfg := &config.Config{Instance: "desk"}
	cfg.MQTT.Host = "localhost"
	cfg.MQTT.Port = 8883
	cfg.MQTT.TLS.Enable = true
	cfg.MQTT.TLS.CertFile = "/nonexistent/cert.pem"
	cfg.MQTT.TLS.KeyFile = "/nonexistent/key.pem"
	cfg.MQTT.TLS.CAFile = "/nonexistent/ca.pem"

	_, err := NewTransport(cfg, transport.Events{}, newTestLogger())
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	client := NewMockClient()
	tr := NewTransportWithClient(client, transport.Events{}, newTestLogger())

	require.NoError(t, tr.Connect(context.Background()))
	assert.True(t, tr.IsConnected())

	tr.Disconnect()
	assert.False(t, tr.IsConnected())
}

func TestConnectFailure(t *testing.T) {
	client := NewMockClient()
	client.connectToken = NewMockToken(errBroker)
	tr := NewTransportWithClient(client, transport.Events{}, newTestLogger())

	err := tr.Connect(context.Background())
	require.Error(t, err)

	var te *transport.Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "connect", te.Op)
	assert.True(t, errors.Is(err, errBroker))
	assert.False(t, tr.IsConnected())
}

func TestConnectTimeout(t *testing.T) {
	client := NewMockClient()
	client.connectToken = newPendingToken()
	tr := NewTransportWithClient(client, transport.Events{}, newTestLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := tr.Connect(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, int32(1), client.disconnects.Load(), "pending attempt is aborted")
}

// slowBroker accepts MQTT connections and answers the first CONNECT only
// after delay. Later connections are acknowledged immediately.
func slowBroker(t *testing.T, delay time.Duration) (host string, port int) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	var accepted atomic.Int32
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			first := accepted.Add(1) == 1
			go func(conn net.Conn) {
				defer conn.Close()
				buf := make([]byte, 256)
				if _, err := conn.Read(buf); err != nil {
					return
				}
				if first {
					time.Sleep(delay)
				}
				if _, err := conn.Write([]byte{0x20, 0x02, 0x00, 0x00}); err != nil {
					return
				}
				io.Copy(io.Discard, conn)
			}(conn)
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func TestConnectTimeoutAbortsLateSession(t *testing.T) {
	host, port := slowBroker(t, 300*time.Millisecond)

	cfg := &config.Config{Instance: "desk"}
	cfg.MQTT.Host = host
	cfg.MQTT.Port = port
	cfg.MQTT.ClientID = "ha-scenes-test"
	cfg.Reconnect.ConnectTimeout = "2s"

	tr, err := NewTransport(cfg, transport.Events{}, newTestLogger())
	require.NoError(t, err)
	defer tr.Disconnect()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	err = tr.Connect(ctx)
	cancel()
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	// the late CONNACK must not leave paho holding a session
	time.Sleep(500 * time.Millisecond)
	assert.False(t, tr.client.IsConnected())
	assert.False(t, tr.IsConnected())

	require.Eventually(t, func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return tr.Connect(ctx) == nil
	}, 3*time.Second, 50*time.Millisecond)
	assert.True(t, tr.IsConnected())
}

func TestSubscribeAndDeliver(t *testing.T) {
	client := NewMockClient()

	var gotTopic string
	var gotPayload []byte
	tr := NewTransportWithClient(client, transport.Events{
		OnMessage: func(topic string, payload []byte) {
			gotTopic = topic
			gotPayload = payload
		},
	}, newTestLogger())

	assert.ErrorIs(t, tr.Subscribe("homeassistant/scene_executor/set"), transport.ErrNotConnected)

	require.NoError(t, tr.Connect(context.Background()))
	require.NoError(t, tr.Subscribe("homeassistant/scene_executor/set"))
	assert.Equal(t, []string{"homeassistant/scene_executor/set"}, client.subscribed)

	client.deliver("homeassistant/scene_executor/set", []byte("dim_screen"))
	assert.Equal(t, "homeassistant/scene_executor/set", gotTopic)
	assert.Equal(t, []byte("dim_screen"), gotPayload)
}

func TestSubscribeError(t *testing.T) {
	client := NewMockClient()
	client.subscribeErr = errBroker
	tr := NewTransportWithClient(client, transport.Events{}, newTestLogger())
	require.NoError(t, tr.Connect(context.Background()))

	err := tr.Subscribe("a/b")
	assert.True(t, errors.Is(err, errBroker))
}

func TestPublish(t *testing.T) {
	client := NewMockClient()
	tr := NewTransportWithClient(client, transport.Events{}, newTestLogger())

	assert.ErrorIs(t, tr.Publish("a/b", []byte("x"), false), transport.ErrNotConnected)
	assert.Empty(t, client.published)

	require.NoError(t, tr.Connect(context.Background()))
	require.NoError(t, tr.Publish("homeassistant/scene/dim_screen/config", []byte("{}"), true))

	require.Len(t, client.published, 1)
	assert.Equal(t, "homeassistant/scene/dim_screen/config", client.published[0].topic)
	assert.True(t, client.published[0].retain)

	client.publishErr = errBroker
	assert.True(t, errors.Is(tr.Publish("a/b", []byte("x"), false), errBroker))
}

func TestConnectionLost(t *testing.T) {
	client := NewMockClient()

	var lost error
	tr := NewTransportWithClient(client, transport.Events{
		OnConnectionLost: func(err error) { lost = err },
	}, newTestLogger())
	require.NoError(t, tr.Connect(context.Background()))

	client.connected.Store(false)
	tr.handleConnectionLost(client, errBroker)

	assert.False(t, tr.IsConnected())
	require.Error(t, lost)
	assert.True(t, errors.Is(lost, errBroker))
}

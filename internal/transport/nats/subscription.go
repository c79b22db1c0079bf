package nats

import (
	"github.com/nats-io/nats.go"

	"ha-host-bridge/internal/transport"
)

// Subscribe subscribes to the subject mapped from topic. Subscriptions die
// with the connection; the broker replays them after every Connect.
func (t *Transport) Subscribe(topic string) error {
	conn := t.connection()
	if conn == nil || !t.IsConnected() {
		return transport.ErrNotConnected
	}

	subject := ToNATSSubject(topic)
	if _, err := conn.Subscribe(subject, t.handleMessage); err != nil {
		t.logger.Error("failed to subscribe to topic",
			"topic", topic,
			"subject", subject,
			"error", err)
		return &transport.Error{Op: "subscribe", Err: err}
	}

	t.logger.Debug("subscribed to topic",
		"topic", topic,
		"subject", subject)
	return nil
}

// handleMessage processes a received NATS message
func (t *Transport) handleMessage(msg *nats.Msg) {
	if t.events.OnMessage == nil {
		return
	}
	t.events.OnMessage(ToMQTTTopic(msg.Subject), msg.Data)
}

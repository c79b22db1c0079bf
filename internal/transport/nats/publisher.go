package nats

import (
	"ha-host-bridge/internal/transport"
)

// Publish sends a message to the subject mapped from topic.
func (t *Transport) Publish(topic string, payload []byte, retain bool) error {
	conn := t.connection()
	if conn == nil || !t.IsConnected() {
		return transport.ErrNotConnected
	}

	subject := ToNATSSubject(topic)
	if err := conn.Publish(subject, payload); err != nil {
		t.logger.Error("failed to publish message",
			"error", err,
			"topic", topic,
			"subject", subject)
		return &transport.Error{Op: "publish", Err: err}
	}

	t.logger.Debug("published message",
		"topic", topic,
		"subject", subject,
		"payloadSize", len(payload))

	return nil
}

package mqtt

import (
	"ha-host-bridge/internal/transport"
)

// Publish sends one message at QoS 0.
func (t *Transport) Publish(topic string, payload []byte, retain bool) error {
	if !t.IsConnected() {
		return transport.ErrNotConnected
	}

	if err := waitToken("publish", t.client.Publish(topic, defaultQoS, retain, payload)); err != nil {
		t.logger.Error("failed to publish message",
			"error", err,
			"topic", topic)
		return err
	}

	t.logger.Debug("published message",
		"topic", topic,
		"retain", retain,
		"payloadSize", len(payload))

	return nil
}

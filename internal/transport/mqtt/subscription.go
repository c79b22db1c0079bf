package mqtt

import (
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"ha-host-bridge/internal/transport"
)

// Subscribe issues a live subscription. Messages are forwarded to the
// OnMessage event with the concrete topic they arrived on.
func (t *Transport) Subscribe(topic string) error {
	if !t.IsConnected() {
		return transport.ErrNotConnected
	}

	if err := waitToken("subscribe", t.client.Subscribe(topic, defaultQoS, t.handleMessage)); err != nil {
		t.logger.Error("failed to subscribe to topic",
			"topic", topic,
			"error", err)
		return err
	}

	t.logger.Debug("subscribed to topic", "topic", topic)
	return nil
}

// handleMessage processes received MQTT messages
func (t *Transport) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	if t.events.OnMessage == nil {
		return
	}
	t.events.OnMessage(msg.Topic(), msg.Payload())
}

// Package homeassistant defines the MQTT discovery and state contracts the
// bridge publishes, and the Bus the feature modules talk through.
package homeassistant

import (
	"encoding/json"
	"errors"
	"fmt"

	"ha-host-bridge/internal/broker"
)

// ErrInvalidPayload marks an inbound command payload that could not be
// parsed. Handlers ignore it.
var ErrInvalidPayload = errors.New("invalid payload")

const (
	PayloadOn  = "ON"
	PayloadOff = "OFF"
)

// Bus is the part of the broker connection feature modules depend on.
// *broker.Connection satisfies it.
type Bus interface {
	Subscribe(topic string, handler broker.Handler) error
	Publish(topic string, payload []byte, opts broker.PublishOptions) error
	InstanceName() string
	OnConnect(fn func())
}

// PublishJSON marshals v and publishes it on topic.
func PublishJSON(bus Bus, topic string, v interface{}, retain bool) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", topic, err)
	}
	return bus.Publish(topic, payload, broker.PublishOptions{Retain: retain})
}

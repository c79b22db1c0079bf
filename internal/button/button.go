// Package button exposes shell commands as Home Assistant buttons.
package button

import (
	"context"
	"errors"
	"fmt"

	"ha-host-bridge/internal/broker"
	"ha-host-bridge/internal/catalog"
	"ha-host-bridge/internal/executor"
	"ha-host-bridge/internal/homeassistant"
	"ha-host-bridge/internal/logger"
)

// Module runs a button's command when its press payload arrives.
type Module struct {
	bus      homeassistant.Bus
	executor executor.Executor
	logger   *logger.Logger
	buttons  []catalog.Button
}

// New subscribes the command topic of every button eligible for the bus's
// instance and announces them.
func New(bus homeassistant.Bus, buttons []catalog.Button, exec executor.Executor, log *logger.Logger) (*Module, error) {
	m := &Module{
		bus:      bus,
		executor: exec,
		logger:   log.With("module", "button"),
	}

	instance := bus.InstanceName()
	for _, b := range buttons {
		if !b.Matches(instance) {
			m.logger.Debug("skipping button for another instance",
				"button", b.Name,
				"instance", b.Instance)
			continue
		}

		b := b
		if err := bus.Subscribe(b.CommandTopic, func(topic string, payload []byte) {
			m.handlePress(b, payload)
		}); err != nil {
			return nil, fmt.Errorf("failed to subscribe button %s: %w", b.Name, err)
		}
		m.buttons = append(m.buttons, b)
	}

	m.Announce()
	if len(m.buttons) > 0 {
		bus.OnConnect(m.Announce)
	}

	return m, nil
}

// Buttons returns the buttons this module serves.
func (m *Module) Buttons() []catalog.Button {
	return m.buttons
}

// Announce publishes the retained discovery message of every button.
func (m *Module) Announce() {
	for _, b := range m.buttons {
		err := homeassistant.PublishJSON(m.bus, homeassistant.ButtonConfigTopic(b.Name), homeassistant.NewButtonDiscovery(b), true)
		switch {
		case errors.Is(err, broker.ErrNotConnected):
			m.logger.Debug("button announcement deferred until connected", "button", b.Name)
		case err != nil:
			m.logger.Error("failed to announce button", "button", b.Name, "error", err)
		default:
			m.logger.Info("published button", "button", b.Name)
		}
	}
}

func (m *Module) handlePress(b catalog.Button, payload []byte) {
	if string(payload) != b.PayloadPress {
		m.logger.Debug("ignoring button payload",
			"button", b.Name,
			"payload", string(payload))
		return
	}

	if _, err := m.executor.Run(context.Background(), b.Command); err != nil {
		m.logger.Error("failed to execute button command",
			"button", b.Name,
			"error", err)
		return
	}
	m.logger.Info("executed button command", "button", b.Name)
}

// Package light drives host lights (keyboard RGB zones, display backlight)
// from Home Assistant light commands.
package light

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

// controller is one light's command handler plus its private state.
type controller interface {
	descriptor() catalog.Light
	handle(topic string, payload []byte)
	announce()
}

// Module owns the RGB and brightness light controllers for one instance.
type Module struct {
	bus         homeassistant.Bus
	logger      *logger.Logger
	controllers []controller
}

// New builds a controller for every light eligible for the bus's instance,
// subscribes each command topic and announces the lights.
func New(bus homeassistant.Bus, lights []catalog.Light, exec executor.Executor, log *logger.Logger) (*Module, error) {
	m := &Module{
		bus:    bus,
		logger: log.With("module", "light"),
	}

	instance := bus.InstanceName()
	for _, desc := range lights {
		if !desc.Matches(instance) {
			m.logger.Debug("skipping light for another instance",
				"light", desc.Name,
				"instance", desc.Instance)
			continue
		}

		shared := base{desc: desc, bus: bus, executor: exec, logger: m.logger.With("light", desc.Name)}
		var c controller
		switch desc.Kind {
		case catalog.LightKindRGB:
			c = newRGBLight(shared)
		case catalog.LightKindBrightness:
			c = newBrightnessLight(shared)
		default:
			return nil, &catalog.ValidationError{Field: desc.Name + ".kind", Message: fmt.Sprintf("unknown light kind %q", desc.Kind)}
		}

		if err := bus.Subscribe(desc.CommandTopic, c.handle); err != nil {
			return nil, fmt.Errorf("failed to subscribe light %s: %w", desc.Name, err)
		}
		m.controllers = append(m.controllers, c)
	}

	m.Announce()
	if len(m.controllers) > 0 {
		bus.OnConnect(m.Announce)
	}

	return m, nil
}

// Lights returns the descriptors this module serves.
func (m *Module) Lights() []catalog.Light {
	out := make([]catalog.Light, 0, len(m.controllers))
	for _, c := range m.controllers {
		out = append(out, c.descriptor())
	}
	return out
}

// Announce publishes every light's retained discovery message.
func (m *Module) Announce() {
	for _, c := range m.controllers {
		c.announce()
	}
}

// base carries what both light kinds share.
type base struct {
	desc     catalog.Light
	bus      homeassistant.Bus
	executor executor.Executor
	logger   *logger.Logger
}

func (b *base) descriptor() catalog.Light {
	return b.desc
}

func (b *base) run(vars map[string]string) error {
	command := executor.Render(b.desc.Command, vars)
	if _, err := b.executor.Run(context.Background(), command); err != nil {
		b.logger.Error("light command failed",
			"command", command,
			"error", err)
		return err
	}
	b.logger.Info("executed light command", "command", command)
	return nil
}

func (b *base) publish(topic string, v interface{}, retain bool) {
	err := homeassistant.PublishJSON(b.bus, topic, v, retain)
	switch {
	case errors.Is(err, broker.ErrNotConnected):
		b.logger.Debug("dropping light message while disconnected", "topic", topic)
	case err != nil:
		b.logger.Error("failed to publish light message",
			"topic", topic,
			"error", err)
	}
}

// Package scene exposes one-shot shell commands as Home Assistant scenes
// behind a single shared command topic.
package scene

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

// Module executes scenes named on the scene executor topic.
type Module struct {
	bus      homeassistant.Bus
	executor executor.Executor
	logger   *logger.Logger
	scenes   []catalog.Scene
	byName   map[string]catalog.Scene
}

// New keeps the scenes eligible for the bus's instance, subscribes the
// scene executor topic and announces every eligible scene.
func New(bus homeassistant.Bus, scenes []catalog.Scene, exec executor.Executor, log *logger.Logger) (*Module, error) {
	m := &Module{
		bus:      bus,
		executor: exec,
		logger:   log.With("module", "scene"),
		byName:   make(map[string]catalog.Scene),
	}

	instance := bus.InstanceName()
	for _, s := range scenes {
		if !s.Matches(instance) {
			m.logger.Debug("skipping scene for another instance",
				"scene", s.Name,
				"instance", s.Instance)
			continue
		}
		m.scenes = append(m.scenes, s)
		m.byName[s.Name] = s
	}

	if len(m.scenes) == 0 {
		m.logger.Info("no scenes for this instance", "instance", instance)
		return m, nil
	}

	if err := bus.Subscribe(homeassistant.SceneCommandTopic, m.handleCommand); err != nil {
		return nil, fmt.Errorf("failed to subscribe scene executor: %w", err)
	}

	m.Announce()
	bus.OnConnect(m.Announce)

	return m, nil
}

// Scenes returns the scenes this module serves.
func (m *Module) Scenes() []catalog.Scene {
	return m.scenes
}

// Announce publishes the retained discovery message of every scene.
func (m *Module) Announce() {
	for _, s := range m.scenes {
		err := homeassistant.PublishJSON(m.bus, homeassistant.SceneConfigTopic(s.Name), homeassistant.NewSceneDiscovery(s), true)
		switch {
		case errors.Is(err, broker.ErrNotConnected):
			m.logger.Debug("scene announcement deferred until connected", "scene", s.Name)
		case err != nil:
			m.logger.Error("failed to announce scene", "scene", s.Name, "error", err)
		default:
			m.logger.Info("published scene", "scene", s.Name)
		}
	}
}

func (m *Module) handleCommand(topic string, payload []byte) {
	name := string(payload)

	s, ok := m.byName[name]
	if !ok {
		m.logger.Debug("ignoring unknown scene", "scene", name)
		return
	}

	if _, err := m.executor.Run(context.Background(), s.Command); err != nil {
		m.logger.Error("failed to execute scene",
			"scene", s.Name,
			"error", err)
		return
	}
	m.logger.Info("executed scene", "scene", s.Name)
}

// Package bridge wires the scene, light and button modules onto one shared
// broker connection.
package bridge

import (
	"fmt"

	"ha-host-bridge/internal/button"
	"ha-host-bridge/internal/catalog"
	"ha-host-bridge/internal/executor"
	"ha-host-bridge/internal/homeassistant"
	"ha-host-bridge/internal/light"
	"ha-host-bridge/internal/logger"
	"ha-host-bridge/internal/scene"
)

// Bridge holds the running feature modules.
type Bridge struct {
	Scenes  *scene.Module
	Lights  *light.Module
	Buttons *button.Module
}

// New constructs every feature module against bus. Modules register their
// handlers before announcing, so a connection that comes up mid-startup
// replays the full set.
func New(bus homeassistant.Bus, cat *catalog.Catalog, exec executor.Executor, log *logger.Logger) (*Bridge, error) {
	scenes, err := scene.New(bus, cat.Scenes, exec, log)
	if err != nil {
		return nil, fmt.Errorf("failed to start scenes: %w", err)
	}

	lights, err := light.New(bus, cat.Lights, exec, log)
	if err != nil {
		return nil, fmt.Errorf("failed to start lights: %w", err)
	}

	buttons, err := button.New(bus, cat.Buttons, exec, log)
	if err != nil {
		return nil, fmt.Errorf("failed to start buttons: %w", err)
	}

	log.Info("bridge modules started",
		"instance", bus.InstanceName(),
		"scenes", len(scenes.Scenes()),
		"lights", len(lights.Lights()),
		"buttons", len(buttons.Buttons()))

	return &Bridge{Scenes: scenes, Lights: lights, Buttons: buttons}, nil
}

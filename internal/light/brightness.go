package light

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"ha-host-bridge/internal/homeassistant"
)

const wireScale = 255

type brightnessLight struct {
	base

	mu      sync.Mutex
	on      bool
	percent int // last applied percentage, restored by ON
	wire    int // same level on the 0-255 wire scale
}

func newBrightnessLight(b base) *brightnessLight {
	percent := b.desc.DefaultBrightness
	return &brightnessLight{
		base:    b,
		on:      true,
		percent: percent,
		wire:    percentToWire(percent),
	}
}

func (l *brightnessLight) handle(topic string, payload []byte) {
	command := string(payload)
	l.logger.Info("received brightness command", "payload", command)

	l.mu.Lock()
	defer l.mu.Unlock()

	switch command {
	case homeassistant.PayloadOn:
		if err := l.run(valueVars(l.percent)); err != nil {
			return
		}
		l.on = true
	case homeassistant.PayloadOff:
		if err := l.run(valueVars(0)); err != nil {
			return
		}
		l.on = false
	default:
		wire, err := parseBrightness(command)
		if err != nil {
			l.logger.Debug("ignoring brightness payload", "payload", command, "error", err)
			return
		}
		percent := wireToPercent(wire)
		if err := l.run(valueVars(percent)); err != nil {
			return
		}
		l.on, l.percent, l.wire = true, percent, wire
	}

	l.publish(l.desc.StateTopic, l.state(), false)
}

// announce publishes the discovery message followed by the current state.
func (l *brightnessLight) announce() {
	l.publish(homeassistant.LightConfigTopic(l.desc.Name), homeassistant.NewBrightnessLightDiscovery(l.desc), true)

	l.mu.Lock()
	state := l.state()
	l.mu.Unlock()
	l.publish(l.desc.StateTopic, state, false)
}

func (l *brightnessLight) state() homeassistant.BrightnessState {
	if !l.on {
		return homeassistant.NewBrightnessState(false, 0)
	}
	return homeassistant.NewBrightnessState(true, l.wire)
}

func parseBrightness(payload string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(payload))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", homeassistant.ErrInvalidPayload, payload)
	}
	if v < 0 || v > wireScale {
		return 0, fmt.Errorf("%w: brightness %d out of range", homeassistant.ErrInvalidPayload, v)
	}
	return v, nil
}

func wireToPercent(v int) int {
	return int(math.Round(float64(v) * 100 / wireScale))
}

func percentToWire(p int) int {
	return int(math.Round(float64(p) * wireScale / 100))
}

func valueVars(percent int) map[string]string {
	return map[string]string{"value": strconv.Itoa(percent)}
}

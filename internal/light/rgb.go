package light

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"ha-host-bridge/internal/catalog"
	"ha-host-bridge/internal/homeassistant"
)

type rgbLight struct {
	base

	mu   sync.Mutex
	last catalog.Color // last applied non-off colour
}

func newRGBLight(b base) *rgbLight {
	last := catalog.DefaultColor
	if b.desc.DefaultColor != nil {
		last = *b.desc.DefaultColor
	}
	return &rgbLight{base: b, last: last}
}

func (l *rgbLight) handle(topic string, payload []byte) {
	command := string(payload)
	l.logger.Info("received rgb command", "payload", command)

	l.mu.Lock()
	defer l.mu.Unlock()

	var target catalog.Color
	switch {
	case command == homeassistant.PayloadOff:
	case command == homeassistant.PayloadOn:
		target = l.last
	case strings.Contains(command, ","):
		c, err := parseColor(command)
		if err != nil {
			l.logger.Debug("ignoring rgb payload", "payload", command, "error", err)
			return
		}
		target = c
	default:
		l.logger.Debug("ignoring rgb payload", "payload", command)
		return
	}

	if err := l.run(colorVars(target)); err != nil {
		return
	}
	if !target.IsOff() {
		l.last = target
	}

	l.publish(l.desc.StateTopic, homeassistant.NewRGBState(target), false)
}

func (l *rgbLight) announce() {
	l.publish(homeassistant.LightConfigTopic(l.desc.Name), homeassistant.NewRGBLightDiscovery(l.desc), true)
}

// parseColor reads "r,g,b" with decimal channels in 0-255.
func parseColor(payload string) (catalog.Color, error) {
	parts := strings.Split(payload, ",")
	if len(parts) != 3 {
		return catalog.Color{}, fmt.Errorf("%w: want three channels, got %d", homeassistant.ErrInvalidPayload, len(parts))
	}

	var ch [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return catalog.Color{}, fmt.Errorf("%w: channel %q is not a number", homeassistant.ErrInvalidPayload, p)
		}
		if v < 0 || v > 255 {
			return catalog.Color{}, fmt.Errorf("%w: channel %d out of range", homeassistant.ErrInvalidPayload, v)
		}
		ch[i] = v
	}
	return catalog.Color{R: ch[0], G: ch[1], B: ch[2]}, nil
}

func colorVars(c catalog.Color) map[string]string {
	return map[string]string{
		"hex": c.Hex(),
		"r":   strconv.Itoa(c.R),
		"g":   strconv.Itoa(c.G),
		"b":   strconv.Itoa(c.B),
	}
}

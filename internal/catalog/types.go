// Package catalog holds the static scene, light and button descriptors a
// bridge instance may expose.
package catalog

import (
	"fmt"
)

const (
	LightKindRGB        = "rgb"
	LightKindBrightness = "brightness"

	DefaultPayloadPress      = "PRESS"
	DefaultBrightnessPercent = 30
)

// DefaultColor is the colour an RGB light restores on "ON" before any colour
// has been applied.
var DefaultColor = Color{R: 255, G: 0, B: 8}

// Catalog is one document of descriptors. Files on disk use the same shape.
type Catalog struct {
	Scenes  []Scene  `json:"scenes,omitempty" yaml:"scenes,omitempty"`
	Lights  []Light  `json:"lights,omitempty" yaml:"lights,omitempty"`
	Buttons []Button `json:"buttons,omitempty" yaml:"buttons,omitempty"`
}

// Scene is a named one-shot shell command.
type Scene struct {
	Name         string `json:"name" yaml:"name"`
	FriendlyName string `json:"friendly_name" yaml:"friendly_name"`
	Icon         string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Command      string `json:"command" yaml:"command"`
	Instance     string `json:"instance,omitempty" yaml:"instance,omitempty"`
}

// Color is an RGB triple with channels in 0-255.
type Color struct {
	R int `json:"r" yaml:"r"`
	G int `json:"g" yaml:"g"`
	B int `json:"b" yaml:"b"`
}

// Hex renders the colour as six lowercase hex digits.
func (c Color) Hex() string {
	return fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B)
}

// IsOff reports whether every channel is zero.
func (c Color) IsOff() bool {
	return c.R == 0 && c.G == 0 && c.B == 0
}

// Light is either an RGB light or a brightness-only light. Command is a
// template: RGB lights receive ${hex}, ${r}, ${g} and ${b}; brightness lights
// receive ${value} as a 0-100 percentage.
type Light struct {
	Name              string `json:"name" yaml:"name"`
	FriendlyName      string `json:"friendly_name" yaml:"friendly_name"`
	Kind              string `json:"kind" yaml:"kind"`
	Icon              string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Instance          string `json:"instance,omitempty" yaml:"instance,omitempty"`
	Command           string `json:"command" yaml:"command"`
	UniqueID          string `json:"unique_id,omitempty" yaml:"unique_id,omitempty"`
	ObjectID          string `json:"object_id,omitempty" yaml:"object_id,omitempty"`
	CommandTopic      string `json:"command_topic,omitempty" yaml:"command_topic,omitempty"`
	StateTopic        string `json:"state_topic,omitempty" yaml:"state_topic,omitempty"`
	DefaultColor      *Color `json:"default_color,omitempty" yaml:"default_color,omitempty"`
	DefaultBrightness int    `json:"default_brightness,omitempty" yaml:"default_brightness,omitempty"`
}

// Button executes its command when the press payload arrives.
type Button struct {
	Name         string `json:"name" yaml:"name"`
	FriendlyName string `json:"friendly_name" yaml:"friendly_name"`
	Icon         string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Instance     string `json:"instance,omitempty" yaml:"instance,omitempty"`
	Command      string `json:"command" yaml:"command"`
	UniqueID     string `json:"unique_id,omitempty" yaml:"unique_id,omitempty"`
	ObjectID     string `json:"object_id,omitempty" yaml:"object_id,omitempty"`
	CommandTopic string `json:"command_topic,omitempty" yaml:"command_topic,omitempty"`
	PayloadPress string `json:"payload_press,omitempty" yaml:"payload_press,omitempty"`
}

// ValidationError reports an invalid descriptor.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// matches is the instance filter: an untagged entity belongs to every
// instance.
func matches(tag, instance string) bool {
	return tag == "" || tag == instance
}

// Matches reports whether the scene belongs to instance.
func (s Scene) Matches(instance string) bool { return matches(s.Instance, instance) }

// Matches reports whether the light belongs to instance.
func (l Light) Matches(instance string) bool { return matches(l.Instance, instance) }

// Matches reports whether the button belongs to instance.
func (b Button) Matches(instance string) bool { return matches(b.Instance, instance) }

// merge appends other's descriptors to c.
func (c *Catalog) merge(other Catalog) {
	c.Scenes = append(c.Scenes, other.Scenes...)
	c.Lights = append(c.Lights, other.Lights...)
	c.Buttons = append(c.Buttons, other.Buttons...)
}

// applyDefaults fills optional descriptor fields.
func (c *Catalog) applyDefaults() {
	for i := range c.Lights {
		l := &c.Lights[i]
		if l.FriendlyName == "" {
			l.FriendlyName = l.Name
		}
		if l.UniqueID == "" {
			l.UniqueID = l.Name
		}
		if l.ObjectID == "" {
			l.ObjectID = l.Name
		}
		if l.CommandTopic == "" {
			l.CommandTopic = fmt.Sprintf("homeassistant/light/%s/set", l.Name)
		}
		if l.StateTopic == "" {
			l.StateTopic = fmt.Sprintf("homeassistant/light/%s/state", l.Name)
		}
		if l.Kind == LightKindRGB && l.DefaultColor == nil {
			color := DefaultColor
			l.DefaultColor = &color
		}
		if l.Kind == LightKindBrightness && l.DefaultBrightness == 0 {
			l.DefaultBrightness = DefaultBrightnessPercent
		}
	}

	for i := range c.Buttons {
		b := &c.Buttons[i]
		if b.FriendlyName == "" {
			b.FriendlyName = b.Name
		}
		if b.UniqueID == "" {
			b.UniqueID = b.Name
		}
		if b.ObjectID == "" {
			b.ObjectID = b.Name
		}
		if b.CommandTopic == "" {
			b.CommandTopic = fmt.Sprintf("homeassistant/button/%s/set", b.Name)
		}
		if b.PayloadPress == "" {
			b.PayloadPress = DefaultPayloadPress
		}
	}

	for i := range c.Scenes {
		if c.Scenes[i].FriendlyName == "" {
			c.Scenes[i].FriendlyName = c.Scenes[i].Name
		}
	}
}

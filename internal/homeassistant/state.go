package homeassistant

import (
	"ha-host-bridge/internal/catalog"
)

// RGBState is published on an RGB light's state topic.
type RGBState struct {
	State     string        `json:"state"`
	Color     catalog.Color `json:"color"`
	ColorMode string        `json:"color_mode"`
}

// NewRGBState reports OFF for an all-zero colour, including an explicit
// "0,0,0" command.
func NewRGBState(c catalog.Color) RGBState {
	state := PayloadOn
	if c.IsOff() {
		state = PayloadOff
	}
	return RGBState{State: state, Color: c, ColorMode: catalog.LightKindRGB}
}

// BrightnessState is published on a brightness light's state topic.
// Brightness uses the 0-255 wire scale.
type BrightnessState struct {
	State      string `json:"state"`
	Brightness int    `json:"brightness"`
	ColorMode  string `json:"color_mode"`
}

func NewBrightnessState(on bool, brightness int) BrightnessState {
	state := PayloadOff
	if on {
		state = PayloadOn
	}
	return BrightnessState{State: state, Brightness: brightness, ColorMode: catalog.LightKindBrightness}
}

package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceFilter(t *testing.T) {
	c := &Catalog{
		Scenes: []Scene{
			{Name: "everywhere", Command: "true"},
			{Name: "legion_only", Command: "true", Instance: "lenovo-legion7"},
			{Name: "desktop_only", Command: "true", Instance: "desktop"},
		},
		Lights: []Light{
			{Name: "backlight", Kind: LightKindBrightness, Command: "set ${value}", Instance: "desktop"},
		},
		Buttons: []Button{
			{Name: "lock", Command: "loginctl lock-session"},
		},
	}

	var names []string
	for _, s := range c.Scenes {
		if s.Matches("lenovo-legion7") {
			names = append(names, s.Name)
		}
	}
	assert.Equal(t, []string{"everywhere", "legion_only"}, names)
	assert.False(t, c.Lights[0].Matches("lenovo-legion7"))
	assert.True(t, c.Lights[0].Matches("desktop"))
	assert.True(t, c.Buttons[0].Matches("anything"))
}

func TestColorHex(t *testing.T) {
	assert.Equal(t, "ff0008", Color{R: 255, G: 0, B: 8}.Hex())
	assert.Equal(t, "000000", Color{}.Hex())
	assert.Equal(t, "0a0b0c", Color{R: 10, G: 11, B: 12}.Hex())
	assert.True(t, Color{}.IsOff())
	assert.False(t, DefaultColor.IsOff())
}

func TestApplyDefaults(t *testing.T) {
	c := &Catalog{
		Lights: []Light{
			{Name: "rgb_light", Kind: LightKindRGB, Command: "legion7-rgb -l ${hex}"},
			{Name: "laptop_backlight", Kind: LightKindBrightness, Command: "brightnessctl set ${value}%"},
		},
		Buttons: []Button{{Name: "lock", Command: "loginctl lock-session"}},
		Scenes:  []Scene{{Name: "dim", Command: "true"}},
	}
	c.applyDefaults()

	rgb := c.Lights[0]
	assert.Equal(t, "homeassistant/light/rgb_light/set", rgb.CommandTopic)
	assert.Equal(t, "homeassistant/light/rgb_light/state", rgb.StateTopic)
	assert.Equal(t, "rgb_light", rgb.UniqueID)
	assert.Equal(t, "rgb_light", rgb.ObjectID)
	require.NotNil(t, rgb.DefaultColor)
	assert.Equal(t, DefaultColor, *rgb.DefaultColor)

	assert.Equal(t, DefaultBrightnessPercent, c.Lights[1].DefaultBrightness)
	assert.Nil(t, c.Lights[1].DefaultColor)

	assert.Equal(t, "homeassistant/button/lock/set", c.Buttons[0].CommandTopic)
	assert.Equal(t, DefaultPayloadPress, c.Buttons[0].PayloadPress)
	assert.Equal(t, "dim", c.Scenes[0].FriendlyName)

	require.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		catalog Catalog
		field   string
	}{
		{
			name:    "scene without name",
			catalog: Catalog{Scenes: []Scene{{Command: "true"}}},
			field:   "scenes[0].name",
		},
		{
			name:    "scene name with slash",
			catalog: Catalog{Scenes: []Scene{{Name: "a/b", Command: "true"}}},
			field:   "scenes[0].name",
		},
		{
			name:    "duplicate scene",
			catalog: Catalog{Scenes: []Scene{{Name: "a", Command: "true"}, {Name: "a", Command: "false"}}},
			field:   "scenes[1].name",
		},
		{
			name:    "scene without command",
			catalog: Catalog{Scenes: []Scene{{Name: "a"}}},
			field:   "scenes[0].command",
		},
		{
			name:    "unknown light kind",
			catalog: Catalog{Lights: []Light{{Name: "l", Kind: "hsv", Command: "x", CommandTopic: "t/set", StateTopic: "t/state"}}},
			field:   "lights[0].kind",
		},
		{
			name:    "rgb command without colour placeholder",
			catalog: Catalog{Lights: []Light{{Name: "l", Kind: LightKindRGB, Command: "x ${value}", CommandTopic: "t/set", StateTopic: "t/state"}}},
			field:   "lights[0].command",
		},
		{
			name:    "brightness command without value",
			catalog: Catalog{Lights: []Light{{Name: "l", Kind: LightKindBrightness, Command: "x", CommandTopic: "t/set", StateTopic: "t/state"}}},
			field:   "lights[0].command",
		},
		{
			name: "default colour out of range",
			catalog: Catalog{Lights: []Light{{
				Name: "l", Kind: LightKindRGB, Command: "x ${hex}", CommandTopic: "t/set", StateTopic: "t/state",
				DefaultColor: &Color{R: 300},
			}}},
			field: "lights[0].default_color",
		},
		{
			name:    "wildcard button topic",
			catalog: Catalog{Buttons: []Button{{Name: "b", Command: "x", CommandTopic: "homeassistant/button/+/set"}}},
			field:   "buttons[0].command_topic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.catalog.Validate()
			require.Error(t, err)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr), "expected ValidationError, got %T", err)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestNamesMayRepeatAcrossKinds(t *testing.T) {
	c := &Catalog{
		Scenes:  []Scene{{Name: "lock", Command: "true"}},
		Buttons: []Button{{Name: "lock", Command: "true", CommandTopic: "homeassistant/button/lock/set"}},
	}
	assert.NoError(t, c.Validate())
}

package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ha-host-bridge/config"
	"ha-host-bridge/internal/logger"
)

func setupTestLoader(t *testing.T) (*Loader, string) {
	t.Helper()

	log, err := logger.NewLogger(&config.LogConfig{
		Level:      "error",
		OutputPath: "stdout",
		Encoding:   "console",
	})
	require.NoError(t, err)

	return NewLoader(log), t.TempDir()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const buttonsJSON = `{
  "buttons": [
    {
      "name": "lock_screen",
      "friendly_name": "Lock Screen",
      "icon": "mdi:lock",
      "instance": "lenovo-legion7",
      "command": "loginctl lock-session",
      "command_topic": "homeassistant/button/lock_screen/set",
      "payload_press": "PRESS"
    }
  ]
}`

const scenesYAML = `
scenes:
  - name: dim_screen
    friendly_name: Dim Screen
    icon: mdi:brightness-4
    command: brightnessctl -d intel_backlight set 1
  - name: wake_screens
    friendly_name: Wake Screens
    command: xset dpms force on
    instance: desktop
`

const lightsYAML = `
lights:
  - name: lenovo-legion7_rgb_light
    friendly_name: Lenovo Legion 7 RGB Lights
    kind: rgb
    icon: mdi:led-strip
    instance: lenovo-legion7
    command: legion7-rgb -l ${hex} -v ${hex} -n ${hex} -k ${hex}
    command_topic: homeassistant/light/rgb_light/set
    state_topic: homeassistant/light/rgb_light/state
  - name: laptop_backlight
    friendly_name: Laptop Backlight
    kind: brightness
    command: brightnessctl -d intel_backlight set ${value}%
`

func TestLoadDirectory(t *testing.T) {
	loader, dir := setupTestLoader(t)

	writeFile(t, dir, "buttons.json", buttonsJSON)
	writeFile(t, dir, "scenes.yaml", scenesYAML)
	writeFile(t, dir, "nested/lights.yml", lightsYAML)
	writeFile(t, dir, "README.md", "not a catalog")

	c, err := loader.Load(dir)
	require.NoError(t, err)

	require.Len(t, c.Buttons, 1)
	assert.Equal(t, "lock_screen", c.Buttons[0].Name)
	assert.Equal(t, "lock_screen", c.Buttons[0].UniqueID)

	require.Len(t, c.Scenes, 2)
	assert.Equal(t, "dim_screen", c.Scenes[0].Name)
	assert.Equal(t, "desktop", c.Scenes[1].Instance)

	require.Len(t, c.Lights, 2)
	rgb := c.Lights[0]
	assert.Equal(t, "homeassistant/light/rgb_light/set", rgb.CommandTopic)
	assert.Equal(t, DefaultColor, *rgb.DefaultColor)
	assert.Equal(t, "homeassistant/light/laptop_backlight/state", c.Lights[1].StateTopic)
	assert.Equal(t, 30, c.Lights[1].DefaultBrightness)
}

func TestLoadSingleFile(t *testing.T) {
	loader, dir := setupTestLoader(t)
	path := writeFile(t, dir, "buttons.json", buttonsJSON)

	c, err := loader.Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Buttons, 1)
	assert.Empty(t, c.Scenes)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing path", func(t *testing.T) {
		loader, dir := setupTestLoader(t)
		_, err := loader.Load(filepath.Join(dir, "absent"))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		loader, dir := setupTestLoader(t)
		writeFile(t, dir, "bad.json", `{"scenes": [`)
		_, err := loader.Load(dir)
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		loader, dir := setupTestLoader(t)
		writeFile(t, dir, "bad.yaml", "scenes:\n  - name: [unterminated\n")
		_, err := loader.Load(dir)
		assert.Error(t, err)
	})

	t.Run("duplicate across files", func(t *testing.T) {
		loader, dir := setupTestLoader(t)
		writeFile(t, dir, "a.yaml", scenesYAML)
		writeFile(t, dir, "b.yaml", scenesYAML)
		_, err := loader.Load(dir)

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "scenes[2].name", vErr.Field)
	})
}

func TestLoadShippedCatalog(t *testing.T) {
	loader, _ := setupTestLoader(t)

	c, err := loader.Load(filepath.Join("..", "..", "catalog"))
	require.NoError(t, err)
	assert.NotEmpty(t, c.Scenes)
	assert.NotEmpty(t, c.Lights)
	assert.NotEmpty(t, c.Buttons)
}

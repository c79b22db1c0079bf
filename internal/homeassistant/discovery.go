package homeassistant

import (
	"ha-host-bridge/internal/catalog"
)

const platformMQTT = "mqtt"

// SceneDiscovery is the retained announcement for one scene.
type SceneDiscovery struct {
	Platform     string `json:"platform"`
	Name         string `json:"name"`
	FriendlyName string `json:"friendly_name"`
	Icon         string `json:"icon,omitempty"`
	CommandTopic string `json:"command_topic"`
	PayloadOn    string `json:"payload_on"`
	UniqueID     string `json:"unique_id"`
	ObjectID     string `json:"object_id"`
}

func NewSceneDiscovery(s catalog.Scene) SceneDiscovery {
	return SceneDiscovery{
		Platform:     platformMQTT,
		Name:         s.Name,
		FriendlyName: s.FriendlyName,
		Icon:         s.Icon,
		CommandTopic: SceneCommandTopic,
		PayloadOn:    s.Name,
		UniqueID:     "scene_" + s.Name,
		ObjectID:     s.Name,
	}
}

// RGBLightDiscovery announces a light driven by comma-separated RGB payloads.
type RGBLightDiscovery struct {
	Platform            string   `json:"platform"`
	Name                string   `json:"name"`
	FriendlyName        string   `json:"friendly_name"`
	CommandTopic        string   `json:"command_topic"`
	StateTopic          string   `json:"state_topic"`
	UniqueID            string   `json:"unique_id"`
	ObjectID            string   `json:"object_id"`
	Icon                string   `json:"icon,omitempty"`
	ColorMode           string   `json:"color_mode"`
	SupportedColorModes []string `json:"supported_color_modes"`
	Brightness          bool     `json:"brightness"`
	BrightnessScale     int      `json:"brightness_scale"`
	RGB                 bool     `json:"rgb"`
	RGBCommandTopic     string   `json:"rgb_command_topic"`
	StateValueTemplate  string   `json:"state_value_template"`
	ColorValueTemplate  string   `json:"color_value_template"`
}

func NewRGBLightDiscovery(l catalog.Light) RGBLightDiscovery {
	return RGBLightDiscovery{
		Platform:            platformMQTT,
		Name:                l.Name,
		FriendlyName:        l.FriendlyName,
		CommandTopic:        l.CommandTopic,
		StateTopic:          l.StateTopic,
		UniqueID:            l.UniqueID,
		ObjectID:            l.ObjectID,
		Icon:                l.Icon,
		ColorMode:           catalog.LightKindRGB,
		SupportedColorModes: []string{catalog.LightKindRGB},
		Brightness:          false,
		BrightnessScale:     255,
		RGB:                 true,
		RGBCommandTopic:     l.CommandTopic,
		StateValueTemplate:  "{{ value_json.state }}",
		ColorValueTemplate:  "{{ value_json.color | tojson }}",
	}
}

// BrightnessLightDiscovery announces a dimmable light on the 0-255 scale.
type BrightnessLightDiscovery struct {
	Platform                string   `json:"platform"`
	Name                    string   `json:"name"`
	FriendlyName            string   `json:"friendly_name"`
	CommandTopic            string   `json:"command_topic"`
	StateTopic              string   `json:"state_topic"`
	UniqueID                string   `json:"unique_id"`
	ObjectID                string   `json:"object_id"`
	Icon                    string   `json:"icon,omitempty"`
	Brightness              bool     `json:"brightness"`
	BrightnessScale         int      `json:"brightness_scale"`
	StateValueTemplate      string   `json:"state_value_template"`
	BrightnessValueTemplate string   `json:"brightness_value_template"`
	BrightnessCommandTopic  string   `json:"brightness_command_topic"`
	PayloadOn               string   `json:"payload_on"`
	PayloadOff              string   `json:"payload_off"`
	StateClass              string   `json:"state_class"`
	SupportedFeatures       int      `json:"supported_features"`
	MinMireds               int      `json:"min_mireds"`
	MaxMireds               int      `json:"max_mireds"`
	ColorMode               string   `json:"color_mode"`
	SupportedColorModes     []string `json:"supported_color_modes"`
}

func NewBrightnessLightDiscovery(l catalog.Light) BrightnessLightDiscovery {
	return BrightnessLightDiscovery{
		Platform:                platformMQTT,
		Name:                    l.Name,
		FriendlyName:            l.FriendlyName,
		CommandTopic:            l.CommandTopic,
		StateTopic:              l.StateTopic,
		UniqueID:                l.UniqueID,
		ObjectID:                l.ObjectID,
		Icon:                    l.Icon,
		Brightness:              true,
		BrightnessScale:         255,
		StateValueTemplate:      "{{ value_json.state }}",
		BrightnessValueTemplate: "{{ value_json.brightness }}",
		BrightnessCommandTopic:  l.CommandTopic,
		PayloadOn:               PayloadOn,
		PayloadOff:              PayloadOff,
		StateClass:              "measurement",
		SupportedFeatures:       1,
		MinMireds:               0,
		MaxMireds:               0,
		ColorMode:               catalog.LightKindBrightness,
		SupportedColorModes:     []string{catalog.LightKindBrightness},
	}
}

// ButtonDiscovery is the retained announcement for one button.
type ButtonDiscovery struct {
	Platform     string `json:"platform"`
	Name         string `json:"name"`
	FriendlyName string `json:"friendly_name"`
	UniqueID     string `json:"unique_id"`
	ObjectID     string `json:"object_id"`
	Icon         string `json:"icon,omitempty"`
	CommandTopic string `json:"command_topic"`
	PayloadPress string `json:"payload_press"`
	Retain       bool   `json:"retain"`
}

func NewButtonDiscovery(b catalog.Button) ButtonDiscovery {
	return ButtonDiscovery{
		Platform:     platformMQTT,
		Name:         b.Name,
		FriendlyName: b.FriendlyName,
		UniqueID:     b.UniqueID,
		ObjectID:     b.ObjectID,
		Icon:         b.Icon,
		CommandTopic: b.CommandTopic,
		PayloadPress: b.PayloadPress,
		Retain:       true,
	}
}

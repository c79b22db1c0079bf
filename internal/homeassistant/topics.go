package homeassistant

import "fmt"

// SceneCommandTopic is shared by every scene; the payload names the scene.
const SceneCommandTopic = "homeassistant/scene_executor/set"

func SceneConfigTopic(name string) string {
	return fmt.Sprintf("homeassistant/scene/%s/config", name)
}

func LightConfigTopic(name string) string {
	return fmt.Sprintf("homeassistant/light/%s/config", name)
}

func ButtonConfigTopic(name string) string {
	return fmt.Sprintf("homeassistant/button/%s/config", name)
}

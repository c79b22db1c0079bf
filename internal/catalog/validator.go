package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"ha-host-bridge/internal/executor"
)

// validNamePattern restricts entity names to a single topic segment.
var validNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Validate checks every descriptor and reports the first problem found.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool)
	for i, s := range c.Scenes {
		field := fmt.Sprintf("scenes[%d]", i)
		if err := validateName(field, s.Name, seen); err != nil {
			return err
		}
		if strings.TrimSpace(s.Command) == "" {
			return &ValidationError{Field: field + ".command", Message: "command cannot be empty"}
		}
	}

	seen = make(map[string]bool)
	for i, l := range c.Lights {
		if err := validateLight(fmt.Sprintf("lights[%d]", i), &l, seen); err != nil {
			return err
		}
	}

	seen = make(map[string]bool)
	for i, b := range c.Buttons {
		field := fmt.Sprintf("buttons[%d]", i)
		if err := validateName(field, b.Name, seen); err != nil {
			return err
		}
		if strings.TrimSpace(b.Command) == "" {
			return &ValidationError{Field: field + ".command", Message: "command cannot be empty"}
		}
		if err := validateCommandTopic(field+".command_topic", b.CommandTopic); err != nil {
			return err
		}
	}

	return nil
}

func validateName(field, name string, seen map[string]bool) error {
	if name == "" {
		return &ValidationError{Field: field + ".name", Message: "name cannot be empty"}
	}
	if !validNamePattern.MatchString(name) {
		return &ValidationError{Field: field + ".name", Message: fmt.Sprintf("invalid name %q: use letters, digits, '_' or '-'", name)}
	}
	if seen[name] {
		return &ValidationError{Field: field + ".name", Message: fmt.Sprintf("duplicate name %q", name)}
	}
	seen[name] = true
	return nil
}

func validateLight(field string, l *Light, seen map[string]bool) error {
	if err := validateName(field, l.Name, seen); err != nil {
		return err
	}
	if strings.TrimSpace(l.Command) == "" {
		return &ValidationError{Field: field + ".command", Message: "command cannot be empty"}
	}
	if err := validateCommandTopic(field+".command_topic", l.CommandTopic); err != nil {
		return err
	}
	if err := validateCommandTopic(field+".state_topic", l.StateTopic); err != nil {
		return err
	}

	vars := executor.Placeholders(l.Command)
	switch l.Kind {
	case LightKindRGB:
		if !containsAny(vars, "hex", "r", "g", "b") {
			return &ValidationError{Field: field + ".command", Message: "rgb light command must reference ${hex} or ${r}/${g}/${b}"}
		}
		if c := l.DefaultColor; c != nil {
			for _, ch := range []int{c.R, c.G, c.B} {
				if ch < 0 || ch > 255 {
					return &ValidationError{Field: field + ".default_color", Message: "channels must be within 0-255"}
				}
			}
		}
	case LightKindBrightness:
		if !containsAny(vars, "value") {
			return &ValidationError{Field: field + ".command", Message: "brightness light command must reference ${value}"}
		}
		if l.DefaultBrightness < 0 || l.DefaultBrightness > 100 {
			return &ValidationError{Field: field + ".default_brightness", Message: "must be a percentage within 0-100"}
		}
	default:
		return &ValidationError{Field: field + ".kind", Message: fmt.Sprintf("unknown light kind %q", l.Kind)}
	}
	return nil
}

// validateCommandTopic rejects wildcards; dispatch is exact-match.
func validateCommandTopic(field, topic string) error {
	if topic == "" {
		return &ValidationError{Field: field, Message: "topic cannot be empty"}
	}
	if strings.ContainsAny(topic, "+#") {
		return &ValidationError{Field: field, Message: "wildcards are not allowed"}
	}
	return nil
}

func containsAny(vars []string, names ...string) bool {
	for _, v := range vars {
		for _, n := range names {
			if v == n {
				return true
			}
		}
	}
	return false
}

package executor

import (
	"regexp"
)

var placeholderPattern = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Render substitutes ${name} placeholders in tmpl with values from vars.
// Placeholders without a value are left untouched.
func Render(tmpl string, vars map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(placeholder string) string {
		name := placeholderPattern.FindStringSubmatch(placeholder)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		return placeholder
	})
}

// Placeholders lists the distinct variable names referenced by tmpl in
// order of first appearance.
func Placeholders(tmpl string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, match := range placeholderPattern.FindAllStringSubmatch(tmpl, -1) {
		if !seen[match[1]] {
			seen[match[1]] = true
			names = append(names, match[1])
		}
	}
	return names
}

package driver

import (
	"golang.org/x/text/cases"
)

// suggestName returns a visible name that differs from name only by case.
func suggestName(name string, visible []string) (string, bool) {
	fold := cases.Fold()
	want := fold.String(name)
	for _, candidate := range visible {
		if candidate == name {
			continue
		}
		if fold.String(candidate) == want {
			return candidate, true
		}
	}
	return "", false
}

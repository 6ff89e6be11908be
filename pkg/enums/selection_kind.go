package enums

import "fmt"

// SelectionKind describes how options within a customization group are chosen.
type SelectionKind string

const (
	SelectionKindSingle SelectionKind = "single"
	SelectionKindMulti  SelectionKind = "multi"
	SelectionKindText   SelectionKind = "text"
)

var validSelectionKinds = []SelectionKind{
	SelectionKindSingle,
	SelectionKindMulti,
	SelectionKindText,
}

// String implements fmt.Stringer.
func (k SelectionKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known SelectionKind.
func (k SelectionKind) IsValid() bool {
	for _, candidate := range validSelectionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseSelectionKind converts raw input into a SelectionKind.
func ParseSelectionKind(value string) (SelectionKind, error) {
	for _, candidate := range validSelectionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid selection kind %q", value)
}

package domain

import "strings"

// AddonKind is the control an add-on renders as
type AddonKind string

const (
	AddonKindCheckbox AddonKind = "checkbox"
	AddonKindDropdown AddonKind = "dropdown"
)

// IsValid checks if the add-on kind is known
func (k AddonKind) IsValid() bool {
	switch k {
	case AddonKindCheckbox, AddonKindDropdown:
		return true
	default:
		return false
	}
}

// ParseAddonKind accepts any casing ("Checkbox", "DROPDOWN") and normalizes it
func ParseAddonKind(s string) (AddonKind, bool) {
	k := AddonKind(strings.ToLower(strings.TrimSpace(s)))
	return k, k.IsValid()
}

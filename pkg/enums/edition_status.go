package enums

import "fmt"

// EditionStatus tracks the catalog state of a print or digital edition.
type EditionStatus string

const (
	EditionStatusDraft     EditionStatus = "draft"
	EditionStatusPublished EditionStatus = "published"
	EditionStatusWithdrawn EditionStatus = "withdrawn"
)

var validEditionStatuses = []EditionStatus{
	EditionStatusDraft,
	EditionStatusPublished,
	EditionStatusWithdrawn,
}

// String implements fmt.Stringer.
func (s EditionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known EditionStatus.
func (s EditionStatus) IsValid() bool {
	for _, candidate := range validEditionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Purchasable reports whether units of the edition can be sold.
func (s EditionStatus) Purchasable() bool {
	return s == EditionStatusPublished
}

// ParseEditionStatus converts raw input into an EditionStatus.
func ParseEditionStatus(value string) (EditionStatus, error) {
	for _, candidate := range validEditionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid edition status %q", value)
}

package enums

import "fmt"

// ItemKind distinguishes the three sellable catalog variants.
type ItemKind string

const (
	ItemKindUnique       ItemKind = "unique"
	ItemKindLimitedPrint ItemKind = "limited_print"
	ItemKindDigital      ItemKind = "digital"
)

var validItemKinds = []ItemKind{
	ItemKindUnique,
	ItemKindLimitedPrint,
	ItemKindDigital,
}

// String implements fmt.Stringer.
func (k ItemKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known ItemKind.
func (k ItemKind) IsValid() bool {
	for _, candidate := range validItemKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// Physical reports whether items of this kind require shipping.
func (k ItemKind) Physical() bool {
	return k == ItemKindUnique || k == ItemKindLimitedPrint
}

// ParseItemKind converts raw input into an ItemKind.
func ParseItemKind(value string) (ItemKind, error) {
	for _, candidate := range validItemKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item kind %q", value)
}

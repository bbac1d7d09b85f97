package enums

import "fmt"

// ValidationCategory tags a checkout validation failure so the storefront can
// distinguish "just reserved" from "out of stock".
type ValidationCategory string

const (
	ValidationItemReserved ValidationCategory = "item_reserved"
	ValidationOutOfStock   ValidationCategory = "out_of_stock"
	ValidationItemInvalid  ValidationCategory = "item_invalid"
)

var validValidationCategories = []ValidationCategory{
	ValidationItemReserved,
	ValidationOutOfStock,
	ValidationItemInvalid,
}

// String implements fmt.Stringer.
func (c ValidationCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ValidationCategory.
func (c ValidationCategory) IsValid() bool {
	for _, candidate := range validValidationCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseValidationCategory converts raw input into a ValidationCategory.
func ParseValidationCategory(value string) (ValidationCategory, error) {
	for _, candidate := range validValidationCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid validation category %q", value)
}

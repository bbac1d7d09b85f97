package enums

import "fmt"

// ArtworkStatus tracks the catalog state of a one-of-a-kind piece.
type ArtworkStatus string

const (
	ArtworkStatusDraft     ArtworkStatus = "draft"
	ArtworkStatusPublished ArtworkStatus = "published"
	ArtworkStatusWithdrawn ArtworkStatus = "withdrawn"
	ArtworkStatusSold      ArtworkStatus = "sold"
)

var validArtworkStatuses = []ArtworkStatus{
	ArtworkStatusDraft,
	ArtworkStatusPublished,
	ArtworkStatusWithdrawn,
	ArtworkStatusSold,
}

// String implements fmt.Stringer.
func (s ArtworkStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ArtworkStatus.
func (s ArtworkStatus) IsValid() bool {
	for _, candidate := range validArtworkStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Purchasable reports whether the piece can be added to a new order.
func (s ArtworkStatus) Purchasable() bool {
	return s == ArtworkStatusPublished
}

// ParseArtworkStatus converts raw input into an ArtworkStatus.
func ParseArtworkStatus(value string) (ArtworkStatus, error) {
	for _, candidate := range validArtworkStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid artwork status %q", value)
}

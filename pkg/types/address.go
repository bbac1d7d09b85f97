package types

import "strings"

// Address is stored as jsonb on orders; Country is an ISO 3166-1 alpha-2
// code and drives tax destination resolution.
type Address struct {
	Name       string  `json:"name,omitempty"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
}

// CountryCode returns the normalized country code or "" when unset.
func (a *Address) CountryCode() string {
	if a == nil {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(a.Country))
}

// Complete reports whether the address carries enough detail to ship to.
func (a *Address) Complete() bool {
	if a == nil {
		return false
	}
	return strings.TrimSpace(a.Line1) != "" &&
		strings.TrimSpace(a.City) != "" &&
		strings.TrimSpace(a.PostalCode) != "" &&
		a.CountryCode() != ""
}

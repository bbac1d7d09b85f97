package enums

import "fmt"

// TaxTreatment classifies how VAT applies to an order.
type TaxTreatment string

const (
	TaxTreatmentStandard      TaxTreatment = "standard"
	TaxTreatmentReverseCharge TaxTreatment = "reverse_charge"
	TaxTreatmentOutOfScope    TaxTreatment = "out_of_scope"
)

var validTaxTreatments = []TaxTreatment{
	TaxTreatmentStandard,
	TaxTreatmentReverseCharge,
	TaxTreatmentOutOfScope,
}

// String implements fmt.Stringer.
func (t TaxTreatment) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TaxTreatment.
func (t TaxTreatment) IsValid() bool {
	for _, candidate := range validTaxTreatments {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTaxTreatment converts raw input into a TaxTreatment.
func ParseTaxTreatment(value string) (TaxTreatment, error) {
	for _, candidate := range validTaxTreatments {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tax treatment %q", value)
}

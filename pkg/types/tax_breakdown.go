package types

import "github.com/atelierline/artmarket-backend/pkg/enums"

// TaxLine is the per-line share of the order's tax.
type TaxLine struct {
	OrderItemRef  string `json:"order_item_ref"`
	SubtotalCents int64  `json:"subtotal_cents"`
	RateBps       int64  `json:"rate_bps"`
	TaxCents      int64  `json:"tax_cents"`
}

// TaxBreakdown is persisted on the order and echoed to the storefront.
// TotalCents is always the sum of line taxes, never a re-rounding of the
// order subtotal.
type TaxBreakdown struct {
	Treatment          enums.TaxTreatment `json:"treatment"`
	DestinationCountry string             `json:"destination_country"`
	RateBps            int64              `json:"rate_bps"`
	Lines              []TaxLine          `json:"lines,omitempty"`
	TotalCents         int64              `json:"total_cents"`
	Citation           string             `json:"citation,omitempty"`
}

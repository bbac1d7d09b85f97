package enums

import "fmt"

// RefundKind distinguishes buyer-initiated refunds from card disputes.
type RefundKind string

const (
	RefundKindRefund  RefundKind = "refund"
	RefundKindDispute RefundKind = "dispute"
)

var validRefundKinds = []RefundKind{
	RefundKindRefund,
	RefundKindDispute,
}

// String implements fmt.Stringer.
func (k RefundKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known RefundKind.
func (k RefundKind) IsValid() bool {
	for _, candidate := range validRefundKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseRefundKind converts raw input into a RefundKind.
func ParseRefundKind(value string) (RefundKind, error) {
	for _, candidate := range validRefundKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid refund kind %q", value)
}

package payouts

import "github.com/shopspring/decimal"

// Share is the artist's net amount for one order item: the item subtotal
// less the platform fee, floored so the platform absorbs the rounding
// remainder and the sum of shares never exceeds the fee-adjusted subtotal.
func Share(subtotalCents, platformFeeBps int64) int64 {
	if subtotalCents <= 0 {
		return 0
	}
	keepBps := int64(10000) - platformFeeBps
	if keepBps <= 0 {
		return 0
	}
	return decimal.NewFromInt(subtotalCents).
		Mul(decimal.NewFromInt(keepBps)).
		Div(decimal.NewFromInt(10000)).
		Floor().
		IntPart()
}

// ComputeReversal is the single proportional-reversal rule shared by refunds
// and disputes: the slice of an item's payout matching the refunded fraction
// of the original charge, rounded half-up.
func ComputeReversal(itemShareCents, refundCents, chargeCents int64) int64 {
	if itemShareCents <= 0 || refundCents <= 0 || chargeCents <= 0 {
		return 0
	}
	if refundCents >= chargeCents {
		return itemShareCents
	}
	return decimal.NewFromInt(itemShareCents).
		Mul(decimal.NewFromInt(refundCents)).
		Div(decimal.NewFromInt(chargeCents)).
		Round(0).
		IntPart()
}

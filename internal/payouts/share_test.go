package payouts

import "testing"

func TestShare(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		subtotal int64
		feeBps   int64
		want     int64
	}{
		{name: "unique piece at 30 percent fee", subtotal: 250000, feeBps: 3000, want: 175000},
		{name: "floors the artist share", subtotal: 9999, feeBps: 3000, want: 6999},
		{name: "zero subtotal", subtotal: 0, feeBps: 3000, want: 0},
		{name: "negative subtotal", subtotal: -100, feeBps: 3000, want: 0},
		{name: "fee consumes everything", subtotal: 1000, feeBps: 10000, want: 0},
		{name: "no fee", subtotal: 1234, feeBps: 0, want: 1234},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Share(tc.subtotal, tc.feeBps); got != tc.want {
				t.Fatalf("Share(%d, %d) = %d, want %d", tc.subtotal, tc.feeBps, got, tc.want)
			}
		})
	}
}

func TestComputeReversal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		share  int64
		refund int64
		charge int64
		want   int64
	}{
		{name: "full refund reverses full share", share: 175000, refund: 250000, charge: 250000, want: 175000},
		{name: "refund above charge still capped at share", share: 175000, refund: 300000, charge: 250000, want: 175000},
		{name: "proportional slice", share: 175000, refund: 100000, charge: 250000, want: 70000},
		{name: "rounds half up", share: 100, refund: 1, charge: 3, want: 33},
		{name: "rounds up past half", share: 100, refund: 2, charge: 3, want: 67},
		{name: "zero refund", share: 175000, refund: 0, charge: 250000, want: 0},
		{name: "zero share", share: 0, refund: 100, charge: 250000, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ComputeReversal(tc.share, tc.refund, tc.charge); got != tc.want {
				t.Fatalf("ComputeReversal(%d, %d, %d) = %d, want %d", tc.share, tc.refund, tc.charge, got, tc.want)
			}
		})
	}
}

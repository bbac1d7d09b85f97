package tax

import (
	"context"
	"fmt"
	"testing"

	"github.com/atelierline/artmarket-backend/pkg/enums"
	"github.com/atelierline/artmarket-backend/pkg/logger"
)

type fakeValidator struct {
	valid bool
	err   error
	calls int
}

func (f *fakeValidator) Validate(ctx context.Context, country, taxID string) (bool, error) {
	f.calls++
	return f.valid, f.err
}

func newTestResolver(t *testing.T, validator *fakeValidator) *Resolver {
	t.Helper()
	r, err := NewResolver(ResolverParams{
		Validator:     validator,
		SellerCountry: "DE",
		Logger:        logger.New(logger.Options{ServiceName: "test"}),
	})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return r
}

func TestResolveOutOfScope(t *testing.T) {
	t.Parallel()

	validator := &fakeValidator{valid: true}
	r := newTestResolver(t, validator)

	// Out of scope wins even for a validated business buyer.
	breakdown, err := r.Resolve(context.Background(), Input{
		Lines:       []LineInput{{Ref: "line-1", SubtotalCents: 250000}},
		Destination: "US",
		Business:    &BusinessID{Country: "FR", ID: "FR123"},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if breakdown.Treatment != enums.TaxTreatmentOutOfScope {
		t.Fatalf("unexpected treatment: %s", breakdown.Treatment)
	}
	if breakdown.TotalCents != 0 || len(breakdown.Lines) != 0 {
		t.Fatalf("out of scope must carry no tax: %+v", breakdown)
	}
	if validator.calls != 0 {
		t.Fatalf("validator should not be consulted for out-of-scope destinations")
	}
}

func TestResolveReverseCharge(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, &fakeValidator{valid: true})

	breakdown, err := r.Resolve(context.Background(), Input{
		Lines:       []LineInput{{Ref: "line-1", SubtotalCents: 250000}},
		Destination: "FR",
		Business:    &BusinessID{Country: "FR", ID: "FR999"},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if breakdown.Treatment != enums.TaxTreatmentReverseCharge {
		t.Fatalf("unexpected treatment: %s", breakdown.Treatment)
	}
	if breakdown.TotalCents != 0 {
		t.Fatalf("reverse charge must collect no tax, got %d", breakdown.TotalCents)
	}
	if breakdown.Citation == "" {
		t.Fatal("reverse charge breakdown must cite the legal basis")
	}
}

func TestResolveReverseChargeRequiresCrossBorder(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, &fakeValidator{valid: true})

	// Seller country DE buying with a DE registration stays standard.
	breakdown, err := r.Resolve(context.Background(), Input{
		Lines:       []LineInput{{Ref: "line-1", SubtotalCents: 10000}},
		Destination: "DE",
		Business:    &BusinessID{Country: "DE", ID: "DE123"},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if breakdown.Treatment != enums.TaxTreatmentStandard {
		t.Fatalf("unexpected treatment: %s", breakdown.Treatment)
	}
}

func TestResolveStandardPerLineRounding(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, &fakeValidator{})

	// DE standard rate 19%: 3333 -> 633.27 -> 633, 6667 -> 1266.73 -> 1267.
	breakdown, err := r.Resolve(context.Background(), Input{
		Lines: []LineInput{
			{Ref: "line-1", SubtotalCents: 3333},
			{Ref: "line-2", SubtotalCents: 6667},
		},
		Destination: "DE",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if breakdown.Treatment != enums.TaxTreatmentStandard {
		t.Fatalf("unexpected treatment: %s", breakdown.Treatment)
	}
	if breakdown.RateBps != 1900 {
		t.Fatalf("unexpected rate: %d", breakdown.RateBps)
	}
	if len(breakdown.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(breakdown.Lines))
	}
	if breakdown.Lines[0].TaxCents != 633 || breakdown.Lines[1].TaxCents != 1267 {
		t.Fatalf("unexpected line taxes: %d, %d", breakdown.Lines[0].TaxCents, breakdown.Lines[1].TaxCents)
	}

	var sum int64
	for _, line := range breakdown.Lines {
		sum += line.TaxCents
	}
	if breakdown.TotalCents != sum {
		t.Fatalf("total %d must equal line sum %d", breakdown.TotalCents, sum)
	}
}

func TestResolveValidatorOutageFallsBackToStandard(t *testing.T) {
	t.Parallel()

	validator := &fakeValidator{err: fmt.Errorf("registry unreachable")}
	r := newTestResolver(t, validator)

	breakdown, err := r.Resolve(context.Background(), Input{
		Lines:       []LineInput{{Ref: "line-1", SubtotalCents: 250000}},
		Destination: "FR",
		Business:    &BusinessID{Country: "FR", ID: "FR999"},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if breakdown.Treatment != enums.TaxTreatmentStandard {
		t.Fatalf("expected standard fallback, got %s", breakdown.Treatment)
	}
	if breakdown.RateBps != 2000 {
		t.Fatalf("unexpected FR rate: %d", breakdown.RateBps)
	}
	if validator.calls != 1 {
		t.Fatalf("expected one validator call, got %d", validator.calls)
	}
}

func TestResolveRejectsEmptyInput(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, &fakeValidator{})

	if _, err := r.Resolve(context.Background(), Input{Destination: "DE"}); err == nil {
		t.Fatal("expected error without lines")
	}
	if _, err := r.Resolve(context.Background(), Input{
		Lines: []LineInput{{Ref: "line-1", SubtotalCents: 100}},
	}); err == nil {
		t.Fatal("expected error without destination")
	}
}

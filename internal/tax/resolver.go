package tax

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/atelierline/artmarket-backend/pkg/enums"
	pkgerrors "github.com/atelierline/artmarket-backend/pkg/errors"
	"github.com/atelierline/artmarket-backend/pkg/logger"
	"github.com/atelierline/artmarket-backend/pkg/types"
)

const reverseChargeCitation = "Reverse charge, Art. 196 Council Directive 2006/112/EC"

type idValidator interface {
	Validate(ctx context.Context, country, taxID string) (bool, error)
}

// LineInput is one order line's taxable base.
type LineInput struct {
	Ref           string
	SubtotalCents int64
}

// BusinessID is the buyer-supplied tax registration used for reverse charge.
type BusinessID struct {
	Country string
	ID      string
}

// Input carries everything destination resolution needs.
type Input struct {
	Lines       []LineInput
	Destination string
	Business    *BusinessID
}

// Resolver determines treatment and computes the per-line tax breakdown.
type Resolver struct {
	validator     idValidator
	sellerCountry string
	logg          *logger.Logger
}

// ResolverParams collects the resolver dependencies.
type ResolverParams struct {
	Validator     idValidator
	SellerCountry string
	Logger        *logger.Logger
}

// NewResolver builds the tax resolver.
func NewResolver(params ResolverParams) (*Resolver, error) {
	if params.Validator == nil {
		return nil, fmt.Errorf("tax id validator required")
	}
	params.SellerCountry = strings.ToUpper(strings.TrimSpace(params.SellerCountry))
	if params.SellerCountry == "" {
		return nil, fmt.Errorf("seller country required")
	}
	return &Resolver{
		validator:     params.Validator,
		sellerCountry: params.SellerCountry,
		logg:          params.Logger,
	}, nil
}

// Resolve applies the treatment rules in priority order: out of scope beats
// reverse charge beats the destination standard rate. The total is always
// the sum of line taxes so the breakdown never drifts from the order total.
func (r *Resolver) Resolve(ctx context.Context, input Input) (*types.TaxBreakdown, error) {
	destination := strings.ToUpper(strings.TrimSpace(input.Destination))
	if destination == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination country required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line required")
	}

	if !InJurisdiction(destination) {
		return &types.TaxBreakdown{
			Treatment:          enums.TaxTreatmentOutOfScope,
			DestinationCountry: destination,
		}, nil
	}

	if r.reverseChargeApplies(ctx, input.Business) {
		return &types.TaxBreakdown{
			Treatment:          enums.TaxTreatmentReverseCharge,
			DestinationCountry: destination,
			Citation:           reverseChargeCitation,
		}, nil
	}

	rateBps := StandardRateBps(destination)
	breakdown := &types.TaxBreakdown{
		Treatment:          enums.TaxTreatmentStandard,
		DestinationCountry: destination,
		RateBps:            rateBps,
	}
	for _, line := range input.Lines {
		taxCents := LineTaxCents(line.SubtotalCents, rateBps)
		breakdown.Lines = append(breakdown.Lines, types.TaxLine{
			OrderItemRef:  line.Ref,
			SubtotalCents: line.SubtotalCents,
			RateBps:       rateBps,
			TaxCents:      taxCents,
		})
		breakdown.TotalCents += taxCents
	}
	return breakdown, nil
}

// reverseChargeApplies checks for a validated cross-border business buyer.
// Validator outages degrade to the standard rate rather than blocking
// checkout; over-collecting is correctable, under-collecting is not.
func (r *Resolver) reverseChargeApplies(ctx context.Context, business *BusinessID) bool {
	if business == nil {
		return false
	}
	country := strings.ToUpper(strings.TrimSpace(business.Country))
	taxID := strings.TrimSpace(business.ID)
	if country == "" || taxID == "" {
		return false
	}
	if country == r.sellerCountry {
		return false
	}
	if !InJurisdiction(country) {
		return false
	}

	valid, err := r.validator.Validate(ctx, country, taxID)
	if err != nil {
		if r.logg != nil {
			ctx = r.logg.WithFields(ctx, map[string]any{"tax_country": country})
			r.logg.Warn(ctx, "tax id validation unavailable, applying standard rate")
		}
		return false
	}
	return valid
}

// LineTaxCents computes round-half-up tax for one line at the given rate.
func LineTaxCents(subtotalCents, rateBps int64) int64 {
	return decimal.NewFromInt(subtotalCents).
		Mul(decimal.NewFromInt(rateBps)).
		Div(decimal.NewFromInt(10000)).
		Round(0).
		IntPart()
}

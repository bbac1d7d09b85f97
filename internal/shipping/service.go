package shipping

import (
	"context"
	"fmt"

	"github.com/atelierline/artmarket-backend/pkg/enums"
	"github.com/atelierline/artmarket-backend/pkg/logger"
	"github.com/atelierline/artmarket-backend/pkg/types"
)

// Cost is the settled shipping decision for one order.
type Cost struct {
	Method      enums.ShippingMethod
	ServiceName string
	AmountCents int64
}

// Service decides shipping cost per order. Quote failures never abort a
// checkout; the flat rate is the deterministic floor under every path.
type Service struct {
	quoter        Quoter
	flatRateCents int64
	logg          *logger.Logger
}

// ServiceParams collects the service dependencies. Quoter may be nil when
// no carrier integration is configured; everything then ships at flat rate.
type ServiceParams struct {
	Quoter        Quoter
	FlatRateCents int64
	Logger        *logger.Logger
}

// NewService builds the shipping service.
func NewService(params ServiceParams) (*Service, error) {
	if params.FlatRateCents < 0 {
		return nil, fmt.Errorf("flat rate must be non-negative")
	}
	return &Service{
		quoter:        params.Quoter,
		flatRateCents: params.FlatRateCents,
		logg:          params.Logger,
	}, nil
}

// Compute returns the shipping cost for the cart composition. Digital-only
// orders ship nothing; print-only orders use the flat rate; orders carrying
// unique physical pieces are quoted, trying the buyer's requested method
// first, then STANDARD, then EXPRESS, then falling back to the flat rate.
func (s *Service) Compute(ctx context.Context, items []QuoteItem, shipTo *types.Address, hasUnique bool, preferred enums.ShippingMethod) Cost {
	if len(items) == 0 {
		return Cost{Method: enums.ShippingMethodFlat, AmountCents: 0}
	}
	if preferred == enums.ShippingMethodFlat {
		return s.flat()
	}
	if !hasUnique || s.quoter == nil || shipTo == nil || !shipTo.Complete() {
		return s.flat()
	}

	resp, err := s.quoter.Quote(ctx, QuoteRequest{
		Items:     items,
		ShipTo:    *shipTo,
		Preferred: preferredOrStandard(preferred),
	})
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "shipping quote failed, falling back to flat rate")
		}
		return s.flat()
	}

	for _, method := range methodChain(preferred) {
		if option, ok := pickOption(resp.Options, method); ok {
			return Cost{
				Method:      option.Method,
				ServiceName: option.ServiceName,
				AmountCents: option.AmountCents,
			}
		}
	}
	return s.flat()
}

func preferredOrStandard(preferred enums.ShippingMethod) enums.ShippingMethod {
	if preferred == enums.ShippingMethodExpress {
		return enums.ShippingMethodExpress
	}
	return enums.ShippingMethodStandard
}

// methodChain orders the carrier options by buyer preference. An absent or
// unknown preference keeps the default STANDARD then EXPRESS order.
func methodChain(preferred enums.ShippingMethod) []enums.ShippingMethod {
	if preferred == enums.ShippingMethodExpress {
		return []enums.ShippingMethod{enums.ShippingMethodExpress, enums.ShippingMethodStandard}
	}
	return []enums.ShippingMethod{enums.ShippingMethodStandard, enums.ShippingMethodExpress}
}

func (s *Service) flat() Cost {
	return Cost{Method: enums.ShippingMethodFlat, AmountCents: s.flatRateCents}
}

func pickOption(options []QuoteOption, method enums.ShippingMethod) (QuoteOption, bool) {
	for _, option := range options {
		if option.Method == method && option.AmountCents >= 0 {
			return option, true
		}
	}
	return QuoteOption{}, false
}

package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierline/artmarket-backend/internal/cart"
	"github.com/atelierline/artmarket-backend/internal/gateway"
	"github.com/atelierline/artmarket-backend/internal/orders"
	"github.com/atelierline/artmarket-backend/internal/pricing"
	"github.com/atelierline/artmarket-backend/internal/shipping"
	"github.com/atelierline/artmarket-backend/internal/tax"
	"github.com/atelierline/artmarket-backend/pkg/db/models"
	"github.com/atelierline/artmarket-backend/pkg/enums"
	pkgerrors "github.com/atelierline/artmarket-backend/pkg/errors"
	"github.com/atelierline/artmarket-backend/pkg/logger"
	"github.com/atelierline/artmarket-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartPricer interface {
	Resolve(ctx context.Context, record *models.CartRecord) (*pricing.Result, error)
}

type holdManager interface {
	Acquire(ctx context.Context, tx *gorm.DB, artworkID, orderID uuid.UUID, ttl time.Duration) error
	Release(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
}

type taxResolver interface {
	Resolve(ctx context.Context, input tax.Input) (*types.TaxBreakdown, error)
}

type shippingComputer interface {
	Compute(ctx context.Context, items []shipping.QuoteItem, shipTo *types.Address, hasUnique bool, preferred enums.ShippingMethod) shipping.Cost
}

// Service orchestrates intent creation and cancellation.
type Service interface {
	CreateIntent(ctx context.Context, input CreateIntentInput) (*IntentResult, error)
	CancelIntent(ctx context.Context, buyerID string, orderID uuid.UUID) error
}

// CreateIntentInput is the validated request for a new payment intent.
// PreferredMethod may be empty; the shipping service then picks the default
// chain.
type CreateIntentInput struct {
	BuyerID         string
	Email           string
	CartID          uuid.UUID
	ShippingAddress *types.Address
	BillingAddress  *types.Address
	Business        *tax.BusinessID
	PreferredMethod enums.ShippingMethod
}

// IntentResult is returned to the storefront to drive payment confirmation.
type IntentResult struct {
	OrderID      uuid.UUID
	ClientSecret string
	TaxBreakdown *types.TaxBreakdown
	TotalCents   int64
}

// ServiceParams collects the orchestration dependencies.
type ServiceParams struct {
	TxRunner txRunner
	CartRepo cart.Repository
	Orders   orders.Repository
	Pricer   cartPricer
	Holds    holdManager
	Tax      taxResolver
	Shipping shippingComputer
	Gateway  gateway.Client
	HoldTTL  time.Duration
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	tx       txRunner
	cartRepo cart.Repository
	orders   orders.Repository
	pricer   cartPricer
	holds    holdManager
	tax      taxResolver
	shipping shippingComputer
	gateway  gateway.Client
	holdTTL  time.Duration
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Pricer == nil {
		return nil, fmt.Errorf("pricing resolver required")
	}
	if params.Holds == nil {
		return nil, fmt.Errorf("hold manager required")
	}
	if params.Tax == nil {
		return nil, fmt.Errorf("tax resolver required")
	}
	if params.Shipping == nil {
		return nil, fmt.Errorf("shipping service required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	if params.HoldTTL <= 0 {
		return nil, fmt.Errorf("hold ttl must be positive")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		tx:       params.TxRunner,
		cartRepo: params.CartRepo,
		orders:   params.Orders,
		pricer:   params.Pricer,
		holds:    params.Holds,
		tax:      params.Tax,
		shipping: params.Shipping,
		gateway:  params.Gateway,
		holdTTL:  params.HoldTTL,
		logg:     params.Logger,
		now:      params.Now,
	}, nil
}

// CreateIntent runs the full checkout sequence: re-price, quote shipping,
// resolve tax, persist the ledger, claim unique pieces, and open the
// provider transaction. Everything after the external quotes happens in one
// transaction, so a lost hold race or gateway failure leaves no order
// behind.
func (s *service) CreateIntent(ctx context.Context, input CreateIntentInput) (*IntentResult, error) {
	if input.BuyerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer identity required")
	}
	if input.CartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id required")
	}
	if input.PreferredMethod != "" && !input.PreferredMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping method")
	}

	record, err := s.cartRepo.FindByIDAndOwner(ctx, input.CartID, input.BuyerID)
	if err != nil {
		return nil, err
	}
	if record.Status != enums.CartStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart already processed")
	}

	priced, err := s.pricer.Resolve(ctx, record)
	if err != nil {
		return nil, err
	}

	if priced.HasPhysicalGoods && !input.ShippingAddress.Complete() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "complete shipping address required for physical items")
	}

	cost := s.shipping.Compute(ctx, quoteItems(priced), input.ShippingAddress, priced.HasUniqueItems, input.PreferredMethod)

	breakdown, err := s.tax.Resolve(ctx, tax.Input{
		Lines:       taxLines(priced),
		Destination: taxDestination(priced, input),
		Business:    input.Business,
	})
	if err != nil {
		return nil, err
	}

	order := s.assembleOrder(record, priced, cost, breakdown, input)

	var result *IntentResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		cartRepo := s.cartRepo.WithTx(tx)

		if err := ordersRepo.Create(ctx, order); err != nil {
			return err
		}

		for _, line := range priced.Lines {
			if line.Kind != enums.ItemKindUnique || line.ArtworkID == nil {
				continue
			}
			if err := s.holds.Acquire(ctx, tx, *line.ArtworkID, order.ID, s.holdTTL); err != nil {
				return err
			}
		}

		if err := cartRepo.UpdateStatus(ctx, record.ID, input.BuyerID, enums.CartStatusConverted); err != nil {
			return err
		}

		transaction, err := s.gateway.CreateTransaction(ctx, gateway.CreateTransactionParams{
			OrderID:     order.ID,
			AmountCents: order.TotalCents,
			Currency:    order.Currency,
			Email:       input.Email,
		})
		if err != nil {
			return err
		}
		if err := ordersRepo.SetPaymentTx(ctx, order.ID, transaction.ID); err != nil {
			return err
		}

		result = &IntentResult{
			OrderID:      order.ID,
			ClientSecret: transaction.ClientSecret,
			TaxBreakdown: breakdown,
			TotalCents:   order.TotalCents,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		loggCtx := s.logg.WithOrderID(ctx, result.OrderID.String())
		s.logg.Info(loggCtx, "payment intent created")
	}
	return result, nil
}

// CancelIntent cancels a still-pending order: provider transaction first,
// then the local flip and hold release. A second call finds the order
// already cancelled and reports the state conflict instead of re-cancelling.
func (s *service) CancelIntent(ctx context.Context, buyerID string, orderID uuid.UUID) error {
	if buyerID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer identity required")
	}
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.BuyerID != buyerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another buyer")
	}
	if order.Status != enums.OrderStatusPending {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not pending")
	}

	if order.PaymentTxID != nil {
		if err := s.gateway.CancelTransaction(ctx, *order.PaymentTxID); err != nil {
			return err
		}
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cancelled, err := s.orders.WithTx(tx).MarkCancelled(ctx, orderID, s.now())
		if err != nil {
			return err
		}
		if !cancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not pending")
		}
		if err := s.holds.Release(ctx, tx, orderID); err != nil {
			return err
		}
		return restoreCart(ctx, s.cartRepo.WithTx(tx), order)
	})
}

// restoreCart hands the cart back to the buyer after a cancelled or failed
// intent. A cart deleted in the meantime is fine; the buyer starts a new one.
func restoreCart(ctx context.Context, carts cart.Repository, order *models.Order) error {
	if order.CartID == nil {
		return nil
	}
	err := carts.UpdateStatus(ctx, *order.CartID, order.BuyerID, enums.CartStatusActive)
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
		return nil
	}
	return err
}

func (s *service) assembleOrder(record *models.CartRecord, priced *pricing.Result, cost shipping.Cost, breakdown *types.TaxBreakdown, input CreateIntentInput) *models.Order {
	taxByRef := map[string]int64{}
	for _, line := range breakdown.Lines {
		taxByRef[line.OrderItemRef] = line.TaxCents
	}

	// The id is minted here because holds reference it inside the same
	// transaction, before the insert is visible.
	order := &models.Order{
		ID:              uuid.New(),
		BuyerID:         input.BuyerID,
		CartID:          &record.ID,
		Currency:        priced.Currency,
		Status:          enums.OrderStatusPending,
		SubtotalCents:   priced.SubtotalCents,
		TaxCents:        breakdown.TotalCents,
		ShippingCents:   cost.AmountCents,
		TotalCents:      priced.SubtotalCents + breakdown.TotalCents + cost.AmountCents,
		TaxBreakdown:    breakdown,
		ShippingMethod:  cost.Method,
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  input.BillingAddress,
	}
	if input.Email != "" {
		order.Email = &input.Email
	}

	for _, line := range priced.Lines {
		order.Items = append(order.Items, models.OrderItem{
			Kind:           line.Kind,
			ArtworkID:      line.ArtworkID,
			EditionID:      line.EditionID,
			ArtistID:       line.ArtistID,
			Title:          line.Title,
			UnitPriceCents: line.UnitPriceCents,
			Qty:            line.Qty,
			SubtotalCents:  line.SubtotalCents,
			TaxCents:       taxByRef[line.CartItemID.String()],
		})
	}
	return order
}

func quoteItems(priced *pricing.Result) []shipping.QuoteItem {
	items := make([]shipping.QuoteItem, 0, len(priced.Lines))
	for _, line := range priced.Lines {
		if !line.Kind.Physical() {
			continue
		}
		items = append(items, shipping.QuoteItem{
			Kind:     line.Kind,
			Qty:      line.Qty,
			WidthCm:  line.WidthCm,
			HeightCm: line.HeightCm,
			DepthCm:  line.DepthCm,
			Framed:   line.Framed,
		})
	}
	return items
}

func taxLines(priced *pricing.Result) []tax.LineInput {
	lines := make([]tax.LineInput, 0, len(priced.Lines))
	for _, line := range priced.Lines {
		lines = append(lines, tax.LineInput{
			Ref:           line.CartItemID.String(),
			SubtotalCents: line.SubtotalCents,
		})
	}
	return lines
}

// taxDestination prefers the shipping address when anything physical ships;
// digital-only orders are taxed at the billing address.
func taxDestination(priced *pricing.Result, input CreateIntentInput) string {
	if priced.HasPhysicalGoods {
		return input.ShippingAddress.CountryCode()
	}
	if input.BillingAddress != nil {
		return input.BillingAddress.CountryCode()
	}
	return input.ShippingAddress.CountryCode()
}

package paymentwebhook

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierline/artmarket-backend/internal/cart"
	"github.com/atelierline/artmarket-backend/internal/catalog"
	"github.com/atelierline/artmarket-backend/internal/fulfillment"
	"github.com/atelierline/artmarket-backend/internal/orders"
	"github.com/atelierline/artmarket-backend/pkg/db/models"
	"github.com/atelierline/artmarket-backend/pkg/enums"
	pkgerrors "github.com/atelierline/artmarket-backend/pkg/errors"
	"github.com/atelierline/artmarket-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type holdReleaser interface {
	Release(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
}

type payoutScheduler interface {
	Schedule(ctx context.Context, tx *gorm.DB, order *models.Order) error
	ReverseForCharge(ctx context.Context, order *models.Order, refundCents int64, kind enums.RefundKind, providerRef string) error
}

type paidEffects interface {
	ApplyPaid(ctx context.Context, order *models.Order)
}

// Service is the webhook reconciler: the only writer of order status after
// creation. Every transition is a conditional update, so duplicate or
// out-of-order deliveries collapse into no-ops.
type Service struct {
	tx           txRunner
	orders       orders.Repository
	catalog      catalog.Repository
	carts        cart.Repository
	holds        holdReleaser
	payouts      payoutScheduler
	entitlements fulfillment.EntitlementRepository
	effects      paidEffects
	logg         *logger.Logger
	now          func() time.Time
}

// ServiceParams collects the reconciler dependencies.
type ServiceParams struct {
	TxRunner     txRunner
	Orders       orders.Repository
	Catalog      catalog.Repository
	Carts        cart.Repository
	Holds        holdReleaser
	Payouts      payoutScheduler
	Entitlements fulfillment.EntitlementRepository
	Effects      paidEffects
	Logger       *logger.Logger
	Now          func() time.Time
}

// NewService builds the reconciler.
func NewService(params ServiceParams) (*Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Holds == nil {
		return nil, fmt.Errorf("hold releaser required")
	}
	if params.Payouts == nil {
		return nil, fmt.Errorf("payout engine required")
	}
	if params.Entitlements == nil {
		return nil, fmt.Errorf("entitlement repository required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Service{
		tx:           params.TxRunner,
		orders:       params.Orders,
		catalog:      params.Catalog,
		carts:        params.Carts,
		holds:        params.Holds,
		payouts:      params.Payouts,
		entitlements: params.Entitlements,
		effects:      params.Effects,
		logg:         params.Logger,
		now:          params.Now,
	}, nil
}

// HandleEvent routes one verified provider event through the state machine.
func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event required")
	}

	order, err := s.orders.FindByPaymentTxID(ctx, event.Data.TransactionID)
	if err != nil {
		return err
	}
	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, order.ID.String())
	}

	switch event.Type {
	case enums.WebhookPaymentSucceeded:
		return s.handlePaymentSucceeded(ctx, order)
	case enums.WebhookPaymentFailed, enums.WebhookPaymentCanceled:
		return s.handlePaymentFailed(ctx, order)
	case enums.WebhookChargeRefunded:
		return s.handleReversal(ctx, order, event, enums.RefundKindRefund)
	case enums.WebhookDisputeCreated:
		return s.handleReversal(ctx, order, event, enums.RefundKindDispute)
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown webhook event type")
	}
}

// handlePaymentSucceeded finalizes the sale. The conditional pending→paid
// flip is the idempotency anchor: a replay loses the flip and exits before
// any stock decrement or entitlement mint.
func (s *Service) handlePaymentSucceeded(ctx context.Context, order *models.Order) error {
	var applied bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		catalogRepo := s.catalog.WithTx(tx)
		entitlementsRepo := s.entitlements.WithTx(tx)

		flipped, err := ordersRepo.MarkPaid(ctx, order.ID, s.now())
		if err != nil {
			return err
		}
		if !flipped {
			return nil
		}
		applied = true

		for _, item := range order.Items {
			switch item.Kind {
			case enums.ItemKindUnique:
				if item.ArtworkID == nil {
					continue
				}
				if err := catalogRepo.MarkArtworkSold(ctx, *item.ArtworkID, s.now()); err != nil {
					return err
				}
			case enums.ItemKindLimitedPrint, enums.ItemKindDigital:
				if item.EditionID == nil {
					continue
				}
				if err := catalogRepo.DecrementEditionStock(ctx, *item.EditionID, item.Qty); err != nil {
					return err
				}
				if item.Kind == enums.ItemKindDigital {
					tokens := fulfillment.MintTokens(item, order.BuyerID)
					if err := entitlementsRepo.CreateBatch(ctx, tokens); err != nil {
						return err
					}
				}
			}
		}

		if err := s.holds.Release(ctx, tx, order.ID); err != nil {
			return err
		}
		return s.payouts.Schedule(ctx, tx, order)
	})
	if err != nil {
		return err
	}
	if !applied {
		if s.logg != nil {
			s.logg.Info(ctx, "payment_succeeded replay ignored")
		}
		return nil
	}

	if s.logg != nil {
		s.logg.Info(ctx, "order marked paid")
	}
	if s.effects != nil {
		s.effects.ApplyPaid(ctx, order)
	}
	return nil
}

// handlePaymentFailed releases holds, flips pending→failed, and hands the
// cart back to the buyer for another attempt. An order already terminal
// means the provider retried after the fact; that is success, not an error.
func (s *Service) handlePaymentFailed(ctx context.Context, order *models.Order) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		flipped, err := s.orders.WithTx(tx).MarkFailed(ctx, order.ID)
		if err != nil {
			return err
		}
		if !flipped {
			return nil
		}
		if err := s.holds.Release(ctx, tx, order.ID); err != nil {
			return err
		}
		return s.restoreCart(ctx, tx, order)
	})
}

// restoreCart flips the converted cart back to ACTIVE. A cart deleted in the
// meantime is fine; the buyer simply starts a new one.
func (s *Service) restoreCart(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if order.CartID == nil {
		return nil
	}
	err := s.carts.WithTx(tx).UpdateStatus(ctx, *order.CartID, order.BuyerID, enums.CartStatusActive)
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
		return nil
	}
	return err
}

func (s *Service) handleReversal(ctx context.Context, order *models.Order, event *Event, kind enums.RefundKind) error {
	if event.Data.AmountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "reversal amount required")
	}
	providerRef := event.Data.ChargeRef
	if providerRef == "" {
		providerRef = event.ID
	}
	return s.payouts.ReverseForCharge(ctx, order, event.Data.AmountCents, kind, providerRef)
}

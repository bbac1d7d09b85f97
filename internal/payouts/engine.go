package payouts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierline/artmarket-backend/internal/gateway"
	"github.com/atelierline/artmarket-backend/internal/orders"
	"github.com/atelierline/artmarket-backend/pkg/db/models"
	"github.com/atelierline/artmarket-backend/pkg/enums"
	pkgerrors "github.com/atelierline/artmarket-backend/pkg/errors"
	"github.com/atelierline/artmarket-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Engine creates payouts at payment time, releases them after the holdback
// window, and reverses them proportionally on refunds and disputes.
type Engine struct {
	repo           Repository
	orders         orders.Repository
	gateway        gateway.Client
	tx             txRunner
	platformFeeBps int64
	delayDays      int
	now            func() time.Time
	logg           *logger.Logger
}

// EngineParams collects the engine dependencies.
type EngineParams struct {
	Repo           Repository
	Orders         orders.Repository
	Gateway        gateway.Client
	TxRunner       txRunner
	PlatformFeeBps int64
	DelayDays      int
	Now            func() time.Time
	Logger         *logger.Logger
}

// NewEngine builds the payout engine.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payout repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.PlatformFeeBps < 0 || params.PlatformFeeBps >= 10000 {
		return nil, fmt.Errorf("platform fee bps out of range")
	}
	if params.DelayDays < 0 {
		return nil, fmt.Errorf("delay days must be non-negative")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Engine{
		repo:           params.Repo,
		orders:         params.Orders,
		gateway:        params.Gateway,
		tx:             params.TxRunner,
		platformFeeBps: params.PlatformFeeBps,
		delayDays:      params.DelayDays,
		now:            params.Now,
		logg:           params.Logger,
	}, nil
}

// Schedule creates one pending payout per order item inside the caller's
// transaction. With a zero delay the rows become immediately due and the
// next ReleaseDue pass attempts the transfers; a failed transfer leaves the
// row pending for retry, it never fails the surrounding payment flow.
func (e *Engine) Schedule(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}

	availableAt := e.now().Add(time.Duration(e.delayDays) * 24 * time.Hour)
	payouts := make([]models.Payout, 0, len(order.Items))
	for _, item := range order.Items {
		amount := Share(item.SubtotalCents, e.platformFeeBps)
		if amount <= 0 {
			continue
		}
		payouts = append(payouts, models.Payout{
			OrderItemID: item.ID,
			OrderID:     order.ID,
			ArtistID:    item.ArtistID,
			AmountCents: amount,
			Currency:    order.Currency,
			Status:      enums.PayoutStatusPending,
			AvailableAt: &availableAt,
		})
	}
	return e.repo.WithTx(tx).CreateBatch(ctx, payouts)
}

// ReleaseDue transfers every payout whose holdback has elapsed. Transfer
// failures are logged and skipped; the rows stay pending for retry.
func (e *Engine) ReleaseDue(ctx context.Context, limit int) (released int, err error) {
	due, err := e.repo.ListDue(ctx, e.now(), limit)
	if err != nil {
		return 0, err
	}

	for _, payout := range due {
		transfer, err := e.gateway.CreateTransfer(ctx, gateway.CreateTransferParams{
			PayoutID:    payout.ID,
			ArtistID:    payout.ArtistID,
			AmountCents: payout.AmountCents,
			Currency:    payout.Currency,
		})
		if err != nil {
			if e.logg != nil {
				loggCtx := e.logg.WithFields(ctx, map[string]any{"payout_id": payout.ID.String()})
				e.logg.Error(loggCtx, "payout transfer failed", err)
			}
			continue
		}
		marked, err := e.repo.MarkPaid(ctx, payout.ID, transfer.ID)
		if err != nil {
			return released, err
		}
		if marked {
			released++
		}
	}
	return released, nil
}

// ReverseForCharge applies a refund or dispute of refundCents against the
// order's original charge. Each affected payout is reversed by its
// proportional slice; paid payouts additionally get a provider transfer
// reversal. The refund-event unique constraint makes replays no-ops.
func (e *Engine) ReverseForCharge(ctx context.Context, order *models.Order, refundCents int64, kind enums.RefundKind, providerRef string) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	if order.Status != enums.OrderStatusPaid {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not paid")
	}
	if refundCents <= 0 || refundCents > order.TotalCents {
		return pkgerrors.New(pkgerrors.CodeValidation, "refund amount out of range")
	}
	if providerRef == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "provider reference required")
	}

	itemsByID := make(map[uuid.UUID]models.OrderItem, len(order.Items))
	for _, item := range order.Items {
		itemsByID[item.ID] = item
	}

	return e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := e.repo.WithTx(tx)
		ordersRepo := e.orders.WithTx(tx)

		recorded, err := repo.CreateRefundEvent(ctx, &models.RefundEvent{
			OrderID:     order.ID,
			Kind:        kind,
			AmountCents: refundCents,
			ProviderRef: providerRef,
		})
		if err != nil {
			return err
		}
		if !recorded {
			return nil
		}

		if err := ordersRepo.AddRefund(ctx, order.ID, refundCents); err != nil {
			return err
		}

		payouts, err := repo.ListByOrderID(ctx, order.ID)
		if err != nil {
			return err
		}

		for _, payout := range payouts {
			if payout.Status == enums.PayoutStatusReversed {
				continue
			}
			item, ok := itemsByID[payout.OrderItemID]
			if !ok {
				continue
			}

			reversal := ComputeReversal(payout.AmountCents, refundCents, order.TotalCents)
			if remaining := payout.AmountCents - payout.ReversedCents; reversal > remaining {
				reversal = remaining
			}
			if reversal <= 0 {
				continue
			}

			var reversalID *string
			if payout.Status == enums.PayoutStatusPaid && payout.TransferID != nil {
				providerReversal, err := e.gateway.ReverseTransfer(ctx, *payout.TransferID, reversal)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reverse transfer")
				}
				reversalID = &providerReversal.ID
			}

			if _, err := repo.MarkReversed(ctx, payout.ID, reversalID, reversal); err != nil {
				return err
			}

			if err := ordersRepo.IncrementItemRefundedQty(ctx, item.ID, refundedQtyFor(item, refundCents, order.TotalCents)); err != nil {
				return err
			}
		}
		return nil
	})
}

// refundedQtyFor approximates how many units of the item the refund covers.
func refundedQtyFor(item models.OrderItem, refundCents, chargeCents int64) int {
	if refundCents >= chargeCents {
		return item.Qty - item.RefundedQty
	}
	qty := int(ComputeReversal(int64(item.Qty), refundCents, chargeCents))
	if remaining := item.Qty - item.RefundedQty; qty > remaining {
		qty = remaining
	}
	return qty
}

package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierline/artmarket-backend/internal/repo"
	"github.com/atelierline/artmarket-backend/pkg/db/models"
	"github.com/atelierline/artmarket-backend/pkg/enums"
	pkgerrors "github.com/atelierline/artmarket-backend/pkg/errors"
)

// Repository persists the immutable order ledger. Status flips are
// conditional updates checked by rows affected so replays degrade to no-ops
// instead of double-applying.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByPaymentTxID(ctx context.Context, txID string) (*models.Order, error)
	SetPaymentTx(ctx context.Context, orderID uuid.UUID, txID string) error
	MarkPaid(ctx context.Context, orderID uuid.UUID, paidAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, orderID uuid.UUID) (bool, error)
	MarkCancelled(ctx context.Context, orderID uuid.UUID, canceledAt time.Time) (bool, error)
	AddRefund(ctx context.Context, orderID uuid.UUID, amountCents int64) error
	IncrementItemRefundedQty(ctx context.Context, itemID uuid.UUID, qty int) error
	ListExpiredPending(ctx context.Context, before time.Time, limit int) ([]models.Order, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds an order repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	if db == nil {
		return nil
	}
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	if err := r.DB(ctx).Create(order).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return &order, nil
}

func (r *repository) FindByPaymentTxID(ctx context.Context, txID string) (*models.Order, error) {
	if txID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	var order models.Order
	err := r.DB(ctx).
		Preload("Items").
		Where("payment_tx_id = ?", txID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found for transaction")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by transaction")
	}
	return &order, nil
}

func (r *repository) SetPaymentTx(ctx context.Context, orderID uuid.UUID, txID string) error {
	if txID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	result := r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_tx_id IS NULL", orderID).
		Update("payment_tx_id", txID)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "set payment transaction")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order already linked to a transaction")
	}
	return nil
}

// MarkPaid flips a pending order to paid. Returns false with no error when
// the order was already past pending, which callers treat as a replay.
func (r *repository) MarkPaid(ctx context.Context, orderID uuid.UUID, paidAt time.Time) (bool, error) {
	return r.transition(ctx, orderID, map[string]any{
		"status":  enums.OrderStatusPaid,
		"paid_at": paidAt,
	})
}

func (r *repository) MarkFailed(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return r.transition(ctx, orderID, map[string]any{
		"status": enums.OrderStatusFailed,
	})
}

func (r *repository) MarkCancelled(ctx context.Context, orderID uuid.UUID, canceledAt time.Time) (bool, error) {
	return r.transition(ctx, orderID, map[string]any{
		"status":      enums.OrderStatusCancelled,
		"canceled_at": canceledAt,
	})
}

func (r *repository) transition(ctx context.Context, orderID uuid.UUID, updates map[string]any) (bool, error) {
	result := r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, enums.OrderStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "transition order")
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) AddRefund(ctx context.Context, orderID uuid.UUID, amountCents int64) error {
	if amountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}
	result := r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND refunded_cents + ? <= total_cents", orderID, amountCents).
		Update("refunded_cents", gorm.Expr("refunded_cents + ?", amountCents))
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "add refund")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "refund exceeds order total")
	}
	return nil
}

func (r *repository) IncrementItemRefundedQty(ctx context.Context, itemID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	result := r.DB(ctx).
		Model(&models.OrderItem{}).
		Where("id = ? AND refunded_qty + ? <= qty", itemID, qty).
		Update("refunded_qty", gorm.Expr("refunded_qty + ?", qty))
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "increment refunded qty")
	}
	return nil
}

// ListExpiredPending returns pending orders older than the cutoff, oldest
// first, for the expiry sweep.
func (r *repository) ListExpiredPending(ctx context.Context, before time.Time, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var orders []models.Order
	err := r.DB(ctx).
		Where("status = ? AND created_at < ?", enums.OrderStatusPending, before).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expired pending orders")
	}
	return orders, nil
}

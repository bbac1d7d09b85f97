package payouts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/atelierline/artmarket-backend/internal/repo"
	"github.com/atelierline/artmarket-backend/pkg/db/models"
	"github.com/atelierline/artmarket-backend/pkg/enums"
	pkgerrors "github.com/atelierline/artmarket-backend/pkg/errors"
)

// Repository persists payout rows and refund audit events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBatch(ctx context.Context, payouts []models.Payout) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Payout, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]models.Payout, error)
	MarkPaid(ctx context.Context, payoutID uuid.UUID, transferID string) (bool, error)
	MarkReversed(ctx context.Context, payoutID uuid.UUID, reversalID *string, reversedCents int64) (bool, error)
	CreateRefundEvent(ctx context.Context, event *models.RefundEvent) (bool, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds a payout repository backed by the provided DB.
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

func (r *repository) CreateBatch(ctx context.Context, payouts []models.Payout) error {
	if len(payouts) == 0 {
		return nil
	}
	if err := r.DB(ctx).Create(&payouts).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payouts")
	}
	return nil
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Payout, error) {
	var payouts []models.Payout
	err := r.DB(ctx).
		Where("order_id = ?", orderID).
		Find(&payouts).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts")
	}
	return payouts, nil
}

// ListDue returns pending payouts whose holdback window has elapsed.
func (r *repository) ListDue(ctx context.Context, now time.Time, limit int) ([]models.Payout, error) {
	if limit <= 0 {
		limit = 100
	}
	var payouts []models.Payout
	err := r.DB(ctx).
		Where("status = ? AND available_at IS NOT NULL AND available_at <= ?", enums.PayoutStatusPending, now).
		Order("available_at ASC").
		Limit(limit).
		Find(&payouts).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list due payouts")
	}
	return payouts, nil
}

// MarkPaid records the transfer on a still-pending payout. A false return
// means another worker already settled or reversed it.
func (r *repository) MarkPaid(ctx context.Context, payoutID uuid.UUID, transferID string) (bool, error) {
	if transferID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "transfer id required")
	}
	result := r.DB(ctx).
		Model(&models.Payout{}).
		Where("id = ? AND status = ?", payoutID, enums.PayoutStatusPending).
		Updates(map[string]any{
			"status":      enums.PayoutStatusPaid,
			"transfer_id": transferID,
		})
	if result.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "mark payout paid")
	}
	return result.RowsAffected > 0, nil
}

// MarkReversed moves a pending or paid payout to reversed. ReversalID is nil
// for payouts reversed before any transfer went out.
func (r *repository) MarkReversed(ctx context.Context, payoutID uuid.UUID, reversalID *string, reversedCents int64) (bool, error) {
	if reversedCents <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "reversed amount must be positive")
	}
	result := r.DB(ctx).
		Model(&models.Payout{}).
		Where("id = ? AND status IN ?", payoutID, []enums.PayoutStatus{enums.PayoutStatusPending, enums.PayoutStatusPaid}).
		Updates(map[string]any{
			"status":         enums.PayoutStatusReversed,
			"reversal_id":    reversalID,
			"reversed_cents": gorm.Expr("reversed_cents + ?", reversedCents),
		})
	if result.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "mark payout reversed")
	}
	return result.RowsAffected > 0, nil
}

// CreateRefundEvent records the audit row for a provider refund or dispute.
// Returns false when the provider reference was already recorded, which is
// the replay signal for the reversal engine.
func (r *repository) CreateRefundEvent(ctx context.Context, event *models.RefundEvent) (bool, error) {
	if event == nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "refund event required")
	}
	err := r.DB(ctx).Create(event).Error
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create refund event")
	}
	return true, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

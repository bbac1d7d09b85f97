package fulfillment

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierline/artmarket-backend/internal/repo"
	"github.com/atelierline/artmarket-backend/pkg/db/models"
	pkgerrors "github.com/atelierline/artmarket-backend/pkg/errors"
)

// EntitlementRepository mints and loads per-unit download tokens.
type EntitlementRepository interface {
	WithTx(tx *gorm.DB) EntitlementRepository
	CreateBatch(ctx context.Context, entitlements []models.Entitlement) error
	ListByBuyer(ctx context.Context, buyerID string) ([]models.Entitlement, error)
}

type entitlementRepository struct {
	repo.Base
}

// NewEntitlementRepository builds the repository backed by the provided DB.
func NewEntitlementRepository(db *gorm.DB) EntitlementRepository {
	if db == nil {
		return nil
	}
	return &entitlementRepository{Base: repo.NewBase(db)}
}

func (r *entitlementRepository) WithTx(tx *gorm.DB) EntitlementRepository {
	if tx == nil {
		return r
	}
	return &entitlementRepository{Base: repo.NewBase(tx)}
}

func (r *entitlementRepository) CreateBatch(ctx context.Context, entitlements []models.Entitlement) error {
	if len(entitlements) == 0 {
		return nil
	}
	if err := r.DB(ctx).Create(&entitlements).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create entitlements")
	}
	return nil
}

func (r *entitlementRepository) ListByBuyer(ctx context.Context, buyerID string) ([]models.Entitlement, error) {
	var entitlements []models.Entitlement
	err := r.DB(ctx).
		Where("buyer_id = ?", buyerID).
		Find(&entitlements).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list entitlements")
	}
	return entitlements, nil
}

// MintTokens builds one entitlement per purchased unit of a digital item.
func MintTokens(item models.OrderItem, buyerID string) []models.Entitlement {
	if item.EditionID == nil || item.Qty <= 0 {
		return nil
	}
	entitlements := make([]models.Entitlement, 0, item.Qty)
	for i := 0; i < item.Qty; i++ {
		entitlements = append(entitlements, models.Entitlement{
			OrderItemID: item.ID,
			EditionID:   *item.EditionID,
			BuyerID:     buyerID,
			Token:       uuid.NewString(),
		})
	}
	return entitlements
}

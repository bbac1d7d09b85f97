package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierline/artmarket-backend/internal/repo"
	"github.com/atelierline/artmarket-backend/pkg/db/models"
	"github.com/atelierline/artmarket-backend/pkg/enums"
	pkgerrors "github.com/atelierline/artmarket-backend/pkg/errors"
)

// Repository loads cart records for checkout and marks them converted.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByIDAndOwner(ctx context.Context, cartID uuid.UUID, ownerID string) (*models.CartRecord, error)
	UpdateStatus(ctx context.Context, cartID uuid.UUID, ownerID string, status enums.CartStatus) error
}

type repository struct {
	repo.Base
}

// NewRepository builds a cart repository backed by the provided DB.
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

func (r *repository) FindByIDAndOwner(ctx context.Context, cartID uuid.UUID, ownerID string) (*models.CartRecord, error) {
	var record models.CartRecord
	err := r.DB(ctx).
		Preload("Items").
		Where("id = ? AND owner_id = ?", cartID, ownerID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return &record, nil
}

func (r *repository) UpdateStatus(ctx context.Context, cartID uuid.UUID, ownerID string, status enums.CartStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid cart status")
	}
	result := r.DB(ctx).
		Model(&models.CartRecord{}).
		Where("id = ? AND owner_id = ?", cartID, ownerID).
		Update("status", status)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "update cart status")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	return nil
}

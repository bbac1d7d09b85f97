package catalog

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

// Repository loads catalog entries and applies the paid-order stock effects.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindArtworkByID(ctx context.Context, id uuid.UUID) (*models.Artwork, error)
	FindEditionByID(ctx context.Context, id uuid.UUID) (*models.Edition, error)
	MarkArtworkSold(ctx context.Context, id uuid.UUID, soldAt time.Time) error
	DecrementEditionStock(ctx context.Context, id uuid.UUID, qty int) error
}

type repository struct {
	repo.Base
}

// NewRepository builds a catalog repository backed by the provided DB.
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

func (r *repository) FindArtworkByID(ctx context.Context, id uuid.UUID) (*models.Artwork, error) {
	var artwork models.Artwork
	err := r.DB(ctx).Where("id = ?", id).First(&artwork).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "artwork not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load artwork")
	}
	return &artwork, nil
}

func (r *repository) FindEditionByID(ctx context.Context, id uuid.UUID) (*models.Edition, error) {
	var edition models.Edition
	err := r.DB(ctx).Where("id = ?", id).First(&edition).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "edition not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load edition")
	}
	return &edition, nil
}

// MarkArtworkSold transitions a published artwork to sold. The conditional
// WHERE keeps a replayed webhook from flipping an already-sold piece again.
func (r *repository) MarkArtworkSold(ctx context.Context, id uuid.UUID, soldAt time.Time) error {
	result := r.DB(ctx).
		Model(&models.Artwork{}).
		Where("id = ? AND status <> ?", id, enums.ArtworkStatusSold).
		Updates(map[string]any{
			"status":  enums.ArtworkStatusSold,
			"sold_at": soldAt,
		})
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "mark artwork sold")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "artwork already sold")
	}
	return nil
}

// DecrementEditionStock reduces remaining availability for a finite edition.
// Editions with NULL availability are unlimited and skip the decrement.
func (r *repository) DecrementEditionStock(ctx context.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "qty must be positive")
	}
	result := r.DB(ctx).
		Model(&models.Edition{}).
		Where("id = ? AND (available IS NULL OR available >= ?)", id, qty).
		Update("available", gorm.Expr("available - ?", qty))
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "decrement edition stock")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "insufficient edition stock")
	}
	return nil
}

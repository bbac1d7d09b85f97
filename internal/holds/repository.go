package holds

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
	pkgerrors "github.com/atelierline/artmarket-backend/pkg/errors"
)

// Repository persists the exclusive claims on unique artworks. The unique
// index on artwork_id is the arbiter for concurrent acquisition.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindLiveByArtworkID(ctx context.Context, artworkID uuid.UUID, now time.Time) (*models.ArtworkHold, error)
	Create(ctx context.Context, hold *models.ArtworkHold) error
	Reclaim(ctx context.Context, artworkID, orderID uuid.UUID, expiresAt, now time.Time) (bool, error)
	DeleteByOrderID(ctx context.Context, orderID uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds a hold repository backed by the provided DB.
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

// FindLiveByArtworkID returns the unexpired hold on the artwork, or nil when
// no hold exists or the existing one has lapsed.
func (r *repository) FindLiveByArtworkID(ctx context.Context, artworkID uuid.UUID, now time.Time) (*models.ArtworkHold, error) {
	var hold models.ArtworkHold
	err := r.DB(ctx).
		Where("artwork_id = ? AND expires_at > ?", artworkID, now).
		First(&hold).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load hold")
	}
	return &hold, nil
}

// Create inserts a fresh hold. A unique-index violation means another order
// won the race and is translated to ErrReserved.
func (r *repository) Create(ctx context.Context, hold *models.ArtworkHold) error {
	if hold == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "hold required")
	}
	err := r.DB(ctx).Create(hold).Error
	if err != nil {
		if isUniqueViolation(err) {
			return ErrReserved
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create hold")
	}
	return nil
}

// Reclaim takes over an existing hold when it either belongs to the same
// order (refresh) or has already expired (lazy expiry). The conditional
// UPDATE is checked by rows affected so concurrent reclaims converge to one
// winner.
func (r *repository) Reclaim(ctx context.Context, artworkID, orderID uuid.UUID, expiresAt, now time.Time) (bool, error) {
	result := r.DB(ctx).
		Model(&models.ArtworkHold{}).
		Where("artwork_id = ? AND (order_id = ? OR expires_at <= ?)", artworkID, orderID, now).
		Updates(map[string]any{
			"order_id":   orderID,
			"expires_at": expiresAt,
		})
	if result.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "reclaim hold")
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) DeleteByOrderID(ctx context.Context, orderID uuid.UUID) error {
	err := r.DB(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.ArtworkHold{}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete holds")
	}
	return nil
}

// DeleteExpired removes lapsed holds and reports how many were swept.
func (r *repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.DB(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.ArtworkHold{})
	if result.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "delete expired holds")
	}
	return result.RowsAffected, nil
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

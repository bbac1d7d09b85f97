package holds

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierline/artmarket-backend/pkg/db/models"
	"github.com/atelierline/artmarket-backend/pkg/enums"
	pkgerrors "github.com/atelierline/artmarket-backend/pkg/errors"
)

// ErrReserved signals that another unexpired order already holds the piece.
var ErrReserved = pkgerrors.New(pkgerrors.CodeConflict, "artwork is reserved by another checkout").
	WithDetails(map[string]any{"category": enums.ValidationItemReserved.String()})

// Manager arbitrates exclusive claims on unique artworks during checkout.
// Expiry is enforced lazily at acquisition time; the manager runs no timers
// of its own, the cron sweep is the only proactive cleaner.
type Manager struct {
	repo       Repository
	defaultTTL time.Duration
	now        func() time.Time
}

// ManagerParams collects the manager dependencies.
type ManagerParams struct {
	Repo       Repository
	DefaultTTL time.Duration
	Now        func() time.Time
}

// NewManager builds the hold manager.
func NewManager(params ManagerParams) (*Manager, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("hold repository required")
	}
	if params.DefaultTTL <= 0 {
		return nil, fmt.Errorf("default ttl must be positive")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Manager{
		repo:       params.Repo,
		defaultTTL: params.DefaultTTL,
		now:        params.Now,
	}, nil
}

// Acquire claims the artwork for the order, refreshing an existing claim by
// the same order and taking over an expired one. Exactly one of any set of
// concurrent acquirers wins; the rest receive ErrReserved.
func (m *Manager) Acquire(ctx context.Context, tx *gorm.DB, artworkID, orderID uuid.UUID, ttl time.Duration) error {
	if artworkID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "artwork id required")
	}
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	repo := m.repo.WithTx(tx)
	now := m.now()
	expiresAt := now.Add(ttl)

	reclaimed, err := repo.Reclaim(ctx, artworkID, orderID, expiresAt, now)
	if err != nil {
		return err
	}
	if reclaimed {
		return nil
	}

	err = repo.Create(ctx, &models.ArtworkHold{
		ArtworkID: artworkID,
		OrderID:   orderID,
		ExpiresAt: expiresAt,
	})
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != ErrReserved {
		return err
	}

	// Lost the insert race. One more reclaim attempt covers the window where
	// the competing hold expired between our two statements; otherwise the
	// piece is genuinely reserved.
	reclaimed, reclaimErr := repo.Reclaim(ctx, artworkID, orderID, expiresAt, m.now())
	if reclaimErr != nil {
		return reclaimErr
	}
	if reclaimed {
		return nil
	}
	return ErrReserved
}

// Release drops every hold owned by the order. Called on explicit
// cancellation and on payment failure; on success the artwork moves to sold
// instead and the hold is released by the reconciler.
func (m *Manager) Release(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	return m.repo.WithTx(tx).DeleteByOrderID(ctx, orderID)
}

// SweepExpired deletes lapsed holds, bounding how long stale claims linger.
func (m *Manager) SweepExpired(ctx context.Context) (int64, error) {
	return m.repo.DeleteExpired(ctx, m.now())
}

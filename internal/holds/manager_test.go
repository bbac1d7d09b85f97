package holds

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/atelierline/artmarket-backend/pkg/db/models"
	pkgerrors "github.com/atelierline/artmarket-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:holds_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	schema := `
CREATE TABLE IF NOT EXISTS artwork_holds (
  id TEXT PRIMARY KEY,
  artwork_id TEXT NOT NULL UNIQUE,
  order_id TEXT NOT NULL,
  expires_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	if err := db.Exec(schema).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func newTestManager(t *testing.T, db *gorm.DB, now func() time.Time) *Manager {
	t.Helper()
	m, err := NewManager(ManagerParams{
		Repo:       NewRepository(db),
		DefaultTTL: 15 * time.Minute,
		Now:        now,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestManagerAcquireExactlyOneWinner(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	m := newTestManager(t, db, func() time.Time { return now })
	ctx := context.Background()

	artworkID := uuid.New()
	winner := uuid.New()
	loser := uuid.New()

	if err := m.Acquire(ctx, nil, artworkID, winner, 0); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	err := m.Acquire(ctx, nil, artworkID, loser, 0)
	if err == nil {
		t.Fatal("expected second acquire to lose")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("unexpected error: %v", err)
	}

	var hold models.ArtworkHold
	if err := db.First(&hold, "artwork_id = ?", artworkID).Error; err != nil {
		t.Fatalf("load hold: %v", err)
	}
	if hold.OrderID != winner {
		t.Fatalf("expected winner %s to own the hold, got %s", winner, hold.OrderID)
	}
}

func TestManagerAcquireRefreshesOwnHold(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	m := newTestManager(t, db, func() time.Time { return now })
	ctx := context.Background()

	artworkID := uuid.New()
	orderID := uuid.New()

	if err := m.Acquire(ctx, nil, artworkID, orderID, 10*time.Minute); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := m.Acquire(ctx, nil, artworkID, orderID, 30*time.Minute); err != nil {
		t.Fatalf("re-acquire: %v", err)
	}

	var hold models.ArtworkHold
	if err := db.First(&hold, "artwork_id = ?", artworkID).Error; err != nil {
		t.Fatalf("load hold: %v", err)
	}
	if !hold.ExpiresAt.Equal(now.Add(30 * time.Minute)) {
		t.Fatalf("expected refreshed expiry, got %s", hold.ExpiresAt)
	}
}

func TestManagerAcquireTakesOverExpiredHold(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := now
	m := newTestManager(t, db, func() time.Time { return clock })
	ctx := context.Background()

	artworkID := uuid.New()
	first := uuid.New()
	second := uuid.New()

	if err := m.Acquire(ctx, nil, artworkID, first, 15*time.Minute); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	// Before expiry the piece stays reserved.
	clock = now.Add(10 * time.Minute)
	if err := m.Acquire(ctx, nil, artworkID, second, 0); err == nil {
		t.Fatal("expected acquire before expiry to lose")
	}

	// After expiry the claim is reclaimable.
	clock = now.Add(16 * time.Minute)
	if err := m.Acquire(ctx, nil, artworkID, second, 0); err != nil {
		t.Fatalf("acquire after expiry: %v", err)
	}

	var hold models.ArtworkHold
	if err := db.First(&hold, "artwork_id = ?", artworkID).Error; err != nil {
		t.Fatalf("load hold: %v", err)
	}
	if hold.OrderID != second {
		t.Fatalf("expected takeover by %s, got %s", second, hold.OrderID)
	}
}

func TestManagerReleaseFreesArtwork(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	m := newTestManager(t, db, func() time.Time { return now })
	ctx := context.Background()

	artworkID := uuid.New()
	first := uuid.New()
	second := uuid.New()

	if err := m.Acquire(ctx, nil, artworkID, first, 0); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := m.Release(ctx, nil, first); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := m.Acquire(ctx, nil, artworkID, second, 0); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}

func TestManagerSweepExpired(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	m := newTestManager(t, db, func() time.Time { return now })
	ctx := context.Background()

	seeds := []models.ArtworkHold{
		{ID: uuid.New(), ArtworkID: uuid.New(), OrderID: uuid.New(), ExpiresAt: now.Add(-time.Minute)},
		{ID: uuid.New(), ArtworkID: uuid.New(), OrderID: uuid.New(), ExpiresAt: now.Add(-time.Hour)},
		{ID: uuid.New(), ArtworkID: uuid.New(), OrderID: uuid.New(), ExpiresAt: now.Add(time.Hour)},
	}
	for i := range seeds {
		if err := db.Create(&seeds[i]).Error; err != nil {
			t.Fatalf("seed hold: %v", err)
		}
	}

	swept, err := m.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if swept != 2 {
		t.Fatalf("expected 2 swept holds, got %d", swept)
	}

	var remaining int64
	if err := db.Model(&models.ArtworkHold{}).Count(&remaining).Error; err != nil {
		t.Fatalf("count holds: %v", err)
	}
	if remaining != 1 {
		t.Fatalf("expected 1 live hold, got %d", remaining)
	}
}

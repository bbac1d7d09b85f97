package models

import (
	"time"

	"github.com/google/uuid"
)

// ArtworkHold is the time-boxed exclusive claim on a unique piece during
// checkout. The unique index on artwork_id is what makes concurrent claims
// converge to exactly one winner.
type ArtworkHold struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ArtworkID uuid.UUID `gorm:"column:artwork_id;type:uuid;not null;uniqueIndex"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Expired reports whether the hold is stale relative to now.
func (h *ArtworkHold) Expired(now time.Time) bool {
	if h == nil {
		return true
	}
	return !h.ExpiresAt.After(now)
}

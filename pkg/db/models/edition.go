package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/atelierline/artmarket-backend/pkg/enums"
)

// Edition is a limited print run or a digital download. Available is nil for
// unlimited editions; otherwise it is decremented when orders are paid.
type Edition struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ArtistID   uuid.UUID           `gorm:"column:artist_id;type:uuid;not null;index"`
	Kind       enums.ItemKind      `gorm:"column:kind;type:text;not null"`
	Title      string              `gorm:"column:title;not null"`
	Status     enums.EditionStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	PriceCents int64               `gorm:"column:price_cents;not null"`
	Currency   enums.Currency      `gorm:"column:currency;type:text;not null;default:'EUR'"`
	Available  *int                `gorm:"column:available"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/atelierline/artmarket-backend/pkg/enums"
)

// Artwork is a one-of-a-kind physical piece. Exactly one buyer can ever own
// it; the transition to sold happens only inside the webhook reconciler.
type Artwork struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ArtistID   uuid.UUID           `gorm:"column:artist_id;type:uuid;not null;index"`
	Title      string              `gorm:"column:title;not null"`
	Status     enums.ArtworkStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	PriceCents int64               `gorm:"column:price_cents;not null"`
	Currency   enums.Currency      `gorm:"column:currency;type:text;not null;default:'EUR'"`
	WidthCm    float64             `gorm:"column:width_cm;not null;default:0"`
	HeightCm   float64             `gorm:"column:height_cm;not null;default:0"`
	DepthCm    float64             `gorm:"column:depth_cm;not null;default:0"`
	Framed     bool                `gorm:"column:framed;not null;default:false"`
	SoldAt     *time.Time          `gorm:"column:sold_at"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/atelierline/artmarket-backend/pkg/enums"
)

// CartItem references either an artwork (unique) or an edition. The client
// price is advisory only; checkout re-prices every line from the catalog.
type CartItem struct {
	ID               uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID           uuid.UUID      `gorm:"column:cart_id;type:uuid;not null;index"`
	Kind             enums.ItemKind `gorm:"column:kind;type:text;not null"`
	ArtworkID        *uuid.UUID     `gorm:"column:artwork_id;type:uuid"`
	EditionID        *uuid.UUID     `gorm:"column:edition_id;type:uuid"`
	Qty              int            `gorm:"column:qty;not null;default:1"`
	ClientPriceCents int64          `gorm:"column:client_price_cents;not null;default:0"`
	CreatedAt        time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

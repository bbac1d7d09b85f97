package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/atelierline/artmarket-backend/pkg/enums"
)

// OrderItem is the immutable price snapshot of one cart line. Unit price and
// subtotal are never recomputed from catalog state after order creation.
type OrderItem struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID      `gorm:"column:order_id;type:uuid;not null;index"`
	Kind           enums.ItemKind `gorm:"column:kind;type:text;not null"`
	ArtworkID      *uuid.UUID     `gorm:"column:artwork_id;type:uuid"`
	EditionID      *uuid.UUID     `gorm:"column:edition_id;type:uuid"`
	ArtistID       uuid.UUID      `gorm:"column:artist_id;type:uuid;not null;index"`
	Title          string         `gorm:"column:title;not null"`
	UnitPriceCents int64          `gorm:"column:unit_price_cents;not null"`
	Qty            int            `gorm:"column:qty;not null"`
	SubtotalCents  int64          `gorm:"column:subtotal_cents;not null"`
	TaxCents       int64          `gorm:"column:tax_cents;not null;default:0"`
	RefundedQty    int            `gorm:"column:refunded_qty;not null;default:0"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

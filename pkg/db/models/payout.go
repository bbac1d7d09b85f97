package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/atelierline/artmarket-backend/pkg/enums"
)

// Payout is the artist's net share of one paid order item. One row per item
// so partial refunds of multi-artist orders reverse proportionally per item.
type Payout struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderItemID   uuid.UUID          `gorm:"column:order_item_id;type:uuid;not null;uniqueIndex"`
	OrderID       uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	ArtistID      uuid.UUID          `gorm:"column:artist_id;type:uuid;not null;index"`
	AmountCents   int64              `gorm:"column:amount_cents;not null"`
	Currency      enums.Currency     `gorm:"column:currency;type:text;not null;default:'EUR'"`
	Status        enums.PayoutStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	AvailableAt   *time.Time         `gorm:"column:available_at"`
	TransferID    *string            `gorm:"column:transfer_id"`
	ReversalID    *string            `gorm:"column:reversal_id"`
	ReversedCents int64              `gorm:"column:reversed_cents;not null;default:0"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

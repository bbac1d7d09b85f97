package models

import (
	"time"

	"github.com/google/uuid"
)

// Entitlement is a per-unit download token minted when a digital order item
// is paid. Token uniqueness doubles as the double-mint guard.
type Entitlement struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderItemID uuid.UUID `gorm:"column:order_item_id;type:uuid;not null;index"`
	EditionID   uuid.UUID `gorm:"column:edition_id;type:uuid;not null;index"`
	BuyerID     string    `gorm:"column:buyer_id;not null;index"`
	Token       string    `gorm:"column:token;not null;uniqueIndex"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

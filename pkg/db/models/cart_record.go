package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/atelierline/artmarket-backend/pkg/enums"
)

// CartRecord is the mutable pre-order container. OwnerID holds either an
// authenticated buyer id or an anonymous session id.
type CartRecord struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID   string           `gorm:"column:owner_id;not null;index"`
	Currency  enums.Currency   `gorm:"column:currency;type:text;not null;default:'EUR'"`
	Status    enums.CartStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Items     []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

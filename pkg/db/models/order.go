package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/atelierline/artmarket-backend/pkg/enums"
	"github.com/atelierline/artmarket-backend/pkg/types"
)

// Order is the immutable financial ledger head for one checkout. After
// creation only Status, RefundedCents and CanceledAt may change, and only
// through the webhook reconciler (or CancelIntent while still pending).
type Order struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID         string               `gorm:"column:buyer_id;not null;index"`
	Email           *string              `gorm:"column:email"`
	CartID          *uuid.UUID           `gorm:"column:cart_id;type:uuid"`
	Currency        enums.Currency       `gorm:"column:currency;type:text;not null;default:'EUR'"`
	Status          enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'pending'"`
	SubtotalCents   int64                `gorm:"column:subtotal_cents;not null"`
	TaxCents        int64                `gorm:"column:tax_cents;not null;default:0"`
	ShippingCents   int64                `gorm:"column:shipping_cents;not null;default:0"`
	TotalCents      int64                `gorm:"column:total_cents;not null"`
	RefundedCents   int64                `gorm:"column:refunded_cents;not null;default:0"`
	TaxBreakdown    *types.TaxBreakdown  `gorm:"column:tax_breakdown;type:jsonb;serializer:json"`
	ShippingMethod  enums.ShippingMethod `gorm:"column:shipping_method;type:text;not null;default:'flat'"`
	ShippingAddress *types.Address       `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	BillingAddress  *types.Address       `gorm:"column:billing_address;type:jsonb;serializer:json"`
	PaymentTxID     *string              `gorm:"column:payment_tx_id;uniqueIndex"`
	CanceledAt      *time.Time           `gorm:"column:canceled_at"`
	PaidAt          *time.Time           `gorm:"column:paid_at"`
	Items           []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

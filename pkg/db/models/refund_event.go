package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/atelierline/artmarket-backend/pkg/enums"
)

// RefundEvent is the audit record of a provider refund or dispute webhook.
// The unique provider reference keeps replays from double-applying.
type RefundEvent struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID        `gorm:"column:order_id;type:uuid;not null;index"`
	Kind        enums.RefundKind `gorm:"column:kind;type:text;not null"`
	AmountCents int64            `gorm:"column:amount_cents;not null"`
	ProviderRef string           `gorm:"column:provider_ref;not null;uniqueIndex"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
}

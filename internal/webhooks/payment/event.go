package paymentwebhook

import (
	"encoding/json"

	"github.com/atelierline/artmarket-backend/pkg/enums"
	pkgerrors "github.com/atelierline/artmarket-backend/pkg/errors"
)

// Event is the provider's webhook payload after signature verification.
type Event struct {
	ID   string                 `json:"id"`
	Type enums.WebhookEventType `json:"type"`
	Data EventData              `json:"data"`
}

// EventData carries the fields the reconciler consumes. TransactionID
// correlates to Order.PaymentTxID; ChargeRef and AmountCents are set on
// refund and dispute events.
type EventData struct {
	TransactionID string `json:"transaction_id"`
	ChargeRef     string `json:"charge_ref,omitempty"`
	AmountCents   int64  `json:"amount,omitempty"`
}

// ParseEvent decodes and structurally validates a verified payload.
func ParseEvent(payload []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed webhook payload")
	}
	if event.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook event id required")
	}
	if !event.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown webhook event type")
	}
	if event.Data.TransactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook transaction id required")
	}
	return &event, nil
}

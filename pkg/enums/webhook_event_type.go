package enums

import "fmt"

// WebhookEventType enumerates provider events the reconciler understands.
type WebhookEventType string

const (
	WebhookPaymentSucceeded WebhookEventType = "payment_succeeded"
	WebhookPaymentFailed    WebhookEventType = "payment_failed"
	WebhookPaymentCanceled  WebhookEventType = "payment_canceled"
	WebhookChargeRefunded   WebhookEventType = "charge_refunded"
	WebhookDisputeCreated   WebhookEventType = "dispute_created"
)

var validWebhookEventTypes = []WebhookEventType{
	WebhookPaymentSucceeded,
	WebhookPaymentFailed,
	WebhookPaymentCanceled,
	WebhookChargeRefunded,
	WebhookDisputeCreated,
}

// String implements fmt.Stringer.
func (t WebhookEventType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known WebhookEventType.
func (t WebhookEventType) IsValid() bool {
	for _, candidate := range validWebhookEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseWebhookEventType converts raw input into a WebhookEventType.
func ParseWebhookEventType(value string) (WebhookEventType, error) {
	for _, candidate := range validWebhookEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid webhook event type %q", value)
}

package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atelierline/artmarket-backend/pkg/enums"
	pkgerrors "github.com/atelierline/artmarket-backend/pkg/errors"
)

// Notification is one buyer-facing message queued after a payment settles.
type Notification struct {
	Kind       string         `json:"kind"`
	OrderID    uuid.UUID      `json:"order_id"`
	Email      string         `json:"email"`
	TotalCents int64          `json:"total_cents"`
	Currency   enums.Currency `json:"currency"`
}

// Notifier delivers buyer notifications.
type Notifier interface {
	Send(ctx context.Context, notification Notification) error
}

// HTTPNotifier hands notifications to the external messaging service, which
// owns templating and delivery retries.
type HTTPNotifier struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPNotifier builds the messaging client.
func NewHTTPNotifier(baseURL, apiKey string, timeout time.Duration) (*HTTPNotifier, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("notifier base url required")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPNotifier{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (n *HTTPNotifier) Send(ctx context.Context, notification Notification) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode notification")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/v1/notifications", bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build notification request")
	}
	req.Header.Set("Content-Type", "application/json")
	if n.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.apiKey)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "messaging service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("messaging service returned %d", resp.StatusCode))
	}
	return nil
}

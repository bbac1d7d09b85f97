package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atelierline/artmarket-backend/pkg/config"
	"github.com/atelierline/artmarket-backend/pkg/enums"
	pkgerrors "github.com/atelierline/artmarket-backend/pkg/errors"
)

// Client is the payment provider surface the engine depends on. It is
// injected everywhere; no module-level provider state exists.
type Client interface {
	CreateTransaction(ctx context.Context, params CreateTransactionParams) (*Transaction, error)
	CancelTransaction(ctx context.Context, transactionID string) error
	CreateTransfer(ctx context.Context, params CreateTransferParams) (*Transfer, error)
	ReverseTransfer(ctx context.Context, transferID string, amountCents int64) (*Reversal, error)
}

// CreateTransactionParams opens a provider transaction for an order total.
type CreateTransactionParams struct {
	OrderID     uuid.UUID      `json:"order_id"`
	AmountCents int64          `json:"amount"`
	Currency    enums.Currency `json:"currency"`
	Email       string         `json:"email,omitempty"`
}

// Transaction is the provider's open payment.
type Transaction struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// CreateTransferParams moves an artist's share out of the platform balance.
type CreateTransferParams struct {
	PayoutID    uuid.UUID      `json:"payout_id"`
	ArtistID    uuid.UUID      `json:"artist_id"`
	AmountCents int64          `json:"amount"`
	Currency    enums.Currency `json:"currency"`
}

// Transfer is a completed provider transfer.
type Transfer struct {
	ID string `json:"id"`
}

// Reversal is a completed provider transfer reversal.
type Reversal struct {
	ID string `json:"id"`
}

// HTTPClient talks to the payment provider's REST API.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPClient builds the provider client from configuration.
func NewHTTPClient(cfg config.GatewayConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gateway base url required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gateway api key required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *HTTPClient) CreateTransaction(ctx context.Context, params CreateTransactionParams) (*Transaction, error) {
	if params.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	var tx Transaction
	if err := c.post(ctx, "/v1/transactions", params, &tx); err != nil {
		return nil, err
	}
	if tx.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway returned no transaction id")
	}
	return &tx, nil
}

func (c *HTTPClient) CancelTransaction(ctx context.Context, transactionID string) error {
	if transactionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	path := fmt.Sprintf("/v1/transactions/%s/cancel", transactionID)
	return c.post(ctx, path, struct{}{}, nil)
}

func (c *HTTPClient) CreateTransfer(ctx context.Context, params CreateTransferParams) (*Transfer, error) {
	if params.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	var transfer Transfer
	if err := c.post(ctx, "/v1/transfers", params, &transfer); err != nil {
		return nil, err
	}
	if transfer.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway returned no transfer id")
	}
	return &transfer, nil
}

func (c *HTTPClient) ReverseTransfer(ctx context.Context, transferID string, amountCents int64) (*Reversal, error) {
	if transferID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer id required")
	}
	if amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	var reversal Reversal
	path := fmt.Sprintf("/v1/transfers/%s/reversals", transferID)
	body := map[string]int64{"amount": amountCents}
	if err := c.post(ctx, path, body, &reversal); err != nil {
		return nil, err
	}
	return &reversal, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body any, dest any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode gateway request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("payment gateway returned %d", resp.StatusCode))
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gateway response")
	}
	return nil
}

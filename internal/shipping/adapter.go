package shipping

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
	"github.com/atelierline/artmarket-backend/pkg/types"
)

// QuoteItem describes one physical piece for the carrier's packing engine.
type QuoteItem struct {
	Kind     enums.ItemKind `json:"kind"`
	Qty      int            `json:"qty"`
	WidthCm  float64        `json:"width_cm"`
	HeightCm float64        `json:"height_cm"`
	DepthCm  float64        `json:"depth_cm"`
	Framed   bool           `json:"framed"`
}

// QuoteRequest is the carrier-facing payload.
type QuoteRequest struct {
	Items     []QuoteItem          `json:"items"`
	ShipTo    types.Address        `json:"ship_to"`
	Preferred enums.ShippingMethod `json:"preferred,omitempty"`
}

// QuoteOption is one priced service returned by the carrier.
type QuoteOption struct {
	Method      enums.ShippingMethod `json:"method"`
	ServiceName string               `json:"service_name"`
	AmountCents int64                `json:"amount"`
}

// QuoteResponse carries the carrier's options and its packing plan.
type QuoteResponse struct {
	Options []QuoteOption     `json:"options"`
	Packed  []json.RawMessage `json:"packed,omitempty"`
}

// Quoter obtains shipping quotes for physical artworks.
type Quoter interface {
	Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error)
}

// ShipmentItem is one physical order line handed to the carrier.
type ShipmentItem struct {
	Kind  enums.ItemKind `json:"kind"`
	Title string         `json:"title"`
	Qty   int            `json:"qty"`
}

// ShipmentRequest asks the carrier to pick up a paid order.
type ShipmentRequest struct {
	OrderID uuid.UUID            `json:"order_id"`
	Method  enums.ShippingMethod `json:"method"`
	ShipTo  types.Address        `json:"ship_to"`
	Items   []ShipmentItem       `json:"items"`
}

// Shipment is the carrier's acknowledgement.
type Shipment struct {
	ID          string `json:"shipment_id"`
	TrackingURL string `json:"tracking_url,omitempty"`
}

// HTTPQuoter talks to the external shipping quote service.
type HTTPQuoter struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPQuoter builds the carrier client.
func NewHTTPQuoter(baseURL, apiKey string, timeout time.Duration) (*HTTPQuoter, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("shipping base url required")
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &HTTPQuoter{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (q *HTTPQuoter) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode quote request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, q.baseURL+"/v1/quotes", bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build quote request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+q.apiKey)
	}

	resp, err := q.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "shipping service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("shipping service returned %d", resp.StatusCode))
	}

	var payload QuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode quote response")
	}
	return &payload, nil
}

// CreateShipment registers the paid order with the carrier and returns its
// shipment reference.
func (q *HTTPQuoter) CreateShipment(ctx context.Context, req ShipmentRequest) (*Shipment, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode shipment request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, q.baseURL+"/v1/shipments", bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build shipment request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+q.apiKey)
	}

	resp, err := q.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "shipping service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("shipping service returned %d", resp.StatusCode))
	}

	var payload Shipment
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode shipment response")
	}
	return &payload, nil
}

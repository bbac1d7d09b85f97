package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/atelierline/artmarket-backend/api/middleware"
	checkoutsvc "github.com/atelierline/artmarket-backend/internal/checkout"
	"github.com/atelierline/artmarket-backend/pkg/enums"
	pkgerrors "github.com/atelierline/artmarket-backend/pkg/errors"
	"github.com/atelierline/artmarket-backend/pkg/logger"
)

type stubCheckoutService struct {
	result    *checkoutsvc.IntentResult
	createErr error
	cancelErr error
	created   []checkoutsvc.CreateIntentInput
	cancelled []uuid.UUID
	lastBuyer string
}

func (s *stubCheckoutService) CreateIntent(ctx context.Context, input checkoutsvc.CreateIntentInput) (*checkoutsvc.IntentResult, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, input)
	return s.result, nil
}

func (s *stubCheckoutService) CancelIntent(ctx context.Context, buyerID string, orderID uuid.UUID) error {
	if s.cancelErr != nil {
		return s.cancelErr
	}
	s.lastBuyer = buyerID
	s.cancelled = append(s.cancelled, orderID)
	return nil
}

func paymentsLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func asBuyer(req *http.Request, buyerID string) *http.Request {
	return req.WithContext(middleware.WithBuyerID(req.Context(), buyerID))
}

func TestCreateIntentHandler(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	svc := &stubCheckoutService{result: &checkoutsvc.IntentResult{
		OrderID:      orderID,
		ClientSecret: "secret_1",
		TotalCents:   302000,
	}}
	rec := httptest.NewRecorder()

	body := fmt.Sprintf(`{"cart_id":%q,"email":"buyer@example.com"}`, uuid.New())
	req := asBuyer(postJSON("/api/v1/payments/create-intent", body), "buyer-1")

	CreateIntent(svc, true, paymentsLogger())(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status: %d, body %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data createIntentResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Data.OrderID != orderID || envelope.Data.ClientSecret != "secret_1" {
		t.Fatalf("unexpected response: %+v", envelope.Data)
	}
	if len(svc.created) != 1 || svc.created[0].BuyerID != "buyer-1" {
		t.Fatalf("unexpected service input: %+v", svc.created)
	}
	if svc.created[0].Email != "buyer@example.com" {
		t.Fatalf("email not forwarded: %q", svc.created[0].Email)
	}
}

func TestCreateIntentHandlerRequiresIdentity(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{result: &checkoutsvc.IntentResult{}}
	rec := httptest.NewRecorder()

	body := fmt.Sprintf(`{"cart_id":%q,"session_id":"sess-1"}`, uuid.New())
	CreateIntent(svc, true, paymentsLogger())(rec, postJSON("/api/v1/payments/create-intent", body))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if len(svc.created) != 0 {
		t.Fatal("anonymous request must not reach the service when auth is required")
	}
}

func TestCreateIntentHandlerSessionFallback(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{result: &checkoutsvc.IntentResult{OrderID: uuid.New()}}
	rec := httptest.NewRecorder()

	body := fmt.Sprintf(`{"cart_id":%q,"session_id":"sess-1"}`, uuid.New())
	CreateIntent(svc, false, paymentsLogger())(rec, postJSON("/api/v1/payments/create-intent", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status: %d, body %s", rec.Code, rec.Body.String())
	}
	if len(svc.created) != 1 || svc.created[0].BuyerID != "sess-1" {
		t.Fatalf("session id must stand in for the buyer: %+v", svc.created)
	}
}

func TestCreateIntentHandlerForwardsPreferredMethod(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{result: &checkoutsvc.IntentResult{OrderID: uuid.New()}}
	rec := httptest.NewRecorder()

	body := fmt.Sprintf(`{"cart_id":%q,"preferred_method":"express"}`, uuid.New())
	req := asBuyer(postJSON("/api/v1/payments/create-intent", body), "buyer-1")
	CreateIntent(svc, true, paymentsLogger())(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status: %d, body %s", rec.Code, rec.Body.String())
	}
	if len(svc.created) != 1 || svc.created[0].PreferredMethod != enums.ShippingMethodExpress {
		t.Fatalf("preference not forwarded: %+v", svc.created)
	}
}

func TestCreateIntentHandlerRejectsUnknownMethod(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{result: &checkoutsvc.IntentResult{}}
	rec := httptest.NewRecorder()

	body := fmt.Sprintf(`{"cart_id":%q,"preferred_method":"teleport"}`, uuid.New())
	req := asBuyer(postJSON("/api/v1/payments/create-intent", body), "buyer-1")
	CreateIntent(svc, true, paymentsLogger())(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if len(svc.created) != 0 {
		t.Fatal("unknown method must not reach the service")
	}
}

func TestCreateIntentHandlerValidation(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{result: &checkoutsvc.IntentResult{}}
	rec := httptest.NewRecorder()

	req := asBuyer(postJSON("/api/v1/payments/create-intent", `{}`), "buyer-1")
	CreateIntent(svc, true, paymentsLogger())(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestCreateIntentHandlerServiceError(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{createErr: pkgerrors.New(pkgerrors.CodeConflict, "artwork is reserved")}
	rec := httptest.NewRecorder()

	body := fmt.Sprintf(`{"cart_id":%q}`, uuid.New())
	req := asBuyer(postJSON("/api/v1/payments/create-intent", body), "buyer-1")
	CreateIntent(svc, true, paymentsLogger())(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestCancelIntentHandler(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{}
	rec := httptest.NewRecorder()
	orderID := uuid.New()

	body := fmt.Sprintf(`{"order_id":%q}`, orderID)
	req := asBuyer(postJSON("/api/v1/payments/cancel-intent", body), "buyer-1")
	CancelIntent(svc, true, paymentsLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d, body %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data map[string]bool `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !envelope.Data["success"] {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if len(svc.cancelled) != 1 || svc.cancelled[0] != orderID || svc.lastBuyer != "buyer-1" {
		t.Fatalf("unexpected cancel call: %+v buyer %s", svc.cancelled, svc.lastBuyer)
	}
}

func TestCancelIntentHandlerNotPending(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{cancelErr: pkgerrors.New(pkgerrors.CodeStateConflict, "order is not pending")}
	rec := httptest.NewRecorder()

	body := fmt.Sprintf(`{"order_id":%q}`, uuid.New())
	req := asBuyer(postJSON("/api/v1/payments/cancel-intent", body), "buyer-1")
	CancelIntent(svc, true, paymentsLogger())(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

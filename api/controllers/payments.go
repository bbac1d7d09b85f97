package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/atelierline/artmarket-backend/api/middleware"
	"github.com/atelierline/artmarket-backend/api/responses"
	"github.com/atelierline/artmarket-backend/api/validators"
	checkoutsvc "github.com/atelierline/artmarket-backend/internal/checkout"
	"github.com/atelierline/artmarket-backend/internal/tax"
	"github.com/atelierline/artmarket-backend/pkg/enums"
	pkgerrors "github.com/atelierline/artmarket-backend/pkg/errors"
	"github.com/atelierline/artmarket-backend/pkg/logger"
	"github.com/atelierline/artmarket-backend/pkg/types"
)

// CreateIntent validates the checkout request and opens a payment intent.
// When auth is not required, an anonymous session id may stand in for the
// buyer identity.
func CreateIntent(svc checkoutsvc.Service, requireAuth bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload createIntentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		buyerID := middleware.BuyerIDFromContext(r.Context())
		if buyerID == "" {
			if requireAuth || payload.SessionID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			buyerID = payload.SessionID
		}

		email := payload.Email
		if email == "" {
			email = middleware.BuyerEmailFromContext(r.Context())
		}

		var business *tax.BusinessID
		if payload.BusinessTaxID != nil {
			business = &tax.BusinessID{
				Country: payload.BusinessTaxID.Country,
				ID:      payload.BusinessTaxID.ID,
			}
		}

		var preferred enums.ShippingMethod
		if payload.PreferredMethod != "" {
			parsed, err := enums.ParseShippingMethod(payload.PreferredMethod)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping method"))
				return
			}
			preferred = parsed
		}

		result, err := svc.CreateIntent(r.Context(), checkoutsvc.CreateIntentInput{
			BuyerID:         buyerID,
			Email:           email,
			CartID:          payload.CartID,
			ShippingAddress: payload.ShippingAddress,
			BillingAddress:  payload.BillingAddress,
			Business:        business,
			PreferredMethod: preferred,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, createIntentResponse{
			OrderID:      result.OrderID,
			ClientSecret: result.ClientSecret,
			TaxBreakdown: result.TaxBreakdown,
			TotalCents:   result.TotalCents,
		})
	}
}

// CancelIntent cancels a still-pending order and frees its holds.
func CancelIntent(svc checkoutsvc.Service, requireAuth bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload cancelIntentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		buyerID := middleware.BuyerIDFromContext(r.Context())
		if buyerID == "" {
			if requireAuth || payload.SessionID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			buyerID = payload.SessionID
		}

		if err := svc.CancelIntent(r.Context(), buyerID, payload.OrderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"success": true})
	}
}

type businessTaxIDRequest struct {
	Country string `json:"country" validate:"required,len=2"`
	ID      string `json:"id" validate:"required"`
}

type createIntentRequest struct {
	CartID          uuid.UUID             `json:"cart_id" validate:"required,uuid4"`
	SessionID       string                `json:"session_id,omitempty"`
	Email           string                `json:"email,omitempty" validate:"omitempty,email"`
	ShippingAddress *types.Address        `json:"shipping_address,omitempty"`
	BillingAddress  *types.Address        `json:"billing_address,omitempty"`
	BusinessTaxID   *businessTaxIDRequest `json:"business_tax_id,omitempty"`
	PreferredMethod string                `json:"preferred_method,omitempty"`
}

type createIntentResponse struct {
	OrderID      uuid.UUID           `json:"order_id"`
	ClientSecret string              `json:"client_secret"`
	TaxBreakdown *types.TaxBreakdown `json:"tax_breakdown"`
	TotalCents   int64               `json:"total_cents"`
}

type cancelIntentRequest struct {
	OrderID   uuid.UUID `json:"order_id" validate:"required,uuid4"`
	SessionID string    `json:"session_id,omitempty"`
}

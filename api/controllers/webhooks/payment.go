package webhooks

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/atelierline/artmarket-backend/api/responses"
	"github.com/atelierline/artmarket-backend/internal/gateway"
	paymentwebhook "github.com/atelierline/artmarket-backend/internal/webhooks/payment"
	"github.com/atelierline/artmarket-backend/pkg/config"
	pkgerrors "github.com/atelierline/artmarket-backend/pkg/errors"
	"github.com/atelierline/artmarket-backend/pkg/logger"
)

type paymentWebhookService interface {
	HandleEvent(ctx context.Context, event *paymentwebhook.Event) error
}

type paymentWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// PaymentWebhook verifies and applies provider payment events. Signature
// verification runs before anything else; an unverifiable event causes no
// state change. A processing failure releases the idempotency claim so the
// provider's retry gets another attempt.
func PaymentWebhook(svc paymentWebhookService, guard paymentWebhookGuard, cfg config.GatewayConfig, tolerance time.Duration, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get(gateway.SignatureHeader)
		if err := gateway.VerifySignature(cfg.WebhookSecret, payload, sigHeader, tolerance, time.Now()); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		event, err := paymentwebhook.ParseEvent(payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, event.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			responses.WriteSuccess(w, map[string]bool{"received": true})
			return
		}

		if err := svc.HandleEvent(ctx, event); err != nil {
			_ = guard.Delete(ctx, event.ID)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			loggCtx := logg.WithFields(ctx, map[string]any{
				"event_id":   event.ID,
				"event_type": event.Type.String(),
			})
			logg.Info(loggCtx, "payment event processed")
		}
		responses.WriteSuccess(w, map[string]bool{"received": true})
	}
}

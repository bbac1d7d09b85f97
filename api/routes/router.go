package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/atelierline/artmarket-backend/api/controllers"
	webhookcontrollers "github.com/atelierline/artmarket-backend/api/controllers/webhooks"
	"github.com/atelierline/artmarket-backend/api/middleware"
	checkoutsvc "github.com/atelierline/artmarket-backend/internal/checkout"
	paymentwebhook "github.com/atelierline/artmarket-backend/internal/webhooks/payment"
	"github.com/atelierline/artmarket-backend/pkg/config"
	"github.com/atelierline/artmarket-backend/pkg/db"
	"github.com/atelierline/artmarket-backend/pkg/logger"
	"github.com/atelierline/artmarket-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	checkoutService checkoutsvc.Service,
	webhookService *paymentwebhook.Service,
	webhookGuard *paymentwebhook.IdempotencyGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		cors.Handler(cors.Options{
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payment", webhookcontrollers.PaymentWebhook(
			webhookService,
			webhookGuard,
			cfg.Gateway,
			cfg.Checkout.SignatureTolerance,
			logg,
		))
	})

	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, cfg.Checkout.RequireAuth, logg))
		r.Get("/ping", controllers.PrivatePing())
		r.Post("/create-intent", controllers.CreateIntent(checkoutService, cfg.Checkout.RequireAuth, logg))
		r.Post("/cancel-intent", controllers.CancelIntent(checkoutService, cfg.Checkout.RequireAuth, logg))
	})

	return r
}

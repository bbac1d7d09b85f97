package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/atelierline/artmarket-backend/api/routes"
	"github.com/atelierline/artmarket-backend/internal/cart"
	"github.com/atelierline/artmarket-backend/internal/catalog"
	checkoutsvc "github.com/atelierline/artmarket-backend/internal/checkout"
	"github.com/atelierline/artmarket-backend/internal/fulfillment"
	"github.com/atelierline/artmarket-backend/internal/gateway"
	"github.com/atelierline/artmarket-backend/internal/holds"
	"github.com/atelierline/artmarket-backend/internal/orders"
	"github.com/atelierline/artmarket-backend/internal/payouts"
	"github.com/atelierline/artmarket-backend/internal/pricing"
	"github.com/atelierline/artmarket-backend/internal/shipping"
	"github.com/atelierline/artmarket-backend/internal/tax"
	paymentwebhook "github.com/atelierline/artmarket-backend/internal/webhooks/payment"
	"github.com/atelierline/artmarket-backend/pkg/config"
	"github.com/atelierline/artmarket-backend/pkg/db"
	"github.com/atelierline/artmarket-backend/pkg/logger"
	"github.com/atelierline/artmarket-backend/pkg/migrate"
	"github.com/atelierline/artmarket-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gatewayClient, err := gateway.NewHTTPClient(cfg.Gateway)
	if err != nil {
		logg.Error(context.Background(), "failed to create gateway client", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	holdRepo := holds.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	payoutRepo := payouts.NewRepository(dbClient.DB())
	entitlementRepo := fulfillment.NewEntitlementRepository(dbClient.DB())

	holdManager, err := holds.NewManager(holds.ManagerParams{
		Repo:       holdRepo,
		DefaultTTL: cfg.Checkout.HoldTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create hold manager", err)
		os.Exit(1)
	}

	pricer, err := pricing.NewResolver(pricing.ResolverParams{
		Catalog: catalogRepo,
		Holds:   holdRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing resolver", err)
		os.Exit(1)
	}

	taxValidator, err := tax.NewValidator(tax.ValidatorParams{
		BaseURL:     cfg.Tax.ValidatorBaseURL,
		Timeout:     cfg.Tax.ValidatorTimeout,
		Cache:       redisClient,
		CacheTTL:    cfg.Tax.ValidationTTL,
		IsCacheMiss: redis.IsNil,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create tax validator", err)
		os.Exit(1)
	}

	taxResolver, err := tax.NewResolver(tax.ResolverParams{
		Validator:     taxValidator,
		SellerCountry: cfg.Tax.SellerCountry,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create tax resolver", err)
		os.Exit(1)
	}

	shippingParams := shipping.ServiceParams{
		FlatRateCents: cfg.Shipping.FlatRateCents,
		Logger:        logg,
	}
	var carrier *shipping.HTTPQuoter
	if cfg.Shipping.BaseURL != "" {
		carrier, err = shipping.NewHTTPQuoter(cfg.Shipping.BaseURL, cfg.Shipping.APIKey, cfg.Shipping.Timeout)
		if err != nil {
			logg.Error(context.Background(), "failed to create shipping quoter", err)
			os.Exit(1)
		}
		shippingParams.Quoter = carrier
	}
	shippingService, err := shipping.NewService(shippingParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		TxRunner: dbClient,
		CartRepo: cartRepo,
		Orders:   orderRepo,
		Pricer:   pricer,
		Holds:    holdManager,
		Tax:      taxResolver,
		Shipping: shippingService,
		Gateway:  gatewayClient,
		HoldTTL:  cfg.Checkout.HoldTTL,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	payoutEngine, err := payouts.NewEngine(payouts.EngineParams{
		Repo:           payoutRepo,
		Orders:         orderRepo,
		Gateway:        gatewayClient,
		TxRunner:       dbClient,
		PlatformFeeBps: cfg.Payouts.PlatformFeeBps,
		DelayDays:      cfg.Payouts.DelayDays,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payout engine", err)
		os.Exit(1)
	}

	var sideEffects []fulfillment.SideEffect
	if cfg.Notify.BaseURL != "" {
		notifier, err := fulfillment.NewHTTPNotifier(cfg.Notify.BaseURL, cfg.Notify.APIKey, cfg.Notify.Timeout)
		if err != nil {
			logg.Error(context.Background(), "failed to create notifier", err)
			os.Exit(1)
		}
		sideEffects = append(sideEffects, fulfillment.NewReceiptEffect(notifier))
	}
	if carrier != nil {
		sideEffects = append(sideEffects, fulfillment.NewShipmentEffect(carrier, logg))
	}
	effects, err := fulfillment.NewService(logg, sideEffects...)
	if err != nil {
		logg.Error(context.Background(), "failed to create fulfillment service", err)
		os.Exit(1)
	}

	webhookService, err := paymentwebhook.NewService(paymentwebhook.ServiceParams{
		TxRunner:     dbClient,
		Orders:       orderRepo,
		Catalog:      catalogRepo,
		Carts:        cartRepo,
		Holds:        holdManager,
		Payouts:      payoutEngine,
		Entitlements: entitlementRepo,
		Effects:      effects,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := paymentwebhook.NewIdempotencyGuard(redisClient, cfg.Checkout.IdempotencyTTL, "payment")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, checkoutService, webhookService, webhookGuard),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

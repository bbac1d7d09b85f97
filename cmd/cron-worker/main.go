package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/atelierline/artmarket-backend/internal/cron"
	"github.com/atelierline/artmarket-backend/internal/gateway"
	"github.com/atelierline/artmarket-backend/internal/holds"
	"github.com/atelierline/artmarket-backend/internal/orders"
	"github.com/atelierline/artmarket-backend/internal/payouts"
	"github.com/atelierline/artmarket-backend/pkg/config"
	"github.com/atelierline/artmarket-backend/pkg/db"
	"github.com/atelierline/artmarket-backend/pkg/logger"
	"github.com/atelierline/artmarket-backend/pkg/metrics"
	"github.com/atelierline/artmarket-backend/pkg/migrate"
	"github.com/atelierline/artmarket-backend/pkg/redis"
)

const lockKeyFormat = "am:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	holdRepo := holds.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	payoutRepo := payouts.NewRepository(dbClient.DB())

	holdManager, err := holds.NewManager(holds.ManagerParams{
		Repo:       holdRepo,
		DefaultTTL: cfg.Checkout.HoldTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create hold manager", err)
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

	holdSweepJob, err := cron.NewHoldSweepJob(cron.HoldSweepJobParams{
		Logger: logg,
		Holds:  holdManager,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create hold sweep job", err)
		os.Exit(1)
	}

	payoutReleaseJob, err := cron.NewPayoutReleaseJob(cron.PayoutReleaseJobParams{
		Logger:  logg,
		Payouts: payoutEngine,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payout release job", err)
		os.Exit(1)
	}

	orderExpiryJob, err := cron.NewOrderExpiryJob(cron.OrderExpiryJobParams{
		Logger:  logg,
		DB:      dbClient,
		Orders:  orderRepo,
		Holds:   holdManager,
		Gateway: gatewayClient,
		TTL:     cfg.Checkout.PendingOrderTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order expiry job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(holdSweepJob, payoutReleaseJob, orderExpiryJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}

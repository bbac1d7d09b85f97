package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/atelierline/artmarket-backend/internal/gateway"
	"github.com/atelierline/artmarket-backend/internal/orders"
	"github.com/atelierline/artmarket-backend/pkg/logger"
)

const orderExpiryBatchSize = 100

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type holdReleaser interface {
	Release(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
}

// OrderExpiryJobParams configure the pending-order expiry sweep.
type OrderExpiryJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Orders    orders.Repository
	Holds     holdReleaser
	Gateway   gateway.Client
	TTL       time.Duration
	BatchSize int
	Now       func() time.Time
}

// NewOrderExpiryJob builds the job that cancels pending orders whose buyer
// never completed payment. Provider cancellation failures are logged per
// order; the local cancel still proceeds so holds are freed.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Holds == nil {
		return nil, fmt.Errorf("hold manager required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	if params.TTL <= 0 {
		return nil, fmt.Errorf("ttl must be positive")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = orderExpiryBatchSize
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &orderExpiryJob{
		logg:    params.Logger,
		db:      params.DB,
		orders:  params.Orders,
		holds:   params.Holds,
		gateway: params.Gateway,
		ttl:     params.TTL,
		batch:   batch,
		now:     params.Now,
	}, nil
}

type orderExpiryJob struct {
	logg    *logger.Logger
	db      txRunner
	orders  orders.Repository
	holds   holdReleaser
	gateway gateway.Client
	ttl     time.Duration
	batch   int
	now     func() time.Time
}

func (j *orderExpiryJob) Name() string { return "order-expiry" }

func (j *orderExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.ttl)
	expired, err := j.orders.ListExpiredPending(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("order expiry: %w", err)
	}

	cancelled := 0
	var errs []error
	for _, order := range expired {
		if order.PaymentTxID != nil {
			if err := j.gateway.CancelTransaction(ctx, *order.PaymentTxID); err != nil {
				logCtx := j.logg.WithOrderID(ctx, order.ID.String())
				j.logg.Error(logCtx, "provider cancel failed for expired order", err)
			}
		}

		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			flipped, err := j.orders.WithTx(tx).MarkCancelled(ctx, order.ID, j.now())
			if err != nil {
				return err
			}
			if !flipped {
				return nil
			}
			cancelled++
			return j.holds.Release(ctx, tx, order.ID)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("expire order %s: %w", order.ID, err))
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":           cutoff,
		"orders_cancelled": cancelled,
	})
	j.logg.Info(logCtx, "order expiry complete")
	return multierr.Combine(errs...)
}

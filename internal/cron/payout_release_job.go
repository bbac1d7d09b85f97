package cron

import (
	"context"
	"fmt"

	"github.com/atelierline/artmarket-backend/pkg/logger"
)

const payoutReleaseBatchSize = 200

type payoutReleaser interface {
	ReleaseDue(ctx context.Context, limit int) (int, error)
}

// PayoutReleaseJobParams configure the payout release sweep.
type PayoutReleaseJobParams struct {
	Logger    *logger.Logger
	Payouts   payoutReleaser
	BatchSize int
}

// NewPayoutReleaseJob builds the job that transfers payouts whose holdback
// window has elapsed. Individual transfer failures stay pending and are
// retried on the next cycle.
func NewPayoutReleaseJob(params PayoutReleaseJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payouts == nil {
		return nil, fmt.Errorf("payout engine required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = payoutReleaseBatchSize
	}
	return &payoutReleaseJob{
		logg:    params.Logger,
		payouts: params.Payouts,
		batch:   batch,
	}, nil
}

type payoutReleaseJob struct {
	logg    *logger.Logger
	payouts payoutReleaser
	batch   int
}

func (j *payoutReleaseJob) Name() string { return "payout-release" }

func (j *payoutReleaseJob) Run(ctx context.Context) error {
	released, err := j.payouts.ReleaseDue(ctx, j.batch)
	if err != nil {
		return fmt.Errorf("payout release: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"payouts_released": released})
	j.logg.Info(logCtx, "payout release complete")
	return nil
}

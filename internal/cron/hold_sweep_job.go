package cron

import (
	"context"
	"fmt"

	"github.com/atelierline/artmarket-backend/pkg/logger"
)

type holdSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// HoldSweepJobParams configure the expired-hold sweep.
type HoldSweepJobParams struct {
	Logger *logger.Logger
	Holds  holdSweeper
}

// NewHoldSweepJob builds the job that deletes lapsed artwork holds. Expiry
// is otherwise only enforced lazily at acquire time; this sweep bounds how
// long a stale hold can linger in the table.
func NewHoldSweepJob(params HoldSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Holds == nil {
		return nil, fmt.Errorf("hold manager required")
	}
	return &holdSweepJob{
		logg:  params.Logger,
		holds: params.Holds,
	}, nil
}

type holdSweepJob struct {
	logg  *logger.Logger
	holds holdSweeper
}

func (j *holdSweepJob) Name() string { return "hold-sweep" }

func (j *holdSweepJob) Run(ctx context.Context) error {
	swept, err := j.holds.SweepExpired(ctx)
	if err != nil {
		return fmt.Errorf("hold sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"rows_deleted": swept})
	j.logg.Info(logCtx, "hold sweep complete")
	return nil
}

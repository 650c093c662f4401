package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/nileshbarai/distrokhata-backend/internal/subscription"
	"github.com/nileshbarai/distrokhata-backend/pkg/logger"
)

// PlanExpiryJobParams configure the plan expiry job.
type PlanExpiryJobParams struct {
	Logger *logger.Logger
	Repo   subscription.Repository
	Now    func() time.Time
}

// NewPlanExpiryJob builds the cron job that flips lapsed tenant plan
// assignments to expired. The quota gate only reads active assignments, so
// this is bookkeeping; it keeps reporting queries honest.
func NewPlanExpiryJob(params PlanExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &planExpiryJob{
		logg: params.Logger,
		repo: params.Repo,
		now:  now,
	}, nil
}

type planExpiryJob struct {
	logg *logger.Logger
	repo subscription.Repository
	now  func() time.Time
}

func (j *planExpiryJob) Name() string { return "plan-expiry" }

func (j *planExpiryJob) Run(ctx context.Context) error {
	expired, err := j.repo.ExpireLapsedPlans(ctx, j.now())
	if err != nil {
		return fmt.Errorf("expire lapsed plans: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "count", expired)
	j.logg.Info(logCtx, "plan expiry sweep complete")
	return nil
}

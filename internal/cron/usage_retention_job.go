package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/nileshbarai/distrokhata-backend/internal/subscription"
	"github.com/nileshbarai/distrokhata-backend/pkg/logger"
)

const defaultUsageRetentionMonths = 24

// UsageRetentionJobParams configure the usage counter retention job.
type UsageRetentionJobParams struct {
	Logger          *logger.Logger
	Repo            subscription.Repository
	RetentionMonths int
	Now             func() time.Time
}

// NewUsageRetentionJob builds the cron job that purges monthly usage
// counters past the retention horizon. Counters only matter for the month
// they guard, so old rows are pure noise.
func NewUsageRetentionJob(params UsageRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	months := params.RetentionMonths
	if months <= 0 {
		months = defaultUsageRetentionMonths
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &usageRetentionJob{
		logg:   params.Logger,
		repo:   params.Repo,
		months: months,
		now:    now,
	}, nil
}

type usageRetentionJob struct {
	logg   *logger.Logger
	repo   subscription.Repository
	months int
	now    func() time.Time
}

func (j *usageRetentionJob) Name() string { return "usage-retention" }

func (j *usageRetentionJob) Run(ctx context.Context) error {
	horizon := j.now().AddDate(0, -j.months, 0).Format(subscription.PeriodFormat)
	purged, err := j.repo.PurgeUsageBefore(ctx, horizon)
	if err != nil {
		return fmt.Errorf("purge usage counters: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": purged, "horizon": horizon})
	j.logg.Info(logCtx, "usage retention sweep complete")
	return nil
}

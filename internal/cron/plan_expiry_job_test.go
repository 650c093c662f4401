package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/nileshbarai/distrokhata-backend/internal/subscription"
	"github.com/nileshbarai/distrokhata-backend/pkg/db/models"
	"github.com/nileshbarai/distrokhata-backend/pkg/logger"
)

type fakeSubscriptionRepo struct {
	expireNow   time.Time
	expireCalls int
	purgePeriod string
	purgeCalls  int
	expired     int64
	purged      int64
	expireErr   error
	purgeErr    error
}

func (f *fakeSubscriptionRepo) WithTx(*gorm.DB) subscription.Repository { return f }

func (f *fakeSubscriptionRepo) FindActivePlan(context.Context, int64, time.Time) (*models.TenantPlan, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSubscriptionRepo) FindUsage(context.Context, int64, string) (*models.Usage, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSubscriptionRepo) IncrementUsage(context.Context, int64, string) error { return nil }

func (f *fakeSubscriptionRepo) DecrementUsage(context.Context, int64, string) error { return nil }

func (f *fakeSubscriptionRepo) ExpireLapsedPlans(_ context.Context, now time.Time) (int64, error) {
	f.expireCalls++
	f.expireNow = now
	return f.expired, f.expireErr
}

func (f *fakeSubscriptionRepo) PurgeUsageBefore(_ context.Context, period string) (int64, error) {
	f.purgeCalls++
	f.purgePeriod = period
	return f.purged, f.purgeErr
}

func TestPlanExpiryJobExpiresLapsedAssignments(t *testing.T) {
	now := time.Date(2026, 9, 1, 3, 0, 0, 0, time.UTC)
	repo := &fakeSubscriptionRepo{expired: 3}
	job, err := NewPlanExpiryJob(PlanExpiryJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Repo:   repo,
		Now:    func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("NewPlanExpiryJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if repo.expireCalls != 1 {
		t.Fatalf("expected one expire call, got %d", repo.expireCalls)
	}
	if !repo.expireNow.Equal(now) {
		t.Fatalf("expected expire at %s, got %s", now, repo.expireNow)
	}
}

func TestPlanExpiryJobPropagatesError(t *testing.T) {
	repo := &fakeSubscriptionRepo{expireErr: errors.New("boom")}
	job, err := NewPlanExpiryJob(PlanExpiryJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Repo:   repo,
	})
	if err != nil {
		t.Fatalf("NewPlanExpiryJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestUsageRetentionJobPurgesOldPeriods(t *testing.T) {
	now := time.Date(2026, 9, 1, 3, 0, 0, 0, time.UTC)
	repo := &fakeSubscriptionRepo{purged: 12}
	job, err := NewUsageRetentionJob(UsageRetentionJobParams{
		Logger:          logger.New(logger.Options{ServiceName: "test"}),
		Repo:            repo,
		RetentionMonths: 24,
		Now:             func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("NewUsageRetentionJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if repo.purgeCalls != 1 {
		t.Fatalf("expected one purge call, got %d", repo.purgeCalls)
	}
	if repo.purgePeriod != "2024-09" {
		t.Fatalf("expected horizon 2024-09, got %s", repo.purgePeriod)
	}
}

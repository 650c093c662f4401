package subscription

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/nileshbarai/distrokhata-backend/pkg/db/models"
	pkgerrors "github.com/nileshbarai/distrokhata-backend/pkg/errors"
)

type fakeRepository struct {
	plan        *models.TenantPlan
	planErr     error
	usage       *models.Usage
	usageErr    error
	incremented []string
	decremented []string
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) FindActivePlan(ctx context.Context, tenantID int64, now time.Time) (*models.TenantPlan, error) {
	if f.planErr != nil {
		return nil, f.planErr
	}
	return f.plan, nil
}

func (f *fakeRepository) FindUsage(ctx context.Context, tenantID int64, period string) (*models.Usage, error) {
	if f.usageErr != nil {
		return nil, f.usageErr
	}
	return f.usage, nil
}

func (f *fakeRepository) IncrementUsage(ctx context.Context, tenantID int64, period string) error {
	f.incremented = append(f.incremented, period)
	return nil
}

func (f *fakeRepository) DecrementUsage(ctx context.Context, tenantID int64, period string) error {
	f.decremented = append(f.decremented, period)
	return nil
}

func (f *fakeRepository) ExpireLapsedPlans(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeRepository) PurgeUsageBefore(ctx context.Context, period string) (int64, error) {
	return 0, nil
}

func planWithQuota(quota int) *models.TenantPlan {
	return &models.TenantPlan{
		TenantID: 1,
		PlanID:   1,
		Status:   "active",
		Plan:     &models.Plan{ID: 1, Name: "Standard", OrdersPerMonth: quota},
	}
}

func TestCanCreateOrderWithinQuota(t *testing.T) {
	repo := &fakeRepository{
		plan:  planWithQuota(50),
		usage: &models.Usage{TenantID: 1, PeriodMonth: "2026-09", OrdersCount: 10},
	}
	gate, err := NewGate(repo)
	if err != nil {
		t.Fatalf("unexpected gate error: %v", err)
	}

	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	if err := gate.CanCreateOrder(context.Background(), nil, 1, now); err != nil {
		t.Fatalf("expected order allowed, got %v", err)
	}
}

func TestCanCreateOrderAtLimit(t *testing.T) {
	repo := &fakeRepository{
		plan:  planWithQuota(10),
		usage: &models.Usage{TenantID: 1, PeriodMonth: "2026-09", OrdersCount: 10},
	}
	gate, _ := NewGate(repo)

	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	err := gate.CanCreateOrder(context.Background(), nil, 1, now)
	if !pkgerrors.IsCode(err, pkgerrors.CodeLimitExceeded) {
		t.Fatalf("expected limit exceeded, got %v", err)
	}
}

func TestCanCreateOrderNoPlanGetsDefaultLimit(t *testing.T) {
	repo := &fakeRepository{
		planErr: gorm.ErrRecordNotFound,
		usage:   &models.Usage{TenantID: 1, PeriodMonth: "2026-09", OrdersCount: DefaultOrdersPerMonth - 1},
	}
	gate, _ := NewGate(repo)

	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	if err := gate.CanCreateOrder(context.Background(), nil, 1, now); err != nil {
		t.Fatalf("expected order allowed under default limit, got %v", err)
	}
}

func TestCanCreateOrderNoPlanAtDefaultLimit(t *testing.T) {
	repo := &fakeRepository{
		planErr: gorm.ErrRecordNotFound,
		usage:   &models.Usage{TenantID: 1, PeriodMonth: "2026-09", OrdersCount: DefaultOrdersPerMonth},
	}
	gate, _ := NewGate(repo)

	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	err := gate.CanCreateOrder(context.Background(), nil, 1, now)
	if !pkgerrors.IsCode(err, pkgerrors.CodeLimitExceeded) {
		t.Fatalf("expected limit exceeded at default quota, got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", pkgerrors.As(err).Details())
	}
	if details["limit"] != DefaultOrdersPerMonth {
		t.Fatalf("expected default limit %d in details, got %v", DefaultOrdersPerMonth, details["limit"])
	}
}

func TestCanCreateOrderNoPlanFreshTenant(t *testing.T) {
	repo := &fakeRepository{
		planErr:  gorm.ErrRecordNotFound,
		usageErr: gorm.ErrRecordNotFound,
	}
	gate, _ := NewGate(repo)

	if err := gate.CanCreateOrder(context.Background(), nil, 1, time.Now()); err != nil {
		t.Fatalf("expected first order allowed without a plan, got %v", err)
	}
}

func TestCanCreateOrderUnlimitedPlan(t *testing.T) {
	repo := &fakeRepository{
		plan:  planWithQuota(0),
		usage: &models.Usage{TenantID: 1, PeriodMonth: "2026-09", OrdersCount: 9999},
	}
	gate, _ := NewGate(repo)

	if err := gate.CanCreateOrder(context.Background(), nil, 1, time.Now()); err != nil {
		t.Fatalf("zero quota should mean unlimited, got %v", err)
	}
}

func TestCanCreateOrderFirstOrderOfMonth(t *testing.T) {
	repo := &fakeRepository{
		plan:     planWithQuota(10),
		usageErr: gorm.ErrRecordNotFound,
	}
	gate, _ := NewGate(repo)

	if err := gate.CanCreateOrder(context.Background(), nil, 1, time.Now()); err != nil {
		t.Fatalf("missing usage row should allow the order, got %v", err)
	}
}

func TestOrderCreatedAndReleasedUsePeriodBuckets(t *testing.T) {
	repo := &fakeRepository{}
	gate, _ := NewGate(repo)

	created := time.Date(2026, time.August, 30, 18, 0, 0, 0, time.UTC)
	if err := gate.OrderCreated(context.Background(), nil, 1, created); err != nil {
		t.Fatalf("OrderCreated: %v", err)
	}
	if err := gate.OrderReleased(context.Background(), nil, 1, created); err != nil {
		t.Fatalf("OrderReleased: %v", err)
	}

	if len(repo.incremented) != 1 || repo.incremented[0] != "2026-08" {
		t.Fatalf("unexpected increment periods %v", repo.incremented)
	}
	if len(repo.decremented) != 1 || repo.decremented[0] != "2026-08" {
		t.Fatalf("unexpected decrement periods %v", repo.decremented)
	}
}

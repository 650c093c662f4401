package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	pkgerrors "github.com/nileshbarai/distrokhata-backend/pkg/errors"
)

// PeriodFormat is the usage bucket key, one row per tenant per month.
const PeriodFormat = "2006-01"

// DefaultOrdersPerMonth applies to tenants without an active plan
// assignment.
const DefaultOrdersPerMonth = 10

// Gate enforces the per-tenant monthly order quota. Master admins and
// tenant-less actors bypass the gate entirely.
type Gate interface {
	CanCreateOrder(ctx context.Context, tx *gorm.DB, tenantID int64, now time.Time) error
	OrderCreated(ctx context.Context, tx *gorm.DB, tenantID int64, now time.Time) error
	OrderReleased(ctx context.Context, tx *gorm.DB, tenantID int64, createdAt time.Time) error
}

type gate struct {
	repo Repository
}

// NewGate wires the subscription gate with the provided repository.
func NewGate(repo Repository) (Gate, error) {
	if repo == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	return &gate{repo: repo}, nil
}

// CanCreateOrder checks the tenant's quota against the current month's
// usage. Tenants without an active plan get the default monthly limit; a
// plan with a non-positive quota is unlimited.
func (g *gate) CanCreateOrder(ctx context.Context, tx *gorm.DB, tenantID int64, now time.Time) error {
	repo := g.repo.WithTx(tx)

	limit := DefaultOrdersPerMonth
	assignment, err := repo.FindActivePlan(ctx, tenantID, now)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tenant plan")
	case err == nil:
		if assignment.Plan == nil || assignment.Plan.OrdersPerMonth <= 0 {
			return nil
		}
		limit = assignment.Plan.OrdersPerMonth
	}

	period := now.Format(PeriodFormat)
	usage, err := repo.FindUsage(ctx, tenantID, period)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load usage counter")
	}
	if usage.OrdersCount >= limit {
		return pkgerrors.New(pkgerrors.CodeLimitExceeded, "monthly order limit reached").
			WithDetails(map[string]any{
				"limit":  limit,
				"used":   usage.OrdersCount,
				"period": period,
			})
	}
	return nil
}

// OrderCreated consumes one quota slot for the month containing now.
func (g *gate) OrderCreated(ctx context.Context, tx *gorm.DB, tenantID int64, now time.Time) error {
	if err := g.repo.WithTx(tx).IncrementUsage(ctx, tenantID, now.Format(PeriodFormat)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment usage counter")
	}
	return nil
}

// OrderReleased returns the slot consumed by an order that was cancelled in
// the same month it was created.
func (g *gate) OrderReleased(ctx context.Context, tx *gorm.DB, tenantID int64, createdAt time.Time) error {
	if err := g.repo.WithTx(tx).DecrementUsage(ctx, tenantID, createdAt.Format(PeriodFormat)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement usage counter")
	}
	return nil
}

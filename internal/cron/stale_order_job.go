package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/nileshbarai/distrokhata-backend/internal/orders"
	"github.com/nileshbarai/distrokhata-backend/internal/subscription"
	"github.com/nileshbarai/distrokhata-backend/pkg/enums"
	"github.com/nileshbarai/distrokhata-backend/pkg/logger"
)

const defaultStaleOrderAge = 10 * 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// StaleOrderJobParams configure the stale pending order sweeper.
type StaleOrderJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	OrderRepo orders.Repository
	Gate      subscription.Gate
	MaxAge    time.Duration
	Now       func() time.Time
}

// NewStaleOrderJob builds the cron job that cancels pending orders nobody
// completed. Each cancellation releases the tenant's quota slot, the same
// as a manual cancel.
func NewStaleOrderJob(params StaleOrderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.OrderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Gate == nil {
		return nil, fmt.Errorf("subscription gate required")
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = defaultStaleOrderAge
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &staleOrderJob{
		logg:   params.Logger,
		db:     params.DB,
		repo:   params.OrderRepo,
		gate:   params.Gate,
		maxAge: maxAge,
		now:    now,
	}, nil
}

type staleOrderJob struct {
	logg   *logger.Logger
	db     txRunner
	repo   orders.Repository
	gate   subscription.Gate
	maxAge time.Duration
	now    func() time.Time
}

func (j *staleOrderJob) Name() string { return "stale-order-sweep" }

func (j *staleOrderJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.maxAge)
	stale, err := j.repo.FindPendingBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query stale pending orders: %w", err)
	}

	cancelled := 0
	for i := range stale {
		if err := j.cancelOrder(ctx, stale[i].ID); err != nil {
			return fmt.Errorf("cancel stale order %s: %w", stale[i].OrderNo, err)
		}
		cancelled++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": cancelled, "cutoff": cutoff})
	j.logg.Info(logCtx, "stale order sweep complete")
	return nil
}

// cancelOrder re-reads the order inside its own transaction so a concurrent
// completion between sweep query and cancel wins.
func (j *staleOrderJob) cancelOrder(ctx context.Context, id int64) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusPending {
			return nil
		}
		order.Status = enums.OrderStatusCancelled
		order.Items = nil
		if err := repo.Save(ctx, order); err != nil {
			return err
		}
		if order.TenantID != nil {
			return j.gate.OrderReleased(ctx, tx, *order.TenantID, order.CreatedAt)
		}
		return nil
	})
}

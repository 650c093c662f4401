package subscription

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nileshbarai/distrokhata-backend/pkg/db/models"
)

// Repository manages plan assignments and monthly usage counters.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActivePlan(ctx context.Context, tenantID int64, now time.Time) (*models.TenantPlan, error)
	FindUsage(ctx context.Context, tenantID int64, period string) (*models.Usage, error)
	IncrementUsage(ctx context.Context, tenantID int64, period string) error
	DecrementUsage(ctx context.Context, tenantID int64, period string) error
	ExpireLapsedPlans(ctx context.Context, now time.Time) (int64, error)
	PurgeUsageBefore(ctx context.Context, period string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a subscription repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindActivePlan(ctx context.Context, tenantID int64, now time.Time) (*models.TenantPlan, error) {
	var assignment models.TenantPlan
	if err := r.db.WithContext(ctx).
		Preload("Plan").
		Where("tenant_id = ? AND status = ? AND start_date <= ? AND end_date >= ?",
			tenantID, "active", now, now).
		Order("end_date DESC").
		First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) FindUsage(ctx context.Context, tenantID int64, period string) (*models.Usage, error) {
	var usage models.Usage
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND period_month = ?", tenantID, period).
		First(&usage).Error; err != nil {
		return nil, err
	}
	return &usage, nil
}

// IncrementUsage bumps the month's counter, creating the row on first use.
func (r *repository) IncrementUsage(ctx context.Context, tenantID int64, period string) error {
	usage := models.Usage{
		TenantID:    tenantID,
		PeriodMonth: period,
		OrdersCount: 1,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "period_month"}},
			DoUpdates: clause.Assignments(map[string]any{
				"orders_count": gorm.Expr("usage_counters.orders_count + 1"),
				"updated_at":   time.Now(),
			}),
		}).
		Create(&usage).Error
}

// DecrementUsage releases one slot after a same-month cancellation, never
// dropping below zero.
func (r *repository) DecrementUsage(ctx context.Context, tenantID int64, period string) error {
	return r.db.WithContext(ctx).
		Model(&models.Usage{}).
		Where("tenant_id = ? AND period_month = ? AND orders_count > 0", tenantID, period).
		UpdateColumn("orders_count", gorm.Expr("orders_count - 1")).Error
}

// ExpireLapsedPlans flips active assignments whose validity has ended.
func (r *repository) ExpireLapsedPlans(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.TenantPlan{}).
		Where("status = ? AND end_date < ?", "active", now).
		Updates(map[string]any{"status": "expired", "updated_at": now})
	return result.RowsAffected, result.Error
}

// PurgeUsageBefore drops monthly counters older than the given YYYY-MM
// period. Lexicographic comparison is safe for the fixed format.
func (r *repository) PurgeUsageBefore(ctx context.Context, period string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("period_month < ?", period).
		Delete(&models.Usage{})
	return result.RowsAffected, result.Error
}

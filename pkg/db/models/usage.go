package models

import "time"

// Usage is the per-tenant monthly consumption row the subscription gate
// reads and bumps. PeriodMonth is formatted YYYY-MM.
type Usage struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID    int64     `gorm:"column:tenant_id;not null;uniqueIndex:uq_usage_tenant_period"`
	PeriodMonth string    `gorm:"column:period_month;size:7;not null;uniqueIndex:uq_usage_tenant_period"`
	OrdersCount int       `gorm:"column:orders_count;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default GORM pluralization.
func (Usage) TableName() string {
	return "usage_counters"
}

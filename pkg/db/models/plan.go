package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan is a subscription tier. Only the order quota matters to this core;
// plan CRUD lives outside it.
type Plan struct {
	ID             int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Name           string          `gorm:"column:name;size:100;not null"`
	Slug           string          `gorm:"column:slug;size:100;not null;uniqueIndex"`
	Price          decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null;default:0"`
	OrdersPerMonth int             `gorm:"column:orders_per_month;not null;default:0"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default GORM pluralization.
func (Plan) TableName() string {
	return "plans"
}

// TenantPlan assigns a plan to a tenant for a validity period.
type TenantPlan struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID  int64     `gorm:"column:tenant_id;not null;index"`
	PlanID    int64     `gorm:"column:plan_id;not null"`
	Status    string    `gorm:"column:status;size:20;not null;default:'active'"`
	StartDate time.Time `gorm:"column:start_date;not null"`
	EndDate   time.Time `gorm:"column:end_date;not null"`
	Plan      *Plan     `gorm:"foreignKey:PlanID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default GORM pluralization.
func (TenantPlan) TableName() string {
	return "tenant_plans"
}

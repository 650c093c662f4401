package models

import "time"

// Tenant is one onboarded distribution business. Orders and ledger entries
// are scoped to a tenant; a nil tenant reference means the platform-wide
// super tenant.
type Tenant struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;size:255;not null"`
	Slug      string    `gorm:"column:slug;size:100;not null;uniqueIndex"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default GORM pluralization.
func (Tenant) TableName() string {
	return "tenants"
}

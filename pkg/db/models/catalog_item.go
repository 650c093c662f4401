package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CatalogItem is a sellable item with its current unit rate. Orders snapshot
// the rate at creation/merge time; this table is never re-read for an
// existing order line.
type CatalogItem struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID  *int64          `gorm:"column:tenant_id;index"`
	Name      string          `gorm:"column:name;size:255;not null"`
	Unit      string          `gorm:"column:unit;size:50"`
	Rate      decimal.Decimal `gorm:"column:rate;type:numeric(12,2);not null"`
	BoxRate   decimal.Decimal `gorm:"column:box_rate;type:numeric(12,2);not null;default:0"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default GORM pluralization.
func (CatalogItem) TableName() string {
	return "catalog_items"
}

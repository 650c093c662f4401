package models

import "github.com/shopspring/decimal"

// OrderItem is one line of an order. Rate is a snapshot of the catalog rate
// at creation or merge time and Amount is always Qty times Rate. Item sets
// are replaced wholesale on every order write, never patched line by line.
type OrderItem struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID      int64           `gorm:"column:order_id;not null;index"`
	ItemID       int64           `gorm:"column:item_id;not null;index"`
	Qty          int             `gorm:"column:qty;not null"`
	Rate         decimal.Decimal `gorm:"column:rate;type:numeric(12,2);not null"`
	Amount       decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	OrderedByBox bool            `gorm:"column:ordered_by_box;not null;default:false"`
	BoxCount     int             `gorm:"column:box_count;not null;default:0"`
	BoxRate      decimal.Decimal `gorm:"column:box_rate;type:numeric(12,2);not null;default:0"`
	Item         *CatalogItem    `gorm:"foreignKey:ItemID"`
}

// TableName overrides the default GORM pluralization.
func (OrderItem) TableName() string {
	return "order_items"
}

package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nileshbarai/distrokhata-backend/pkg/enums"
)

// Order is one distributor order. The status axis walks
// pending -> completed|cancelled; the payment axis is tracked separately and
// may only reach paid once the order is completed. TotalAmount always equals
// the sum of the item amounts.
type Order struct {
	ID             int64                 `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID       *int64                `gorm:"column:tenant_id;index"`
	OrderNo        string                `gorm:"column:order_no;size:50;not null;uniqueIndex:uq_orders_order_no"`
	DistributorID  int64                 `gorm:"column:distributor_id;not null;index"`
	Status         enums.OrderStatus     `gorm:"column:status;size:50;not null;default:'pending';index"`
	PaymentStatus  enums.PaymentStatus   `gorm:"column:payment_status;size:50;not null;default:'unpaid'"`
	DeliveryWindow *enums.DeliveryWindow `gorm:"column:delivery_window;size:20"`
	TotalAmount    decimal.Decimal       `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Items          []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Distributor    *User                 `gorm:"foreignKey:DistributorID"`
	CreatedBy      *int64                `gorm:"column:created_by"`
	UpdatedBy      *int64                `gorm:"column:updated_by"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default GORM pluralization.
func (Order) TableName() string {
	return "orders"
}

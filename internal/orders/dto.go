package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nileshbarai/distrokhata-backend/pkg/db/models"
	"github.com/nileshbarai/distrokhata-backend/pkg/enums"
)

// OrderItemInput is one requested line. Quantity is in units; the box fields
// are pass-through packaging hints and never enter the amount calculation.
type OrderItemInput struct {
	ItemID       int64 `json:"item_id" validate:"required,gt=0"`
	Qty          int   `json:"qty" validate:"required,gt=0"`
	OrderedByBox bool  `json:"ordered_by_box"`
	BoxCount     int   `json:"box_count" validate:"gte=0"`
}

// CreateOrderInput is an order submission. DistributorID may be zero for
// distributor actors, who always order for themselves.
type CreateOrderInput struct {
	DistributorID int64            `json:"distributor_id" validate:"gte=0"`
	Items         []OrderItemInput `json:"items" validate:"required,min=1,dive"`
}

// CreateOrderResult reports whether the submission opened a new order or was
// folded into an existing same-window order.
type CreateOrderResult struct {
	Order  *models.Order `json:"order"`
	Merged bool          `json:"merged"`
}

// UpdateOrderInput replaces a pending order's item set wholesale and may
// reassign the distributor.
type UpdateOrderInput struct {
	DistributorID *int64           `json:"distributor_id" validate:"omitempty,gt=0"`
	Items         []OrderItemInput `json:"items" validate:"required,min=1,dive"`
}

// ListFilter narrows the order listing.
type ListFilter struct {
	Status        *enums.OrderStatus
	DistributorID *int64
	Search        string
	Limit         int
	Offset        int
}

// ListResult carries one page of orders with the total match count.
type ListResult struct {
	Orders []models.Order `json:"orders"`
	Total  int64          `json:"total"`
}

// WindowInfo describes the resolver's view of the clock for clients.
type WindowInfo struct {
	Enabled       bool                 `json:"enabled"`
	CurrentWindow enums.DeliveryWindow `json:"current_window"`
	TargetWindow  enums.DeliveryWindow `json:"target_window"`
	ServerTime    time.Time            `json:"server_time"`
}

// quantityLine is the working representation during merge/create totals.
type quantityLine struct {
	itemID       int64
	qty          int
	rate         decimal.Decimal
	orderedByBox bool
	boxCount     int
	boxRate      decimal.Decimal
}

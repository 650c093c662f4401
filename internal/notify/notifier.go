package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nileshbarai/distrokhata-backend/pkg/logger"
)

// OrderLine is a read-only line in an order summary.
type OrderLine struct {
	ItemID   int64           `json:"item_id"`
	ItemName string          `json:"item_name,omitempty"`
	Qty      int             `json:"qty"`
	Rate     decimal.Decimal `json:"rate"`
	Amount   decimal.Decimal `json:"amount"`
}

// OrderSummary is the payload delivered to the notification sink after an
// order is created, merged or completed.
type OrderSummary struct {
	Event           string          `json:"event"`
	OrderID         int64           `json:"order_id"`
	OrderNo         string          `json:"order_no"`
	DistributorID   int64           `json:"distributor_id"`
	DistributorName string          `json:"distributor_name,omitempty"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Lines           []OrderLine     `json:"lines"`
}

const (
	EventOrderCreated   = "order.created"
	EventOrderMerged    = "order.merged"
	EventOrderCompleted = "order.completed"
)

// Notifier delivers order summaries to interested channels. Delivery is
// best-effort: implementations log failures and never return them, so a sink
// outage can never roll back an order or ledger transaction.
type Notifier interface {
	Notify(ctx context.Context, summary OrderSummary)
}

type publisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) error
}

type pubsubNotifier struct {
	pub  publisher
	logg *logger.Logger
}

// NewPubSubNotifier sends summaries to the order events topic.
func NewPubSubNotifier(pub publisher, logg *logger.Logger) (Notifier, error) {
	if pub == nil {
		return nil, fmt.Errorf("pubsub publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &pubsubNotifier{pub: pub, logg: logg}, nil
}

func (n *pubsubNotifier) Notify(ctx context.Context, summary OrderSummary) {
	data, err := json.Marshal(summary)
	if err != nil {
		n.logg.Error(ctx, "marshal order summary", err)
		return
	}
	attrs := map[string]string{
		"event":    summary.Event,
		"order_no": summary.OrderNo,
	}
	if err := n.pub.Publish(ctx, data, attrs); err != nil {
		ctx = n.logg.WithFields(ctx, map[string]any{
			"order_no": summary.OrderNo,
			"event":    summary.Event,
		})
		n.logg.Error(ctx, "publish order summary", err)
	}
}

type noopNotifier struct{}

// NewNoopNotifier is used when no Pub/Sub project is configured.
func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

func (noopNotifier) Notify(context.Context, OrderSummary) {}

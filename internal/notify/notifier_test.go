package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nileshbarai/distrokhata-backend/pkg/logger"
)

type capturingPublisher struct {
	data  []byte
	attrs map[string]string
	err   error
	calls int
}

func (p *capturingPublisher) Publish(_ context.Context, data []byte, attrs map[string]string) error {
	p.calls++
	p.data = data
	p.attrs = attrs
	return p.err
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(logger.Options{
		ServiceName: "notify-test",
		Level:       zerolog.ErrorLevel,
		Output:      io.Discard,
	})
}

func TestNotifyPublishesSummary(t *testing.T) {
	pub := &capturingPublisher{}
	notifier, err := NewPubSubNotifier(pub, testLogger(t))
	require.NoError(t, err)

	notifier.Notify(context.Background(), OrderSummary{
		Event:         EventOrderCreated,
		OrderID:       7,
		OrderNo:       "ORD-20260904-000123",
		DistributorID: 3,
		TotalAmount:   decimal.NewFromInt(340),
		Lines: []OrderLine{
			{ItemID: 1, ItemName: "Biscuits", Qty: 10, Rate: decimal.NewFromInt(20), Amount: decimal.NewFromInt(200)},
		},
	})

	require.Equal(t, 1, pub.calls)
	require.Equal(t, EventOrderCreated, pub.attrs["event"])
	require.Equal(t, "ORD-20260904-000123", pub.attrs["order_no"])

	var decoded OrderSummary
	require.NoError(t, json.Unmarshal(pub.data, &decoded))
	require.Equal(t, int64(7), decoded.OrderID)
	require.Len(t, decoded.Lines, 1)
}

func TestNotifySwallowsPublishFailure(t *testing.T) {
	pub := &capturingPublisher{err: fmt.Errorf("topic unavailable")}
	notifier, err := NewPubSubNotifier(pub, testLogger(t))
	require.NoError(t, err)

	// Must not panic or surface the error; delivery is best-effort.
	notifier.Notify(context.Background(), OrderSummary{Event: EventOrderMerged, OrderNo: "ORD-20260904-000124"})
	require.Equal(t, 1, pub.calls)
}

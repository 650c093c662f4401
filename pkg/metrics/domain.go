package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DomainMetrics counts the business events the operations team watches:
// order intake, same-window merges and ledger postings.
type DomainMetrics struct {
	ordersCreated *prometheus.CounterVec
	ordersMerged  prometheus.Counter
	ledgerEntries *prometheus.CounterVec
}

// NewDomainMetrics registers the domain metrics on the provided registerer.
func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created, by delivery window.",
	}, []string{"window"})
	ordersMerged := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_merged_total",
		Help: "Order submissions merged into an existing same-window order.",
	})
	ledgerEntries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_entries_total",
		Help: "Ledger entries appended, by entry type.",
	}, []string{"entry_type"})
	reg.MustRegister(ordersCreated, ordersMerged, ledgerEntries)
	return &DomainMetrics{
		ordersCreated: ordersCreated,
		ordersMerged:  ordersMerged,
		ledgerEntries: ledgerEntries,
	}
}

// IncOrderCreated counts one new order for the given delivery window.
func (d *DomainMetrics) IncOrderCreated(window string) {
	if d == nil || d.ordersCreated == nil {
		return
	}
	if window == "" {
		window = "none"
	}
	d.ordersCreated.WithLabelValues(window).Inc()
}

// IncOrderMerged counts one submission folded into an existing order.
func (d *DomainMetrics) IncOrderMerged() {
	if d == nil || d.ordersMerged == nil {
		return
	}
	d.ordersMerged.Inc()
}

// IncLedgerEntry counts one appended ledger entry.
func (d *DomainMetrics) IncLedgerEntry(entryType string) {
	if d == nil || d.ledgerEntries == nil {
		return
	}
	d.ledgerEntries.WithLabelValues(entryType).Inc()
}

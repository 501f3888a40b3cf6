package observability

import "github.com/prometheus/client_golang/prometheus"

// Rejection reasons reported by SaleRejected.
const (
	ReasonInvalid           = "invalid"
	ReasonNotFound          = "not_found"
	ReasonInsufficientStock = "insufficient_stock"
	ReasonDuplicate         = "duplicate"
	ReasonError             = "error"
)

// LedgerMetrics counts sales and stock compensations. All methods accept a
// nil receiver.
type LedgerMetrics struct {
	sales      prometheus.Counter
	units      prometheus.Counter
	deletions  *prometheus.CounterVec
	rejections *prometheus.CounterVec
}

// NewLedgerMetrics registers the ledger collectors on registerer.
func NewLedgerMetrics(registerer prometheus.Registerer) *LedgerMetrics {
	m := &LedgerMetrics{
		sales: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inventario_sales_total",
			Help: "Sales recorded by the ledger.",
		}),
		units: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inventario_units_sold_total",
			Help: "Units debited from stock by sales.",
		}),
		deletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventario_sale_deletions_total",
			Help: "Deleted sales by how stock was restored (direct, by_name, none).",
		}, []string{"restore"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventario_sale_rejections_total",
			Help: "Sell attempts that did not commit, by reason.",
		}, []string{"reason"}),
	}
	registerer.MustRegister(m.sales, m.units, m.deletions, m.rejections)
	return m
}

// SaleRecorded counts a committed sale of quantity units.
func (m *LedgerMetrics) SaleRecorded(quantity int) {
	if m == nil {
		return
	}
	m.sales.Inc()
	m.units.Add(float64(quantity))
}

// SaleDeleted counts a deleted sale labelled with its restore path.
func (m *LedgerMetrics) SaleDeleted(restore string) {
	if m == nil {
		return
	}
	m.deletions.WithLabelValues(restore).Inc()
}

// SaleRejected counts a failed sell attempt.
func (m *LedgerMetrics) SaleRejected(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

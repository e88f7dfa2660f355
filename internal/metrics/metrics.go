package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	TransactionsCreated prometheus.Counter
	TransactionsUpdated prometheus.Counter
	TransactionsDeleted prometheus.Counter
	Logins              *prometheus.CounterVec
	ExportDuration      prometheus.Histogram
	ImportedRows        *prometheus.CounterVec
}

// New creates all metrics and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TransactionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "rationx_transactions_created_total",
			Help: "Total number of transactions created",
		}),
		TransactionsUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "rationx_transactions_updated_total",
			Help: "Total number of transactions updated",
		}),
		TransactionsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "rationx_transactions_deleted_total",
			Help: "Total number of transactions marked as deleted",
		}),
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rationx_logins_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		ExportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rationx_export_duration_seconds",
			Help:    "Time spent building spreadsheet exports",
			Buckets: prometheus.DefBuckets,
		}),
		ImportedRows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rationx_import_rows_total",
			Help: "Rows processed by file imports, by result",
		}, []string{"result"}),
	}
}

// NewNop returns metrics registered on a throwaway registry
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) IncrementTransactionsCreated() {
	m.TransactionsCreated.Inc()
}

func (m *Metrics) IncrementTransactionsUpdated() {
	m.TransactionsUpdated.Inc()
}

func (m *Metrics) IncrementTransactionsDeleted() {
	m.TransactionsDeleted.Inc()
}

// RecordLogin counts a login attempt; result is "success" or "failure"
func (m *Metrics) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	m.Logins.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveExportDuration(seconds float64) {
	m.ExportDuration.Observe(seconds)
}

// RecordImportRows counts the rows of one import
func (m *Metrics) RecordImportRows(imported, failed int) {
	m.ImportedRows.WithLabelValues("imported").Add(float64(imported))
	m.ImportedRows.WithLabelValues("failed").Add(float64(failed))
}

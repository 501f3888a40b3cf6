// Package jobmetrics holds the Prometheus collectors of the background worker.
package jobmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for background jobs.
type Metrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	lowStock    prometheus.Gauge
	purged      prometheus.Counter
	now         func() time.Time
}

// NewMetrics registers the job collectors on registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventario_jobs_total",
			Help: "Job executions by task type and outcome.",
		}, []string{"job", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inventario_job_duration_seconds",
			Help:    "Job execution time.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "inventario_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run per task type.",
		}, []string{"job"}),
		lowStock: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "inventario_low_stock_products",
			Help: "Products whose stock is at or below their minimum, as of the last scan.",
		}),
		purged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inventario_idempotency_keys_purged_total",
			Help: "Idempotency keys deleted after their retention window.",
		}),
		now: time.Now,
	}
	registerer.MustRegister(m.runs, m.duration, m.lastSuccess, m.lowStock, m.purged)
	return m
}

// Tracker times one job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track starts timing a run of job. A nil Metrics yields a no-op tracker.
func (m *Metrics) Track(job string) *Tracker {
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End records the outcome and returns err unchanged so handlers can write
// `return tracker.End(err)`.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil {
		return err
	}
	m := t.metrics
	m.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	if err != nil {
		m.runs.WithLabelValues(t.job, "failure").Inc()
		return err
	}
	m.runs.WithLabelValues(t.job, "success").Inc()
	m.lastSuccess.WithLabelValues(t.job).Set(float64(m.now().Unix()))
	return nil
}

// SetLowStock publishes the size of the last low-stock scan.
func (m *Metrics) SetLowStock(count int) {
	if m == nil {
		return
	}
	m.lowStock.Set(float64(count))
}

// AddPurgedKeys counts idempotency keys removed by the cleanup job.
func (m *Metrics) AddPurgedKeys(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.purged.Add(float64(count))
}

// Package jobmetrics instruments background job runs and the stock health
// they observe.
package jobmetrics

import (
	"errors"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes used as the status label of lotledger_jobs_total.
const (
	StatusSuccess = "success"
	StatusRetry   = "retry"
	StatusDropped = "dropped"
)

// Metrics holds the job collectors.
type Metrics struct {
	runs        *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	stock       *prometheus.GaugeVec
	revision    *prometheus.GaugeVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the job collectors on registerer, or once on the
// default registerer when registerer is nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer != nil {
		return register(registerer)
	}
	defaultOnce.Do(func() { defaultMetrics = register(prometheus.DefaultRegisterer) })
	return defaultMetrics
}

func register(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lotledger_jobs_total",
			Help: "Job runs by task type and outcome.",
		}, []string{"job", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lotledger_jobs_failures_total",
			Help: "Job runs that returned an error, retried or dropped.",
		}, []string{"job"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lotledger_job_duration_seconds",
			Help:    "Job run duration.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 5, 10, 30},
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lotledger_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run per task type.",
		}, []string{"job"}),
		stock: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lotledger_stock_items",
			Help: "Items per stock status observed by the last valuation refresh.",
		}, []string{"dataset", "status"}),
		revision: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lotledger_dataset_revision",
			Help: "Dataset revision valued by the last refresh.",
		}, []string{"dataset"}),
	}
	registerer.MustRegister(m.runs, m.failures, m.duration, m.lastSuccess, m.stock, m.revision)
	return m
}

// Tracker times one job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track starts timing a run of job.
func (m *Metrics) Track(job string) *Tracker {
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End records the run and returns err unchanged. Errors wrapping
// asynq.SkipRetry count as dropped, any other error as a retry.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	m := t.metrics
	m.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())

	status := StatusSuccess
	switch {
	case err == nil:
		m.lastSuccess.WithLabelValues(t.job).SetToCurrentTime()
	case errors.Is(err, asynq.SkipRetry):
		status = StatusDropped
	default:
		status = StatusRetry
	}
	if err != nil {
		m.failures.WithLabelValues(t.job).Inc()
	}
	m.runs.WithLabelValues(t.job, status).Inc()
	return err
}

// StockHealth summarises one valuation refresh.
type StockHealth struct {
	Revision   int64
	Items      int
	LowStock   int
	OutOfStock int
	Unbacked   int
}

// SetStockHealth replaces the stock gauges of datasetID.
func (m *Metrics) SetStockHealth(datasetID string, h StockHealth) {
	if m == nil {
		return
	}
	for status, n := range map[string]int{
		"total":        h.Items,
		"low_stock":    h.LowStock,
		"out_of_stock": h.OutOfStock,
		"unbacked":     h.Unbacked,
	} {
		m.stock.WithLabelValues(datasetID, status).Set(float64(n))
	}
	m.revision.WithLabelValues(datasetID).Set(float64(h.Revision))
}

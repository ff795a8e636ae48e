package export

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records export outcomes and latency.
type Metrics struct {
	Exports  *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Pages    *prometheus.HistogramVec
	Records  *prometheus.GaugeVec
}

// NewMetrics registers export metrics on reg; nil 时注册到默认 Registerer。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Exports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "eventpass_exports_total",
			Help: "Total PDF exports by kind and outcome",
		}, []string{"kind", "outcome"}), // outcome: "ok", "snapshot_error", "render_error"

		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eventpass_export_duration_seconds",
			Help:    "Duration of a full export including snapshot read and PDF rendering",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),

		Pages: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eventpass_export_pages",
			Help:    "Number of pages per exported document",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"kind"}),

		Records: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eventpass_export_records",
			Help: "Number of records in the most recent export snapshot",
		}, []string{"kind"}),
	}
}

func (m *Metrics) observe(kind Kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Exports.WithLabelValues(string(kind), outcome).Inc()
	m.Duration.WithLabelValues(string(kind)).Observe(d.Seconds())
}

func (m *Metrics) observeDocument(kind Kind, records, pages int) {
	if m == nil {
		return
	}
	m.Records.WithLabelValues(string(kind)).Set(float64(records))
	m.Pages.WithLabelValues(string(kind)).Observe(float64(pages))
}

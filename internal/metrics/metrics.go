// Package metrics provides Prometheus metrics for pipeline runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"call-insights-go/internal/types"
)

const namespace = "callscribe"

// Metrics holds the run metrics on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	SourcesTotal     *prometheus.CounterVec
	StageDuration    *prometheus.HistogramVec
	PollsTotal       *prometheus.CounterVec
	RecordsPersisted *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		SourcesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sources_total",
			Help:      "Sources processed, by final status",
		}, []string{"status"}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"stage"}),
		PollsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcription_polls_total",
			Help:      "Transcription job status polls",
		}, []string{"backend"}),
		RecordsPersisted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_persisted_total",
			Help:      "Records appended, by sink",
		}, []string{"sink"}),
	}
}

// RecordSource counts one finished source.
func (m *Metrics) RecordSource(status types.Status) {
	if m == nil {
		return
	}
	m.SourcesTotal.WithLabelValues(string(status)).Inc()
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) RecordPoll(backend string) {
	if m == nil {
		return
	}
	m.PollsTotal.WithLabelValues(backend).Inc()
}

func (m *Metrics) RecordPersisted(sink string) {
	if m == nil {
		return
	}
	m.RecordsPersisted.WithLabelValues(sink).Inc()
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Package metrics exposes Prometheus instrumentation for sessions and decodes.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

var (
	once     sync.Once
	registry *Registry
)

// Registry holds all nereon metrics.
type Registry struct {
	// Foreign context lifecycle
	SessionsOpen  prometheus.Gauge
	SessionsTotal *prometheus.CounterVec

	// Tree decoding
	DecodesTotal   *prometheus.CounterVec
	DecodeFaults   *prometheus.CounterVec
	NodesDecoded   prometheus.Counter
	DecodeDuration prometheus.Histogram

	// Watcher
	ConfigReload *prometheus.CounterVec
}

// Get returns the global metrics registry, creating it if necessary.
func Get() *Registry {
	once.Do(func() {
		registry = newRegistry()
	})
	return registry
}

func newRegistry() *Registry {
	r := &Registry{}

	r.SessionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nereon_sessions_open",
		Help: "Foreign contexts currently open",
	})

	r.SessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nereon_sessions_total",
		Help: "Foreign context open attempts",
	}, []string{"result"})

	r.DecodesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nereon_decodes_total",
		Help: "Tree decodes by outcome (tree, empty, error)",
	}, []string{"result"})

	r.DecodeFaults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nereon_decode_faults_total",
		Help: "Decode faults by kind",
	}, []string{"kind"})

	r.NodesDecoded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nereon_nodes_decoded_total",
		Help: "Owned nodes produced by the decoder",
	})

	r.DecodeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nereon_decode_duration_seconds",
		Help:    "Time spent walking a foreign tree",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	})

	r.ConfigReload = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nereon_config_reloads_total",
		Help: "Watcher-triggered re-decodes",
	}, []string{"status"})

	return r
}

// RecordOpen records a context open attempt.
func (r *Registry) RecordOpen(err error) {
	if err != nil {
		r.SessionsTotal.WithLabelValues("failed").Inc()
		return
	}
	r.SessionsTotal.WithLabelValues("ok").Inc()
	r.SessionsOpen.Inc()
}

// RecordClose records a context release.
func (r *Registry) RecordClose() {
	r.SessionsOpen.Dec()
}

// OpenSessions returns the current value of the open-session gauge.
func (r *Registry) OpenSessions() float64 {
	var m dto.Metric
	if err := r.SessionsOpen.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

// RecordDecode records one decode. fault is empty unless err is non-nil.
func (r *Registry) RecordDecode(nodes int, fault string, err error, elapsed time.Duration) {
	r.DecodeDuration.Observe(elapsed.Seconds())
	switch {
	case err != nil:
		r.DecodesTotal.WithLabelValues("error").Inc()
		r.DecodeFaults.WithLabelValues(fault).Inc()
	case nodes == 0:
		r.DecodesTotal.WithLabelValues("empty").Inc()
	default:
		r.DecodesTotal.WithLabelValues("tree").Inc()
		r.NodesDecoded.Add(float64(nodes))
	}
}

// RecordReload records a watcher re-decode.
func (r *Registry) RecordReload(err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	r.ConfigReload.WithLabelValues(status).Inc()
}

// Handler returns an HTTP handler serving the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

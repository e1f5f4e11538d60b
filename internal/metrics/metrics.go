package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the planner's collectors. A nil *Metrics records nothing.
type Metrics struct {
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	ActiveClients prometheus.Gauge
	CollabOps     *prometheus.CounterVec
	Saves         *prometheus.CounterVec
}

var (
	defaultOnce     sync.Once
	defaultInstance *Metrics
)

// Default returns collectors registered with the default registry.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultInstance = New(prometheus.DefaultRegisterer)
	})
	return defaultInstance
}

// New registers a fresh set of collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "planner_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ActiveClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "planner_collab_active_clients",
			Help: "Current number of connected collaboration clients",
		}),
		CollabOps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_collab_operations_total",
			Help: "Element operations received, by type and result",
		}, []string{"type", "result"}),
		Saves: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_plan_saves_total",
			Help: "Plan workbook saves, by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) RecordRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.ActiveClients.Inc()
}

func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.ActiveClients.Dec()
}

func (m *Metrics) RecordOp(opType string, err error) {
	if m == nil {
		return
	}
	m.CollabOps.WithLabelValues(opType, result(err)).Inc()
}

func (m *Metrics) RecordSave(err error) {
	if m == nil {
		return
	}
	m.Saves.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

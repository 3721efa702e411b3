// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "beers"

const (
	TokenConnection   = "connection"
	TokenSubscription = "subscription"
	TokenBearer       = "bearer"
)

type Metrics struct {
	registry *prometheus.Registry

	TokensIssued    *prometheus.CounterVec
	TokensDenied    *prometheus.CounterVec
	Broadcasts      *prometheus.CounterVec
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		TokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Tokens issued, by kind.",
		}, []string{"kind"}),
		TokensDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_denied_total",
			Help:      "Token requests refused, by kind and reason.",
		}, []string{"kind", "reason"}),
		Broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_total",
			Help:      "Publications sent to the real-time server, by namespace and result.",
		}, []string{"namespace", "result"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method, route and status.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(
		m.TokensIssued,
		m.TokensDenied,
		m.Broadcasts,
		m.RequestsTotal,
		m.RequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	for _, kind := range []string{TokenConnection, TokenSubscription, TokenBearer} {
		m.TokensIssued.WithLabelValues(kind)
	}
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveBroadcast has the signature of broadcast.Broadcaster.OnSent.
func (m *Metrics) ObserveBroadcast(channel string, err error) {
	ns, _, _ := strings.Cut(channel, ":")
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Broadcasts.WithLabelValues(ns, result).Inc()
}

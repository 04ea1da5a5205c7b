package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the relay's collectors on a private prometheus registry.
type Registry struct {
	reg             *prometheus.Registry
	Requests        *prometheus.CounterVec
	AuthExchanges   *prometheus.CounterVec
	ForwardAttempts *prometheus.CounterVec
	ForwardLatency  prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payloadbridge_requests_total",
		Help: "Order creation requests by final HTTP status.",
	}, []string{"route", "status"})
	authExchanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payloadbridge_auth_exchanges_total",
		Help: "Identity exchanges by outcome.",
	}, []string{"outcome"})
	forwardAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payloadbridge_forward_attempts_total",
		Help: "Downstream forward attempts by outcome.",
	}, []string{"outcome"})
	forwardLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "payloadbridge_forward_latency_seconds",
		Help:    "Latency of a single downstream forward attempt.",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(requests, authExchanges, forwardAttempts, forwardLatency)
	return &Registry{
		reg:             r,
		Requests:        requests,
		AuthExchanges:   authExchanges,
		ForwardAttempts: forwardAttempts,
		ForwardLatency:  forwardLatency,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the dispatch core's Prometheus collectors: claims, acks,
// nacks, dead-letter depth, in-flight handlers, lock wait time, and
// handler duration. The dispatch loop updates all of them except
// DLQDepth, which nothing in this module sets. The loop records every
// nack under outcome "retry", including nacks that the store turns into
// a dead-letter transition.
type Metrics struct {
	Claims         *prometheus.CounterVec
	Acks           prometheus.Counter
	Nacks          *prometheus.CounterVec
	DLQDepth       prometheus.Gauge
	InFlight       prometheus.Gauge
	LockWaitSecs   prometheus.Histogram
	HandlerSeconds *prometheus.HistogramVec
}

// NewRegistry creates a Prometheus registry with Go runtime collectors and
// the dispatch core's own metrics already registered.
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_claims_total",
			Help: "Total number of events claimed from the store.",
		}, []string{"event_type"}),
		Acks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_acks_total",
			Help: "Total number of events successfully acknowledged.",
		}),
		Nacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_nacks_total",
			Help: "Total number of events nacked by a failing handler, by terminal outcome.",
		}, []string{"outcome"}), // outcome: "retry" or "dlq"
		DLQDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dispatch_dlq_depth",
			Help: "Number of dead-lettered events, as last set on this gauge.",
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dispatch_handlers_in_flight",
			Help: "Number of trigger handlers currently executing.",
		}),
		LockWaitSecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dispatch_lock_wait_seconds",
			Help:    "Time spent waiting to acquire a scope lock.",
			Buckets: prometheus.DefBuckets,
		}),
		HandlerSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dispatch_handler_duration_seconds",
			Help:    "Trigger handler execution duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"trigger"}),
	}

	reg.MustRegister(
		m.Claims,
		m.Acks,
		m.Nacks,
		m.DLQDepth,
		m.InFlight,
		m.LockWaitSecs,
		m.HandlerSeconds,
	)

	return reg, m
}

package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RPCMetrics records command-surface activity segmented by method.
type RPCMetrics struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// EngineMetrics records protocol-level events from the synth and market
// engines.
type EngineMetrics struct {
	mints        prometheus.Counter
	burns        prometheus.Counter
	liquidations prometheus.Counter
	hedges       *prometheus.CounterVec
	settlements  *prometheus.CounterVec
}

var (
	rpcOnce     sync.Once
	rpcRegistry *RPCMetrics

	engineOnce     sync.Once
	engineRegistry *EngineMetrics
)

// RPC returns the lazily-initialised RPC metrics registry.
func RPC() *RPCMetrics {
	rpcOnce.Do(func() {
		rpcRegistry = &RPCMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "synth",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "synth",
				Subsystem: "rpc",
				Name:      "errors_total",
				Help:      "Total JSON-RPC errors segmented by method and code.",
			}, []string{"method", "code"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "synth",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
		}
		prometheus.MustRegister(rpcRegistry.requests, rpcRegistry.errors, rpcRegistry.latency)
	})
	return rpcRegistry
}

// Observe records one completed request.
func (m *RPCMetrics) Observe(method string, errCode int, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if errCode != 0 {
		outcome = "error"
		m.errors.WithLabelValues(method, strconv.Itoa(errCode)).Inc()
	}
	m.requests.WithLabelValues(method, outcome).Inc()
	m.latency.WithLabelValues(method).Observe(duration.Seconds())
}

// Engine returns the lazily-initialised engine metrics registry.
func Engine() *EngineMetrics {
	engineOnce.Do(func() {
		engineRegistry = &EngineMetrics{
			mints: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "synth",
				Subsystem: "engine",
				Name:      "mints_total",
				Help:      "Successful mint operations.",
			}),
			burns: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "synth",
				Subsystem: "engine",
				Name:      "burns_total",
				Help:      "Successful burn operations.",
			}),
			liquidations: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "synth",
				Subsystem: "engine",
				Name:      "liquidations_total",
				Help:      "Successful liquidations.",
			}),
			hedges: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "synth",
				Subsystem: "engine",
				Name:      "hedges_total",
				Help:      "Hedge triggers segmented by kind.",
			}, []string{"kind"}),
			settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "synth",
				Subsystem: "market",
				Name:      "settlements_total",
				Help:      "Market settlements segmented by outcome.",
			}, []string{"outcome"}),
		}
		prometheus.MustRegister(
			engineRegistry.mints,
			engineRegistry.burns,
			engineRegistry.liquidations,
			engineRegistry.hedges,
			engineRegistry.settlements,
		)
	})
	return engineRegistry
}

func (m *EngineMetrics) RecordMint() {
	if m != nil {
		m.mints.Inc()
	}
}

func (m *EngineMetrics) RecordBurn() {
	if m != nil {
		m.burns.Inc()
	}
}

func (m *EngineMetrics) RecordLiquidation() {
	if m != nil {
		m.liquidations.Inc()
	}
}

// RecordHedge counts a hedge trigger; kind is "auto" or "manual".
func (m *EngineMetrics) RecordHedge(kind string) {
	if m != nil {
		m.hedges.WithLabelValues(kind).Inc()
	}
}

// RecordSettlement counts a market settlement by its resolved outcome.
func (m *EngineMetrics) RecordSettlement(outcome bool) {
	if m != nil {
		m.settlements.WithLabelValues(strconv.FormatBool(outcome)).Inc()
	}
}

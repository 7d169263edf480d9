// Package metrics exposes pipeline counters over Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the signal pipeline.
type Metrics struct {
	BarsTotal    prometheus.Counter
	BarsRejected *prometheus.CounterVec // labels: reason

	SignalsTotal *prometheus.CounterVec // labels: action

	PositionsOpened prometheus.Counter
	PositionsClosed *prometheus.CounterVec // labels: reason
	OpenPositions   prometheus.Gauge
	Equity          prometheus.Gauge

	AlertsEmitted    *prometheus.CounterVec // labels: kind
	AlertsSuppressed prometheus.Counter

	EvalDur prometheus.Histogram
}

// New registers and returns all pipeline metrics. A nil registerer uses
// the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		BarsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "watchtower_bars_total",
			Help: "Bars accepted into the pipeline",
		}),
		BarsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "watchtower_bars_rejected_total",
			Help: "Bars rejected before indicator update (by reason)",
		}, []string{"reason"}),

		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "watchtower_signals_total",
			Help: "Signals evaluated (by action)",
		}, []string{"action"}),

		PositionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "watchtower_positions_opened_total",
			Help: "Positions opened",
		}),
		PositionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "watchtower_positions_closed_total",
			Help: "Positions closed (by reason)",
		}, []string{"reason"}),
		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "watchtower_open_positions",
			Help: "Currently open positions",
		}),
		Equity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "watchtower_equity",
			Help: "Current portfolio equity",
		}),

		AlertsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "watchtower_alerts_emitted_total",
			Help: "Alerts that passed the debouncer (by kind)",
		}, []string{"kind"}),
		AlertsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "watchtower_alerts_suppressed_total",
			Help: "Alerts suppressed by debounce or the hourly cap",
		}),

		EvalDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "watchtower_eval_duration_seconds",
			Help:    "Per-bar evaluation latency (indicators through risk)",
			Buckets: []float64{0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005},
		}),
	}

	reg.MustRegister(
		m.BarsTotal,
		m.BarsRejected,
		m.SignalsTotal,
		m.PositionsOpened,
		m.PositionsClosed,
		m.OpenPositions,
		m.Equity,
		m.AlertsEmitted,
		m.AlertsSuppressed,
		m.EvalDur,
	)

	return m
}

// Handler serves the default registry at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

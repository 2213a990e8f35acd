// Package metrics exposes prometheus collectors for the tick loop, player
// actions and the save sinks. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

type Metrics struct {
	ticks          prometheus.Counter
	haltedTicks    prometheus.Counter
	stockRefreshes prometheus.Counter
	actions        *prometheus.CounterVec
	saves          *prometheus.CounterVec
	saveDuration   *prometheus.HistogramVec
	productionRate prometheus.Gauge
	money          prometheus.Gauge
	rebirthLevel   prometheus.Gauge
}

// New builds the collectors and registers them on registerer, falling back
// to the default registry.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "solar_ticks_total",
			Help: "Production ticks executed.",
		}),
		haltedTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "solar_ticks_halted_total",
			Help: "Ticks that produced nothing because the level cap was reached.",
		}),
		stockRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "solar_stock_refresh_total",
			Help: "Shop stock cycles restored.",
		}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "solar_actions_total",
			Help: "Player commands by name and result.",
		}, []string{"command", "result"}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "solar_saves_total",
			Help: "Snapshot writes by target and result.",
		}, []string{"target", "result"}),
		saveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "solar_save_duration_seconds",
			Help:    "Snapshot write latency by target.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"target"}),
		productionRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "solar_production_rate",
			Help: "Base production per tick of the current grid.",
		}),
		money: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "solar_money",
			Help: "Current money balance.",
		}),
		rebirthLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "solar_rebirth_level",
			Help: "Rebirths taken.",
		}),
	}

	registerer.MustRegister(
		m.ticks,
		m.haltedTicks,
		m.stockRefreshes,
		m.actions,
		m.saves,
		m.saveDuration,
		m.productionRate,
		m.money,
		m.rebirthLevel,
	)
	return m
}

func (m *Metrics) ObserveTick(halted, refreshed bool) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	if halted {
		m.haltedTicks.Inc()
	}
	if refreshed {
		m.stockRefreshes.Inc()
	}
}

func (m *Metrics) ObserveAction(command string, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.actions.WithLabelValues(command, result).Inc()
}

func (m *Metrics) ObserveSave(target, result string, took time.Duration) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(target, result).Inc()
	if result != ResultSkipped {
		m.saveDuration.WithLabelValues(target).Observe(took.Seconds())
	}
}

// SetEconomy publishes the gauges derived from the live aggregate.
func (m *Metrics) SetEconomy(money, productionRate float64, rebirthLevel int) {
	if m == nil {
		return
	}
	m.money.Set(money)
	m.productionRate.Set(productionRate)
	m.rebirthLevel.Set(float64(rebirthLevel))
}

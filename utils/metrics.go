package utils

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HeistMetrics tracks resolutions, loot flow and session churn.
// A nil *HeistMetrics is valid and records nothing.
type HeistMetrics struct {
	Resolutions    *prometheus.CounterVec
	LootTotal      *prometheus.CounterVec
	SuccessChance  *prometheus.HistogramVec
	ActiveSessions prometheus.Gauge
	SweptSessions  prometheus.Counter
	LockWait       prometheus.Histogram
	LedgerErrors   *prometheus.CounterVec
}

var (
	chanceBuckets   = []float64{5, 10, 20, 30, 40, 50, 60, 70, 80, 90, 95}
	lockWaitBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5}
)

// NewHeistMetricsWithRegistry registers the collectors on reg
func NewHeistMetricsWithRegistry(namespace string, reg prometheus.Registerer) *HeistMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &HeistMetrics{
		Resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "heist_resolutions_total",
				Help:      "Resolved solo heists by mode, risk and outcome",
			},
			[]string{"mode", "risk", "outcome"},
		),
		LootTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "heist_coins_total",
				Help:      "Coins won (direction=won) or lost (direction=lost) by heists",
			},
			[]string{"direction"},
		),
		SuccessChance: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "heist_success_chance_percent",
				Help:      "Final success chance at resolution time",
				Buckets:   chanceBuckets,
			},
			[]string{"risk"},
		),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "heist_active_sessions",
			Help:      "Open /crime sessions",
		}),
		SweptSessions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heist_swept_sessions_total",
			Help:      "Idle sessions dropped by the sweeper",
		}),
		LockWait: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "player_lock_wait_seconds",
			Help:      "Time spent waiting for the per-player lock",
			Buckets:   lockWaitBuckets,
		}),
		LedgerErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_errors_total",
				Help:      "Failed ledger operations by operation",
			},
			[]string{"op"},
		),
	}
}

// RecordResolution counts one resolved heist
func (m *HeistMetrics) RecordResolution(mode, risk string, success bool, amount int64, chance float64) {
	if m == nil {
		return
	}
	outcome := "fail"
	if success {
		outcome = "success"
	}
	m.Resolutions.WithLabelValues(mode, risk, outcome).Inc()
	m.SuccessChance.WithLabelValues(risk).Observe(chance)
	switch {
	case amount > 0:
		m.LootTotal.WithLabelValues("won").Add(float64(amount))
	case amount < 0:
		m.LootTotal.WithLabelValues("lost").Add(float64(-amount))
	}
}

func (m *HeistMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

func (m *HeistMetrics) RecordSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SweptSessions.Add(float64(n))
}

func (m *HeistMetrics) ObserveLockWait(d time.Duration) {
	if m == nil {
		return
	}
	m.LockWait.Observe(d.Seconds())
}

func (m *HeistMetrics) RecordLedgerError(op string) {
	if m == nil {
		return
	}
	m.LedgerErrors.WithLabelValues(op).Inc()
}

package metrics

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Clark-Hu/cinecast/internal/domain"
)

// Outcome labels attached to every finished unit of work.
const (
	OutcomeOK         = "ok"
	OutcomeInvalid    = "invalid"
	OutcomeNotFound   = "not_found"
	OutcomeStoreError = "store_error"
)

// Metrics records unit-of-work counters for the access layer.
type Metrics struct {
	uowTotal    *prometheus.CounterVec
	uowDuration *prometheus.HistogramVec
	rows        *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		uowTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cinecast_uow_total",
				Help: "Count of finished units of work",
			},
			[]string{"op", "outcome"},
		),
		uowDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cinecast_uow_duration_seconds",
				Help:    "Time spent inside a unit of work",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"op"},
		),
		rows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cinecast_rows_affected_total",
				Help: "Rows changed by bulk update and delete operations",
			},
			[]string{"op"},
		),
	}
	reg.MustRegister(m.uowTotal, m.uowDuration, m.rows)
	return m
}

// ObserveUnitOfWork records one finished operation.
func (m *Metrics) ObserveUnitOfWork(op string, d time.Duration, rows int64, err error) {
	if m == nil {
		return
	}
	m.uowTotal.WithLabelValues(op, Outcome(err)).Inc()
	m.uowDuration.WithLabelValues(op).Observe(d.Seconds())
	if err == nil && rows > 0 {
		m.rows.WithLabelValues(op).Add(float64(rows))
	}
}

// Outcome maps an operation error onto its label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case domain.IsValidation(err):
		return OutcomeInvalid
	case errors.Is(err, domain.ErrNotFound):
		return OutcomeNotFound
	default:
		return OutcomeStoreError
	}
}

// RegisterPoolStats exposes connection-pool gauges sampled from stats on scrape.
func RegisterPoolStats(reg prometheus.Registerer, stats func() *pgxpool.Stat) {
	gauge := func(name, help string, value func(*pgxpool.Stat) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 {
			st := stats()
			if st == nil {
				return 0
			}
			return value(st)
		})
	}
	reg.MustRegister(
		gauge("cinecast_db_pool_total_conns", "Connections currently held by the pool",
			func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) }),
		gauge("cinecast_db_pool_idle_conns", "Idle connections in the pool",
			func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }),
		gauge("cinecast_db_pool_acquired_conns", "Connections checked out by units of work",
			func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }),
	)
}

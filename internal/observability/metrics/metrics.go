package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	ingest "capacity-planner/internal/ingest/domain"
	planning "capacity-planner/internal/planning/domain"
)

const (
	metricPrefix = "planner_"

	resultSuccess = "success"
	resultError   = "error"
)

// Metrics holds the collectors of one planner process.
type Metrics struct {
	loadTotal   *prometheus.CounterVec
	loadErrors  *prometheus.CounterVec
	loadLatency *prometheus.HistogramVec

	solveTotal   *prometheus.CounterVec
	solveLatency *prometheus.HistogramVec
	objective    prometheus.Gauge
	newCapacity  *prometheus.GaugeVec
	curtailment  prometheus.Gauge

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		loadTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "load_total",
				Help: "Total input file loads by kind and result",
			},
			[]string{"kind", "result"},
		),
		loadErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "load_errors_total",
				Help: "Total input load errors by kind and reason",
			},
			[]string{"kind", "reason"},
		),
		loadLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "load_latency_seconds",
				Help:    "Input load latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		solveTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "solve_total",
				Help: "Total model solves by result",
			},
			[]string{"result"},
		),
		solveLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "solve_latency_seconds",
				Help:    "Assemble, solve and decode latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
			},
			[]string{"result"},
		),
		objective: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "objective_eur",
			Help: "Objective value of the last successful solve",
		}),
		newCapacity: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "new_capacity_mw",
				Help: "New capacity of the last successful solve by technology",
			},
			[]string{"technology"},
		),
		curtailment: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "curtailment_mwh",
			Help: "Curtailed renewable energy of the last successful solve",
		}),
		exportTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total result exports by format and result",
			},
			[]string{"format", "result"},
		),
		exportLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Result export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format"},
		),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.loadTotal, m.loadErrors, m.loadLatency,
		m.solveTotal, m.solveLatency, m.objective, m.newCapacity, m.curtailment,
		m.exportTotal, m.exportLatency,
	}
}

// ObserveLoad records one input load.
func (m *Metrics) ObserveLoad(kind ingest.Kind, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	k := string(kind)
	if k == "" {
		k = "unknown"
	}
	m.loadLatency.WithLabelValues(k).Observe(elapsed.Seconds())
	if err != nil {
		m.loadTotal.WithLabelValues(k, resultError).Inc()
		m.loadErrors.WithLabelValues(k, LoadErrorReason(err)).Inc()
		return
	}
	m.loadTotal.WithLabelValues(k, resultSuccess).Inc()
}

// ObserveSolve records one planning run.
func (m *Metrics) ObserveSolve(elapsed time.Duration, result *planning.Result, err error) {
	if m == nil {
		return
	}
	label := resultSuccess
	if err != nil {
		label = SolveErrorReason(err)
	}
	m.solveTotal.WithLabelValues(label).Inc()
	m.solveLatency.WithLabelValues(label).Observe(elapsed.Seconds())
	if err != nil || result == nil {
		return
	}
	m.objective.Set(result.ObjectiveEUR)
	m.curtailment.Set(result.TotalCurtailmentMWh())
	for _, row := range result.Investments() {
		m.newCapacity.WithLabelValues(row.Technology).Set(row.NewCapacityMW)
	}
}

// ObserveExport records one result export.
func (m *Metrics) ObserveExport(format string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	if format == "" {
		format = "unknown"
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	m.exportTotal.WithLabelValues(format, result).Inc()
	m.exportLatency.WithLabelValues(format).Observe(elapsed.Seconds())
}

// LoadErrorReason maps a load error onto a low-cardinality label.
func LoadErrorReason(err error) string {
	var (
		notFound  *ingest.FileNotFoundError
		dateErr   *ingest.DateParseError
		coerceErr *ingest.TypeCoercionError
		validErr  *ingest.ValidationError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &notFound):
		return "file_not_found"
	case errors.As(err, &dateErr):
		return "date_parse"
	case errors.As(err, &coerceErr):
		return "type_coercion"
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.As(err, &validErr), errors.Is(err, ingest.ErrMissingColumn), errors.Is(err, ingest.ErrMissingTimestamp):
		return "validation"
	default:
		return "other"
	}
}

// SolveErrorReason maps a planning error onto a low-cardinality label.
func SolveErrorReason(err error) string {
	switch {
	case err == nil:
		return resultSuccess
	case errors.Is(err, planning.ErrInfeasible):
		return "infeasible"
	case errors.Is(err, planning.ErrUnbounded):
		return "unbounded"
	case errors.Is(err, planning.ErrModelTooLarge):
		return "too_large"
	case errors.Is(err, planning.ErrEmptyHorizon),
		errors.Is(err, planning.ErrHorizonMismatch),
		errors.Is(err, planning.ErrNoTechnologies),
		errors.Is(err, planning.ErrInvalidTechnology):
		return "invalid_input"
	default:
		return resultError
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)

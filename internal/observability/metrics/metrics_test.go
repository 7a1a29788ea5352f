package metrics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	ingest "capacity-planner/internal/ingest/domain"
	planning "capacity-planner/internal/planning/domain"
)

func TestObserveLoad(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveLoad(ingest.KindDemand, 10*time.Millisecond, nil)
	m.ObserveLoad(ingest.KindDemand, time.Millisecond, &ingest.LoadError{
		Kind: ingest.KindDemand, Path: "demand.csv", Err: &ingest.DateParseError{Row: 2, Value: "x"},
	})

	require.Equal(t, 1.0, testutil.ToFloat64(m.loadTotal.WithLabelValues("demand", ResultSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.loadTotal.WithLabelValues("demand", ResultError)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.loadErrors.WithLabelValues("demand", "date_parse")))
}

func TestObserveSolve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	res := &planning.Result{
		Technologies:  []string{"Gas", "Wind"},
		NewCapacityMW: []float64{12.5, 40},
		CurtailmentMW: [][]float64{{0, 3}},
		ObjectiveEUR:  1000,
	}
	m.ObserveSolve(time.Second, res, nil)
	m.ObserveSolve(time.Second, nil, fmt.Errorf("solve: %w", planning.ErrInfeasible))

	require.Equal(t, 1000.0, testutil.ToFloat64(m.objective))
	require.Equal(t, 40.0, testutil.ToFloat64(m.newCapacity.WithLabelValues("Wind")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.curtailment))
	require.Equal(t, 1.0, testutil.ToFloat64(m.solveTotal.WithLabelValues("infeasible")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.solveTotal.WithLabelValues(ResultSuccess)))
}

func TestNewRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	require.Error(t, err)

	m, err := New(nil)
	require.NoError(t, err)
	m.ObserveExport("csv", time.Millisecond, nil)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveLoad(ingest.KindDemand, 0, nil)
	m.ObserveSolve(0, nil, nil)
	m.ObserveExport("pdf", 0, errors.New("x"))
}

func TestErrorReasons(t *testing.T) {
	require.Equal(t, "file_not_found", LoadErrorReason(&ingest.LoadError{Err: &ingest.FileNotFoundError{Path: "a"}}))
	require.Equal(t, "type_coercion", LoadErrorReason(&ingest.TypeCoercionError{Column: "mw"}))
	require.Equal(t, "validation", LoadErrorReason(&ingest.ValidationError{Column: "mw", Err: ingest.ErrNegativeValue}))
	require.Equal(t, "unsupported_format", LoadErrorReason(fmt.Errorf("x: %w", ingest.ErrUnsupportedFormat)))
	require.Equal(t, "other", LoadErrorReason(errors.New("boom")))

	require.Equal(t, "invalid_input", SolveErrorReason(planning.ErrHorizonMismatch))
	require.Equal(t, "unbounded", SolveErrorReason(planning.ErrUnbounded))
	require.Equal(t, "too_large", SolveErrorReason(fmt.Errorf("wrap: %w", planning.ErrModelTooLarge)))
	require.Equal(t, ResultError, SolveErrorReason(planning.ErrSolverFailure))
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)
	m.ObserveExport("xlsx", time.Millisecond, nil)

	path := filepath.Join(t.TempDir(), "planner.prom")
	require.NoError(t, WriteTextfile(path, reg))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), `planner_export_total{format="xlsx",result="success"} 1`))

	require.Error(t, WriteTextfile("", reg))
}

package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"capacity-planner/internal/config"
	ingest "capacity-planner/internal/ingest/domain"
	planning "capacity-planner/internal/planning/domain"
)

func writeInputs(t *testing.T, dir string) config.Inputs {
	t.Helper()
	files := map[string]string{
		"demand.csv": "DateTime,power_demand_mw\n" +
			"2023-01-01 00:00:00,100\n2023-01-01 01:00:00,140\n2023-01-01 02:00:00,90\n",
		"dc.csv": "timestamp,dc_power_mw\n" +
			"2023-01-01 00:00:00,20\n2023-01-01 01:00:00,20\n2023-01-01 02:00:00,20\n",
		"capacity.csv": "Technology,Capacity_MW\nGas,80\nSolar,10\nHydro,5\n",
		"tech.csv": "technology,capex,var_cost,efficiency,lifetime\n" +
			"Gas,800,70,0.55,30\nSolar,0.05,0,1,25\nWind,0.08,0,1,25\n",
		"cf.csv": "timestamp,Solar,Wind\n" +
			"2023-01-01 00:00:00,0,0.4\n2023-01-01 01:00:00,0.6,0.2\n2023-01-01 02:00:00,0.3,0.5\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return config.Inputs{
		Demand:          filepath.Join(dir, "demand.csv"),
		DataCenter:      filepath.Join(dir, "dc.csv"),
		Capacity:        filepath.Join(dir, "capacity.csv"),
		Technologies:    filepath.Join(dir, "tech.csv"),
		CapacityFactors: filepath.Join(dir, "cf.csv"),
	}
}

func clearPlannerEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PLANNER_CONFIG", "DATABASE_URL", "PG_DSN", "PLANNER_OUTPUT_DIR", "LOG_LEVEL", "PLANNER_HORIZON_HOURS", "PLANNER_MAX_CELLS"} {
		t.Setenv(key, "")
	}
}

func TestRunEndToEnd(t *testing.T) {
	clearPlannerEnv(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "out")

	cfg := config.Default()
	cfg.Inputs = writeInputs(t, dir)
	cfg.Output.Dir = out
	cfg.Output.XLSX = "plan.xlsx"
	cfg.Output.PDF = "plan.pdf"
	cfg.Output.MetricsTextfile = filepath.Join(out, "planner.prom")

	res, err := run(context.Background(), cfg, zap.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)
	require.Equal(t, []string{"Gas", "Solar", "Wind"}, res.Technologies)
	require.Equal(t, []string{"Hydro"}, res.IgnoredColumns)
	for h, load := range []float64{120, 160, 110} {
		require.InDelta(t, load, res.TotalGenerationMW(h), 1e-6)
	}

	gen, err := os.ReadFile(filepath.Join(out, "hw4_results_generation.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(gen)), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "timestamp,Gas,Solar,Wind", lines[0])
	require.True(t, strings.HasPrefix(lines[1], "2023-01-01 00:00:00,"))

	inv, err := os.ReadFile(filepath.Join(out, "hw4_results_investment.csv"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(inv), "technology,new_capacity_mw\nGas,"))

	for _, name := range []string{"plan.xlsx", "plan.pdf", "planner.prom"} {
		_, err := os.Stat(filepath.Join(out, name))
		require.NoError(t, err, name)
	}
	prom, err := os.ReadFile(cfg.Output.MetricsTextfile)
	require.NoError(t, err)
	require.Contains(t, string(prom), `planner_solve_total{result="success"} 1`)
}

func TestRunFailsOnMissingTimestamp(t *testing.T) {
	clearPlannerEnv(t)
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Inputs = writeInputs(t, dir)
	cfg.Output.Dir = filepath.Join(dir, "out")
	require.NoError(t, os.WriteFile(cfg.Inputs.Demand, []byte("load_mw\n100\n140\n90\n"), 0o644))

	_, err := run(context.Background(), cfg, zap.NewNop(), prometheus.NewRegistry())
	var loadErr *ingest.LoadError
	require.ErrorAs(t, err, &loadErr)
	require.Equal(t, ingest.KindDemand, loadErr.Kind)
	require.ErrorIs(t, err, ingest.ErrMissingTimestamp)

	cfg.Ingest.RequireTimestamps = false
	res, err := run(context.Background(), cfg, zap.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)
	require.Len(t, res.Hours, 3)
}

func TestRunRejectsOversizedModelBeforeSolving(t *testing.T) {
	clearPlannerEnv(t)
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Inputs = writeInputs(t, dir)
	cfg.Output.Dir = filepath.Join(dir, "out")
	cfg.Output.MetricsTextfile = filepath.Join(dir, "planner.prom")
	cfg.Model.MaxCells = 100
	// Never dialled: the size check runs first.
	cfg.DatabaseURL = "postgres://planner@127.0.0.1:1/none?connect_timeout=1"

	_, err := run(context.Background(), cfg, zap.NewNop(), prometheus.NewRegistry())
	require.ErrorIs(t, err, planning.ErrModelTooLarge)

	_, statErr := os.Stat(filepath.Join(cfg.Output.Dir, "hw4_results_generation.csv"))
	require.True(t, os.IsNotExist(statErr))
	prom, err := os.ReadFile(cfg.Output.MetricsTextfile)
	require.NoError(t, err)
	require.Contains(t, string(prom), `planner_solve_total{result="too_large"} 1`)

	cfg.DatabaseURL = ""
	cfg.Model.HorizonHours = 1
	res, err := run(context.Background(), cfg, zap.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)
	require.Len(t, res.Hours, 1)
}

func TestLoadConfigFlags(t *testing.T) {
	clearPlannerEnv(t)
	cfg, err := loadConfig([]string{
		"--demand", "d.xlsx",
		"--lenient-timestamps",
		"--horizon-hours", "24",
		"--max-cells", "2000000",
		"--annualize",
		"--discount-rate", "0.05",
		"--output-dir", "results",
		"--log-level", "debug",
	})
	require.NoError(t, err)
	require.Equal(t, "d.xlsx", cfg.Inputs.Demand)
	require.False(t, cfg.Ingest.RequireTimestamps)
	require.Equal(t, 24, cfg.Model.HorizonHours)
	require.Equal(t, 2_000_000, cfg.Model.MaxCells)
	require.True(t, cfg.Model.Annualize)
	require.Equal(t, 0.05, cfg.Model.DiscountRate)
	require.Equal(t, "results", cfg.Output.Dir)
	require.Equal(t, "debug", cfg.LogLevel)

	_, err = loadConfig([]string{"--discount-rate", "-1"})
	require.Error(t, err)
	_, err = loadConfig([]string{"--no-such-flag"})
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger("warn")
	require.NoError(t, err)
	require.NotNil(t, logger)
	_, err = newLogger("loud")
	require.Error(t, err)
}

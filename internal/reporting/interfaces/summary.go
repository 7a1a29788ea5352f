package interfaces

import (
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	planning "capacity-planner/internal/planning/domain"
)

// LogSummary logs the headline figures of a plan and one line per
// technology.
func LogSummary(logger *zap.Logger, res *planning.Result) {
	if logger == nil || res == nil {
		return
	}
	logger.Info("capacity plan solved",
		zap.String("run_id", res.RunID),
		zap.Int("hours", len(res.GenerationMW)),
		zap.Float64("objective_eur", res.ObjectiveEUR),
		zap.Float64("capex_cost_eur", res.CapexCostEUR),
		zap.Float64("var_cost_eur", res.VarCostEUR),
		zap.Float64("curtailment_mwh", res.TotalCurtailmentMWh()),
		zap.Float64("peak_load_mw", peak(res.LoadMW)),
	)
	for k, name := range res.Technologies {
		gen := column(res.GenerationMW, k)
		logger.Info("technology",
			zap.String("technology", name),
			zap.Bool("renewable", res.Renewable[name]),
			zap.Float64("existing_mw", res.ExistingMW[k]),
			zap.Float64("new_capacity_mw", res.NewCapacityMW[k]),
			zap.Float64("mean_generation_mw", stat.Mean(gen, nil)),
			zap.Float64("utilization", Utilization(res, k)),
		)
	}
	if len(res.IgnoredColumns) > 0 {
		logger.Warn("technologies without parameters were not modelled",
			zap.Strings("technologies", res.IgnoredColumns))
	}
}

// Utilization returns mean generation of technology k over its total
// installed capacity, or 0 when nothing is installed.
func Utilization(res *planning.Result, k int) float64 {
	installed := res.ExistingMW[k] + res.NewCapacityMW[k]
	if installed <= 0 || len(res.GenerationMW) == 0 {
		return 0
	}
	return stat.Mean(column(res.GenerationMW, k), nil) / installed
}

func column(m [][]float64, k int) []float64 {
	out := make([]float64, len(m))
	for t, row := range m {
		out[t] = row[k]
	}
	return out
}

func peak(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Max(values)
}

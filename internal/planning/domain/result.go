package planning

import (
	"context"
	"time"
)

// InvestmentRow is one line of the investment table.
type InvestmentRow struct {
	Technology    string
	NewCapacityMW float64
}

// GenerationRow is one hour of the generation table, aligned with
// Result.Technologies.
type GenerationRow struct {
	Timestamp    time.Time
	GenerationMW []float64
}

// Result is the solved capacity-expansion plan.
type Result struct {
	RunID        string
	SolvedAt     time.Time
	Hours        []time.Time
	Technologies []string
	Renewable    map[string]bool
	// NewCapacityMW, ExistingMW are indexed like Technologies.
	NewCapacityMW []float64
	ExistingMW    []float64
	// GenerationMW and CurtailmentMW are [hour][technology]. Curtailment is
	// zero for dispatchable technologies.
	GenerationMW  [][]float64
	CurtailmentMW [][]float64
	LoadMW        []float64

	ObjectiveEUR   float64
	CapexCostEUR   float64
	VarCostEUR     float64
	IgnoredColumns []string
}

// Investments returns the investment table in technology order.
func (r *Result) Investments() []InvestmentRow {
	out := make([]InvestmentRow, len(r.Technologies))
	for k, name := range r.Technologies {
		out[k] = InvestmentRow{Technology: name, NewCapacityMW: r.NewCapacityMW[k]}
	}
	return out
}

// Generation returns the hourly generation table.
func (r *Result) Generation() []GenerationRow {
	out := make([]GenerationRow, len(r.GenerationMW))
	for t, row := range r.GenerationMW {
		g := GenerationRow{GenerationMW: append([]float64(nil), row...)}
		if t < len(r.Hours) {
			g.Timestamp = r.Hours[t]
		}
		out[t] = g
	}
	return out
}

// TotalGenerationMW returns the supply in hour t.
func (r *Result) TotalGenerationMW(t int) float64 {
	var sum float64
	for _, g := range r.GenerationMW[t] {
		sum += g
	}
	return sum
}

// TotalCurtailmentMWh returns curtailed energy over the horizon.
func (r *Result) TotalCurtailmentMWh() float64 {
	var sum float64
	for _, row := range r.CurtailmentMW {
		for _, c := range row {
			sum += c
		}
	}
	return sum
}

// Clone returns a deep copy.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	c := *r
	c.Hours = append([]time.Time(nil), r.Hours...)
	c.Technologies = append([]string(nil), r.Technologies...)
	c.NewCapacityMW = append([]float64(nil), r.NewCapacityMW...)
	c.ExistingMW = append([]float64(nil), r.ExistingMW...)
	c.LoadMW = append([]float64(nil), r.LoadMW...)
	c.IgnoredColumns = append([]string(nil), r.IgnoredColumns...)
	c.GenerationMW = cloneMatrix(r.GenerationMW)
	c.CurtailmentMW = cloneMatrix(r.CurtailmentMW)
	c.Renewable = make(map[string]bool, len(r.Renewable))
	for k, v := range r.Renewable {
		c.Renewable[k] = v
	}
	return &c
}

func cloneMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// ResultRepository persists solved plans.
type ResultRepository interface {
	Save(ctx context.Context, result *Result) error
	Get(ctx context.Context, runID string) (*Result, error)
}

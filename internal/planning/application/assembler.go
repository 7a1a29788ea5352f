package application

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	planning "capacity-planner/internal/planning/domain"
)

const fixedColumn = -1

// DefaultMaxCells bounds the dense constraint matrix. The simplex solver's
// run time grows steeply with the matrix, and about three technologies over
// four days of hourly data already sits near this limit.
const DefaultMaxCells = 250_000

// Assembler turns a validated Input into the capacity-expansion LP.
//
// Columns: one capacity addition per technology, one generation variable
// per (hour, technology), one curtailment variable per (hour, renewable)
// and one capacity slack per (hour, dispatchable).
//
// Rows, per hour t:
//
//	Σ_k gen[t,k]                              = demand[t] + dc[t]
//	gen[t,r] + curt[t,r] - cf[t,r]·new[r]     = cf[t,r]·existing[r]
//	gen[t,d] - new[d] + slack[t,d]            = existing[d]
type Assembler struct {
	costs    planning.CostOptions
	maxCells int
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithMaxCells sets the rows×columns budget of the constraint matrix.
func WithMaxCells(n int) AssemblerOption {
	return func(a *Assembler) {
		if n > 0 {
			a.maxCells = n
		}
	}
}

// NewAssembler constructs an assembler.
func NewAssembler(costs planning.CostOptions, opts ...AssemblerOption) (*Assembler, error) {
	if costs.CapexUnitScale <= 0 || math.IsNaN(costs.CapexUnitScale) {
		return nil, errors.New("assembler: capex unit scale must be positive")
	}
	if costs.DiscountRate < 0 {
		return nil, errors.New("assembler: negative discount rate")
	}
	a := &Assembler{costs: costs, maxCells: DefaultMaxCells}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// MaxCells returns the matrix budget.
func (a *Assembler) MaxCells() int { return a.maxCells }

// Dims returns the constraint matrix shape Assemble would build for in.
func (a *Assembler) Dims(in planning.Input) (rows, cols int) {
	T, K := in.Horizon(), len(in.Technologies)
	capacity := 0
	for _, tech := range in.Technologies {
		if !(tech.Renewable() && allZero(tech.CapacityFactors)) {
			capacity++
		}
	}
	return T + T*K, capacity + 2*T*K
}

// CheckSize returns ErrModelTooLarge when the model for in would exceed the
// matrix budget. Nothing is allocated.
func (a *Assembler) CheckSize(in planning.Input) error {
	rows, cols := a.Dims(in)
	if float64(rows)*float64(cols) > float64(a.maxCells) {
		return fmt.Errorf("%w: %d hours x %d technologies needs a %dx%d matrix, budget is %d cells; shorten the horizon",
			planning.ErrModelTooLarge, in.Horizon(), len(in.Technologies), rows, cols, a.maxCells)
	}
	return nil
}

// Model is an assembled LP together with the column layout needed to read
// the solution back.
type Model struct {
	Problem *planning.Problem
	input   planning.Input
	costs   planning.CostOptions
	newCap  []int
	gen     [][]int
	curt    [][]int
}

// Assemble builds the model for in.
func (a *Assembler) Assemble(in planning.Input) (*Model, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := a.CheckSize(in); err != nil {
		return nil, err
	}
	T, K := in.Horizon(), len(in.Technologies)

	cols := 0
	next := func() int {
		cols++
		return cols - 1
	}

	m := &Model{
		input:  in,
		costs:  a.costs,
		newCap: make([]int, K),
		gen:    make([][]int, T),
		curt:   make([][]int, T),
	}
	for k, tech := range in.Technologies {
		if tech.Renewable() && allZero(tech.CapacityFactors) {
			m.newCap[k] = fixedColumn
			continue
		}
		m.newCap[k] = next()
	}
	for t := 0; t < T; t++ {
		m.gen[t] = make([]int, K)
		for k := range in.Technologies {
			m.gen[t][k] = next()
		}
	}
	// Curtailment for renewables, capacity slack for dispatchables.
	for t := 0; t < T; t++ {
		m.curt[t] = make([]int, K)
		for k := range in.Technologies {
			m.curt[t][k] = next()
		}
	}

	rows := T + T*K
	A := mat.NewDense(rows, cols, nil)
	b := make([]float64, rows)
	c := make([]float64, cols)

	for k, tech := range in.Technologies {
		if j := m.newCap[k]; j != fixedColumn {
			c[j] = a.costs.CapexPerMW(tech)
		}
		for t := 0; t < T; t++ {
			c[m.gen[t][k]] = tech.VarCostEURPerMWh
		}
	}

	for t := 0; t < T; t++ {
		for k := range in.Technologies {
			A.Set(t, m.gen[t][k], 1)
		}
		b[t] = in.TotalLoadMW(t)

		for k, tech := range in.Technologies {
			row := T + t*K + k
			A.Set(row, m.gen[t][k], 1)
			A.Set(row, m.curt[t][k], 1)
			if tech.Renewable() {
				cf := tech.CapacityFactors[t]
				if j := m.newCap[k]; j != fixedColumn {
					A.Set(row, j, -cf)
				}
				b[row] = cf * tech.ExistingMW
			} else {
				A.Set(row, m.newCap[k], -1)
				b[row] = tech.ExistingMW
			}
		}
	}

	for i := range b {
		if b[i] < 0 {
			b[i] = -b[i]
			for j := 0; j < cols; j++ {
				A.Set(i, j, -A.At(i, j))
			}
		}
	}

	m.Problem = &planning.Problem{C: c, A: A, B: b}
	return m, nil
}

// Decode maps a solution vector onto a Result. Values within tol of zero
// are reported as zero.
func (m *Model) Decode(sol planning.Solution, tol float64) (*planning.Result, error) {
	_, cols := m.Problem.Dims()
	if len(sol.X) != cols {
		return nil, fmt.Errorf("%w: solution has %d values for %d columns", planning.ErrSolverFailure, len(sol.X), cols)
	}
	in := m.input
	T, K := in.Horizon(), len(in.Technologies)
	clean := func(v float64) float64 {
		if math.Abs(v) <= tol {
			return 0
		}
		return v
	}

	res := &planning.Result{
		Technologies:  make([]string, K),
		Renewable:     make(map[string]bool, K),
		NewCapacityMW: make([]float64, K),
		ExistingMW:    make([]float64, K),
		GenerationMW:  make([][]float64, T),
		CurtailmentMW: make([][]float64, T),
		LoadMW:        make([]float64, T),
		ObjectiveEUR:  sol.Objective,
	}
	res.IgnoredColumns = append(res.IgnoredColumns, in.Ignored...)
	if in.Hours != nil {
		res.Hours = append(res.Hours, in.Hours...)
	}
	for k, tech := range in.Technologies {
		res.Technologies[k] = tech.Name
		res.Renewable[tech.Name] = tech.Renewable()
		res.ExistingMW[k] = tech.ExistingMW
		if j := m.newCap[k]; j != fixedColumn {
			res.NewCapacityMW[k] = clean(sol.X[j])
		}
		res.CapexCostEUR += m.costs.CapexPerMW(tech) * res.NewCapacityMW[k]
	}
	for t := 0; t < T; t++ {
		res.LoadMW[t] = in.TotalLoadMW(t)
		res.GenerationMW[t] = make([]float64, K)
		res.CurtailmentMW[t] = make([]float64, K)
		for k, tech := range in.Technologies {
			g := clean(sol.X[m.gen[t][k]])
			res.GenerationMW[t][k] = g
			res.VarCostEUR += tech.VarCostEURPerMWh * g
			if tech.Renewable() {
				res.CurtailmentMW[t][k] = clean(sol.X[m.curt[t][k]])
			}
		}
	}
	return res, nil
}

func allZero(values []float64) bool {
	for _, v := range values {
		if v != 0 {
			return false
		}
	}
	return true
}

package planning

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// Problem is a linear program in standard form:
//
//	minimize cᵀx  subject to  A·x = b,  x >= 0.
type Problem struct {
	C []float64
	A mat.Matrix
	B []float64
}

// Dims returns the number of constraints and variables.
func (p *Problem) Dims() (rows, cols int) {
	return p.A.Dims()
}

// Solution is an optimal point of a Problem.
type Solution struct {
	Objective float64
	X         []float64
}

// Solver solves standard-form linear programs.
type Solver interface {
	Solve(ctx context.Context, p *Problem) (Solution, error)
}

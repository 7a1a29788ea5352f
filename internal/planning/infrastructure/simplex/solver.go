package simplex

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/optimize/convex/lp"

	planning "capacity-planner/internal/planning/domain"
)

// DefaultTolerance is the reduced-cost tolerance of the simplex method.
const DefaultTolerance = 1e-9

// Solver solves standard-form problems with gonum's dense simplex.
type Solver struct {
	tol float64
}

// NewSolver constructs a solver. A non-positive tol selects DefaultTolerance.
func NewSolver(tol float64) *Solver {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	return &Solver{tol: tol}
}

// Tolerance returns the configured tolerance.
func (s *Solver) Tolerance() float64 { return s.tol }

// Solve runs the simplex method. The call is not interruptible; ctx is
// only checked before starting.
func (s *Solver) Solve(ctx context.Context, p *planning.Problem) (planning.Solution, error) {
	if err := ctx.Err(); err != nil {
		return planning.Solution{}, err
	}
	if p == nil || p.A == nil {
		return planning.Solution{}, errors.New("simplex: nil problem")
	}
	obj, x, err := lp.Simplex(p.C, p.A, p.B, s.tol, nil)
	if err != nil {
		return planning.Solution{}, translate(err)
	}
	return planning.Solution{Objective: obj, X: x}, nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return fmt.Errorf("%w: %v", planning.ErrInfeasible, err)
	case errors.Is(err, lp.ErrUnbounded):
		return fmt.Errorf("%w: %v", planning.ErrUnbounded, err)
	default:
		return fmt.Errorf("%w: %v", planning.ErrSolverFailure, err)
	}
}

package planning

import "errors"

var (
	// ErrEmptyHorizon is returned when the model has no hours.
	ErrEmptyHorizon = errors.New("planning: empty horizon")
	// ErrHorizonMismatch is returned when hourly inputs differ in length.
	ErrHorizonMismatch = errors.New("planning: horizon mismatch")
	// ErrNoTechnologies is returned when no technology is priced.
	ErrNoTechnologies = errors.New("planning: no technologies")
	// ErrInvalidTechnology is returned for a technology with bad parameters.
	ErrInvalidTechnology = errors.New("planning: invalid technology")
	// ErrModelTooLarge is returned when the constraint matrix exceeds the
	// configured cell budget.
	ErrModelTooLarge = errors.New("planning: model too large")
	// ErrInfeasible is returned when demand cannot be met.
	ErrInfeasible = errors.New("planning: infeasible")
	// ErrUnbounded is returned when the objective has no lower bound.
	ErrUnbounded = errors.New("planning: unbounded")
	// ErrSolverFailure wraps numeric failures of the solver.
	ErrSolverFailure = errors.New("planning: solver failure")
	// ErrNilResult is returned when saving a nil result.
	ErrNilResult = errors.New("planning: nil result")
	// ErrResultNotFound is returned when a run id is unknown.
	ErrResultNotFound = errors.New("planning: result not found")
)

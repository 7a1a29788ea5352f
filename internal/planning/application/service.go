package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	planning "capacity-planner/internal/planning/domain"
)

// SolveObserver is notified after every run.
type SolveObserver interface {
	ObserveSolve(elapsed time.Duration, result *planning.Result, err error)
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Service runs the assemble, solve, decode and persist pipeline.
type Service struct {
	assembler *Assembler
	solver    planning.Solver
	repo      planning.ResultRepository
	observer  SolveObserver
	clock     Clock
	tol       float64
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithSolveObserver sets the observer.
func WithSolveObserver(o SolveObserver) ServiceOption {
	return func(s *Service) { s.observer = o }
}

// WithClock overrides the clock.
func WithClock(c Clock) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithDecodeTolerance sets the magnitude below which decoded values are
// reported as zero.
func WithDecodeTolerance(tol float64) ServiceOption {
	return func(s *Service) {
		if tol > 0 {
			s.tol = tol
		}
	}
}

// NewService constructs the planning service. repo may be nil to skip
// persistence.
func NewService(assembler *Assembler, solver planning.Solver, repo planning.ResultRepository, opts ...ServiceOption) (*Service, error) {
	if assembler == nil {
		return nil, errors.New("planning service: nil assembler")
	}
	if solver == nil {
		return nil, errors.New("planning service: nil solver")
	}
	s := &Service{
		assembler: assembler,
		solver:    solver,
		repo:      repo,
		clock:     SystemClock{},
		tol:       1e-9,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run solves the capacity-expansion model for in.
func (s *Service) Run(ctx context.Context, in planning.Input) (*planning.Result, error) {
	start := time.Now()
	result, err := s.run(ctx, in)
	if s.observer != nil {
		s.observer.ObserveSolve(time.Since(start), result, err)
	}
	return result, err
}

func (s *Service) run(ctx context.Context, in planning.Input) (*planning.Result, error) {
	model, err := s.assembler.Assemble(in)
	if err != nil {
		return nil, err
	}
	sol, err := s.solver.Solve(ctx, model.Problem)
	if err != nil {
		return nil, err
	}
	result, err := model.Decode(sol, s.tol)
	if err != nil {
		return nil, err
	}
	result.RunID = uuid.NewString()
	result.SolvedAt = s.clock.Now()

	if s.repo != nil {
		if err := s.repo.Save(ctx, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	planning "capacity-planner/internal/planning/domain"
)

// ResultRepository keeps solved plans in memory for single-shot runs and tests.
type ResultRepository struct {
	mu   sync.RWMutex
	data map[string]*planning.Result
}

// NewResultRepository constructs a repository.
func NewResultRepository() *ResultRepository {
	return &ResultRepository{
		data: make(map[string]*planning.Result),
	}
}

// Save stores a copy of result keyed by its run id.
func (r *ResultRepository) Save(ctx context.Context, result *planning.Result) error {
	_ = ctx
	if result == nil {
		return planning.ErrNilResult
	}
	if result.RunID == "" {
		return errors.New("result repo: empty run id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[result.RunID] = result.Clone()
	return nil
}

// Get loads a plan by run id.
func (r *ResultRepository) Get(ctx context.Context, runID string) (*planning.Result, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := r.data[runID]
	if res == nil {
		return nil, planning.ErrResultNotFound
	}
	return res.Clone(), nil
}

// RunIDs lists stored runs ordered by solve time.
func (r *ResultRepository) RunIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.data))
	for id := range r.data {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := r.data[ids[i]], r.data[ids[j]]
		if !a.SolvedAt.Equal(b.SolvedAt) {
			return a.SolvedAt.Before(b.SolvedAt)
		}
		return ids[i] < ids[j]
	})
	return ids
}

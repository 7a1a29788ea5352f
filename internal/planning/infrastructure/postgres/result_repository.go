package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	planning "capacity-planner/internal/planning/domain"
)

const defaultTablePrefix = "planning"

// ResultRepository persists solved plans in Postgres. A plan spans three
// tables: <prefix>_runs, <prefix>_investments and <prefix>_generation.
type ResultRepository struct {
	db     *sql.DB
	prefix string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*ResultRepository)

// WithTablePrefix overrides the default table prefix.
func WithTablePrefix(prefix string) RepositoryOption {
	return func(r *ResultRepository) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// NewResultRepository constructs a repository.
func NewResultRepository(db *sql.DB, opts ...RepositoryOption) (*ResultRepository, error) {
	if db == nil {
		return nil, errors.New("result repo: nil db")
	}
	r := &ResultRepository{db: db, prefix: defaultTablePrefix}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *ResultRepository) runs() string        { return r.prefix + "_runs" }
func (r *ResultRepository) investments() string { return r.prefix + "_investments" }
func (r *ResultRepository) generation() string  { return r.prefix + "_generation" }

// EnsureSchema creates the tables when missing.
func (r *ResultRepository) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	run_id TEXT PRIMARY KEY,
	solved_at TIMESTAMPTZ NOT NULL,
	hours INTEGER NOT NULL,
	objective_eur DOUBLE PRECISION NOT NULL,
	capex_cost_eur DOUBLE PRECISION NOT NULL,
	var_cost_eur DOUBLE PRECISION NOT NULL,
	ignored_columns JSONB NOT NULL DEFAULT '[]'
)`, r.runs()),
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	run_id TEXT NOT NULL REFERENCES %s(run_id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	technology TEXT NOT NULL,
	renewable BOOLEAN NOT NULL,
	existing_mw DOUBLE PRECISION NOT NULL,
	new_capacity_mw DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, position)
)`, r.investments(), r.runs()),
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	run_id TEXT NOT NULL REFERENCES %s(run_id) ON DELETE CASCADE,
	hour_index INTEGER NOT NULL,
	position INTEGER NOT NULL,
	hour_start TIMESTAMPTZ NULL,
	load_mw DOUBLE PRECISION NOT NULL,
	generation_mw DOUBLE PRECISION NOT NULL,
	curtailment_mw DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, hour_index, position)
)`, r.generation(), r.runs()),
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Save inserts result and its hourly rows in one transaction.
func (r *ResultRepository) Save(ctx context.Context, result *planning.Result) error {
	if r == nil || r.db == nil {
		return errors.New("result repo: nil db")
	}
	if result == nil {
		return planning.ErrNilResult
	}
	ignored, err := json.Marshal(append([]string{}, result.IgnoredColumns...))
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
INSERT INTO %s (run_id, solved_at, hours, objective_eur, capex_cost_eur, var_cost_eur, ignored_columns)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, r.runs()),
		result.RunID, result.SolvedAt, len(result.GenerationMW), result.ObjectiveEUR,
		result.CapexCostEUR, result.VarCostEUR, string(ignored))
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	for k, name := range result.Technologies {
		_, err = tx.ExecContext(ctx, fmt.Sprintf(`
INSERT INTO %s (run_id, position, technology, renewable, existing_mw, new_capacity_mw)
VALUES ($1,$2,$3,$4,$5,$6)`, r.investments()),
			result.RunID, k, name, result.Renewable[name], result.ExistingMW[k], result.NewCapacityMW[k])
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	for t, row := range result.GenerationMW {
		var hourStart sql.NullTime
		if t < len(result.Hours) {
			hourStart = sql.NullTime{Time: result.Hours[t], Valid: true}
		}
		for k, g := range row {
			_, err = tx.ExecContext(ctx, fmt.Sprintf(`
INSERT INTO %s (run_id, hour_index, position, hour_start, load_mw, generation_mw, curtailment_mw)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, r.generation()),
				result.RunID, t, k, hourStart, result.LoadMW[t], g, result.CurtailmentMW[t][k])
			if err != nil {
				_ = tx.Rollback()
				return err
			}
		}
	}
	return tx.Commit()
}

// Get loads a plan by run id.
func (r *ResultRepository) Get(ctx context.Context, runID string) (*planning.Result, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("result repo: nil db")
	}
	res := &planning.Result{RunID: runID, Renewable: map[string]bool{}}
	var (
		hours   int
		ignored string
	)
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(`
SELECT solved_at, hours, objective_eur, capex_cost_eur, var_cost_eur, ignored_columns::text
FROM %s WHERE run_id = $1`, r.runs()), runID).
		Scan(&res.SolvedAt, &hours, &res.ObjectiveEUR, &res.CapexCostEUR, &res.VarCostEUR, &ignored)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, planning.ErrResultNotFound
	}
	if err != nil {
		return nil, err
	}
	res.SolvedAt = res.SolvedAt.UTC()
	if err := json.Unmarshal([]byte(ignored), &res.IgnoredColumns); err != nil {
		return nil, fmt.Errorf("result repo: ignored columns: %w", err)
	}
	if len(res.IgnoredColumns) == 0 {
		res.IgnoredColumns = nil
	}

	if err := r.loadInvestments(ctx, res); err != nil {
		return nil, err
	}
	if err := r.loadGeneration(ctx, res, hours); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *ResultRepository) loadInvestments(ctx context.Context, res *planning.Result) error {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
SELECT technology, renewable, existing_mw, new_capacity_mw
FROM %s WHERE run_id = $1 ORDER BY position`, r.investments()), res.RunID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			name             string
			renewable        bool
			existing, newCap float64
		)
		if err := rows.Scan(&name, &renewable, &existing, &newCap); err != nil {
			return err
		}
		res.Technologies = append(res.Technologies, name)
		res.Renewable[name] = renewable
		res.ExistingMW = append(res.ExistingMW, existing)
		res.NewCapacityMW = append(res.NewCapacityMW, newCap)
	}
	return rows.Err()
}

func (r *ResultRepository) loadGeneration(ctx context.Context, res *planning.Result, hours int) error {
	K := len(res.Technologies)
	res.GenerationMW = make([][]float64, hours)
	res.CurtailmentMW = make([][]float64, hours)
	res.LoadMW = make([]float64, hours)
	for t := 0; t < hours; t++ {
		res.GenerationMW[t] = make([]float64, K)
		res.CurtailmentMW[t] = make([]float64, K)
	}
	stamps := make([]time.Time, hours)
	stamped := hours > 0

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
SELECT hour_index, position, hour_start, load_mw, generation_mw, curtailment_mw
FROM %s WHERE run_id = $1 ORDER BY hour_index, position`, r.generation()), res.RunID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			t, k      int
			hourStart sql.NullTime
			load, g   float64
			curt      float64
		)
		if err := rows.Scan(&t, &k, &hourStart, &load, &g, &curt); err != nil {
			return err
		}
		if t < 0 || t >= hours || k < 0 || k >= K {
			return fmt.Errorf("result repo: run %s has cell (%d,%d) outside %dx%d", res.RunID, t, k, hours, K)
		}
		res.LoadMW[t] = load
		res.GenerationMW[t][k] = g
		res.CurtailmentMW[t][k] = curt
		if hourStart.Valid {
			stamps[t] = hourStart.Time.UTC()
		} else {
			stamped = false
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if stamped {
		res.Hours = stamps
	}
	return nil
}

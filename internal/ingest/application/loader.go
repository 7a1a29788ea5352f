package application

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	ingest "capacity-planner/internal/ingest/domain"
	"capacity-planner/internal/ingest/infrastructure/csvsource"
	"capacity-planner/internal/ingest/infrastructure/xlsxsource"
)

// TableReader parses one file into an untyped table.
type TableReader func(path string) (ingest.RawTable, error)

// Observer is notified after every load attempt.
type Observer interface {
	ObserveLoad(kind ingest.Kind, elapsed time.Duration, err error)
}

// Paths locates the five input files.
type Paths struct {
	Demand          string
	DataCenter      string
	Capacity        string
	Technologies    string
	CapacityFactors string
}

// DefaultPaths returns the conventional ETL output locations.
func DefaultPaths() Paths {
	return Paths{
		Demand:          filepath.FromSlash("etl_outputs/power_demand_baseline.csv"),
		DataCenter:      filepath.FromSlash("etl_outputs/power_dc_placeholder.csv"),
		Capacity:        filepath.FromSlash("etl_outputs/existing_capacity_by_tech.csv"),
		Technologies:    filepath.FromSlash("etl_outputs/technology_parameters.csv"),
		CapacityFactors: filepath.FromSlash("etl_outputs/capacity_factors_profiles.csv"),
	}
}

// Dataset bundles the five validated tables.
type Dataset struct {
	Demand          ingest.LoadSeries
	DataCenter      ingest.LoadSeries
	Capacity        ingest.CapacityRecord
	Technologies    ingest.TechnologyParameters
	CapacityFactors ingest.CapacityFactorProfile
}

// Loader reads and validates input tables.
type Loader struct {
	readers           map[string]TableReader
	requireTimestamps bool
	observer          Observer
}

// Option configures a Loader.
type Option func(*Loader)

// WithRequireTimestamps controls whether the demand and data-center loaders
// fail when no timestamp column is present. The capacity-factor loader
// always requires one.
func WithRequireTimestamps(require bool) Option {
	return func(l *Loader) { l.requireTimestamps = require }
}

// WithObserver sets the load observer.
func WithObserver(o Observer) Option {
	return func(l *Loader) { l.observer = o }
}

// WithReader registers a reader for a file extension such as ".csv".
func WithReader(ext string, r TableReader) Option {
	return func(l *Loader) {
		if r != nil {
			l.readers[strings.ToLower(ext)] = r
		}
	}
}

// NewLoader constructs a loader with CSV and XLSX support.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		readers: map[string]TableReader{
			".csv":  csvsource.ReadTable,
			".xlsx": xlsxsource.ReadTable,
		},
		requireTimestamps: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadAll loads every input file. The first failure aborts.
func (l *Loader) LoadAll(paths Paths) (Dataset, error) {
	var ds Dataset
	var err error
	if ds.Demand, err = l.LoadDemand(paths.Demand); err != nil {
		return Dataset{}, err
	}
	if ds.DataCenter, err = l.LoadDataCenterLoad(paths.DataCenter); err != nil {
		return Dataset{}, err
	}
	if ds.Capacity, err = l.LoadExistingCapacity(paths.Capacity); err != nil {
		return Dataset{}, err
	}
	if ds.Technologies, err = l.LoadTechnologyParameters(paths.Technologies); err != nil {
		return Dataset{}, err
	}
	if ds.CapacityFactors, err = l.LoadCapacityFactors(paths.CapacityFactors); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

// LoadDemand loads the baseline power demand series.
func (l *Loader) LoadDemand(path string) (ingest.LoadSeries, error) {
	return l.loadSeries(ingest.KindDemand, path, ingest.ColLoadMW)
}

// LoadDataCenterLoad loads the data-center load series.
func (l *Loader) LoadDataCenterLoad(path string) (ingest.LoadSeries, error) {
	return l.loadSeries(ingest.KindDataCenter, path, ingest.ColPowerDCMW)
}

// LoadExistingCapacity loads installed capacity per technology.
func (l *Loader) LoadExistingCapacity(path string) (ingest.CapacityRecord, error) {
	var out ingest.CapacityRecord
	err := l.observe(ingest.KindCapacity, path, func() error {
		table, err := l.readNormalized(ingest.KindCapacity, path)
		if err != nil {
			return err
		}
		techs, err := technologyColumn(table)
		if err != nil {
			return err
		}
		capacity, err := floatColumn(table, ingest.ColExistingCapacity)
		if err != nil {
			return err
		}
		out = make(ingest.CapacityRecord, len(techs))
		for i, tech := range techs {
			if err := checkMeasure(ingest.ColExistingCapacity, i, capacity[i]); err != nil {
				return err
			}
			out[tech] = capacity[i]
		}
		return nil
	})
	return out, err
}

// LoadTechnologyParameters loads cost and performance records.
func (l *Loader) LoadTechnologyParameters(path string) (ingest.TechnologyParameters, error) {
	var out ingest.TechnologyParameters
	err := l.observe(ingest.KindTechnologies, path, func() error {
		table, err := l.readNormalized(ingest.KindTechnologies, path)
		if err != nil {
			return err
		}
		techs, err := technologyColumn(table)
		if err != nil {
			return err
		}
		numeric := map[string][]float64{}
		for _, col := range []string{ingest.ColCapex, ingest.ColVarCost, ingest.ColEfficiency, ingest.ColLifetime} {
			values, err := floatColumn(table, col)
			if err != nil {
				return err
			}
			for i, v := range values {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return &ingest.ValidationError{Column: col, Row: i, Err: ingest.ErrNonFinite}
				}
			}
			numeric[col] = values
		}
		out = make(ingest.TechnologyParameters, len(techs))
		for i, tech := range techs {
			if numeric[ingest.ColLifetime][i] <= 0 {
				return &ingest.ValidationError{Column: ingest.ColLifetime, Row: i, Err: ingest.ErrNonPositiveLifetime}
			}
			out[tech] = ingest.TechnologyParameter{
				Technology:       tech,
				CapexEURPerKW:    numeric[ingest.ColCapex][i],
				VarCostEURPerMWh: numeric[ingest.ColVarCost][i],
				Efficiency:       numeric[ingest.ColEfficiency][i],
				LifetimeYears:    numeric[ingest.ColLifetime][i],
			}
		}
		return nil
	})
	return out, err
}

// LoadCapacityFactors loads hourly capacity factors. Every non-timestamp
// column is a technology series.
func (l *Loader) LoadCapacityFactors(path string) (ingest.CapacityFactorProfile, error) {
	var out ingest.CapacityFactorProfile
	err := l.observe(ingest.KindCapacityFactors, path, func() error {
		table, err := l.readNormalized(ingest.KindCapacityFactors, path)
		if err != nil {
			return err
		}
		tsIdx := table.ColumnIndex(ingest.ColTimestamp)
		if tsIdx < 0 {
			return ingest.ErrMissingTimestamp
		}
		timestamps, err := ingest.ParseTimestamps(table.Column(tsIdx))
		if err != nil {
			return err
		}
		profile := ingest.CapacityFactorProfile{
			Timestamps: timestamps,
			Values:     map[string][]float64{},
		}
		for i, col := range table.Columns {
			if i == tsIdx {
				continue
			}
			if strings.TrimSpace(col) == "" {
				return &ingest.ValidationError{Column: col, Row: -1, Err: ingest.ErrEmptyTechnology}
			}
			if _, dup := profile.Values[col]; dup {
				return &ingest.ValidationError{Column: col, Row: -1, Err: ingest.ErrDuplicateTechnology}
			}
			values, err := ingest.CoerceFloats(col, table.Column(i))
			if err != nil {
				return err
			}
			profile.Technologies = append(profile.Technologies, col)
			profile.Values[col] = values
		}
		if err := profile.Validate(); err != nil {
			return err
		}
		out = profile
		return nil
	})
	return out, err
}

func (l *Loader) loadSeries(kind ingest.Kind, path, valueColumn string) (ingest.LoadSeries, error) {
	var out ingest.LoadSeries
	err := l.observe(kind, path, func() error {
		table, err := l.readNormalized(kind, path)
		if err != nil {
			return err
		}
		hasTimestamp := table.ColumnIndex(ingest.ColTimestamp) >= 0
		if !hasTimestamp && l.requireTimestamps {
			return ingest.ErrMissingTimestamp
		}
		table = ingest.Project(table, ingest.SchemaFor(kind).Canonical())

		var timestamps []time.Time
		if hasTimestamp {
			timestamps, err = ingest.ParseTimestamps(table.Column(table.ColumnIndex(ingest.ColTimestamp)))
			if err != nil {
				return err
			}
		}
		values, err := floatColumn(table, valueColumn)
		if err != nil {
			return err
		}

		series := ingest.LoadSeries{Kind: kind, Points: make([]ingest.LoadPoint, len(values))}
		for i, v := range values {
			series.Points[i].MW = v
			if timestamps != nil {
				series.Points[i].Timestamp = timestamps[i]
			}
		}
		if err := series.Validate(valueColumn); err != nil {
			return err
		}
		out = series
		return nil
	})
	return out, err
}

func (l *Loader) readNormalized(kind ingest.Kind, path string) (ingest.RawTable, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ingest.RawTable{}, &ingest.FileNotFoundError{Path: path}
		}
		return ingest.RawTable{}, err
	}
	reader, ok := l.readers[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return ingest.RawTable{}, ingest.ErrUnsupportedFormat
	}
	raw, err := reader(path)
	if err != nil {
		return ingest.RawTable{}, err
	}
	return ingest.Normalize(raw, ingest.SchemaFor(kind)), nil
}

func (l *Loader) observe(kind ingest.Kind, path string, fn func() error) error {
	start := time.Now()
	err := ingest.WrapLoad(kind, path, fn())
	if l.observer != nil {
		l.observer.ObserveLoad(kind, time.Since(start), err)
	}
	return err
}

func technologyColumn(table ingest.RawTable) ([]string, error) {
	idx := table.ColumnIndex(ingest.ColTechnology)
	if idx < 0 {
		return nil, &ingest.ValidationError{Column: ingest.ColTechnology, Row: -1, Err: ingest.ErrMissingColumn}
	}
	techs, err := ingest.CoerceStrings(ingest.ColTechnology, table.Column(idx))
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(techs))
	for i, tech := range techs {
		if tech == "" {
			return nil, &ingest.ValidationError{Column: ingest.ColTechnology, Row: i, Err: ingest.ErrEmptyTechnology}
		}
		if seen[tech] {
			return nil, &ingest.ValidationError{Column: ingest.ColTechnology, Row: i, Err: ingest.ErrDuplicateTechnology}
		}
		seen[tech] = true
	}
	return techs, nil
}

func floatColumn(table ingest.RawTable, column string) ([]float64, error) {
	idx := table.ColumnIndex(column)
	if idx < 0 {
		return nil, &ingest.ValidationError{Column: column, Row: -1, Err: ingest.ErrMissingColumn}
	}
	return ingest.CoerceFloats(column, table.Column(idx))
}

func checkMeasure(column string, row int, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ingest.ValidationError{Column: column, Row: row, Err: ingest.ErrNonFinite}
	}
	if v < 0 {
		return &ingest.ValidationError{Column: column, Row: row, Err: ingest.ErrNegativeValue}
	}
	return nil
}

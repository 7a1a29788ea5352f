package ingest

import (
	"math"
	"time"
)

// LoadPoint is one hourly load sample. Timestamp is zero when the source
// file carried no timestamp column and lenient loading was requested.
type LoadPoint struct {
	Timestamp time.Time
	MW        float64
}

// LoadSeries is an ordered hourly load channel. Demand and data-center load
// share the shape but stay distinct through Kind.
type LoadSeries struct {
	Kind   Kind
	Points []LoadPoint
}

// HasTimestamps reports whether the series carries a time index.
func (s LoadSeries) HasTimestamps() bool {
	return len(s.Points) > 0 && !s.Points[0].Timestamp.IsZero()
}

// Timestamps returns the time index, or nil when absent.
func (s LoadSeries) Timestamps() []time.Time {
	if !s.HasTimestamps() {
		return nil
	}
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Timestamp
	}
	return out
}

// Values returns the MW column.
func (s LoadSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.MW
	}
	return out
}

// Len returns the number of hours.
func (s LoadSeries) Len() int { return len(s.Points) }

// Validate checks the load series invariants.
func (s LoadSeries) Validate(column string) error {
	for i, p := range s.Points {
		if math.IsNaN(p.MW) || math.IsInf(p.MW, 0) {
			return &ValidationError{Column: column, Row: i, Err: ErrNonFinite}
		}
		if p.MW < 0 {
			return &ValidationError{Column: column, Row: i, Err: ErrNegativeValue}
		}
	}
	if s.HasTimestamps() {
		return validateIncreasing(s.Timestamps())
	}
	return nil
}

// CapacityRecord maps technology name to existing capacity in MW.
type CapacityRecord map[string]float64

// TechnologyParameter is the cost and performance record of one technology.
type TechnologyParameter struct {
	Technology       string
	CapexEURPerKW    float64
	VarCostEURPerMWh float64
	// Efficiency is expected in [0,1] but not enforced.
	Efficiency    float64
	LifetimeYears float64
}

// TechnologyParameters maps technology name to its parameter record.
type TechnologyParameters map[string]TechnologyParameter

// CapacityFactorProfile holds one hourly capacity-factor series per
// technology. Technologies keeps the column order of the source file.
type CapacityFactorProfile struct {
	Timestamps   []time.Time
	Technologies []string
	Values       map[string][]float64
}

// Len returns the number of hours.
func (p CapacityFactorProfile) Len() int { return len(p.Timestamps) }

// Series returns the capacity factors for technology, if present.
func (p CapacityFactorProfile) Series(technology string) ([]float64, bool) {
	v, ok := p.Values[technology]
	return v, ok
}

// Validate checks the profile invariants.
func (p CapacityFactorProfile) Validate() error {
	if err := validateIncreasing(p.Timestamps); err != nil {
		return err
	}
	for _, tech := range p.Technologies {
		for i, v := range p.Values[tech] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &ValidationError{Column: tech, Row: i, Err: ErrNonFinite}
			}
		}
	}
	return nil
}

func validateIncreasing(ts []time.Time) error {
	for i := 1; i < len(ts); i++ {
		if !ts[i].After(ts[i-1]) {
			return &ValidationError{Column: ColTimestamp, Row: i, Err: ErrNotIncreasing}
		}
	}
	return nil
}

package planning

import (
	"fmt"
	"math"
	"time"
)

// Technology is one candidate asset class of the capacity-expansion model.
// A technology with CapacityFactors is renewable; without, dispatchable.
type Technology struct {
	Name             string
	CapexEURPerKW    float64
	VarCostEURPerMWh float64
	Efficiency       float64
	LifetimeYears    float64
	ExistingMW       float64
	CapacityFactors  []float64
}

// Renewable reports whether output is bounded by a capacity-factor profile.
func (t Technology) Renewable() bool { return t.CapacityFactors != nil }

// Input is the joined, validated model input on a common hourly index.
// Hours may be nil when no input carried timestamps.
type Input struct {
	Hours        []time.Time
	DemandMW     []float64
	DataCenterMW []float64
	Technologies []Technology
	// Ignored lists technologies found in capacity or profile inputs that
	// have no parameter record and therefore are not modelled.
	Ignored []string
}

// Horizon returns the number of modelled hours.
func (in Input) Horizon() int { return len(in.DemandMW) }

// TotalLoadMW returns demand plus data-center load for hour t.
func (in Input) TotalLoadMW(t int) float64 {
	return in.DemandMW[t] + in.DataCenterMW[t]
}

// Validate checks the shape of the input.
func (in Input) Validate() error {
	T := in.Horizon()
	if T == 0 {
		return ErrEmptyHorizon
	}
	if len(in.DataCenterMW) != T {
		return fmt.Errorf("%w: demand %d hours, data center %d hours", ErrHorizonMismatch, T, len(in.DataCenterMW))
	}
	if in.Hours != nil && len(in.Hours) != T {
		return fmt.Errorf("%w: demand %d hours, index %d hours", ErrHorizonMismatch, T, len(in.Hours))
	}
	if len(in.Technologies) == 0 {
		return ErrNoTechnologies
	}
	seen := make(map[string]bool, len(in.Technologies))
	for _, tech := range in.Technologies {
		if tech.Name == "" || seen[tech.Name] {
			return fmt.Errorf("%w: name %q", ErrInvalidTechnology, tech.Name)
		}
		seen[tech.Name] = true
		if tech.ExistingMW < 0 || math.IsNaN(tech.ExistingMW) {
			return fmt.Errorf("%w: %s existing capacity %v", ErrInvalidTechnology, tech.Name, tech.ExistingMW)
		}
		if tech.Renewable() && len(tech.CapacityFactors) != T {
			return fmt.Errorf("%w: %s has %d capacity factors for %d hours", ErrHorizonMismatch, tech.Name, len(tech.CapacityFactors), T)
		}
	}
	return nil
}

// CostOptions control how investment cost enters the objective.
type CostOptions struct {
	// CapexUnitScale converts capex per kW into cost per MW of new capacity.
	CapexUnitScale float64
	// Annualize multiplies capex by the capital recovery factor.
	Annualize    bool
	DiscountRate float64
}

// DefaultCostOptions charges overnight capex per MW.
func DefaultCostOptions() CostOptions {
	return CostOptions{CapexUnitScale: 1000}
}

// CapexPerMW returns the objective coefficient of one MW of new capacity.
func (o CostOptions) CapexPerMW(tech Technology) float64 {
	cost := tech.CapexEURPerKW * o.CapexUnitScale
	if o.Annualize {
		cost *= CapitalRecoveryFactor(o.DiscountRate, tech.LifetimeYears)
	}
	return cost
}

// CapitalRecoveryFactor returns r(1+r)^n / ((1+r)^n - 1), or 1/n when r is 0.
func CapitalRecoveryFactor(rate, years float64) float64 {
	if years <= 0 {
		return 1
	}
	if rate == 0 {
		return 1 / years
	}
	g := math.Pow(1+rate, years)
	return rate * g / (g - 1)
}

package ingest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	ingestapp "capacity-planner/internal/ingest/application"
	planning "capacity-planner/internal/planning/domain"
)

// InputOption configures BuildInput.
type InputOption func(*inputConfig)

type inputConfig struct {
	horizonHours int
}

// WithHorizonHours restricts the model to the first n hours. n <= 0 keeps
// the full horizon.
func WithHorizonHours(n int) InputOption {
	return func(c *inputConfig) {
		if n > 0 {
			c.horizonHours = n
		}
	}
}

// BuildInput joins the loaded tables into a model input. Hourly series are
// aligned by position; their lengths must agree, and where two of them carry
// timestamps those must agree hour by hour. The technology universe is the
// set of technologies with a parameter record. Capacity rows and profile
// columns are matched to it by name, exactly first and then ignoring case.
func BuildInput(ds ingestapp.Dataset, opts ...InputOption) (planning.Input, error) {
	cfg := inputConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	T := ds.Demand.Len()
	if T == 0 {
		return planning.Input{}, planning.ErrEmptyHorizon
	}
	if ds.DataCenter.Len() != T {
		return planning.Input{}, fmt.Errorf("%w: demand %d hours, data center %d hours", planning.ErrHorizonMismatch, T, ds.DataCenter.Len())
	}
	profile := ds.CapacityFactors
	if len(profile.Technologies) > 0 && profile.Len() != T {
		return planning.Input{}, fmt.Errorf("%w: demand %d hours, capacity factors %d hours", planning.ErrHorizonMismatch, T, profile.Len())
	}
	if len(ds.Technologies) == 0 {
		return planning.Input{}, planning.ErrNoTechnologies
	}
	if err := checkAligned(ds); err != nil {
		return planning.Input{}, err
	}

	horizon := T
	if cfg.horizonHours > 0 && cfg.horizonHours < T {
		horizon = cfg.horizonHours
	}

	in := planning.Input{
		Hours:        hourIndex(ds, horizon),
		DemandMW:     ds.Demand.Values()[:horizon],
		DataCenterMW: ds.DataCenter.Values()[:horizon],
	}

	names := make([]string, 0, len(ds.Technologies))
	for name := range ds.Technologies {
		names = append(names, name)
	}
	sort.Strings(names)

	capacityNames := make([]string, 0, len(ds.Capacity))
	for name := range ds.Capacity {
		capacityNames = append(capacityNames, name)
	}
	sort.Strings(capacityNames)

	matched := map[string]bool{}
	for _, name := range names {
		params := ds.Technologies[name]
		tech := planning.Technology{
			Name:             name,
			CapexEURPerKW:    params.CapexEURPerKW,
			VarCostEURPerMWh: params.VarCostEURPerMWh,
			Efficiency:       params.Efficiency,
			LifetimeYears:    params.LifetimeYears,
		}
		capName, err := matchName(name, capacityNames, names)
		if err != nil {
			return planning.Input{}, err
		}
		if capName != "" {
			tech.ExistingMW = ds.Capacity[capName]
			matched["capacity/"+capName] = true
		}
		profileName, err := matchName(name, profile.Technologies, names)
		if err != nil {
			return planning.Input{}, err
		}
		if profileName != "" {
			series, _ := profile.Series(profileName)
			tech.CapacityFactors = append(make([]float64, 0, horizon), series[:horizon]...)
			matched["profile/"+profileName] = true
		}
		in.Technologies = append(in.Technologies, tech)
	}

	ignored := map[string]bool{}
	for _, name := range capacityNames {
		if !matched["capacity/"+name] {
			ignored[name] = true
		}
	}
	for _, name := range profile.Technologies {
		if !matched["profile/"+name] {
			ignored[name] = true
		}
	}
	for name := range ignored {
		in.Ignored = append(in.Ignored, name)
	}
	sort.Strings(in.Ignored)

	return in, nil
}

// hourIndex prefers the demand timestamps, then data-center, then the
// capacity-factor grid.
func hourIndex(ds ingestapp.Dataset, horizon int) []time.Time {
	var ts []time.Time
	switch {
	case ds.Demand.HasTimestamps():
		ts = ds.Demand.Timestamps()
	case ds.DataCenter.HasTimestamps():
		ts = ds.DataCenter.Timestamps()
	case ds.CapacityFactors.Len() >= horizon && horizon > 0:
		ts = ds.CapacityFactors.Timestamps
	default:
		return nil
	}
	return append([]time.Time(nil), ts[:horizon]...)
}

// matchName finds the candidate naming technology. An exact spelling wins;
// otherwise a single case-insensitive match is accepted, unless another
// parameter record claims that spelling exactly. Several case-insensitive
// matches are ambiguous.
func matchName(technology string, candidates, technologies []string) (string, error) {
	var folded []string
	for _, c := range candidates {
		if c == technology {
			return c, nil
		}
		if strings.EqualFold(c, technology) && !containsString(technologies, c) {
			folded = append(folded, c)
		}
	}
	switch len(folded) {
	case 0:
		return "", nil
	case 1:
		return folded[0], nil
	default:
		return "", fmt.Errorf("%w: %q matches %s", planning.ErrInvalidTechnology, technology, strings.Join(folded, ", "))
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// checkAligned rejects series whose timestamps disagree. Series without a
// time index are aligned by position only.
func checkAligned(ds ingestapp.Dataset) error {
	type index struct {
		name string
		ts   []time.Time
	}
	var indexes []index
	if ds.Demand.HasTimestamps() {
		indexes = append(indexes, index{"demand", ds.Demand.Timestamps()})
	}
	if ds.DataCenter.HasTimestamps() {
		indexes = append(indexes, index{"data center", ds.DataCenter.Timestamps()})
	}
	if len(ds.CapacityFactors.Technologies) > 0 && len(ds.CapacityFactors.Timestamps) > 0 {
		indexes = append(indexes, index{"capacity factors", ds.CapacityFactors.Timestamps})
	}
	if len(indexes) < 2 {
		return nil
	}
	ref := indexes[0]
	for _, other := range indexes[1:] {
		for h := range ref.ts {
			if h >= len(other.ts) || !ref.ts[h].Equal(other.ts[h]) {
				var got time.Time
				if h < len(other.ts) {
					got = other.ts[h]
				}
				return fmt.Errorf("%w: hour %d is %s in %s but %s in %s", planning.ErrHorizonMismatch,
					h, ref.ts[h].Format(time.RFC3339), ref.name, got.Format(time.RFC3339), other.name)
			}
		}
	}
	return nil
}

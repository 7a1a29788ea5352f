package ingest

import "strings"

// Canonical column names.
const (
	ColTimestamp        = "timestamp"
	ColLoadMW           = "load_mw"
	ColPowerDCMW        = "power_dc_mw"
	ColExistingCapacity = "existing_capacity_mw"
	ColTechnology       = "technology"
	ColCapex            = "capex_eur_per_kw"
	ColVarCost          = "var_cost_eur_per_mwh"
	ColEfficiency       = "efficiency"
	ColLifetime         = "lifetime_years"
)

// Concept maps a canonical column to the aliases recognised for it, in
// priority order. The canonical name itself always matches.
type Concept struct {
	Canonical string
	Aliases   []string
}

// Schema is the ordered set of concepts for one file kind.
type Schema []Concept

// Canonical returns the canonical column names in schema order.
func (s Schema) Canonical() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.Canonical
	}
	return out
}

var timestampConcept = Concept{Canonical: ColTimestamp, Aliases: []string{"timestamp", "datetime", "time"}}

var schemas = map[Kind]Schema{
	KindDemand: {
		timestampConcept,
		{Canonical: ColLoadMW, Aliases: []string{"power_demand_mw", "demand_mw", "load"}},
	},
	KindDataCenter: {
		timestampConcept,
		{Canonical: ColPowerDCMW, Aliases: []string{"power_dc_mw", "dc_power_mw", "datacenter_power_mw"}},
	},
	KindCapacity: {
		{Canonical: ColTechnology, Aliases: []string{"technology", "tech", "technology_name"}},
		{Canonical: ColExistingCapacity, Aliases: []string{"existing_capacity_mw", "capacity_mw", "installed_capacity_mw", "capacity"}},
	},
	KindTechnologies: {
		{Canonical: ColTechnology, Aliases: []string{"technology", "tech", "technology_name"}},
		{Canonical: ColCapex, Aliases: []string{"capex_eur_per_kw", "capex", "capital_cost", "capex_eur_kw"}},
		{Canonical: ColVarCost, Aliases: []string{"var_cost_eur_per_mwh", "var_cost", "variable_cost", "opex", "var_cost_eur_mwh"}},
		{Canonical: ColEfficiency, Aliases: []string{"efficiency", "eta", "conversion_efficiency"}},
		{Canonical: ColLifetime, Aliases: []string{"lifetime_years", "lifetime", "economic_lifetime", "lifetime_yrs"}},
	},
	KindCapacityFactors: {
		timestampConcept,
	},
}

// SchemaFor returns the synonym table for kind.
func SchemaFor(kind Kind) Schema {
	return schemas[kind]
}

// Normalize renames the first matching column of every concept to its
// canonical name. Matching is case-insensitive; columns that match nothing
// keep their original spelling. A concept with no match is simply absent.
// Further columns that are synonyms of an already matched concept are
// dropped, so a file carrying both "timestamp" and "time" keeps only the
// first of them.
func Normalize(table RawTable, schema Schema) RawTable {
	columns := make([]string, len(table.Columns))
	copy(columns, table.Columns)

	keys := make([]string, len(columns))
	lower := make(map[string]int, len(columns))
	for i, c := range columns {
		key := strings.ToLower(strings.TrimSpace(c))
		keys[i] = key
		if _, seen := lower[key]; !seen {
			lower[key] = i
		}
	}

	claimed := make(map[int]bool, len(schema))
	drop := make(map[int]bool)
	for _, concept := range schema {
		candidates := append([]string{concept.Canonical}, concept.Aliases...)
		winner := -1
		for _, alias := range candidates {
			idx, ok := lower[alias]
			if !ok || claimed[idx] {
				continue
			}
			columns[idx] = concept.Canonical
			claimed[idx] = true
			winner = idx
			break
		}
		if winner < 0 {
			continue
		}
		for i, key := range keys {
			if i == winner || claimed[i] || !containsString(candidates, key) {
				continue
			}
			drop[i] = true
		}
	}

	if len(drop) == 0 {
		return RawTable{Columns: columns, Rows: table.Rows}
	}
	keep := make([]int, 0, len(columns)-len(drop))
	for i := range columns {
		if !drop[i] {
			keep = append(keep, i)
		}
	}
	out := RawTable{Columns: make([]string, len(keep)), Rows: make([][]any, len(table.Rows))}
	for j, i := range keep {
		out.Columns[j] = columns[i]
	}
	for r, row := range table.Rows {
		kept := make([]any, 0, len(keep))
		for _, i := range keep {
			if i < len(row) {
				kept = append(kept, row[i])
			}
		}
		out.Rows[r] = kept
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Project keeps only the named columns, in the given order. Names that are
// not present are skipped.
func Project(table RawTable, names []string) RawTable {
	var idx []int
	var cols []string
	for _, name := range names {
		if i := table.ColumnIndex(name); i >= 0 {
			idx = append(idx, i)
			cols = append(cols, name)
		}
	}
	rows := make([][]any, len(table.Rows))
	for r, row := range table.Rows {
		out := make([]any, len(idx))
		for j, i := range idx {
			if i < len(row) {
				out[j] = row[i]
			}
		}
		rows[r] = out
	}
	return RawTable{Columns: cols, Rows: rows}
}

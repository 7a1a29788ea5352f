package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeRecognisesEveryAlias(t *testing.T) {
	for _, kind := range Kinds {
		for _, concept := range SchemaFor(kind) {
			for _, alias := range concept.Aliases {
				for _, spelling := range []string{alias, upper(alias)} {
					t.Run(string(kind)+"/"+spelling, func(t *testing.T) {
						table := RawTable{Columns: []string{"extra", spelling}}
						got := Normalize(table, SchemaFor(kind))
						require.Equal(t, []string{"extra", concept.Canonical}, got.Columns)
					})
				}
			}
		}
	}
}

func TestNormalizeFirstAliasWins(t *testing.T) {
	table := RawTable{Columns: []string{"Load", "Demand_MW", "datetime", "Time"}}

	got := Normalize(table, SchemaFor(KindDemand))

	require.Equal(t, []string{ColLoadMW, ColTimestamp}, got.Columns)
}

func TestNormalizeDropsRedundantSynonymColumns(t *testing.T) {
	table := RawTable{
		Columns: []string{"timestamp", "time", "Wind"},
		Rows: [][]any{
			{"2023-01-01 00:00", "00:00", 0.4},
			{"2023-01-01 01:00", "01:00", 0.2},
		},
	}

	got := Normalize(table, SchemaFor(KindCapacityFactors))

	require.Equal(t, []string{ColTimestamp, "Wind"}, got.Columns)
	require.Equal(t, [][]any{
		{"2023-01-01 00:00", 0.4},
		{"2023-01-01 01:00", 0.2},
	}, got.Rows)
	require.Len(t, table.Columns, 3)
	require.Len(t, table.Rows[0], 3)
}

func TestNormalizeCanonicalSpellingAlwaysMatches(t *testing.T) {
	table := RawTable{Columns: []string{"LOAD_MW", "Demand_MW"}}

	got := Normalize(table, SchemaFor(KindDemand))

	require.Equal(t, []string{ColLoadMW}, got.Columns)
}

func TestNormalizeLeavesUnknownColumnsAndSourceUntouched(t *testing.T) {
	table := RawTable{Columns: []string{"Timestamp", "WindOnshore", "SolarPV"}}

	got := Normalize(table, SchemaFor(KindCapacityFactors))

	require.Equal(t, []string{ColTimestamp, "WindOnshore", "SolarPV"}, got.Columns)
	require.Equal(t, "Timestamp", table.Columns[0])
}

func TestNormalizeMissingConceptIsAbsent(t *testing.T) {
	table := RawTable{Columns: []string{"tech"}}

	got := Normalize(table, SchemaFor(KindTechnologies))

	require.Equal(t, []string{ColTechnology}, got.Columns)
	require.Equal(t, -1, got.ColumnIndex(ColCapex))
}

func TestProjectKeepsCanonicalOrder(t *testing.T) {
	table := RawTable{
		Columns: []string{"note", ColLoadMW, ColTimestamp},
		Rows:    [][]any{{"x", "1.5", "2023-01-01"}},
	}

	got := Project(table, []string{ColTimestamp, ColLoadMW, "missing"})

	require.Equal(t, []string{ColTimestamp, ColLoadMW}, got.Columns)
	require.Equal(t, [][]any{{"2023-01-01", "1.5"}}, got.Rows)
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

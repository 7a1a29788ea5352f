package application

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ingest "capacity-planner/internal/ingest/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

type recordingObserver struct {
	kinds []ingest.Kind
	errs  []error
}

func (o *recordingObserver) ObserveLoad(kind ingest.Kind, _ time.Duration, err error) {
	o.kinds = append(o.kinds, kind)
	o.errs = append(o.errs, err)
}

func TestLoadDemandSynonymsAndProjection(t *testing.T) {
	dir := t.TempDir()
	for _, header := range []string{"power_demand_mw", "Demand_MW", "LOAD", "load_mw"} {
		t.Run(header, func(t *testing.T) {
			path := writeFile(t, dir, header+".csv",
				"DateTime,"+header+",region\n2023-01-01 00:00:00,100,DE\n2023-01-01 01:00:00,110.5,DE\n")

			series, err := NewLoader().LoadDemand(path)

			require.NoError(t, err)
			require.Equal(t, ingest.KindDemand, series.Kind)
			require.Equal(t, []float64{100, 110.5}, series.Values())
			require.Equal(t, time.Date(2023, 1, 1, 1, 0, 0, 0, time.UTC), series.Points[1].Timestamp)
		})
	}
}

func TestLoadDataCenterLoad(t *testing.T) {
	path := writeFile(t, t.TempDir(), "dc.csv", "time,DC_POWER_MW\n1672531200,5\n1672534800,6\n")

	series, err := NewLoader().LoadDataCenterLoad(path)

	require.NoError(t, err)
	require.Equal(t, ingest.KindDataCenter, series.Kind)
	require.Equal(t, []float64{5, 6}, series.Values())
	require.True(t, series.HasTimestamps())
}

func TestLoadExistingCapacityAcceptsCapacityAlias(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cap.csv", "Tech,capacity,comment\nGas,50,old\nWindOnshore,0,\n")

	got, err := NewLoader().LoadExistingCapacity(path)

	require.NoError(t, err)
	require.Equal(t, ingest.CapacityRecord{"Gas": 50, "WindOnshore": 0}, got)
}

func TestLoadExistingCapacityRejectsDuplicatesAndNegatives(t *testing.T) {
	dir := t.TempDir()
	dup := writeFile(t, dir, "dup.csv", "technology,existing_capacity_mw\nGas,1\nGas,2\n")
	neg := writeFile(t, dir, "neg.csv", "technology,existing_capacity_mw\nGas,-1\n")

	_, err := NewLoader().LoadExistingCapacity(dup)
	require.ErrorIs(t, err, ingest.ErrDuplicateTechnology)

	_, err = NewLoader().LoadExistingCapacity(neg)
	require.ErrorIs(t, err, ingest.ErrNegativeValue)
}

func TestLoadTechnologyParametersAliases(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tech.csv",
		"technology_name,Capital_Cost,OPEX,eta,Lifetime,vendor\nGas,500,60,0.55,30,acme\nSolarPV,800,0,1,25,sun\n")

	got, err := NewLoader().LoadTechnologyParameters(path)

	require.NoError(t, err)
	require.Equal(t, ingest.TechnologyParameter{
		Technology:       "Gas",
		CapexEURPerKW:    500,
		VarCostEURPerMWh: 60,
		Efficiency:       0.55,
		LifetimeYears:    30,
	}, got["Gas"])
	require.Len(t, got, 2)
}

func TestLoadTechnologyParametersCoercionFailure(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tech.csv",
		"technology,capex,var_cost,efficiency,lifetime_years\nGas,abc,60,0.5,30\n")

	_, err := NewLoader().LoadTechnologyParameters(path)

	var le *ingest.LoadError
	require.True(t, errors.As(err, &le))
	require.Equal(t, path, le.Path)
	require.Equal(t, ingest.KindTechnologies, le.Kind)

	var tce *ingest.TypeCoercionError
	require.True(t, errors.As(err, &tce))
	require.Equal(t, ingest.ColCapex, tce.Column)
	require.Equal(t, "abc", tce.Value)
}

func TestLoadTechnologyParametersMissingColumn(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tech.csv", "technology,capex,var_cost,efficiency\nGas,1,2,0.5\n")

	_, err := NewLoader().LoadTechnologyParameters(path)

	require.ErrorIs(t, err, ingest.ErrMissingColumn)
}

func TestLoadTechnologyParametersRejectsZeroLifetime(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tech.csv", "technology,capex,var_cost,efficiency,lifetime\nGas,1,2,0.5,0\n")

	_, err := NewLoader().LoadTechnologyParameters(path)

	require.ErrorIs(t, err, ingest.ErrNonPositiveLifetime)
}

func TestLoadCapacityFactorsRoundTrip(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cf.csv", "timestamp,WindOnshore,SolarPV\n2023-01-01T00:00,0.3,0.1\n")

	profile, err := NewLoader().LoadCapacityFactors(path)

	require.NoError(t, err)
	require.Equal(t, []string{"WindOnshore", "SolarPV"}, profile.Technologies)
	require.Equal(t, 1, profile.Len())
	require.Equal(t, []float64{0.3}, profile.Values["WindOnshore"])
	require.Equal(t, []float64{0.1}, profile.Values["SolarPV"])
	require.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), profile.Timestamps[0])
}

func TestLoadCapacityFactorsIgnoresSecondTimestampSynonym(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cf.csv", "timestamp,time,Wind\n2023-01-01 00:00,00:00,0.4\n2023-01-01 01:00,01:00,0.2\n")

	profile, err := NewLoader().LoadCapacityFactors(path)

	require.NoError(t, err)
	require.Equal(t, []string{"Wind"}, profile.Technologies)
	require.Equal(t, []float64{0.4, 0.2}, profile.Values["Wind"])
	require.Equal(t, time.Date(2023, 1, 1, 1, 0, 0, 0, time.UTC), profile.Timestamps[1])
}

func TestMissingTimestampColumn(t *testing.T) {
	dir := t.TempDir()
	demand := writeFile(t, dir, "demand.csv", "hour,load\n0,100\n1,120\n")
	dc := writeFile(t, dir, "dc.csv", "power_dc_mw\n5\n5\n")
	cf := writeFile(t, dir, "cf.csv", "hour,Wind\n0,0.3\n")

	t.Run("lenient demand and data center", func(t *testing.T) {
		loader := NewLoader(WithRequireTimestamps(false))

		series, err := loader.LoadDemand(demand)
		require.NoError(t, err)
		require.False(t, series.HasTimestamps())
		require.Equal(t, []float64{100, 120}, series.Values())

		series, err = loader.LoadDataCenterLoad(dc)
		require.NoError(t, err)
		require.Equal(t, 2, series.Len())

		_, err = loader.LoadCapacityFactors(cf)
		var le *ingest.LoadError
		require.True(t, errors.As(err, &le))
		require.ErrorIs(t, err, ingest.ErrMissingTimestamp)
	})

	t.Run("strict by default", func(t *testing.T) {
		loader := NewLoader()
		for _, load := range []func(string) error{
			func(p string) error { _, err := loader.LoadDemand(p); return err },
			func(p string) error { _, err := loader.LoadDataCenterLoad(p); return err },
		} {
			err := load(demand)
			require.ErrorIs(t, err, ingest.ErrMissingTimestamp)
		}
		_, err := loader.LoadDataCenterLoad(dc)
		require.ErrorIs(t, err, ingest.ErrMissingTimestamp)
	})
}

func TestLoadFileNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.csv")

	_, err := NewLoader().LoadDemand(path)

	var le *ingest.LoadError
	require.True(t, errors.As(err, &le))
	var fnf *ingest.FileNotFoundError
	require.True(t, errors.As(err, &fnf))
	require.Equal(t, path, fnf.Path)
}

func TestLoadDateParseFailureRejectsTable(t *testing.T) {
	path := writeFile(t, t.TempDir(), "demand.csv", "timestamp,load\n2023-01-01,1\nyesterday,2\n")

	series, err := NewLoader().LoadDemand(path)

	require.Empty(t, series.Points)
	var dpe *ingest.DateParseError
	require.True(t, errors.As(err, &dpe))
	require.Equal(t, 1, dpe.Row)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := writeFile(t, t.TempDir(), "demand.parquet", "x")

	_, err := NewLoader().LoadDemand(path)

	require.ErrorIs(t, err, ingest.ErrUnsupportedFormat)
}

func TestLoadAllNotifiesObserver(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		Demand:          writeFile(t, dir, "d.csv", "timestamp,load_mw\n2023-01-01 00:00,1\n"),
		DataCenter:      writeFile(t, dir, "dc.csv", "timestamp,power_dc_mw\n2023-01-01 00:00,1\n"),
		Capacity:        writeFile(t, dir, "c.csv", "technology,capacity_mw\nGas,1\n"),
		Technologies:    writeFile(t, dir, "t.csv", "tech,capex,var_cost,eta,lifetime\nGas,1,1,1,1\n"),
		CapacityFactors: writeFile(t, dir, "cf.csv", "datetime,Wind\n2023-01-01 00:00,0.5\n"),
	}
	obs := &recordingObserver{}

	ds, err := NewLoader(WithObserver(obs)).LoadAll(paths)

	require.NoError(t, err)
	require.Equal(t, ingest.Kinds, obs.kinds)
	for _, e := range obs.errs {
		require.NoError(t, e)
	}
	require.Equal(t, []string{"Wind"}, ds.CapacityFactors.Technologies)

	paths.Capacity = filepath.Join(dir, "missing.csv")
	obs = &recordingObserver{}
	_, err = NewLoader(WithObserver(obs)).LoadAll(paths)
	require.Error(t, err)
	require.Len(t, obs.kinds, 3)
	require.Error(t, obs.errs[2])
}

func TestDefaultPaths(t *testing.T) {
	paths := DefaultPaths()
	require.Equal(t, filepath.FromSlash("etl_outputs/capacity_factors_profiles.csv"), paths.CapacityFactors)
	require.Equal(t, filepath.FromSlash("etl_outputs/power_demand_baseline.csv"), paths.Demand)
}

package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rateRecords(t *testing.T, text string) []Record {
	t.Helper()
	records, _ := ParseRecords(text, RateLayout().Parse)
	return records
}

func buildRates(t *testing.T, text string) *CountyDataset {
	t.Helper()
	ds, err := BuildDataset("rates", rateRecords(t, text), DatasetOptions{NameField: "county", ValueFields: []string{"rate"}})
	require.NoError(t, err)
	return ds
}

func TestBuildDataset_LookupVariants(t *testing.T) {
	ds := buildRates(t, "county,rate\nfulton,75000\n")

	for _, name := range []string{"Fulton County", "FULTON", "fulton", " Fulton  county"} {
		t.Run(name, func(t *testing.T) {
			vals, ok := ds.Lookup(name)
			require.True(t, ok)
			assert.Equal(t, 75000.0, vals["rate"])
		})
	}
}

func TestBuildDataset_LookupMissIsAbsent(t *testing.T) {
	ds := buildRates(t, "county,rate\nFulton,30.1\n")

	vals, ok := ds.Lookup("Cobb")
	assert.False(t, ok)
	assert.Nil(t, vals)

	_, ok = ds.Value("Fulton", "income")
	assert.False(t, ok, "unknown field")
}

func TestBuildDataset_LastWriteWins(t *testing.T) {
	ds := buildRates(t, "county,rate\nFulton,30.1\nCobb,28.0\nFulton County,31.5\n")

	v, ok := ds.Value("Fulton", "rate")
	require.True(t, ok)
	assert.Equal(t, 31.5, v)
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, 1, ds.Collisions())
	assert.Equal(t, []string{"fulton", "cobb"}, ds.Keys(), "first-seen order is kept")
}

func TestBuildDataset_Scale(t *testing.T) {
	records, _ := ParseRecords(testIncomeCSV, IncomeLayout(nil).Parse)
	ds, err := BuildDataset("income", records, DatasetOptions{NameField: "County", ValueFields: []string{"Value"}, Scale: 0.001})
	require.NoError(t, err)

	v, ok := ds.Value("Appling", "Value")
	require.True(t, ok)
	assert.InDelta(t, 38.0, v, 1e-9)
}

func TestBuildDataset_EmptyIsParseError(t *testing.T) {
	_, err := BuildDataset("rates", rateRecords(t, "county,rate\n"), DatasetOptions{NameField: "county", ValueFields: []string{"rate"}})
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "rates", pe.Source)
}

func TestBuildDataset_SkipsNamelessRows(t *testing.T) {
	ds := buildRates(t, "county,rate\n,12\nFulton,30.1\n")
	assert.Equal(t, 1, ds.Len())
	assert.Equal(t, 1, ds.Skipped())
}

func TestBuildDataset_Immutable(t *testing.T) {
	ds := buildRates(t, "county,rate\nFulton,30.1\n")

	vals, _ := ds.Lookup("Fulton")
	vals["rate"] = 99

	entries := ds.Entries()
	entries[0].Values["rate"] = 42

	v, _ := ds.Value("Fulton", "rate")
	assert.Equal(t, 30.1, v)
}

func TestBuildDataset_Extent(t *testing.T) {
	ds := buildRates(t, "county,rate\nFulton,30.1\nAppling,45.2\nCobb,28.0\n")

	lo, hi, ok := ds.Extent("rate")
	require.True(t, ok)
	assert.Equal(t, 28.0, lo)
	assert.Equal(t, 45.2, hi)

	_, _, ok = ds.Extent("income")
	assert.False(t, ok)
}

func TestBuildDataset_DisplayNames(t *testing.T) {
	records, _ := ParseRecords(testIncomeCSV, IncomeLayout(nil).Parse)
	ds, err := BuildDataset("income", records, DatasetOptions{NameField: "County", ValueFields: []string{"Value"}})
	require.NoError(t, err)

	entries := ds.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Appling", entries[0].Name)
	assert.Equal(t, "appling", entries[0].Key)
}

func TestCountyDataset_NilLookup(t *testing.T) {
	var ds *CountyDataset
	_, ok := ds.Lookup("Fulton")
	assert.False(t, ok)
}

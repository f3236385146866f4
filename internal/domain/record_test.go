package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIncomeCSV = `Georgia Median Household Income by County
Source: American Community Survey 5-year estimates

County,FIPS,Value (Dollars)
"United States","00000","$77,719"
"Georgia","13000","$74,664"
"Appling County","13001","$38,000"
"Atkinson County","13003","N/A"

"Fulton County","13121","$75,000"
Notes: values are in 2023 inflation-adjusted dollars
"Ghost County","13999","$1"
`

func TestParseRecords_IncomeLayout(t *testing.T) {
	records, stats := ParseRecords(testIncomeCSV, IncomeLayout(nil).Parse)

	require.Len(t, records, 2)
	name, ok := records[0].Get("County")
	require.True(t, ok)
	assert.Equal(t, "Appling County", name)
	v, ok := records[0].Number("Value")
	require.True(t, ok)
	assert.Equal(t, 38000.0, v)

	name, _ = records[1].Get("County")
	assert.Equal(t, "Fulton County", name)

	assert.Equal(t, 2, stats.Skipped, "aggregate rows")
	assert.Equal(t, 1, stats.Dropped, "N/A value")
	assert.Equal(t, 2, stats.Records)
}

func TestParseRecords_HeaderOnlyYieldsEmpty(t *testing.T) {
	records, stats := ParseRecords("county,rate\n\n", RateLayout().Parse)
	assert.Empty(t, records)
	assert.Equal(t, 0, stats.Records)
}

func TestParseRecords_MarkerNeverFound(t *testing.T) {
	records, _ := ParseRecords("a,b\n1,2\n", ParseOptions{BodyStart: "County,FIPS"})
	assert.Empty(t, records)
}

func TestParseRecords_HeaderRowNamesColumns(t *testing.T) {
	text := "County,Value,Total Population\nAppling,19.5,18444\nBaker,0,3038\nClay,,2848\n"
	records, stats := ParseRecords(text, DemographicLayout("County", "Value").Parse)

	require.Len(t, records, 2)
	v, ok := records[1].Number("Value")
	require.True(t, ok)
	assert.Equal(t, 0.0, v, "zero is accepted for demographic values")
	pop, ok := records[0].Get("Total Population")
	require.True(t, ok)
	assert.Equal(t, "18444", pop)
	assert.Equal(t, 1, stats.Dropped)
}

func TestParseRecords_HeaderTokenRepeatedInBody(t *testing.T) {
	text := "County,Value\nAppling,19.5\nCounty,Value\nBaker,40.1\n"
	records, stats := ParseRecords(text, DemographicLayout("County", "Value").Parse)
	assert.Len(t, records, 2)
	assert.Equal(t, 1, stats.Skipped)
}

func TestParseRecords_HeaderlessColumnsByIndex(t *testing.T) {
	records, _ := ParseRecords("Appling,45.2\nFulton,30.1\n", ParseOptions{NumericFields: []string{"1"}})
	require.Len(t, records, 2)
	name, _ := records[1].Get("0")
	assert.Equal(t, "Fulton", name)
}

func TestParseRecords_ExtraAndMissingTrailingFields(t *testing.T) {
	text := "county,rate\nAppling,45.2,extra,cells\nFulton\n"
	records, stats := ParseRecords(text, RateLayout().Parse)

	require.Len(t, records, 1)
	assert.Equal(t, []string{"Appling", "45.2"}, records[0].Values())
	assert.Equal(t, 1, stats.Dropped, "row missing its rate")
}

func TestParseRecords_CRLF(t *testing.T) {
	records, _ := ParseRecords("county,rate\r\nAppling,45.2\r\n", RateLayout().Parse)
	require.Len(t, records, 1)
	v, _ := records[0].Number("rate")
	assert.Equal(t, 45.2, v)
}

func TestParseRecords_RoundTripContent(t *testing.T) {
	lines := []string{
		`"Appling County","13001","$38,000"`,
		`Fulton County, 13121 ,"75,000"`,
		`"Doña Ana County","35013","$51,200"`,
	}
	want := [][]string{
		{"Appling County", "13001", "$38,000"},
		{"Fulton County", "13121", "75,000"},
		{"Doña Ana County", "35013", "$51,200"},
	}

	records, _ := ParseRecords(strings.Join(lines, "\n"), ParseOptions{Quoted: true})
	require.Len(t, records, len(want))
	for i, rec := range records {
		assert.Equal(t, want[i], rec.Values())
	}
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		quoted bool
		want   []string
	}{
		{"plain", "a,b,c", false, []string{"a", "b", "c"}},
		{"plain keeps quotes", `"a",b`, false, []string{`"a"`, "b"}},
		{"quoted comma", `"a,b",c`, true, []string{"a,b", "c"}},
		{"quotes stripped mid-field", `ab"c,d"e,f`, true, []string{"abc,de", "f"}},
		{"trailing empty", "a,", true, []string{"a", ""}},
		{"whitespace trimmed", ` a , "b" `, true, []string{"a", "b"}},
		{"unterminated quote swallows rest", `"a,b,c`, true, []string{"a,b,c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitLine(tt.line, ',', tt.quoted))
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		policy NumberPolicy
		want   float64
		ok     bool
	}{
		{"plain", "45.2", NumberPolicy{}, 45.2, true},
		{"currency", "$38,000", NumberPolicy{}, 38000, true},
		{"percent", "12.5%", NumberPolicy{}, 12.5, true},
		{"empty", "", NumberPolicy{}, 0, false},
		{"text", "N/A", NumberPolicy{}, 0, false},
		{"two dots", "1.2.3", NumberPolicy{}, 0, false},
		{"zero rejected", "0", NumberPolicy{}, 0, false},
		{"zero accepted", "0", NumberPolicy{AcceptZero: true}, 0, true},
		{"minus stripped by default", "-4.5", NumberPolicy{}, 4.5, true},
		{"negative accepted", "-4.5", NumberPolicy{AcceptNegative: true}, -4.5, true},
		{"negative currency", "-$1,200", NumberPolicy{AcceptNegative: true}, -1200, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.raw, tt.policy)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestRecord_NumberOnDemand(t *testing.T) {
	rec := Record{Fields: []Field{{Name: "FIPS", Value: "13001"}, {Name: "County", Value: "Appling"}}}

	v, ok := rec.Number("FIPS")
	require.True(t, ok)
	assert.Equal(t, 13001.0, v)

	_, ok = rec.Number("County")
	assert.False(t, ok)
	_, ok = rec.Number("missing")
	assert.False(t, ok)
}

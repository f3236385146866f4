package domain

import (
	"errors"
	"fmt"
)

// Layout kinds understood by LayoutFor.
const (
	LayoutIncome      = "income"
	LayoutRate        = "rate"
	LayoutDemographic = "demographic"
	LayoutTrend       = "trend"
)

// Income layout constants, matching the ACS county income extract.
const (
	IncomeBodyMarker = "County,FIPS,Value (Dollars)"
	IncomeNameField  = "County"
	IncomeValueField = "Value"
)

// DefaultAggregateNames are the non-county rows of the income extract.
var DefaultAggregateNames = []string{"United States", "Georgia"}

// SourceLayout pairs parse options with the fields a dataset is built from.
type SourceLayout struct {
	Kind        string
	Parse       ParseOptions
	NameField   string
	ValueFields []string
}

// IncomeLayout reads the marker-delimited income table. Aggregate rows whose
// name equals one of exclude are skipped; nil means DefaultAggregateNames.
func IncomeLayout(exclude []string) SourceLayout {
	if exclude == nil {
		exclude = DefaultAggregateNames
	}
	return SourceLayout{
		Kind: LayoutIncome,
		Parse: ParseOptions{
			Columns:       []string{IncomeNameField, "FIPS", IncomeValueField},
			BodyStart:     IncomeBodyMarker,
			BodyEnd:       []string{"Suggested", "Notes:"},
			Quoted:        true,
			HeaderTokens:  []string{IncomeNameField},
			ExcludeNames:  exclude,
			NumericFields: []string{IncomeValueField},
		},
		NameField:   IncomeNameField,
		ValueFields: []string{IncomeValueField},
	}
}

// RateLayout reads a header row followed by county,rate pairs.
func RateLayout() SourceLayout {
	return SourceLayout{
		Kind: LayoutRate,
		Parse: ParseOptions{
			Columns:       []string{"county", "rate"},
			HeaderRow:     true,
			Quoted:        true,
			NumericFields: []string{"rate"},
		},
		NameField:   "county",
		ValueFields: []string{"rate"},
	}
}

// DemographicLayout reads a named-column table, using only nameColumn and
// valueColumn. Zero percentages are valid.
func DemographicLayout(nameColumn, valueColumn string) SourceLayout {
	return SourceLayout{
		Kind: LayoutDemographic,
		Parse: ParseOptions{
			HeaderRow:     true,
			Quoted:        true,
			HeaderTokens:  []string{nameColumn},
			NumericFields: []string{valueColumn},
			Numbers:       NumberPolicy{AcceptZero: true},
		},
		NameField:   nameColumn,
		ValueFields: []string{valueColumn},
	}
}

// TrendLayout reads a header row followed by period,value pairs.
func TrendLayout() SourceLayout {
	return SourceLayout{
		Kind: LayoutTrend,
		Parse: ParseOptions{
			Columns:       []string{"period", "value"},
			HeaderRow:     true,
			Quoted:        true,
			NumericFields: []string{"value"},
		},
		NameField:   "period",
		ValueFields: []string{"value"},
	}
}

// LayoutFor resolves a layout kind. nameColumn and valueColumn apply to the
// demographic layout only.
func LayoutFor(kind, nameColumn, valueColumn string) (SourceLayout, error) {
	switch kind {
	case LayoutIncome:
		return IncomeLayout(nil), nil
	case LayoutRate:
		return RateLayout(), nil
	case LayoutDemographic:
		if nameColumn == "" || valueColumn == "" {
			return SourceLayout{}, fmt.Errorf("demographic layout requires name and value columns")
		}
		return DemographicLayout(nameColumn, valueColumn), nil
	case LayoutTrend:
		return TrendLayout(), nil
	default:
		return SourceLayout{}, fmt.Errorf("unknown layout %q", kind)
	}
}

// LoadDataset parses text with the layout and builds a dataset from it.
// Parse statistics are returned even when building fails.
func (l SourceLayout) LoadDataset(source, text string, scale float64) (*CountyDataset, ParseStats, error) {
	records, stats := ParseRecords(text, l.Parse)
	ds, err := BuildDataset(source, records, DatasetOptions{
		NameField:   l.NameField,
		ValueFields: l.ValueFields,
		Scale:       scale,
	})
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Stats = stats
		}
		return nil, stats, err
	}
	return ds, stats, nil
}

// LoadTrend parses text with the layout and builds a trend series.
func (l SourceLayout) LoadTrend(name, text string) (TrendSeries, ParseStats, error) {
	records, stats := ParseRecords(text, l.Parse)
	valueField := ""
	if len(l.ValueFields) > 0 {
		valueField = l.ValueFields[0]
	}
	ts, err := BuildTrend(name, records, l.NameField, valueField)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Stats = stats
		}
		return TrendSeries{}, stats, err
	}
	return ts, stats, nil
}

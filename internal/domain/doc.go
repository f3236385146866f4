// Package domain models county-level statistics and the county boundary
// features they are rendered onto.
//
// # Data Sources
//
// Each visualization is backed by an independently published CSV extract.
// The files disagree on layout and on how they spell county names, so every
// source is described by a [SourceLayout] and fed through the same parser,
// normalizer, and dataset builder.
//
// Income (ACS median household income, "GeorgiaIncomeData.csv"):
//
//	Title and notes precede the table. The body starts after the line
//	containing "County,FIPS,Value (Dollars)" and ends at the first line
//	beginning with "Suggested" or "Notes:". Fields are quoted and the value
//	carries currency formatting:
//
//	  "Appling County","13001","$38,000"
//
//	State and national aggregate rows ("Georgia", "United States") share the
//	table and are excluded by name.
//
// Disease rate ("HypertensionCountyData.csv"):
//
//	One header row, then county,rate pairs: Appling,45.2
//
// Demographic percentage ("georgia race population - Sheet1.csv"):
//
//	One header row naming the columns. Only the name and value columns are
//	read; any other columns are ignored.
//
// Historical trend ("HypertensionHistoricalData.csv"):
//
//	One header row, then period,value pairs. See [BuildTrend].
//
// # County Keys
//
// Names are joined on a county key rather than on the raw string. The key is
// lower-cased, accent-folded, stripped of punctuation and of a trailing
// "county" or "parish", with internal whitespace collapsed:
//
//	"DeKalb County"  →  "dekalb"
//	"St. Mary Parish" → "st mary"
//
// Lookups additionally try a small fixed variant set (see [CountyVariants]).
// This is not fuzzy matching: names that differ by more than the suffix do
// not match.
//
// # Geometry
//
// County boundaries come from an external GeoJSON feed keyed by 5-digit FIPS
// code. Geometry is opaque to this package; only the feature ID (for the
// state-prefix filter) and display name (for the join) are read.
//
// # Immutability
//
// Datasets, join results, correlation results, and snapshots are built once
// and never mutated. A reload builds new values and swaps them in wholesale.
package domain

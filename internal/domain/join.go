package domain

import (
	"strings"

	"github.com/twpayne/go-geom"
)

// GeoFeature is one county boundary from the geometry feed. Only ID and
// Name are read here; Geometry is carried through for rendering.
type GeoFeature struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Geometry geom.T `json:"-"`
}

// JoinedFeature pairs a feature with its dataset value. Value is nil when no
// name variant matched.
type JoinedFeature struct {
	Feature GeoFeature `json:"feature"`
	Value   *float64   `json:"value"`
	Matched bool       `json:"matched"`
}

// JoinResult holds one entry per input feature, in input order.
type JoinResult struct {
	Field        string          `json:"field"`
	Features     []JoinedFeature `json:"features"`
	MatchedCount int             `json:"matched_count"`
}

// Join looks up every feature's display name in the dataset. Unmatched
// features are kept with a nil value so the output covers every input
// feature. A nil dataset yields an all-unmatched result.
func Join(features []GeoFeature, ds *CountyDataset, field string) JoinResult {
	res := JoinResult{
		Field:    field,
		Features: make([]JoinedFeature, len(features)),
	}
	for i, f := range features {
		res.Features[i] = JoinedFeature{Feature: f}
		v, ok := ds.Value(f.Name, field)
		if !ok {
			continue
		}
		res.Features[i].Value = &v
		res.Features[i].Matched = true
		res.MatchedCount++
	}
	return res
}

// Total returns the number of joined features.
func (r JoinResult) Total() int { return len(r.Features) }

// Coverage returns the matched fraction, or 0 for an empty join.
func (r JoinResult) Coverage() float64 {
	if len(r.Features) == 0 {
		return 0
	}
	return float64(r.MatchedCount) / float64(len(r.Features))
}

// CheckCoverage returns a warning when coverage is below minCoverage
// (a fraction in [0,1]). A non-positive threshold disables the check.
func (r JoinResult) CheckCoverage(view string, minCoverage float64) *JoinDataQualityWarning {
	if minCoverage <= 0 || r.Coverage() >= minCoverage {
		return nil
	}
	return &JoinDataQualityWarning{
		View:        view,
		Matched:     r.MatchedCount,
		Total:       len(r.Features),
		MinCoverage: minCoverage,
	}
}

// Unmatched returns the display names of features with no data.
func (r JoinResult) Unmatched() []string {
	var names []string
	for _, f := range r.Features {
		if !f.Matched {
			names = append(names, f.Feature.Name)
		}
	}
	return names
}

// FilterByIDPrefix keeps features whose ID starts with prefix, e.g. "13" for
// Georgia FIPS codes. An empty prefix keeps everything.
func FilterByIDPrefix(features []GeoFeature, prefix string) []GeoFeature {
	if prefix == "" {
		return features
	}
	out := make([]GeoFeature, 0, len(features))
	for _, f := range features {
		if strings.HasPrefix(f.ID, prefix) {
			out = append(out, f)
		}
	}
	return out
}

package domain

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultOutlierCount is the number of residual outliers reported when
// AnalyzeOptions.Outliers is unset.
const DefaultOutlierCount = 3

// AnalyzeOptions tunes Analyze.
type AnalyzeOptions struct {
	Outliers int
}

// Point is one labeled observation, with its position in the input.
type Point struct {
	Index int     `json:"index"`
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Outlier is a point with its absolute distance from the regression line.
type Outlier struct {
	Point
	Residual float64 `json:"residual"`
}

// Extrema are the points achieving the max/min of each axis.
type Extrema struct {
	MaxY Point `json:"max_y"`
	MinY Point `json:"min_y"`
	MaxX Point `json:"max_x"`
	MinX Point `json:"min_x"`
}

// CorrelationResult summarizes the linear relationship between two series.
type CorrelationResult struct {
	N           int       `json:"n"`
	MeanX       float64   `json:"mean_x"`
	MeanY       float64   `json:"mean_y"`
	Slope       float64   `json:"slope"`
	Intercept   float64   `json:"intercept"`
	Correlation float64   `json:"correlation"`
	Extrema     Extrema   `json:"extrema"`
	Outliers    []Outlier `json:"outliers"`
}

// Analyze fits y = slope·x + intercept by ordinary least squares and computes
// Pearson's r. The three slices are co-indexed. It fails with
// *DegenerateInputError when lengths differ, N < 2, a value is not finite,
// or either series has zero variance.
func Analyze(x, y []float64, labels []string, opts AnalyzeOptions) (CorrelationResult, error) {
	n := len(x)
	if len(y) != n || len(labels) != n {
		return CorrelationResult{}, &DegenerateInputError{
			N:      n,
			Reason: fmt.Sprintf("series lengths differ (x=%d y=%d labels=%d)", len(x), len(y), len(labels)),
		}
	}
	if n < 2 {
		return CorrelationResult{}, &DegenerateInputError{N: n, Reason: "at least two points are required"}
	}
	for i := range n {
		if !isFinite(x[i]) || !isFinite(y[i]) {
			return CorrelationResult{}, &DegenerateInputError{N: n, Reason: fmt.Sprintf("non-finite value at %q", labels[i])}
		}
	}
	if stat.Variance(x, nil) == 0 {
		return CorrelationResult{}, &DegenerateInputError{N: n, Reason: "x has zero variance"}
	}
	if stat.Variance(y, nil) == 0 {
		return CorrelationResult{}, &DegenerateInputError{N: n, Reason: "y has zero variance"}
	}

	intercept, slope := stat.LinearRegression(x, y, nil, false)
	res := CorrelationResult{
		N:           n,
		MeanX:       stat.Mean(x, nil),
		MeanY:       stat.Mean(y, nil),
		Slope:       slope,
		Intercept:   intercept,
		Correlation: stat.Correlation(x, y, nil),
	}

	point := func(i int) Point { return Point{Index: i, Label: labels[i], X: x[i], Y: y[i]} }
	res.Extrema = Extrema{
		MaxY: point(floats.MaxIdx(y)),
		MinY: point(floats.MinIdx(y)),
		MaxX: point(floats.MaxIdx(x)),
		MinX: point(floats.MinIdx(x)),
	}

	k := opts.Outliers
	if k <= 0 {
		k = DefaultOutlierCount
	}
	ranked := make([]Outlier, n)
	for i := range n {
		// Centered residual: (y - ȳ) - slope·(x - x̄).
		r := (y[i] - res.MeanY) - slope*(x[i]-res.MeanX)
		ranked[i] = Outlier{Point: point(i), Residual: math.Abs(r)}
	}
	slices.SortStableFunc(ranked, compareResiduals)
	res.Outliers = ranked[:min(k, n)]

	return res, nil
}

// residualTolerance is the relative difference under which two residuals
// rank as a tie.
const residualTolerance = 1e-9

// compareResiduals orders outliers by residual, largest first. Residuals
// within residualTolerance of each other fall back to input order.
func compareResiduals(a, b Outlier) int {
	scale := math.Max(a.Residual, b.Residual)
	if math.Abs(a.Residual-b.Residual) <= residualTolerance*scale {
		return cmp.Compare(a.Index, b.Index)
	}
	return cmp.Compare(b.Residual, a.Residual)
}

// Predict evaluates the regression line at x.
func (r CorrelationResult) Predict(x float64) float64 {
	return r.Slope*x + r.Intercept
}

// PointsOfInterest lists the extrema (max y, min y, max x, min x) followed
// by the outliers, each label appearing once.
func (r CorrelationResult) PointsOfInterest() []Point {
	candidates := []Point{r.Extrema.MaxY, r.Extrema.MinY, r.Extrema.MaxX, r.Extrema.MinX}
	for _, o := range r.Outliers {
		candidates = append(candidates, o.Point)
	}

	seen := make(map[string]bool, len(candidates))
	out := make([]Point, 0, len(candidates))
	for _, p := range candidates {
		if seen[p.Label] {
			continue
		}
		seen[p.Label] = true
		out = append(out, p)
	}
	return out
}

// IsExtremum reports whether label is one of the four extrema.
func (r CorrelationResult) IsExtremum(label string) bool {
	e := r.Extrema
	return e.MaxY.Label == label || e.MinY.Label == label || e.MaxX.Label == label || e.MinX.Label == label
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Series is a pair of value columns joined on county key.
type Series struct {
	XSource string    `json:"x_source"`
	XField  string    `json:"x_field"`
	YSource string    `json:"y_source"`
	YField  string    `json:"y_field"`
	Labels  []string  `json:"labels"`
	X       []float64 `json:"x"`
	Y       []float64 `json:"y"`
}

// PairDatasets joins two datasets on county key, in the x dataset's order.
// Counties missing from either side, or missing the field, are left out.
func PairDatasets(xs *CountyDataset, xField string, ys *CountyDataset, yField string) Series {
	s := Series{XSource: xs.Source(), XField: xField, YSource: ys.Source(), YField: yField}
	for _, e := range xs.Entries() {
		xv, ok := e.Values[xField]
		if !ok {
			continue
		}
		yv, ok := ys.Value(e.Key, yField)
		if !ok {
			continue
		}
		s.Labels = append(s.Labels, e.Name)
		s.X = append(s.X, xv)
		s.Y = append(s.Y, yv)
	}
	return s
}

// Len returns the number of paired counties.
func (s Series) Len() int { return len(s.Labels) }

// Analyze runs Analyze over the series.
func (s Series) Analyze(opts AnalyzeOptions) (CorrelationResult, error) {
	return Analyze(s.X, s.Y, s.Labels, opts)
}

package domain

import "time"

// DatasetSummary records how one source file loaded.
type DatasetSummary struct {
	Source     string     `json:"source"`
	Kind       string     `json:"kind"`
	Entries    int        `json:"entries"`
	Collisions int        `json:"collisions"`
	Stats      ParseStats `json:"stats"`
}

// ChoroplethView is a joined map layer.
type ChoroplethView struct {
	Name    string                  `json:"name"`
	Source  string                  `json:"source"`
	Field   string                  `json:"field"`
	Join    JoinResult              `json:"join"`
	Min     *float64                `json:"min"`
	Max     *float64                `json:"max"`
	Warning *JoinDataQualityWarning `json:"warning,omitempty"`
}

// ScatterView is a paired series with its regression. Result is nil and
// Failure set when the series was degenerate.
type ScatterView struct {
	Name    string             `json:"name"`
	Series  Series             `json:"series"`
	Result  *CorrelationResult `json:"result,omitempty"`
	Failure string             `json:"failure,omitempty"`
}

// Snapshot is the complete output of one load cycle.
type Snapshot struct {
	ID          string           `json:"id"`
	LoadedAt    time.Time        `json:"loaded_at"`
	Datasets    []DatasetSummary `json:"datasets"`
	Choropleths []ChoroplethView `json:"choropleths"`
	Scatters    []ScatterView    `json:"scatters"`
	Trends      []TrendSeries    `json:"trends"`
}

// NewSnapshot stamps a snapshot with the package clock.
func NewSnapshot(id string, datasets []DatasetSummary, choropleths []ChoroplethView, scatters []ScatterView, trends []TrendSeries) *Snapshot {
	return &Snapshot{
		ID:          id,
		LoadedAt:    clock.Now().UTC(),
		Datasets:    datasets,
		Choropleths: choropleths,
		Scatters:    scatters,
		Trends:      trends,
	}
}

// NewChoroplethView joins features against ds and attaches the value extent
// and a coverage warning when coverage is below minCoverage.
func NewChoroplethView(name string, features []GeoFeature, ds *CountyDataset, field string, minCoverage float64) ChoroplethView {
	v := ChoroplethView{
		Name:   name,
		Source: ds.Source(),
		Field:  field,
		Join:   Join(features, ds, field),
	}
	if lo, hi, ok := ds.Extent(field); ok {
		v.Min, v.Max = &lo, &hi
	}
	v.Warning = v.Join.CheckCoverage(name, minCoverage)
	return v
}

// NewScatterView pairs two datasets and analyzes the result.
func NewScatterView(name string, xs *CountyDataset, xField string, ys *CountyDataset, yField string, opts AnalyzeOptions) ScatterView {
	v := ScatterView{Name: name, Series: PairDatasets(xs, xField, ys, yField)}
	res, err := v.Series.Analyze(opts)
	if err != nil {
		v.Failure = err.Error()
		return v
	}
	v.Result = &res
	return v
}

// Choropleth finds a choropleth view by name.
func (s *Snapshot) Choropleth(name string) (ChoroplethView, bool) {
	for _, v := range s.Choropleths {
		if v.Name == name {
			return v, true
		}
	}
	return ChoroplethView{}, false
}

// Scatter finds a scatter view by name.
func (s *Snapshot) Scatter(name string) (ScatterView, bool) {
	for _, v := range s.Scatters {
		if v.Name == name {
			return v, true
		}
	}
	return ScatterView{}, false
}

// Trend finds a trend series by name.
func (s *Snapshot) Trend(name string) (TrendSeries, bool) {
	for _, t := range s.Trends {
		if t.Name == name {
			return t, true
		}
	}
	return TrendSeries{}, false
}

// Warnings collects the coverage warnings of every choropleth view.
func (s *Snapshot) Warnings() []JoinDataQualityWarning {
	var out []JoinDataQualityWarning
	for _, v := range s.Choropleths {
		if v.Warning != nil {
			out = append(out, *v.Warning)
		}
	}
	return out
}

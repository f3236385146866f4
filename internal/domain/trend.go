package domain

// TrendPoint is one period of a historical series.
type TrendPoint struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

// TrendSeries is a historical statewide series in source order.
type TrendSeries struct {
	Name   string       `json:"name"`
	Points []TrendPoint `json:"points"`
}

// BuildTrend reads period/value pairs, keeping rows with a non-empty period
// and a value above zero. An empty result is a *ParseError.
func BuildTrend(name string, records []Record, periodField, valueField string) (TrendSeries, error) {
	ts := TrendSeries{Name: name}
	dropped := 0
	for _, rec := range records {
		period, _ := rec.Get(periodField)
		v, ok := rec.Number(valueField)
		if period == "" || !ok || v <= 0 {
			dropped++
			continue
		}
		ts.Points = append(ts.Points, TrendPoint{Period: period, Value: v})
	}
	if len(ts.Points) == 0 {
		return TrendSeries{}, &ParseError{
			Source: name,
			Reason: "no usable trend rows",
			Stats:  ParseStats{Records: len(records), Dropped: dropped},
		}
	}
	return ts, nil
}

// Change returns last minus first value.
func (t TrendSeries) Change() float64 {
	if len(t.Points) == 0 {
		return 0
	}
	return t.Points[len(t.Points)-1].Value - t.Points[0].Value
}

// PercentChange returns the change relative to the first value.
func (t TrendSeries) PercentChange() (float64, bool) {
	if len(t.Points) < 2 || t.Points[0].Value == 0 {
		return 0, false
	}
	return t.Change() / t.Points[0].Value * 100, true
}

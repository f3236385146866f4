package httpadapter

import (
	"fmt"
	"time"

	"github.com/couchcryptid/county-data-pipeline/internal/domain"
	"github.com/twpayne/go-geom/encoding/geojson"
)

type snapshotSummary struct {
	ID          string                          `json:"id"`
	LoadedAt    time.Time                       `json:"loaded_at"`
	Datasets    []domain.DatasetSummary         `json:"datasets"`
	Choropleths []choroplethSummary             `json:"choropleths"`
	Scatters    []scatterSummary                `json:"scatters"`
	Trends      []string                        `json:"trends"`
	Warnings    []domain.JoinDataQualityWarning `json:"warnings"`
}

type choroplethSummary struct {
	Name     string  `json:"name"`
	Source   string  `json:"source"`
	Field    string  `json:"field"`
	Matched  int     `json:"matched"`
	Total    int     `json:"total"`
	Coverage float64 `json:"coverage"`
}

type scatterSummary struct {
	Name        string   `json:"name"`
	N           int      `json:"n"`
	Correlation *float64 `json:"correlation"`
	Failure     string   `json:"failure,omitempty"`
}

type scatterResponse struct {
	domain.ScatterView
	PointsOfInterest []domain.Point `json:"points_of_interest,omitempty"`
}

type trendResponse struct {
	domain.TrendSeries
	Change        float64  `json:"change"`
	PercentChange *float64 `json:"percent_change"`
}

func summarize(snap *domain.Snapshot) snapshotSummary {
	out := snapshotSummary{
		ID:          snap.ID,
		LoadedAt:    snap.LoadedAt,
		Datasets:    snap.Datasets,
		Choropleths: make([]choroplethSummary, 0, len(snap.Choropleths)),
		Scatters:    make([]scatterSummary, 0, len(snap.Scatters)),
		Trends:      make([]string, 0, len(snap.Trends)),
		Warnings:    snap.Warnings(),
	}
	for _, v := range snap.Choropleths {
		out.Choropleths = append(out.Choropleths, choroplethSummary{
			Name:     v.Name,
			Source:   v.Source,
			Field:    v.Field,
			Matched:  v.Join.MatchedCount,
			Total:    v.Join.Total(),
			Coverage: v.Join.Coverage(),
		})
	}
	for _, v := range snap.Scatters {
		s := scatterSummary{Name: v.Name, N: v.Series.Len(), Failure: v.Failure}
		if v.Result != nil {
			r := v.Result.Correlation
			s.Correlation = &r
		}
		out.Scatters = append(out.Scatters, s)
	}
	for _, t := range snap.Trends {
		out.Trends = append(out.Trends, t.Name)
	}
	return out
}

// encodeChoropleth renders a join as a GeoJSON FeatureCollection. Each
// feature carries name, value (null when unmatched) and matched properties.
func encodeChoropleth(res domain.JoinResult) ([]byte, error) {
	fc := geojson.FeatureCollection{
		Features: make([]*geojson.Feature, 0, len(res.Features)),
	}
	for _, jf := range res.Features {
		var value any
		if jf.Value != nil {
			value = *jf.Value
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       jf.Feature.ID,
			Geometry: jf.Feature.Geometry,
			Properties: map[string]any{
				"name":    jf.Feature.Name,
				"value":   value,
				"matched": jf.Matched,
			},
		})
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode choropleth: %w", err)
	}
	return data, nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/couchcryptid/county-data-pipeline/internal/domain"
	"gopkg.in/yaml.v3"
)

// DefaultGeometryURL is the national county boundary feed keyed by FIPS code.
const DefaultGeometryURL = "https://raw.githubusercontent.com/plotly/datasets/master/geojson-counties-fips.json"

// Catalog declares the sources to load and the views built from them.
type Catalog struct {
	Geometry    GeometrySpec     `yaml:"geometry"`
	Sources     []SourceSpec     `yaml:"sources"`
	Choropleths []ChoroplethSpec `yaml:"choropleths"`
	Scatters    []ScatterSpec    `yaml:"scatters"`
	Trends      []TrendSpec      `yaml:"trends"`
}

// GeometrySpec locates the boundary feed.
type GeometrySpec struct {
	URL          string `yaml:"url"`
	IDPrefix     string `yaml:"id_prefix"`
	NameProperty string `yaml:"name_property"`
}

// SourceSpec is one delimited-text input.
type SourceSpec struct {
	Name     string  `yaml:"name"`
	Location string  `yaml:"location"` // http(s) URL or path relative to DATA_DIR
	Layout   string  `yaml:"layout"`
	Scale    float64 `yaml:"scale"`

	// Demographic layout columns.
	NameColumn  string `yaml:"name_column"`
	ValueColumn string `yaml:"value_column"`

	// Income layout aggregate rows; empty means the defaults.
	Exclude []string `yaml:"exclude"`
}

// ChoroplethSpec joins one source field onto the geometry.
type ChoroplethSpec struct {
	Name        string  `yaml:"name"`
	Source      string  `yaml:"source"`
	Field       string  `yaml:"field"`
	MinCoverage float64 `yaml:"min_coverage"`
}

// ScatterSpec pairs two source fields for correlation.
type ScatterSpec struct {
	Name     string `yaml:"name"`
	X        string `yaml:"x"`
	XField   string `yaml:"x_field"`
	Y        string `yaml:"y"`
	YField   string `yaml:"y_field"`
	Outliers int    `yaml:"outliers"`
}

// TrendSpec reads a historical series from a trend-layout source.
type TrendSpec struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
}

// LoadCatalog reads and validates a YAML catalog.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog. Unset geometry
// settings fall back to the national feed and the "NAME" property.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}
	if c.Geometry.URL == "" {
		c.Geometry.URL = DefaultGeometryURL
	}
	if c.Geometry.NameProperty == "" {
		c.Geometry.NameProperty = "NAME"
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks names are unique, layouts resolve, and every view refers
// to a declared source of a suitable kind. Empty view fields are filled
// with the source layout's first value field.
func (c *Catalog) Validate() error {
	if len(c.Sources) == 0 {
		return errors.New("catalog declares no sources")
	}

	kinds := make(map[string]domain.SourceLayout, len(c.Sources))
	for _, s := range c.Sources {
		if s.Name == "" || s.Location == "" {
			return fmt.Errorf("source %q: name and location are required", s.Name)
		}
		if _, dup := kinds[s.Name]; dup {
			return fmt.Errorf("duplicate source %q", s.Name)
		}
		layout, err := s.SourceLayout()
		if err != nil {
			return fmt.Errorf("source %q: %w", s.Name, err)
		}
		kinds[s.Name] = layout
	}

	datasetSource := func(view, name string) (domain.SourceLayout, error) {
		layout, ok := kinds[name]
		if !ok {
			return layout, fmt.Errorf("view %q: unknown source %q", view, name)
		}
		if layout.Kind == domain.LayoutTrend {
			return layout, fmt.Errorf("view %q: source %q is a trend series", view, name)
		}
		return layout, nil
	}

	var views []string
	for i := range c.Choropleths {
		v := &c.Choropleths[i]
		layout, err := datasetSource(v.Name, v.Source)
		if err != nil {
			return err
		}
		if v.Field == "" {
			v.Field = layout.ValueFields[0]
		}
		if v.MinCoverage < 0 || v.MinCoverage > 1 {
			return fmt.Errorf("view %q: min_coverage must be within [0,1]", v.Name)
		}
		views = append(views, v.Name)
	}
	for i := range c.Scatters {
		v := &c.Scatters[i]
		xl, err := datasetSource(v.Name, v.X)
		if err != nil {
			return err
		}
		yl, err := datasetSource(v.Name, v.Y)
		if err != nil {
			return err
		}
		if v.XField == "" {
			v.XField = xl.ValueFields[0]
		}
		if v.YField == "" {
			v.YField = yl.ValueFields[0]
		}
		views = append(views, v.Name)
	}
	for _, v := range c.Trends {
		layout, ok := kinds[v.Source]
		if !ok {
			return fmt.Errorf("trend %q: unknown source %q", v.Name, v.Source)
		}
		if layout.Kind != domain.LayoutTrend {
			return fmt.Errorf("trend %q: source %q is not a trend layout", v.Name, v.Source)
		}
		views = append(views, v.Name)
	}

	for i, name := range views {
		if name == "" {
			return errors.New("every view needs a name")
		}
		if slices.Contains(views[:i], name) {
			return fmt.Errorf("duplicate view %q", name)
		}
	}
	return nil
}

// SourceLayout resolves the parse layout for the source.
func (s SourceSpec) SourceLayout() (domain.SourceLayout, error) {
	if s.Layout == domain.LayoutIncome && len(s.Exclude) > 0 {
		return domain.IncomeLayout(s.Exclude), nil
	}
	return domain.LayoutFor(s.Layout, s.NameColumn, s.ValueColumn)
}

// Source finds a source by name.
func (c *Catalog) Source(name string) (SourceSpec, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return SourceSpec{}, false
}

// DefaultCatalog reproduces the Georgia visualizations: median household
// income, hypertension prevalence and Black population share maps, income
// against hypertension, the statewide hypertension history and the national
// median income history.
func DefaultCatalog() *Catalog {
	c := &Catalog{
		Geometry: GeometrySpec{URL: DefaultGeometryURL, IDPrefix: "13", NameProperty: "NAME"},
		Sources: []SourceSpec{
			{Name: "income", Location: "GeorgiaIncomeData.csv", Layout: domain.LayoutIncome},
			{Name: "income-thousands", Location: "GeorgiaIncomeData.csv", Layout: domain.LayoutIncome, Scale: 0.001},
			{Name: "hypertension", Location: "HypertensionCountyData.csv", Layout: domain.LayoutRate},
			{Name: "race", Location: "georgia race population - Sheet1.csv", Layout: domain.LayoutDemographic, NameColumn: "County", ValueColumn: "Value"},
			{Name: "hypertension-history", Location: "HypertensionHistoricalData.csv", Layout: domain.LayoutTrend},
			{Name: "median-income-history", Location: "MedianIncomeHistoricalData.csv", Layout: domain.LayoutTrend},
		},
		Choropleths: []ChoroplethSpec{
			{Name: "median-income", Source: "income", MinCoverage: 0.9},
			{Name: "hypertension", Source: "hypertension", MinCoverage: 0.9},
			{Name: "black-population", Source: "race", MinCoverage: 0.9},
		},
		Scatters: []ScatterSpec{
			{Name: "income-vs-hypertension", X: "income-thousands", Y: "hypertension"},
		},
		Trends: []TrendSpec{
			{Name: "hypertension-history", Source: "hypertension-history"},
			{Name: "median-income-history", Source: "median-income-history"},
		},
	}
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("default catalog: %v", err))
	}
	return c
}

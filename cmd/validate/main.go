// Command validate runs one load cycle over a catalog and its data files and
// reports data quality: parse statistics per source, join coverage per
// choropleth, and whether every scatter and trend could be computed.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -catalog catalog.yaml \
//	  -data-dir data/mock \
//	  -geometry counties.json \
//	  -strict
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/county-data-pipeline/internal/adapter/geofeed"
	"github.com/couchcryptid/county-data-pipeline/internal/adapter/source"
	"github.com/couchcryptid/county-data-pipeline/internal/config"
	"github.com/couchcryptid/county-data-pipeline/internal/domain"
	"github.com/couchcryptid/county-data-pipeline/internal/observability"
	"github.com/couchcryptid/county-data-pipeline/internal/pipeline"
)

// phase tracks errors and warnings for a validation phase.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed(strict bool) bool {
	return len(p.errors) == 0 && (!strict || len(p.warnings) == 0)
}

func main() {
	catalogPath := flag.String("catalog", "", "catalog YAML (default: built-in Georgia catalog)")
	dataDir := flag.String("data-dir", "data/mock", "directory relative source locations resolve against")
	geometry := flag.String("geometry", "", "geometry feed URL or path (default: catalog URL)")
	timeout := flag.Duration("timeout", 30*time.Second, "per-fetch timeout")
	strict := flag.Bool("strict", false, "treat warnings as failures")
	flag.Parse()

	os.Exit(run(*catalogPath, *dataDir, *geometry, *timeout, *strict))
}

func run(catalogPath, dataDir, geometryURL string, timeout time.Duration, strict bool) int {
	fmt.Println("=== County Data Validation ===")
	fmt.Println()

	catalogPhase := &phase{name: "Phase 1: Catalog"}
	catalog := config.DefaultCatalog()
	if catalogPath != "" {
		var err error
		catalog, err = config.LoadCatalog(catalogPath)
		if err != nil {
			catalogPhase.errorf("%v", err)
			return report(strict, catalogPhase)
		}
	}
	if geometryURL == "" {
		geometryURL = catalog.Geometry.URL
	}

	logger := observability.NewLogger("error", "text")
	metrics := observability.NewMetricsForTesting()
	fetcher := source.NewFetcher(dataDir, timeout, logger)

	p := pipeline.New(fetcher, geofeed.NewClient(fetcher, catalog.Geometry.NameProperty, metrics, logger), nil, pipeline.Options{
		Catalog:          catalog,
		GeometryURL:      geometryURL,
		GeometryIDPrefix: catalog.Geometry.IDPrefix,
		DatasetCacheSize: len(catalog.Sources),
	}, logger, metrics)

	snap, err := p.RunOnce(context.Background())
	if err != nil {
		loadPhase := &phase{name: "Phase 2: Load cycle"}
		loadPhase.errorf("%v", err)
		return report(strict, catalogPhase, loadPhase)
	}

	return report(strict,
		catalogPhase,
		validateSources(snap),
		validateChoropleths(snap),
		validateScatters(snap),
		validateTrends(snap),
	)
}

func report(strict bool, phases ...*phase) int {
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		switch {
		case len(p.errors) > 0:
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
		case len(p.warnings) > 0 && strict:
			status = fmt.Sprintf("\033[31mFAIL (%d warnings)\033[0m", len(p.warnings))
		case len(p.warnings) > 0:
			status = fmt.Sprintf("\033[33mWARN (%d)\033[0m", len(p.warnings))
		}
		if !p.passed(strict) {
			allPassed = false
		}
		fmt.Printf("  %-36s %s\n", p.name, status)
	}

	for _, p := range phases {
		if len(p.errors) == 0 && len(p.warnings) == 0 {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [E%d] %s\n", i+1, e)
		}
		for i, w := range p.warnings {
			fmt.Printf("  [W%d] %s\n", i+1, w)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validateSources(snap *domain.Snapshot) *phase {
	p := &phase{name: "Phase 2: Sources"}
	for _, ds := range snap.Datasets {
		fmt.Printf("  %-24s %-12s entries=%-4d records=%-4d dropped=%-3d skipped=%-3d collisions=%d\n",
			ds.Source, ds.Kind, ds.Entries, ds.Stats.Records, ds.Stats.Dropped, ds.Stats.Skipped, ds.Collisions)
		if ds.Entries == 0 {
			p.errorf("%s: no entries", ds.Source)
		}
		if ds.Stats.Dropped > 0 {
			p.warnf("%s: %d rows dropped for unparseable values", ds.Source, ds.Stats.Dropped)
		}
		if ds.Collisions > 0 {
			p.warnf("%s: %d rows overwrote an earlier county", ds.Source, ds.Collisions)
		}
	}
	return p
}

func validateChoropleths(snap *domain.Snapshot) *phase {
	p := &phase{name: "Phase 3: Choropleth coverage"}
	for _, v := range snap.Choropleths {
		if v.Join.Total() == 0 {
			p.errorf("%s: geometry feed has no features", v.Name)
			continue
		}
		if v.Join.MatchedCount == 0 {
			p.errorf("%s: no features matched field %q of %s", v.Name, v.Field, v.Source)
			continue
		}
		if v.Warning != nil {
			p.warnf("%s; unmatched: %s", v.Warning, strings.Join(v.Join.Unmatched(), ", "))
		}
	}
	return p
}

func validateScatters(snap *domain.Snapshot) *phase {
	p := &phase{name: "Phase 4: Scatter analysis"}
	for _, v := range snap.Scatters {
		if v.Failure != "" {
			p.errorf("%s: %s", v.Name, v.Failure)
			continue
		}
		fmt.Printf("  %-24s n=%-4d slope=%-10.4g r=%.3f\n", v.Name, v.Result.N, v.Result.Slope, v.Result.Correlation)
	}
	return p
}

func validateTrends(snap *domain.Snapshot) *phase {
	p := &phase{name: "Phase 5: Trends"}
	for _, ts := range snap.Trends {
		if len(ts.Points) < 2 {
			p.warnf("%s: only %d period(s)", ts.Name, len(ts.Points))
		}
	}
	return p
}

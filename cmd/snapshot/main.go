// Command snapshot runs one load cycle over local data and writes the
// resulting snapshot as JSON. A fixed clock and snapshot ID keep the output
// reproducible so it can be checked in as a fixture for downstream consumers.
//
// Usage:
//
//	go run ./cmd/snapshot \
//	  -data-dir data/mock \
//	  -geometry counties.json \
//	  -out data/mock/snapshot.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/couchcryptid/county-data-pipeline/internal/adapter/geofeed"
	"github.com/couchcryptid/county-data-pipeline/internal/adapter/source"
	"github.com/couchcryptid/county-data-pipeline/internal/config"
	"github.com/couchcryptid/county-data-pipeline/internal/domain"
	"github.com/couchcryptid/county-data-pipeline/internal/observability"
	"github.com/couchcryptid/county-data-pipeline/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	catalogPath := flag.String("catalog", "", "catalog YAML (default: built-in Georgia catalog)")
	dataDir := flag.String("data-dir", "data/mock", "directory relative source locations resolve against")
	geometry := flag.String("geometry", "counties.json", "geometry feed URL or path")
	id := flag.String("id", "fixture", "snapshot ID")
	out := flag.String("out", "", "output path for the snapshot JSON")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	catalog := config.DefaultCatalog()
	if *catalogPath != "" {
		var err error
		if catalog, err = config.LoadCatalog(*catalogPath); err != nil {
			return err
		}
	}

	// Set a fixed clock for a reproducible LoadedAt timestamp.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	logger := observability.NewLogger("info", "text")
	metrics := observability.NewMetricsForTesting()
	fetcher := source.NewFetcher(*dataDir, 30*time.Second, logger)

	p := pipeline.New(fetcher, geofeed.NewClient(fetcher, catalog.Geometry.NameProperty, metrics, logger), nil, pipeline.Options{
		Catalog:          catalog,
		GeometryURL:      *geometry,
		GeometryIDPrefix: catalog.Geometry.IDPrefix,
		DatasetCacheSize: len(catalog.Sources),
		NewID:            func() string { return *id },
	}, logger, metrics)

	snap, err := p.RunOnce(context.Background())
	if err != nil {
		return fmt.Errorf("load cycle: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(*out, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}

	log.Printf("wrote %s: %d choropleths, %d scatters, %d trends",
		*out, len(snap.Choropleths), len(snap.Scatters), len(snap.Trends))
	return nil
}

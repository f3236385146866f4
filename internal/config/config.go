package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables
// and the view catalog.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	CatalogPath      string
	DataDir          string
	RefreshInterval  time.Duration
	FetchTimeout     time.Duration
	DatasetCacheSize int

	// Geometry feed settings. URL and prefix start from the catalog and
	// are overridden by GEOMETRY_URL and GEOMETRY_ID_PREFIX.
	GeometryURL      string
	GeometryIDPrefix string
	GeometryCacheTTL time.Duration

	// Snapshot publishing (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	Catalog *Catalog
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	refresh, err := parsePositiveDuration("REFRESH_INTERVAL", "15m")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	geometryTTL, err := parsePositiveDuration("GEOMETRY_CACHE_TTL", "24h")
	if err != nil {
		return nil, err
	}

	catalogPath := os.Getenv("CATALOG_PATH")
	catalog := DefaultCatalog()
	if catalogPath != "" {
		catalog, err = LoadCatalog(catalogPath)
		if err != nil {
			return nil, err
		}
	}

	geometryURL := sharedcfg.EnvOrDefault("GEOMETRY_URL", catalog.Geometry.URL)
	geometryPrefix := catalog.Geometry.IDPrefix
	if v, ok := os.LookupEnv("GEOMETRY_ID_PREFIX"); ok {
		geometryPrefix = v
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		CatalogPath:      catalogPath,
		DataDir:          sharedcfg.EnvOrDefault("DATA_DIR", "data"),
		RefreshInterval:  refresh,
		FetchTimeout:     fetchTimeout,
		DatasetCacheSize: parseDatasetCacheSize(),

		GeometryURL:      geometryURL,
		GeometryIDPrefix: geometryPrefix,
		GeometryCacheTTL: geometryTTL,

		KafkaEnabled:   kafkaEnabled,
		KafkaBrokers:   brokers,
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "county-snapshots"),

		Catalog: catalog,
	}

	if cfg.GeometryURL == "" {
		return nil, errors.New("GEOMETRY_URL is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseDatasetCacheSize() int {
	if s := os.Getenv("DATASET_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 32
}

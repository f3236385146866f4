package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.CatalogPath)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, 15*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 32, cfg.DatasetCacheSize)
	assert.Equal(t, DefaultGeometryURL, cfg.GeometryURL)
	assert.Equal(t, "13", cfg.GeometryIDPrefix)
	assert.Equal(t, 24*time.Hour, cfg.GeometryCacheTTL)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "county-snapshots", cfg.KafkaSinkTopic)
	require.NotNil(t, cfg.Catalog)
	assert.Len(t, cfg.Catalog.Choropleths, 3)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("DATA_DIR", "/srv/data")
	t.Setenv("REFRESH_INTERVAL", "1h")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("DATASET_CACHE_SIZE", "8")
	t.Setenv("GEOMETRY_URL", "http://geo.local/counties.json")
	t.Setenv("GEOMETRY_ID_PREFIX", "01")
	t.Setenv("GEOMETRY_CACHE_TTL", "2h")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "/srv/data", cfg.DataDir)
	assert.Equal(t, time.Hour, cfg.RefreshInterval)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 8, cfg.DatasetCacheSize)
	assert.Equal(t, "http://geo.local/counties.json", cfg.GeometryURL)
	assert.Equal(t, "01", cfg.GeometryIDPrefix)
	assert.Equal(t, 2*time.Hour, cfg.GeometryCacheTTL)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
}

func TestLoad_EmptyPrefixDisablesFilter(t *testing.T) {
	t.Setenv("GEOMETRY_ID_PREFIX", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.GeometryIDPrefix)
}

func TestLoad_InvalidDurations(t *testing.T) {
	for _, key := range []string{"SHUTDOWN_TIMEOUT", "REFRESH_INTERVAL", "FETCH_TIMEOUT", "GEOMETRY_CACHE_TTL"} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, "not-a-duration")
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_NegativeRefreshInterval(t *testing.T) {
	t.Setenv("REFRESH_INTERVAL", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REFRESH_INTERVAL")
}

func TestLoad_InvalidCacheSizeFallsBack(t *testing.T) {
	t.Setenv("DATASET_CACHE_SIZE", "zero")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.DatasetCacheSize)
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_KafkaExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("KAFKA_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_CatalogPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalogYAML), 0o600))
	t.Setenv("CATALOG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, path, cfg.CatalogPath)
	assert.Equal(t, "file:///tmp/al.json", cfg.GeometryURL)
	assert.Equal(t, "01", cfg.GeometryIDPrefix)
	assert.Len(t, cfg.Catalog.Sources, 2)
}

func TestLoad_MissingCatalog(t *testing.T) {
	t.Setenv("CATALOG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read catalog")
}

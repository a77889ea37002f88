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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Station Inventory EN.csv", cfg.InventoryPath)
	assert.Equal(t, ".", cfg.DataDir)
	assert.Equal(t, "StationRefresh.db", cfg.StorePath)
	assert.Empty(t, cfg.BaseURL)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.Force)
	assert.Empty(t, cfg.Schedule)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.AnnounceEnabled())
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("MIRROR_INVENTORY", "/data/inventory.csv")
	t.Setenv("MIRROR_DATA_DIR", "/data/mirror")
	t.Setenv("MIRROR_STORE_PATH", "/data/refresh.db")
	t.Setenv("MIRROR_BASE_URL", "http://localhost:9999/bulk")
	t.Setenv("MIRROR_WORKERS", "40")
	t.Setenv("MIRROR_REQUEST_TIMEOUT", "30s")
	t.Setenv("MIRROR_FORCE", "true")
	t.Setenv("MIRROR_SCHEDULE", "0 * * * *")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_TOPIC", "climate-fetches")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/data/inventory.csv", cfg.InventoryPath)
	assert.Equal(t, "/data/mirror", cfg.DataDir)
	assert.Equal(t, "/data/refresh.db", cfg.StorePath)
	assert.Equal(t, "http://localhost:9999/bulk", cfg.BaseURL)
	assert.Equal(t, 40, cfg.Workers)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.Force)
	assert.Equal(t, "0 * * * *", cfg.Schedule)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.AnnounceEnabled())
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.yaml")
	raw := `
inventory_path: /srv/inventory.csv
workers: 16
request_timeout: 20s
schedule: "@hourly"
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/inventory.csv", cfg.InventoryPath)
	assert.Equal(t, 16, cfg.Workers)
	assert.Equal(t, 20*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "@hourly", cfg.Schedule)

	// Untouched fields keep their defaults.
	assert.Equal(t, "StationRefresh.db", cfg.StorePath)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 16\n"), 0o644))
	t.Setenv("MIRROR_WORKERS", "4")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Workers)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		wantE string
	}{
		{"zero workers", map[string]string{"MIRROR_WORKERS": "0"}, "MIRROR_WORKERS"},
		{"bad workers", map[string]string{"MIRROR_WORKERS": "many"}, "MIRROR_WORKERS"},
		{"bad timeout", map[string]string{"MIRROR_REQUEST_TIMEOUT": "soon"}, "MIRROR_REQUEST_TIMEOUT"},
		{"negative timeout", map[string]string{"MIRROR_REQUEST_TIMEOUT": "-5s"}, "MIRROR_REQUEST_TIMEOUT"},
		{"topic without brokers", map[string]string{"KAFKA_TOPIC": "t", "KAFKA_BROKERS": " "}, "KAFKA_BROKERS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantE)
		})
	}
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log:
  level: debug
storage:
  driver: postgres
  db:
    host: localhost
    user: esg
    password: secret
    name: esg
server:
  addr: 127.0.0.1:9000
  timeout: 5s
concurrency:
  qps: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, 5432, cfg.Storage.DB.Port)
	assert.Equal(t, "host=localhost port=5432 user=esg password=secret dbname=esg sslmode=disable", cfg.Storage.DB.DSN())
	assert.Equal(t, 5*time.Second, cfg.Server.TimeoutDuration())
	assert.Equal(t, 2, cfg.Concurrency.QPS)
	assert.Equal(t, 60, cfg.Concurrency.RPM)
	assert.Equal(t, 4, cfg.Concurrency.Batch)
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, "data/packages", cfg.Storage.Dir)
	assert.Equal(t, "config/ai_settings.json", cfg.Settings.Path)
	assert.Equal(t, 30, cfg.Peer.Timeout)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestApplyDefaults_SearchKeyFromEnv(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "tvly-env")

	var cfg Config
	cfg.ApplyDefaults()
	assert.Equal(t, 3, cfg.Peer.Search.MaxResults)
	assert.Equal(t, "tvly-env", cfg.Peer.Search.Tavily.APIKey)

	cfg = Config{Peer: PeerConfig{Search: SearchConfig{Tavily: TavilyConfig{APIKey: "tvly-file"}}}}
	cfg.ApplyDefaults()
	assert.Equal(t, "tvly-file", cfg.Peer.Search.Tavily.APIKey)
}

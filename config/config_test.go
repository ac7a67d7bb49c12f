package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.Service.WorkerPoolSize)
	assert.Equal(t, 10000, cfg.Service.HasCapLimit)
	assert.Equal(t, 30*time.Second, cfg.Service.RequestTimeout)
	assert.Equal(t, "http://localhost:8983/solr/fluidinfo", cfg.Index.URL)
	assert.Equal(t, 5*time.Minute, cfg.Cache.ExpireTimeout)
	assert.Equal(t, 25, cfg.Storage.MaxConnections)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fluidinfo.toml")
	content := `
[service]
worker-pool-size = 8
log-level = "debug"

[index]
url = "http://index.internal:8983/solr/fluidinfo"
shards = 4

[cache]
expire-timeout = 60

[storage]
max-connections = 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("FLUIDINFO_CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Service.WorkerPoolSize)
	assert.Equal(t, "debug", cfg.Service.LogLevel)
	assert.Equal(t, "http://index.internal:8983/solr/fluidinfo", cfg.Index.URL)
	assert.Equal(t, 4, cfg.Index.Shards)
	assert.Equal(t, time.Minute, cfg.Cache.ExpireTimeout)
	assert.Equal(t, 5, cfg.Storage.MaxConnections)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fluidinfo.toml")
	require.NoError(t, os.WriteFile(path, []byte("[cache]\naddress = \"file:6379\"\n"), 0o644))
	t.Setenv("FLUIDINFO_CONFIG_FILE", path)
	t.Setenv("FLUIDINFO_CACHE_ADDRESS", "env:6379")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env:6379", cfg.Cache.Address)
}

func TestLoadRejectsUnreadableFile(t *testing.T) {
	t.Setenv("FLUIDINFO_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	_, err := Load()
	assert.Error(t, err)
}

package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		viper.Reset()
		viper.SetEnvPrefix("WARDEN")
		viper.AutomaticEnv()
		viper.SetDefault(KeyListenAddr, DefaultListenAddr)
		viper.SetDefault(KeyNeo4jURI, DefaultNeo4jURI)
		viper.SetDefault(KeyNeo4jUser, DefaultNeo4jUser)
		viper.SetDefault(KeyMemoryNamespace, DefaultMemoryNamespace)
		viper.SetDefault(KeyDefaultUserID, DefaultUserID)
		viper.SetDefault(KeyUpstreamTimeout, DefaultUpstreamTimeout)
		viper.SetDefault(KeyMirrorSyncSpec, DefaultMirrorSyncSpec)
	})
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultNeo4jURI, cfg.Neo4jURI)
	assert.Equal(t, DefaultNeo4jUser, cfg.Neo4jUser)
	assert.Equal(t, DefaultMemoryNamespace, cfg.MemoryNamespace)
	assert.Equal(t, DefaultUserID, cfg.DefaultUserID)
	assert.Equal(t, DefaultUpstreamTimeout, cfg.UpstreamTimeout)
	assert.Equal(t, DefaultMirrorSyncSpec, cfg.MirrorSyncSpec)
	assert.Empty(t, cfg.MemoryEndpoint)
	assert.NotEmpty(t, cfg.DataDir)
}

func TestLoadFromEnv(t *testing.T) {
	resetViper(t)
	t.Setenv("WARDEN_LISTEN_ADDR", "127.0.0.1:9090")
	t.Setenv("WARDEN_NEO4J_URI", "bolt://graph:7687")
	t.Setenv("WARDEN_NEO4J_PASSWORD", "s3cret")
	t.Setenv("WARDEN_MEMORY_ENDPOINT", "https://memory.example.com")
	t.Setenv("WARDEN_MEMORY_API_KEY", "mk-123")
	t.Setenv("WARDEN_UPSTREAM_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.ListenAddr)
	assert.Equal(t, "bolt://graph:7687", cfg.Neo4jURI)
	assert.Equal(t, "s3cret", cfg.Neo4jPassword)
	assert.Equal(t, "https://memory.example.com", cfg.MemoryEndpoint)
	assert.Equal(t, "mk-123", cfg.MemoryAPIKey)
	assert.Equal(t, 5*time.Second, cfg.UpstreamTimeout)
}

func TestLoadRejectsEndpointWithoutKey(t *testing.T) {
	resetViper(t)
	t.Setenv("WARDEN_MEMORY_ENDPOINT", "https://memory.example.com")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyMemoryAPIKey)
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	resetViper(t)
	t.Setenv("WARDEN_UPSTREAM_TIMEOUT", "0s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyUpstreamTimeout)
}

func TestDataDirOverride(t *testing.T) {
	resetViper(t)
	dir := t.TempDir()
	t.Setenv("WARDEN_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)

	require.NoError(t, cfg.EnsureDataDir())
	assert.Equal(t, filepath.Join(dir, "constraints.db"), cfg.FallbackDBPath())
}

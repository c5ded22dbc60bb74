// Package config holds operator-level configuration for a warden process:
// where the graph lives, how to reach the memory service, and the local
// data directory. Set via env vars (WARDEN_*) or warden.config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Viper keys. Each maps to an env var with the WARDEN_ prefix
// (e.g. "neo4j_uri" → WARDEN_NEO4J_URI) and to a YAML field in
// warden.config.yaml.
const (
	KeyListenAddr      = "listen_addr"
	KeyDataDir         = "data_dir"
	KeyNeo4jURI        = "neo4j_uri"
	KeyNeo4jUser       = "neo4j_user"
	KeyNeo4jPassword   = "neo4j_password"
	KeyMemoryEndpoint  = "memory_endpoint"
	KeyMemoryAPIKey    = "memory_api_key"
	KeyMemoryNamespace = "memory_namespace"
	KeyDefaultUserID   = "default_user_id"
	KeyUpstreamTimeout = "upstream_timeout"
	KeyMirrorSyncSpec  = "mirror_sync"
)

// Defaults. The bolt URI and user match a stock local Neo4j; the password
// has no default and must be configured.
const (
	DefaultListenAddr      = ":8080"
	DefaultNeo4jURI        = "bolt://localhost:7687"
	DefaultNeo4jUser       = "neo4j"
	DefaultMemoryNamespace = "memory_firewall"
	DefaultUserID          = "demo-user"
	DefaultUpstreamTimeout = 15 * time.Second
	DefaultMirrorSyncSpec  = "@every 5m"
)

// Config is the resolved configuration for a warden process.
type Config struct {
	ListenAddr      string        // HTTP listen address
	DataDir         string        // Base directory for local state (~/.warden)
	Neo4jURI        string        // Bolt URI of the graph store
	Neo4jUser       string        // Graph store user
	Neo4jPassword   string        // Graph store password
	MemoryEndpoint  string        // Memory service base URL; empty selects the local fallback
	MemoryAPIKey    string        // Memory service bearer key
	MemoryNamespace string        // Namespace for stored constraint records
	DefaultUserID   string        // User the single-namespace deployment runs as
	UpstreamTimeout time.Duration // Bound on every graph/memory call
	MirrorSyncSpec  string        // Cron spec for the memory->graph reconciliation sweep
}

func init() {
	viper.SetEnvPrefix("WARDEN")
	viper.AutomaticEnv()
	viper.SetDefault(KeyListenAddr, DefaultListenAddr)
	viper.SetDefault(KeyNeo4jURI, DefaultNeo4jURI)
	viper.SetDefault(KeyNeo4jUser, DefaultNeo4jUser)
	viper.SetDefault(KeyMemoryNamespace, DefaultMemoryNamespace)
	viper.SetDefault(KeyDefaultUserID, DefaultUserID)
	viper.SetDefault(KeyUpstreamTimeout, DefaultUpstreamTimeout)
	viper.SetDefault(KeyMirrorSyncSpec, DefaultMirrorSyncSpec)
}

// Load reads configuration from viper (env vars merged over the optional
// config file and defaults) and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:      viper.GetString(KeyListenAddr),
		DataDir:         resolveDataDir(),
		Neo4jURI:        viper.GetString(KeyNeo4jURI),
		Neo4jUser:       viper.GetString(KeyNeo4jUser),
		Neo4jPassword:   viper.GetString(KeyNeo4jPassword),
		MemoryEndpoint:  viper.GetString(KeyMemoryEndpoint),
		MemoryAPIKey:    viper.GetString(KeyMemoryAPIKey),
		MemoryNamespace: viper.GetString(KeyMemoryNamespace),
		DefaultUserID:   viper.GetString(KeyDefaultUserID),
		UpstreamTimeout: viper.GetDuration(KeyUpstreamTimeout),
		MirrorSyncSpec:  viper.GetString(KeyMirrorSyncSpec),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFile merges an explicit YAML config file before resolving.
func LoadFile(path string) (*Config, error) {
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Load()
}

func resolveDataDir() string {
	if dir := viper.GetString(KeyDataDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".warden"
	}
	return filepath.Join(home, ".warden")
}

func (c *Config) validate() error {
	if c.Neo4jURI == "" {
		return fmt.Errorf("%s must not be empty", KeyNeo4jURI)
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyUpstreamTimeout, c.UpstreamTimeout)
	}
	if c.MemoryEndpoint != "" && c.MemoryAPIKey == "" {
		return fmt.Errorf("%s is set but %s is empty", KeyMemoryEndpoint, KeyMemoryAPIKey)
	}
	return nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0o700)
}

// FallbackDBPath returns the path of the local constraint-record database.
func (c *Config) FallbackDBPath() string {
	return filepath.Join(c.DataDir, "constraints.db")
}

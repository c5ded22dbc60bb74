package cmd

import (
	"context"
	"fmt"

	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/graph"
	"github.com/wardenhq/warden/internal/memory"
)

// runtimeDeps bundles the wiring every one-shot command needs: resolved
// config, a schema-ready graph client, and the constraint store.
type runtimeDeps struct {
	cfg    *config.Config
	client *graph.Client
	store  memory.Store
	mode   string
}

func openDeps(ctx context.Context) (*runtimeDeps, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, nil, fmt.Errorf("creating data directory: %w", err)
	}

	client, err := graph.NewClient(cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.UpstreamTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to graph: %w", err)
	}
	if err := client.EnsureSchema(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, nil, fmt.Errorf("applying graph schema: %w", err)
	}
	if err := client.UpsertUser(ctx, cfg.DefaultUserID); err != nil {
		_ = client.Close(ctx)
		return nil, nil, fmt.Errorf("registering user node: %w", err)
	}

	store, mode, err := memory.Open(cfg.MemoryEndpoint, cfg.MemoryAPIKey, cfg.MemoryNamespace, cfg.FallbackDBPath(), cfg.UpstreamTimeout)
	if err != nil {
		_ = client.Close(ctx)
		return nil, nil, fmt.Errorf("opening constraint store: %w", err)
	}

	cleanup := func() {
		_ = store.Close()
		_ = client.Close(context.Background())
	}
	return &runtimeDeps{cfg: cfg, client: client, store: store, mode: mode}, cleanup, nil
}

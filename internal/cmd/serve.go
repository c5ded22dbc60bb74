package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/graph"
	"github.com/wardenhq/warden/internal/memory"
	"github.com/wardenhq/warden/internal/mirror"
	"github.com/wardenhq/warden/internal/policy"
	"github.com/wardenhq/warden/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the warden HTTP API with the periodic graph reconciliation sweep",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

// parseAPIKeys splits WARDEN_API_KEYS (comma-separated) into a key list.
func parseAPIKeys(env string) []string {
	var keys []string
	for _, part := range strings.Split(env, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			keys = append(keys, part)
		}
	}
	return keys
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	client, err := graph.NewClient(cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.UpstreamTimeout)
	if err != nil {
		return fmt.Errorf("connecting to graph: %w", err)
	}
	defer func() { _ = client.Close(context.Background()) }()

	// The graph must be reachable and schema-ready before we accept traffic;
	// a firewall that cannot record decisions must not start.
	if err := client.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("applying graph schema: %w", err)
	}
	if err := client.UpsertUser(ctx, cfg.DefaultUserID); err != nil {
		return fmt.Errorf("registering user node: %w", err)
	}

	store, mode, err := memory.Open(cfg.MemoryEndpoint, cfg.MemoryAPIKey, cfg.MemoryNamespace, cfg.FallbackDBPath(), cfg.UpstreamTimeout)
	if err != nil {
		return fmt.Errorf("opening constraint store: %w", err)
	}
	defer store.Close()

	engine := policy.NewEngine(client)

	syncer := mirror.NewSyncer(store, client, cfg.DefaultUserID)
	if err := syncer.Register(cfg.MirrorSyncSpec); err != nil {
		return fmt.Errorf("registering mirror sweep: %w", err)
	}
	syncer.Start()
	defer syncer.Stop()

	apiKeys := parseAPIKeys(os.Getenv("WARDEN_API_KEYS"))
	if len(apiKeys) == 0 {
		log.Warn().Msg("WARDEN_API_KEYS not set — API endpoints are unauthenticated. Set for production.")
	}

	srv := server.NewServer(engine, store, client, cfg.DefaultUserID,
		server.WithAPIKeys(apiKeys),
		server.WithHealthDetail(mode, cfg.Neo4jURI, cfg.MemoryNamespace),
		server.WithCORSOrigins([]string{"*"}),
	)

	addr := cfg.ListenAddr
	if serveAddr != "" {
		addr = serveAddr
	}
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().
		Str("addr", addr).
		Str("memory_mode", mode).
		Str("graph", cfg.Neo4jURI).
		Str("user_id", cfg.DefaultUserID).
		Str("mirror_sync", cfg.MirrorSyncSpec).
		Msg("warden_serve_started")

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown_signal_received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server_stopped")
	return nil
}

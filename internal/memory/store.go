// Package memory is the durable constraint-record store, the source of
// truth for which constraints a user has declared. A remote memory service
// is used when configured; otherwise a local SQLite fallback with identical
// upsert-by-id semantics keeps the system fully functional.
package memory

import (
	"context"
	"time"

	"github.com/wardenhq/warden/internal/constraint"
	wardenotel "github.com/wardenhq/warden/internal/otel"
)

var tracer = wardenotel.Tracer("github.com/wardenhq/warden/internal/memory")

// Store persists constraint records per user. Put upserts by record id,
// last write wins. List returns the user's records; order is insertion
// order for the fallback store and unspecified for the remote service.
type Store interface {
	Put(ctx context.Context, userID string, rec constraint.Record) error
	List(ctx context.Context, userID string) ([]constraint.Record, error)
	Close() error
}

// Modes reported by Open, surfaced in health output.
const (
	ModeRemote   = "remote"
	ModeFallback = "fallback"
)

// Open selects the remote memory service when both endpoint and API key are
// configured, else the local SQLite fallback at dbPath. Returns the store
// and the mode it picked.
func Open(endpoint, apiKey, namespace, dbPath string, timeout time.Duration) (Store, string, error) {
	if endpoint != "" && apiKey != "" {
		return NewRemoteStore(endpoint, apiKey, namespace, timeout), ModeRemote, nil
	}
	s, err := NewFallbackStore(dbPath)
	if err != nil {
		return nil, "", err
	}
	return s, ModeFallback, nil
}

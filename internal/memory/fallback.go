package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wardenhq/warden/internal/constraint"
)

const fallbackSchema = `
CREATE TABLE IF NOT EXISTS constraint_records (
    user_id TEXT NOT NULL,
    id TEXT NOT NULL,
    type TEXT NOT NULL,
    severity TEXT NOT NULL DEFAULT 'HARD',
    text TEXT NOT NULL DEFAULT '',
    params TEXT NOT NULL DEFAULT '{}',
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (user_id, id)
);

CREATE INDEX IF NOT EXISTS idx_constraint_records_user ON constraint_records(user_id);
`

// FallbackStore is the process-local durable store used when no remote
// memory service is configured. Same contract: upsert by id, last write
// wins, list per user.
type FallbackStore struct {
	db *sql.DB
}

// NewFallbackStore opens (creating if needed) the SQLite database at dbPath.
func NewFallbackStore(dbPath string) (*FallbackStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening fallback store %s: %w", dbPath, err)
	}
	if _, err := db.Exec(fallbackSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing fallback store schema: %w", err)
	}
	return &FallbackStore{db: db}, nil
}

// Close closes the underlying database.
func (s *FallbackStore) Close() error {
	return s.db.Close()
}

// Put upserts the record under (userID, rec.ID).
func (s *FallbackStore) Put(ctx context.Context, userID string, rec constraint.Record) error {
	ctx, span := tracer.Start(ctx, "memory.fallback.put")
	span.SetAttributes(attribute.String("constraint.id", rec.ID))
	defer span.End()

	rec = rec.Normalize()
	params, err := json.Marshal(rec.Params)
	if err != nil {
		return fmt.Errorf("encoding params for record %s: %w", rec.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO constraint_records (user_id, id, type, severity, text, params, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, id) DO UPDATE SET
		    type=excluded.type,
		    severity=excluded.severity,
		    text=excluded.text,
		    params=excluded.params`,
		userID, rec.ID, rec.Type, rec.Severity, rec.Text, string(params), time.Now().UTC())
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("storing constraint record %s: %w", rec.ID, err)
	}
	return nil
}

// List returns the user's records in insertion order.
func (s *FallbackStore) List(ctx context.Context, userID string) ([]constraint.Record, error) {
	ctx, span := tracer.Start(ctx, "memory.fallback.list")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, severity, text, params
		FROM constraint_records
		WHERE user_id = ?
		ORDER BY created_at, id`,
		userID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("listing constraint records for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []constraint.Record
	for rows.Next() {
		var rec constraint.Record
		var params string
		if err := rows.Scan(&rec.ID, &rec.Type, &rec.Severity, &rec.Text, &params); err != nil {
			return nil, fmt.Errorf("scanning constraint record: %w", err)
		}
		rec.Params = map[string]any{}
		if err := json.Unmarshal([]byte(params), &rec.Params); err != nil {
			return nil, fmt.Errorf("decoding params of record %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading constraint records: %w", err)
	}
	span.SetAttributes(attribute.Int("memory.records", len(out)))
	return out, nil
}

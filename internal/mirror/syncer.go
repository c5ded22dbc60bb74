// Package mirror reconciles the graph fact store with the memory service.
// The memory service is written first on declaration, so a crash between
// the two writes leaves the graph behind; the periodic sweep re-upserts
// every record and closes that eventual-consistency window. All graph
// writes are MERGE-by-id, so re-applying them is a no-op.
package mirror

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/wardenhq/warden/internal/constraint"
)

const syncTimeout = 30 * time.Second

// ConstraintSource lists the authoritative constraint records for a user.
type ConstraintSource interface {
	List(ctx context.Context, userID string) ([]constraint.Record, error)
}

// GraphMirror receives the reconciled upserts.
type GraphMirror interface {
	UpsertUser(ctx context.Context, userID string) error
	UpsertConstraint(ctx context.Context, userID string, con constraint.Constraint) error
}

// Syncer runs the reconciliation on a cron schedule.
type Syncer struct {
	cron   *cron.Cron
	source ConstraintSource
	mirror GraphMirror
	userID string
}

// NewSyncer builds a syncer for one user namespace. Cron expressions use
// the standard 5-field format, plus the @every shorthand.
func NewSyncer(source ConstraintSource, mirror GraphMirror, userID string) *Syncer {
	return &Syncer{
		cron:   cron.New(),
		source: source,
		mirror: mirror,
		userID: userID,
	}
}

// Register adds the sweep under the given cron spec.
func (s *Syncer) Register(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()

		if err := s.SyncOnce(ctx); err != nil {
			log.Error().Err(err).Str("user_id", s.userID).Msg("mirror_sync_failed")
		}
	})
	if err != nil {
		return fmt.Errorf("registering mirror sync cron %q: %w", spec, err)
	}
	return nil
}

// SyncOnce lists every record from the source and re-upserts it into the
// graph. Records with an unrecognized type are skipped and logged, never
// fatal: one bad record must not starve the rest of the sweep.
func (s *Syncer) SyncOnce(ctx context.Context) error {
	records, err := s.source.List(ctx, s.userID)
	if err != nil {
		return fmt.Errorf("listing constraints for mirror sync: %w", err)
	}

	if err := s.mirror.UpsertUser(ctx, s.userID); err != nil {
		return fmt.Errorf("upserting user %s: %w", s.userID, err)
	}

	synced := 0
	for _, rec := range records {
		con, err := rec.Typed()
		if err != nil {
			log.Warn().Err(err).Str("constraint_id", rec.ID).Msg("mirror_sync_skip_record")
			continue
		}
		if err := s.mirror.UpsertConstraint(ctx, s.userID, con); err != nil {
			return fmt.Errorf("mirroring constraint %s: %w", rec.ID, err)
		}
		synced++
	}

	log.Debug().Int("synced", synced).Str("user_id", s.userID).Msg("mirror_sync_complete")
	return nil
}

// Start begins executing the registered sweep.
func (s *Syncer) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running sweep to complete.
func (s *Syncer) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

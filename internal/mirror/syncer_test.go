package mirror

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/internal/constraint"
)

type fakeSource struct {
	records []constraint.Record
	err     error
}

func (f *fakeSource) List(context.Context, string) ([]constraint.Record, error) {
	return f.records, f.err
}

type fakeMirror struct {
	users       []string
	constraints []constraint.Constraint
	failOn      string
}

func (f *fakeMirror) UpsertUser(_ context.Context, userID string) error {
	f.users = append(f.users, userID)
	return nil
}

func (f *fakeMirror) UpsertConstraint(_ context.Context, _ string, con constraint.Constraint) error {
	if con.ID == f.failOn {
		return errors.New("bolt connection refused")
	}
	f.constraints = append(f.constraints, con)
	return nil
}

func TestSyncOnce(t *testing.T) {
	source := &fakeSource{records: []constraint.Record{
		{ID: "c-1", Type: "NO_MEETINGS_AFTER_HOUR", Params: map[string]any{"hour": 21.0}},
		{ID: "c-2", Type: "BUDGET_CAP", Params: map[string]any{"max_amount": 1000.0}},
		{ID: "c-3", Type: "NOT_A_REAL_TYPE"}, // skipped, not fatal
	}}
	mirror := &fakeMirror{}
	s := NewSyncer(source, mirror, "u-1")

	require.NoError(t, s.SyncOnce(context.Background()))

	assert.Equal(t, []string{"u-1"}, mirror.users)
	require.Len(t, mirror.constraints, 2)
	assert.Equal(t, "c-1", mirror.constraints[0].ID)
	assert.Equal(t, constraint.MeetingCurfew{Hour: 21}, mirror.constraints[0].Params)
	assert.Equal(t, "c-2", mirror.constraints[1].ID)
}

func TestSyncOnceSourceFailure(t *testing.T) {
	s := NewSyncer(&fakeSource{err: errors.New("memory service down")}, &fakeMirror{}, "u-1")
	assert.Error(t, s.SyncOnce(context.Background()))
}

func TestSyncOnceMirrorFailureStopsSweep(t *testing.T) {
	source := &fakeSource{records: []constraint.Record{
		{ID: "c-1", Type: "BUDGET_CAP", Params: map[string]any{"max_amount": 10.0}},
	}}
	s := NewSyncer(source, &fakeMirror{failOn: "c-1"}, "u-1")
	assert.Error(t, s.SyncOnce(context.Background()))
}

func TestRegisterRejectsBadSpec(t *testing.T) {
	s := NewSyncer(&fakeSource{}, &fakeMirror{}, "u-1")
	assert.Error(t, s.Register("not a cron spec"))
	assert.NoError(t, s.Register("@every 5m"))
}

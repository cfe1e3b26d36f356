package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jwdebruin/sprintplan/internal/storetest"
	"github.com/jwdebruin/sprintplan/pkg/types"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) (types.Store, types.Config) {
		return New(), types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}
	})
}

func openTestStore(t *testing.T, dataDir string) *Store {
	t.Helper()
	store := New()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: dataDir}
	if err := store.Open(context.Background(), cfg); err != nil {
		t.Fatalf("Open() = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestReopenPreservesData(t *testing.T) {
	dataDir := t.TempDir()
	ctx := context.Background()

	store := openTestStore(t, dataDir)
	sprint := &types.Sprint{
		ID:             types.NewID(),
		SequenceNumber: 3,
		StartDate:      "2026-03-02",
		EndDate:        "2026-03-15",
	}
	if err := store.CreateSprint(ctx, sprint); err != nil {
		t.Fatalf("CreateSprint() = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	// A second open against the same directory finds the schema current and
	// the data intact.
	reopened := openTestStore(t, dataDir)
	got, err := reopened.GetSprintBySequence(ctx, 3)
	if err != nil {
		t.Fatalf("GetSprintBySequence() = %v", err)
	}
	if got.ID != sprint.ID {
		t.Errorf("sprint ID = %q, want %q", got.ID, sprint.ID)
	}
}

func TestOpenCreatesDataDir(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "nested", "db")
	store := openTestStore(t, dataDir)
	if _, err := store.ListSprints(context.Background()); err != nil {
		t.Fatalf("ListSprints() = %v", err)
	}
}

// The schema carries CHECK constraints mirroring the validation rules, so a
// caller bypassing the service layer still cannot persist a corrupt row.
func TestSchemaRejectsInvalidRows(t *testing.T) {
	store := openTestStore(t, t.TempDir())
	ctx := context.Background()

	tests := []struct {
		name string
		stmt string
		args []any
	}{
		{
			name: "zero volgnummer",
			stmt: "INSERT INTO sprints (id, volgnummer, startdatum, einddatum) VALUES (?, 0, '2026-03-02', '2026-03-15')",
			args: []any{types.NewID()},
		},
		{
			name: "end before start",
			stmt: "INSERT INTO sprints (id, volgnummer, startdatum, einddatum) VALUES (?, 1, '2026-03-15', '2026-03-02')",
			args: []any{types.NewID()},
		},
		{
			name: "empty titel",
			stmt: "INSERT INTO goals (id, sprint_id, titel, beschrijving, eigenaar, geschatte_uren, aangemaakt_op, gewijzigd_op) VALUES (?, ?, '', '', 'sanne', 4, '2026-03-02T09:00:00Z', '2026-03-02T09:00:00Z')",
			args: []any{types.NewID(), types.NewID()},
		},
		{
			name: "off-grid geschatte_uren",
			stmt: "INSERT INTO goals (id, sprint_id, titel, beschrijving, eigenaar, geschatte_uren, aangemaakt_op, gewijzigd_op) VALUES (?, ?, 'Goal', '', 'sanne', 8.1, '2026-03-02T09:00:00Z', '2026-03-02T09:00:00Z')",
			args: []any{types.NewID(), types.NewID()},
		},
		{
			name: "empty beschrijving on criterion",
			stmt: "INSERT INTO criteria (id, goal_id, beschrijving, voltooid) VALUES (?, ?, '', 0)",
			args: []any{types.NewID(), types.NewID()},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.db.ExecContext(ctx, tt.stmt, tt.args...); err == nil {
				t.Error("insert succeeded, want constraint violation")
			}
		})
	}
}

// Timestamps are stored as text and ordered lexicographically, so the stored
// form must be fixed-width: a trimmed "09:00:00Z" would sort after
// "09:00:00.5Z" even though it is earlier.
func TestGoalOrderSubsecondTimestamps(t *testing.T) {
	store := openTestStore(t, t.TempDir())
	ctx := context.Background()

	sprint := &types.Sprint{
		ID:             types.NewID(),
		SequenceNumber: 1,
		StartDate:      "2026-03-02",
		EndDate:        "2026-03-15",
	}
	if err := store.CreateSprint(ctx, sprint); err != nil {
		t.Fatalf("CreateSprint() = %v", err)
	}

	late := &types.Goal{
		ID:             types.NewID(),
		SprintID:       sprint.ID,
		Title:          "Later",
		Owner:          "sanne",
		EstimatedHours: 4,
		CreatedAt:      time.Date(2026, 3, 2, 9, 0, 0, 500_000_000, time.UTC),
		UpdatedAt:      time.Date(2026, 3, 2, 9, 0, 0, 500_000_000, time.UTC),
	}
	early := &types.Goal{
		ID:             types.NewID(),
		SprintID:       sprint.ID,
		Title:          "Earlier",
		Owner:          "sanne",
		EstimatedHours: 4,
		CreatedAt:      time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		UpdatedAt:      time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	for _, g := range []*types.Goal{late, early} {
		if err := store.CreateGoal(ctx, g); err != nil {
			t.Fatalf("CreateGoal() = %v", err)
		}
	}

	goals, err := store.ListGoalsBySprint(ctx, sprint.ID)
	if err != nil {
		t.Fatalf("ListGoalsBySprint() = %v", err)
	}
	if len(goals) != 2 {
		t.Fatalf("len(goals) = %d, want 2", len(goals))
	}
	if goals[0].ID != early.ID || goals[1].ID != late.ID {
		t.Errorf("order = [%s, %s], want exact-second goal first", goals[0].Title, goals[1].Title)
	}
	if !goals[0].CreatedAt.Equal(early.CreatedAt) || !goals[1].CreatedAt.Equal(late.CreatedAt) {
		t.Errorf("timestamps did not round-trip")
	}
}

func TestMigrationRecordsVersion(t *testing.T) {
	store := openTestStore(t, t.TempDir())

	var version int
	row := store.db.QueryRowContext(context.Background(), "SELECT MAX(version) FROM schema_version")
	if err := row.Scan(&version); err != nil {
		t.Fatalf("reading schema version: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("schema version = %d, want %d", version, len(migrations))
	}
}

package memory

import (
	"context"
	"testing"

	"github.com/jwdebruin/sprintplan/internal/storetest"
	"github.com/jwdebruin/sprintplan/pkg/types"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) (types.Store, types.Config) {
		return New(), types.Config{Backend: types.BackendMemory}
	})
}

func TestOpenIgnoresDataDir(t *testing.T) {
	store := New()
	cfg := types.Config{Backend: types.BackendMemory, DataDir: "/nonexistent/never/created"}
	if err := store.Open(context.Background(), cfg); err != nil {
		t.Fatalf("Open() = %v, want nil", err)
	}
	defer store.Close()
}

func TestGettersReturnCopies(t *testing.T) {
	store := New()
	ctx := context.Background()
	if err := store.Open(ctx, types.Config{Backend: types.BackendMemory}); err != nil {
		t.Fatalf("Open() = %v", err)
	}
	defer store.Close()

	sprint := &types.Sprint{
		ID:             types.NewID(),
		SequenceNumber: 1,
		StartDate:      "2026-03-02",
		EndDate:        "2026-03-15",
	}
	if err := store.CreateSprint(ctx, sprint); err != nil {
		t.Fatalf("CreateSprint() = %v", err)
	}

	got, err := store.GetSprint(ctx, sprint.ID)
	if err != nil {
		t.Fatalf("GetSprint() = %v", err)
	}
	got.StartDate = "1999-01-01"

	again, err := store.GetSprint(ctx, sprint.ID)
	if err != nil {
		t.Fatalf("GetSprint() = %v", err)
	}
	if again.StartDate != "2026-03-02" {
		t.Errorf("stored sprint mutated through returned copy: startdatum = %q", again.StartDate)
	}
}

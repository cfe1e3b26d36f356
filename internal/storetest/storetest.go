// Package storetest holds the behavioral conformance suite every storage
// backend must pass. A backend package wires itself in with a one-line test
// that hands Run a factory; the suite then exercises the full types.Store
// contract against it, keeping the backends observably interchangeable.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jwdebruin/sprintplan/pkg/types"
)

// Factory returns a fresh, unopened store and the config to open it with.
// Each call must yield an isolated store with no shared state.
type Factory func(t *testing.T) (types.Store, types.Config)

// Run exercises the types.Store contract against the backend produced by
// factory.
func Run(t *testing.T, factory Factory) {
	t.Run("SprintCRUD", func(t *testing.T) { testSprintCRUD(t, factory) })
	t.Run("SprintSequenceUnique", func(t *testing.T) { testSprintSequenceUnique(t, factory) })
	t.Run("SprintQueries", func(t *testing.T) { testSprintQueries(t, factory) })
	t.Run("GoalCRUD", func(t *testing.T) { testGoalCRUD(t, factory) })
	t.Run("GoalLists", func(t *testing.T) { testGoalLists(t, factory) })
	t.Run("CriterionCRUD", func(t *testing.T) { testCriterionCRUD(t, factory) })
	t.Run("CriterionOrderForeignIDs", func(t *testing.T) { testCriterionOrderForeignIDs(t, factory) })
	t.Run("CascadeDeleteSprint", func(t *testing.T) { testCascadeDeleteSprint(t, factory) })
	t.Run("CascadeDeleteGoal", func(t *testing.T) { testCascadeDeleteGoal(t, factory) })
	t.Run("MissingEntities", func(t *testing.T) { testMissingEntities(t, factory) })
	t.Run("TransactRollback", func(t *testing.T) { testTransactRollback(t, factory) })
	t.Run("TransactCommit", func(t *testing.T) { testTransactCommit(t, factory) })
	t.Run("Lifecycle", func(t *testing.T) { testLifecycle(t, factory) })
	t.Run("Clear", func(t *testing.T) { testClear(t, factory) })
}

// openStore opens a fresh store and registers its cleanup.
func openStore(t *testing.T, factory Factory) types.Store {
	t.Helper()
	store, cfg := factory(t)
	require.NoError(t, store.Open(context.Background(), cfg))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newSprint(seq int, start, end string) *types.Sprint {
	return &types.Sprint{
		ID:             types.NewID(),
		SequenceNumber: seq,
		StartDate:      start,
		EndDate:        end,
	}
}

func newGoal(sprintID, title, owner string, estimated float64) *types.Goal {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &types.Goal{
		ID:             types.NewID(),
		SprintID:       sprintID,
		Title:          title,
		Owner:          owner,
		EstimatedHours: estimated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func newCriterion(goalID, description string) *types.SuccessCriterion {
	return &types.SuccessCriterion{
		ID:          types.NewID(),
		GoalID:      goalID,
		Description: description,
	}
}

func testSprintCRUD(t *testing.T, factory Factory) {
	store := openStore(t, factory)
	ctx := context.Background()

	sprint := newSprint(1, "2026-03-02", "2026-03-15")
	require.NoError(t, store.CreateSprint(ctx, sprint))

	got, err := store.GetSprint(ctx, sprint.ID)
	require.NoError(t, err)
	require.Equal(t, sprint, got)

	exists, err := store.SprintExists(ctx, sprint.ID)
	require.NoError(t, err)
	require.True(t, exists)

	newStart := "2026-03-09"
	newEnd := "2026-03-22"
	require.NoError(t, store.UpdateSprint(ctx, sprint.ID, types.SprintUpdate{
		StartDate: &newStart,
		EndDate:   &newEnd,
	}))
	got, err = store.GetSprint(ctx, sprint.ID)
	require.NoError(t, err)
	require.Equal(t, newStart, got.StartDate)
	require.Equal(t, newEnd, got.EndDate)
	require.Equal(t, 1, got.SequenceNumber)

	deleted, err := store.DeleteSprint(ctx, sprint.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	_, err = store.GetSprint(ctx, sprint.ID)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func testSprintSequenceUnique(t *testing.T, factory Factory) {
	store := openStore(t, factory)
	ctx := context.Background()

	require.NoError(t, store.CreateSprint(ctx, newSprint(1, "2026-03-02", "2026-03-15")))
	second := newSprint(2, "2026-03-16", "2026-03-29")
	require.NoError(t, store.CreateSprint(ctx, second))

	dup := newSprint(1, "2026-04-01", "2026-04-14")
	require.ErrorIs(t, store.CreateSprint(ctx, dup), types.ErrSequenceInUse)

	// Moving sprint 2 onto the taken number fails too; moving it to a free
	// number succeeds.
	taken := 1
	err := store.UpdateSprint(ctx, second.ID, types.SprintUpdate{SequenceNumber: &taken})
	require.ErrorIs(t, err, types.ErrSequenceInUse)

	free := 7
	require.NoError(t, store.UpdateSprint(ctx, second.ID, types.SprintUpdate{SequenceNumber: &free}))
	got, err := store.GetSprintBySequence(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, second.ID, got.ID)
	_, err = store.GetSprintBySequence(ctx, 2)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func testSprintQueries(t *testing.T, factory Factory) {
	store := openStore(t, factory)
	ctx := context.Background()

	latest, err := store.GetLatestSprint(ctx)
	require.NoError(t, err)
	require.Nil(t, latest)

	first := newSprint(1, "2026-03-02", "2026-03-15")
	second := newSprint(2, "2026-03-16", "2026-03-29")
	// Insert out of order so list order provably comes from the sequence
	// number, not insertion.
	require.NoError(t, store.CreateSprint(ctx, second))
	require.NoError(t, store.CreateSprint(ctx, first))

	all, err := store.ListSprints(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, first.ID, all[0].ID)
	require.Equal(t, second.ID, all[1].ID)

	latest, err = store.GetLatestSprint(ctx)
	require.NoError(t, err)
	require.Equal(t, second.ID, latest.ID)

	bySeq, err := store.GetSprintBySequence(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, first.ID, bySeq.ID)

	current, err := store.GetCurrentSprint(ctx, "2026-03-20")
	require.NoError(t, err)
	require.Equal(t, second.ID, current.ID)

	// Boundary dates are inclusive on both ends.
	current, err = store.GetCurrentSprint(ctx, "2026-03-15")
	require.NoError(t, err)
	require.Equal(t, first.ID, current.ID)

	// A date in the gap between sprints matches nothing.
	current, err = store.GetCurrentSprint(ctx, "2026-04-10")
	require.NoError(t, err)
	require.Nil(t, current)

	// Overlapping ranges resolve to the highest sequence number.
	overlap := newSprint(3, "2026-03-10", "2026-03-23")
	require.NoError(t, store.CreateSprint(ctx, overlap))
	current, err = store.GetCurrentSprint(ctx, "2026-03-12")
	require.NoError(t, err)
	require.Equal(t, overlap.ID, current.ID)
}

func testGoalCRUD(t *testing.T, factory Factory) {
	store := openStore(t, factory)
	ctx := context.Background()

	sprint := newSprint(1, "2026-03-02", "2026-03-15")
	require.NoError(t, store.CreateSprint(ctx, sprint))

	actual := 6.5
	note := "shipped behind a feature flag"
	goal := newGoal(sprint.ID, "Migrate auth service", "sanne", 8)
	goal.Description = "Move session checks to the new token format"
	goal.ActualHours = &actual
	goal.Achieved = types.TriTrue
	goal.CompletionNote = &note
	require.NoError(t, store.CreateGoal(ctx, goal))

	got, err := store.GetGoal(ctx, goal.ID)
	require.NoError(t, err)
	require.Equal(t, goal.Title, got.Title)
	require.Equal(t, goal.Description, got.Description)
	require.Equal(t, goal.Owner, got.Owner)
	require.Equal(t, goal.EstimatedHours, got.EstimatedHours)
	require.NotNil(t, got.ActualHours)
	require.Equal(t, actual, *got.ActualHours)
	require.Equal(t, types.TriTrue, got.Achieved)
	require.NotNil(t, got.CompletionNote)
	require.Equal(t, note, *got.CompletionNote)
	require.Nil(t, got.LessonsLearned)
	require.True(t, goal.CreatedAt.Equal(got.CreatedAt))
	require.True(t, goal.UpdatedAt.Equal(got.UpdatedAt))

	newTitle := "Migrate auth and session services"
	achieved := types.TriFalse
	stamp := time.Now().UTC().Truncate(time.Millisecond).Add(time.Minute)
	require.NoError(t, store.UpdateGoal(ctx, goal.ID, types.GoalUpdate{
		Title:     &newTitle,
		Achieved:  &achieved,
		UpdatedAt: stamp,
	}))
	got, err = store.GetGoal(ctx, goal.ID)
	require.NoError(t, err)
	require.Equal(t, newTitle, got.Title)
	require.Equal(t, types.TriFalse, got.Achieved)
	require.True(t, stamp.Equal(got.UpdatedAt))
	require.True(t, goal.CreatedAt.Equal(got.CreatedAt))

	deleted, err := store.DeleteGoal(ctx, goal.ID)
	require.NoError(t, err)
	require.True(t, deleted)
	_, err = store.GetGoal(ctx, goal.ID)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func testGoalLists(t *testing.T, factory Factory) {
	store := openStore(t, factory)
	ctx := context.Background()

	first := newSprint(1, "2026-03-02", "2026-03-15")
	second := newSprint(2, "2026-03-16", "2026-03-29")
	require.NoError(t, store.CreateSprint(ctx, first))
	require.NoError(t, store.CreateSprint(ctx, second))

	base := time.Now().UTC().Truncate(time.Millisecond)
	mkGoal := func(sprintID, title, owner string, offset time.Duration) *types.Goal {
		g := newGoal(sprintID, title, owner, 4)
		g.CreatedAt = base.Add(offset)
		g.UpdatedAt = g.CreatedAt
		return g
	}

	a := mkGoal(first.ID, "Write runbook", "sanne", 2*time.Second)
	b := mkGoal(first.ID, "Fix flaky deploy", "daan", 1*time.Second)
	c := mkGoal(second.ID, "Upgrade database", "sanne", 3*time.Second)
	for _, g := range []*types.Goal{a, b, c} {
		require.NoError(t, store.CreateGoal(ctx, g))
	}

	bySprint, err := store.ListGoalsBySprint(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, bySprint, 2)
	require.Equal(t, b.ID, bySprint[0].ID)
	require.Equal(t, a.ID, bySprint[1].ID)

	byOwner, err := store.ListGoalsByOwner(ctx, "sanne")
	require.NoError(t, err)
	require.Len(t, byOwner, 2)
	require.Equal(t, a.ID, byOwner[0].ID)
	require.Equal(t, c.ID, byOwner[1].ID)

	empty, err := store.ListGoalsBySprint(ctx, types.NewID())
	require.NoError(t, err)
	require.Empty(t, empty)

	// Reassigning the owner moves the goal between owner listings.
	owner := "daan"
	require.NoError(t, store.UpdateGoal(ctx, a.ID, types.GoalUpdate{
		Owner:     &owner,
		UpdatedAt: base.Add(time.Minute),
	}))
	byOwner, err = store.ListGoalsByOwner(ctx, "sanne")
	require.NoError(t, err)
	require.Len(t, byOwner, 1)
	require.Equal(t, c.ID, byOwner[0].ID)
	byOwner, err = store.ListGoalsByOwner(ctx, "daan")
	require.NoError(t, err)
	require.Len(t, byOwner, 2)
}

func testCriterionCRUD(t *testing.T, factory Factory) {
	store := openStore(t, factory)
	ctx := context.Background()

	sprint := newSprint(1, "2026-03-02", "2026-03-15")
	require.NoError(t, store.CreateSprint(ctx, sprint))
	goal := newGoal(sprint.ID, "Harden backups", "daan", 12)
	require.NoError(t, store.CreateGoal(ctx, goal))

	first := newCriterion(goal.ID, "Restore drill completes under an hour")
	second := newCriterion(goal.ID, "Offsite copy verified")
	require.NoError(t, store.CreateCriterion(ctx, first))
	require.NoError(t, store.CreateCriterion(ctx, second))

	got, err := store.GetCriterion(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, first, got)

	listed, err := store.ListCriteriaByGoal(ctx, goal.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	require.Equal(t, first.ID, listed[0].ID)
	require.Equal(t, second.ID, listed[1].ID)

	done := true
	require.NoError(t, store.UpdateCriterion(ctx, first.ID, types.CriterionUpdate{Done: &done}))
	got, err = store.GetCriterion(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, got.Done)

	deleted, err := store.DeleteCriterion(ctx, second.ID)
	require.NoError(t, err)
	require.True(t, deleted)
	listed, err = store.ListCriteriaByGoal(ctx, goal.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

// Imported criteria carry their original identifiers, which are not
// time-ordered. Listing must still agree across backends, so the contract is
// ID order regardless of insertion order.
func testCriterionOrderForeignIDs(t *testing.T, factory Factory) {
	store := openStore(t, factory)
	ctx := context.Background()

	sprint := newSprint(1, "2026-03-02", "2026-03-15")
	require.NoError(t, store.CreateSprint(ctx, sprint))
	goal := newGoal(sprint.ID, "Migrate billing data", "daan", 16)
	require.NoError(t, store.CreateGoal(ctx, goal))

	ids := []string{
		"cccccccc-0000-4000-8000-000000000000",
		"aaaaaaaa-0000-4000-8000-000000000000",
		"bbbbbbbb-0000-4000-8000-000000000000",
	}
	for _, id := range ids {
		crit := newCriterion(goal.ID, "Rows reconciled")
		crit.ID = id
		require.NoError(t, store.CreateCriterion(ctx, crit))
	}

	listed, err := store.ListCriteriaByGoal(ctx, goal.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	require.Equal(t, "aaaaaaaa-0000-4000-8000-000000000000", listed[0].ID)
	require.Equal(t, "bbbbbbbb-0000-4000-8000-000000000000", listed[1].ID)
	require.Equal(t, "cccccccc-0000-4000-8000-000000000000", listed[2].ID)
}

func testCascadeDeleteSprint(t *testing.T, factory Factory) {
	store := openStore(t, factory)
	ctx := context.Background()

	doomed := newSprint(1, "2026-03-02", "2026-03-15")
	survivor := newSprint(2, "2026-03-16", "2026-03-29")
	require.NoError(t, store.CreateSprint(ctx, doomed))
	require.NoError(t, store.CreateSprint(ctx, survivor))

	doomedGoal := newGoal(doomed.ID, "Doomed goal", "sanne", 4)
	survivorGoal := newGoal(survivor.ID, "Surviving goal", "sanne", 4)
	require.NoError(t, store.CreateGoal(ctx, doomedGoal))
	require.NoError(t, store.CreateGoal(ctx, survivorGoal))

	doomedCrit := newCriterion(doomedGoal.ID, "Gone with the sprint")
	survivorCrit := newCriterion(survivorGoal.ID, "Still here")
	require.NoError(t, store.CreateCriterion(ctx, doomedCrit))
	require.NoError(t, store.CreateCriterion(ctx, survivorCrit))

	deleted, err := store.DeleteSprint(ctx, doomed.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	_, err = store.GetGoal(ctx, doomedGoal.ID)
	require.ErrorIs(t, err, types.ErrNotFound)
	_, err = store.GetCriterion(ctx, doomedCrit.ID)
	require.ErrorIs(t, err, types.ErrNotFound)

	// Unrelated entities are untouched.
	_, err = store.GetGoal(ctx, survivorGoal.ID)
	require.NoError(t, err)
	_, err = store.GetCriterion(ctx, survivorCrit.ID)
	require.NoError(t, err)
}

func testCascadeDeleteGoal(t *testing.T, factory Factory) {
	store := openStore(t, factory)
	ctx := context.Background()

	sprint := newSprint(1, "2026-03-02", "2026-03-15")
	require.NoError(t, store.CreateSprint(ctx, sprint))
	goal := newGoal(sprint.ID, "Goal with criteria", "daan", 4)
	require.NoError(t, store.CreateGoal(ctx, goal))
	crit := newCriterion(goal.ID, "Checked off somewhere")
	require.NoError(t, store.CreateCriterion(ctx, crit))

	deleted, err := store.DeleteGoal(ctx, goal.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	_, err = store.GetCriterion(ctx, crit.ID)
	require.ErrorIs(t, err, types.ErrNotFound)
	exists, err := store.SprintExists(ctx, sprint.ID)
	require.NoError(t, err)
	require.True(t, exists)
}

func testMissingEntities(t *testing.T, factory Factory) {
	store := openStore(t, factory)
	ctx := context.Background()
	missing := types.NewID()

	_, err := store.GetSprint(ctx, missing)
	require.ErrorIs(t, err, types.ErrNotFound)
	_, err = store.GetGoal(ctx, missing)
	require.ErrorIs(t, err, types.ErrNotFound)
	_, err = store.GetCriterion(ctx, missing)
	require.ErrorIs(t, err, types.ErrNotFound)

	seq := 5
	require.ErrorIs(t, store.UpdateSprint(ctx, missing, types.SprintUpdate{SequenceNumber: &seq}), types.ErrNotFound)
	title := "nope"
	require.ErrorIs(t, store.UpdateGoal(ctx, missing, types.GoalUpdate{Title: &title, UpdatedAt: time.Now().UTC()}), types.ErrNotFound)
	done := true
	require.ErrorIs(t, store.UpdateCriterion(ctx, missing, types.CriterionUpdate{Done: &done}), types.ErrNotFound)

	for name, del := range map[string]func(context.Context, string) (bool, error){
		"sprint":    store.DeleteSprint,
		"goal":      store.DeleteGoal,
		"criterion": store.DeleteCriterion,
	} {
		deleted, err := del(ctx, missing)
		require.NoError(t, err, name)
		require.False(t, deleted, name)
	}

	for name, exists := range map[string]func(context.Context, string) (bool, error){
		"sprint":    store.SprintExists,
		"goal":      store.GoalExists,
		"criterion": store.CriterionExists,
	} {
		ok, err := exists(ctx, missing)
		require.NoError(t, err, name)
		require.False(t, ok, name)
	}
}

func testTransactRollback(t *testing.T, factory Factory) {
	store := openStore(t, factory)
	ctx := context.Background()

	kept := newSprint(1, "2026-03-02", "2026-03-15")
	require.NoError(t, store.CreateSprint(ctx, kept))

	boom := errors.New("boom")
	abandoned := newSprint(2, "2026-03-16", "2026-03-29")
	err := store.Transact(ctx, func(tx types.Store) error {
		if err := tx.CreateSprint(ctx, abandoned); err != nil {
			return err
		}
		goal := newGoal(abandoned.ID, "Never lands", "sanne", 4)
		if err := tx.CreateGoal(ctx, goal); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Nothing from the failed transaction is visible.
	exists, err := store.SprintExists(ctx, abandoned.ID)
	require.NoError(t, err)
	require.False(t, exists)
	all, err := store.ListSprints(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, kept.ID, all[0].ID)
}

func testTransactCommit(t *testing.T, factory Factory) {
	store := openStore(t, factory)
	ctx := context.Background()

	sprint := newSprint(1, "2026-03-02", "2026-03-15")
	goal := newGoal(sprint.ID, "Lands together", "daan", 4)
	crit := newCriterion(goal.ID, "All three or none")
	err := store.Transact(ctx, func(tx types.Store) error {
		if err := tx.CreateSprint(ctx, sprint); err != nil {
			return err
		}
		if err := tx.CreateGoal(ctx, goal); err != nil {
			return err
		}
		// A nested Transact joins the enclosing transaction.
		return tx.Transact(ctx, func(inner types.Store) error {
			return inner.CreateCriterion(ctx, crit)
		})
	})
	require.NoError(t, err)

	_, err = store.GetSprint(ctx, sprint.ID)
	require.NoError(t, err)
	_, err = store.GetGoal(ctx, goal.ID)
	require.NoError(t, err)
	_, err = store.GetCriterion(ctx, crit.ID)
	require.NoError(t, err)
}

func testLifecycle(t *testing.T, factory Factory) {
	store, cfg := factory(t)
	ctx := context.Background()

	// Operations before Open fail closed.
	_, err := store.ListSprints(ctx)
	require.ErrorIs(t, err, types.ErrStoreClosed)

	require.NoError(t, store.Open(ctx, cfg))
	require.ErrorIs(t, store.Open(ctx, cfg), types.ErrAlreadyOpen)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err = store.ListSprints(ctx)
	require.ErrorIs(t, err, types.ErrStoreClosed)
	err = store.Transact(ctx, func(tx types.Store) error { return nil })
	require.ErrorIs(t, err, types.ErrStoreClosed)
}

func testClear(t *testing.T, factory Factory) {
	store := openStore(t, factory)
	ctx := context.Background()

	sprint := newSprint(1, "2026-03-02", "2026-03-15")
	require.NoError(t, store.CreateSprint(ctx, sprint))
	goal := newGoal(sprint.ID, "Cleared away", "sanne", 4)
	require.NoError(t, store.CreateGoal(ctx, goal))
	require.NoError(t, store.CreateCriterion(ctx, newCriterion(goal.ID, "Gone")))

	require.NoError(t, store.Clear(ctx))

	all, err := store.ListSprints(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
	exists, err := store.GoalExists(ctx, goal.ID)
	require.NoError(t, err)
	require.False(t, exists)

	// The store stays usable after Clear.
	require.NoError(t, store.CreateSprint(ctx, newSprint(1, "2026-04-01", "2026-04-14")))
}

package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwdebruin/sprintplan/internal/memory"
	"github.com/jwdebruin/sprintplan/pkg/service"
	"github.com/jwdebruin/sprintplan/pkg/types"
)

func newTestStore(t *testing.T) types.Store {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.Open(context.Background(), types.Config{Backend: types.BackendMemory}))
	t.Cleanup(func() { store.Close() })
	return store
}

// seedStore fills the store with one sprint, two goals, and criteria under
// the first goal, exercising every optional field.
func seedStore(t *testing.T, store types.Store) *types.Sprint {
	t.Helper()
	ctx := context.Background()

	sprints := service.NewSprintService(store)
	goals := service.NewGoalService(store)
	criteria := service.NewCriterionService(store)

	sprint, err := sprints.Create(ctx, service.NewSprint{
		SequenceNumber: 1, StartDate: "2026-01-13", EndDate: "2026-01-26",
	})
	require.NoError(t, err)

	first, err := goals.Create(ctx, service.NewGoal{
		SprintID: sprint.ID, Title: "Ship X", Description: "Roll out the new pipeline",
		Owner: "sanne", EstimatedHours: 8,
	})
	require.NoError(t, err)
	_, err = goals.Create(ctx, service.NewGoal{
		SprintID: sprint.ID, Title: "Write docs", Owner: "daan", EstimatedHours: 2.5,
	})
	require.NoError(t, err)

	_, err = goals.LogHours(ctx, first.ID, 6.25)
	require.NoError(t, err)
	note := "landed a day early"
	_, err = goals.MarkAchieved(ctx, first.ID, &note)
	require.NoError(t, err)

	batch, err := criteria.CreateBatch(ctx, first.ID, []string{"Deployed", "Error rate below 1%"})
	require.NoError(t, err)
	_, err = criteria.Complete(ctx, batch[0].ID)
	require.NoError(t, err)

	return sprint
}

func TestExportShape(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedStore(t, store)
	svc := NewService(store)

	doc, err := svc.ExportAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, DocumentVersion, doc.Version)
	assert.NotEmpty(t, doc.ExportedAt)
	require.Len(t, doc.Sprints, 1)
	require.Len(t, doc.Sprints[0].Goals, 2)
	assert.Len(t, doc.Sprints[0].Goals[0].SuccessCriteria, 2)

	// The wire field names are the Dutch ones.
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	for _, field := range []string{
		`"volgnummer"`, `"startdatum"`, `"einddatum"`, `"titel"`, `"beschrijving"`,
		`"eigenaar"`, `"geschatte_uren"`, `"werkelijke_uren"`, `"behaald"`,
		`"toelichting"`, `"geleerde_lessen"`, `"aangemaakt_op"`, `"gewijzigd_op"`,
		`"success_criteria"`, `"voltooid"`,
	} {
		assert.Contains(t, string(data), field)
	}
}

func TestExportSprintMissing(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newTestStore(t))

	doc, err := svc.ExportSprint(ctx, types.NewID())
	require.NoError(t, err)
	assert.Nil(t, doc)

	_, err = svc.ExportSprint(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedStore(t, store)
	svc := NewService(store)

	before, err := svc.ExportAll(ctx)
	require.NoError(t, err)
	data, err := json.Marshal(before)
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx))

	result, err := svc.Import(ctx, data, false)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, 1, result.SprintsImported)
	assert.Equal(t, 2, result.GoalsImported)
	assert.Equal(t, 2, result.CriteriaImported)

	after, err := svc.ExportAll(ctx)
	require.NoError(t, err)
	// Field-for-field equality over the whole tree, identifiers and
	// timestamps included.
	assert.Equal(t, before.Sprints, after.Sprints)
}

func TestImportSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedStore(t, store)
	svc := NewService(store)

	doc, err := svc.ExportAll(ctx)
	require.NoError(t, err)
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	// Importing on top of the same data without overwrite changes nothing.
	result, err := svc.Import(ctx, data, false)
	require.NoError(t, err)
	assert.Equal(t, 0, result.SprintsImported)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Warnings, 1)
	assert.Empty(t, result.Errors)

	after, err := svc.ExportAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc.Sprints, after.Sprints)
}

func TestImportOverwriteReplaces(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	sprint := seedStore(t, store)
	svc := NewService(store)

	doc, err := svc.ExportAll(ctx)
	require.NoError(t, err)
	// Tamper with the document so the replacement is observable.
	doc.Sprints[0].Goals = doc.Sprints[0].Goals[:1]
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	result, err := svc.Import(ctx, data, true)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SprintsImported)
	assert.Equal(t, 1, result.GoalsImported)
	assert.Equal(t, 0, result.Skipped)

	goals, err := store.ListGoalsBySprint(ctx, sprint.ID)
	require.NoError(t, err)
	assert.Len(t, goals, 1)
}

func TestImportRejectsOffGridHours(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewService(store)

	sprintID := types.NewID()
	goalID := types.NewID()
	data := fmt.Sprintf(`{
		"version": "1.0",
		"exported_at": "2026-02-01T10:00:00Z",
		"sprints": [{
			"id": %q, "volgnummer": 1,
			"startdatum": "2026-01-13", "einddatum": "2026-01-26",
			"goals": [{
				"id": %q, "sprint_id": %q,
				"titel": "Ship X", "beschrijving": "", "eigenaar": "sanne",
				"geschatte_uren": 8.1, "werkelijke_uren": null,
				"behaald": null, "toelichting": null, "geleerde_lessen": null,
				"aangemaakt_op": "2026-01-13T09:00:00Z",
				"gewijzigd_op": "2026-01-13T09:00:00Z",
				"success_criteria": []
			}]
		}]
	}`, sprintID, goalID, sprintID)

	result, err := svc.Import(ctx, []byte(data), false)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Sprint[0].goals[0].geschatte_uren")
	assert.Contains(t, result.Errors[0], "0.25")
	assert.Equal(t, 0, result.SprintsImported)

	// Nothing was persisted.
	sprints, err := store.ListSprints(ctx)
	require.NoError(t, err)
	assert.Empty(t, sprints)
}

func TestImportCollectsAllErrors(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newTestStore(t))

	data := `{
		"version": "1.0",
		"sprints": [
			{"id": "not-a-uuid", "volgnummer": 0, "startdatum": "2026-01-13", "einddatum": "2026-01-26"},
			{"id": "also-bad", "volgnummer": 2, "startdatum": "nope", "einddatum": "2026-02-09"}
		]
	}`
	result, err := svc.Import(ctx, []byte(data), false)
	require.NoError(t, err)
	assert.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "Sprint[0].id")
	assert.Contains(t, result.Errors[1], "Sprint[0].volgnummer")
	assert.Contains(t, result.Errors[2], "Sprint[1].id")
	assert.Contains(t, result.Errors[3], "Sprint[1].startdatum")
}

func TestImportRejectsRepeatedEntityIDs(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewService(store)

	sprintID := types.NewID()
	goalID := types.NewID()
	critID := types.NewID()
	goal := fmt.Sprintf(`{
		"id": %q, "sprint_id": %q,
		"titel": "Ship X", "beschrijving": "", "eigenaar": "sanne",
		"geschatte_uren": 8, "werkelijke_uren": null,
		"behaald": null, "toelichting": null, "geleerde_lessen": null,
		"aangemaakt_op": "2026-01-13T09:00:00Z",
		"gewijzigd_op": "2026-01-13T09:00:00Z",
		"success_criteria": [
			{"id": %q, "goal_id": %q, "beschrijving": "done", "voltooid": false}
		]
	}`, goalID, sprintID, critID, goalID)
	data := fmt.Sprintf(`{
		"version": "1.0",
		"exported_at": "2026-02-01T10:00:00Z",
		"sprints": [{
			"id": %q, "volgnummer": 1,
			"startdatum": "2026-01-13", "einddatum": "2026-01-26",
			"goals": [%s, %s]
		}]
	}`, sprintID, goal, goal)

	result, err := svc.Import(ctx, []byte(data), false)
	require.NoError(t, err)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "Sprint[0].goals[1].id")
	assert.Contains(t, result.Errors[0], "duplicate goal id")
	assert.Contains(t, result.Errors[1], "Sprint[0].goals[1].success_criteria[0].id")
	assert.Contains(t, result.Errors[1], "duplicate criterion id")
	assert.Equal(t, 0, result.SprintsImported)
	assert.Equal(t, 0, result.GoalsImported)

	// Nothing was persisted on any backend.
	sprints, err := store.ListSprints(ctx)
	require.NoError(t, err)
	assert.Empty(t, sprints)
}

func TestImportMalformedJSON(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newTestStore(t))

	_, err := svc.Import(ctx, []byte("{not json"), false)
	require.Error(t, err)
}

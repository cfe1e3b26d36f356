package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwdebruin/sprintplan/internal/memory"
	"github.com/jwdebruin/sprintplan/pkg/types"
)

func newTestStore(t *testing.T) types.Store {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.Open(context.Background(), types.Config{Backend: types.BackendMemory}))
	t.Cleanup(func() { store.Close() })
	return store
}

func fixedClock(value string) func() time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func TestSprintSuggestedDates(t *testing.T) {
	tests := []struct {
		name      string
		today     string // RFC3339, used when no sprints exist
		latestEnd string // when set, a sprint ending on this date exists
		wantStart string
		wantEnd   string
	}{
		{
			name:      "weekday start with empty store",
			today:     "2026-03-04T10:00:00Z", // a Wednesday
			wantStart: "2026-03-04",
			wantEnd:   "2026-03-17",
		},
		{
			name:      "saturday shifts to monday",
			today:     "2026-03-07T10:00:00Z",
			wantStart: "2026-03-09",
			wantEnd:   "2026-03-22",
		},
		{
			name:      "sunday shifts to monday",
			today:     "2026-03-08T10:00:00Z",
			wantStart: "2026-03-09",
			wantEnd:   "2026-03-22",
		},
		{
			name:      "day after latest sprint",
			today:     "2026-01-20T10:00:00Z",
			latestEnd: "2026-01-26",
			wantStart: "2026-01-27",
			wantEnd:   "2026-02-09",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := newTestStore(t)
			svc := NewSprintService(store).WithClock(fixedClock(tt.today))

			if tt.latestEnd != "" {
				_, err := svc.Create(ctx, NewSprint{
					SequenceNumber: 1,
					StartDate:      "2026-01-13",
					EndDate:        tt.latestEnd,
				})
				require.NoError(t, err)
			}

			start, end, err := svc.SuggestedDates(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestSprintCreateDefaults(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewSprintService(store).WithClock(fixedClock("2026-03-04T10:00:00Z"))

	// Empty input: everything is filled in by the service.
	first, err := svc.Create(ctx, NewSprint{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.SequenceNumber)
	assert.Equal(t, "2026-03-04", first.StartDate)
	assert.Equal(t, "2026-03-17", first.EndDate)
	assert.True(t, types.ValidID(first.ID))

	// The next create chains off the first sprint.
	second, err := svc.Create(ctx, NewSprint{})
	require.NoError(t, err)
	assert.Equal(t, 2, second.SequenceNumber)
	assert.Equal(t, "2026-03-18", second.StartDate)
	assert.Equal(t, "2026-03-31", second.EndDate)
}

func TestSprintCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewSprintService(newTestStore(t))

	_, err := svc.Create(ctx, NewSprint{SequenceNumber: -1, StartDate: "not-a-date", EndDate: "2026-03-15"})
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	// Every violated rule is reported, not just the first.
	assert.Len(t, verr.Violations, 2)
}

func TestSprintNextSequenceNumber(t *testing.T) {
	ctx := context.Background()
	svc := NewSprintService(newTestStore(t))

	next, err := svc.NextSequenceNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	_, err = svc.Create(ctx, NewSprint{SequenceNumber: 7, StartDate: "2026-03-02", EndDate: "2026-03-15"})
	require.NoError(t, err)

	next, err = svc.NextSequenceNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, next)
}

func TestSprintMalformedID(t *testing.T) {
	ctx := context.Background()
	svc := NewSprintService(newTestStore(t))

	_, err := svc.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, types.ErrInvalidID)
	_, err = svc.Update(ctx, "not-a-uuid", types.SprintUpdate{})
	assert.ErrorIs(t, err, types.ErrInvalidID)
	_, err = svc.Delete(ctx, "")
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

func TestSprintUpdateRejectsInvalidResult(t *testing.T) {
	ctx := context.Background()
	svc := NewSprintService(newTestStore(t))

	sprint, err := svc.Create(ctx, NewSprint{SequenceNumber: 1, StartDate: "2026-03-02", EndDate: "2026-03-15"})
	require.NoError(t, err)

	// Moving the end before the start must leave the sprint untouched.
	badEnd := "2026-02-01"
	_, err = svc.Update(ctx, sprint.ID, types.SprintUpdate{EndDate: &badEnd})
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)

	got, err := svc.Get(ctx, sprint.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15", got.EndDate)
}

func TestGoalCreateUnderMissingSprint(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewGoalService(store)

	_, err := svc.Create(ctx, NewGoal{
		SprintID:       types.NewID(),
		Title:          "Orphan",
		Owner:          "sanne",
		EstimatedHours: 4,
	})
	var nf *types.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "sprint", nf.Kind)
	assert.ErrorIs(t, err, types.ErrNotFound)

	// Nothing was persisted.
	goals, err := store.ListGoalsByOwner(ctx, "sanne")
	require.NoError(t, err)
	assert.Empty(t, goals)
}

func TestGoalLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	sprints := NewSprintService(store)
	goals := NewGoalService(store).WithClock(fixedClock("2026-03-02T09:00:00Z"))

	sprint, err := sprints.Create(ctx, NewSprint{SequenceNumber: 1, StartDate: "2026-03-02", EndDate: "2026-03-15"})
	require.NoError(t, err)

	goal, err := goals.Create(ctx, NewGoal{
		SprintID:       sprint.ID,
		Title:          "Ship X",
		Owner:          "sanne",
		EstimatedHours: 8,
	})
	require.NoError(t, err)
	assert.Equal(t, types.TriUnset, goal.Achieved)
	created := goal.CreatedAt

	goals = goals.WithClock(fixedClock("2026-03-10T09:00:00Z"))
	logged, err := goals.LogHours(ctx, goal.ID, 6.5)
	require.NoError(t, err)
	require.NotNil(t, logged.ActualHours)
	assert.Equal(t, 6.5, *logged.ActualHours)
	assert.True(t, logged.UpdatedAt.After(created))

	note := "done early"
	marked, err := goals.MarkAchieved(ctx, goal.ID, &note)
	require.NoError(t, err)
	assert.Equal(t, types.TriTrue, marked.Achieved)
	require.NotNil(t, marked.CompletionNote)
	assert.Equal(t, note, *marked.CompletionNote)

	lessons := "estimate integration time separately"
	marked, err = goals.MarkNotAchieved(ctx, goal.ID, &lessons)
	require.NoError(t, err)
	assert.Equal(t, types.TriFalse, marked.Achieved)
	require.NotNil(t, marked.LessonsLearned)
	assert.Equal(t, lessons, *marked.LessonsLearned)
	// The completion note from the earlier update is untouched.
	require.NotNil(t, marked.CompletionNote)
}

func TestGoalLogHoursRejectsOffGrid(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	sprints := NewSprintService(store)
	goals := NewGoalService(store)

	sprint, err := sprints.Create(ctx, NewSprint{SequenceNumber: 1, StartDate: "2026-03-02", EndDate: "2026-03-15"})
	require.NoError(t, err)
	goal, err := goals.Create(ctx, NewGoal{SprintID: sprint.ID, Title: "Ship X", Owner: "sanne", EstimatedHours: 8})
	require.NoError(t, err)

	_, err = goals.LogHours(ctx, goal.ID, 8.1)
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)

	got, err := goals.Get(ctx, goal.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ActualHours)
}

func TestGoalStats(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	sprints := NewSprintService(store)
	goals := NewGoalService(store)

	sprint, err := sprints.Create(ctx, NewSprint{SequenceNumber: 1, StartDate: "2026-03-02", EndDate: "2026-03-15"})
	require.NoError(t, err)

	a, err := goals.Create(ctx, NewGoal{SprintID: sprint.ID, Title: "A", Owner: "sanne", EstimatedHours: 8})
	require.NoError(t, err)
	_, err = goals.Create(ctx, NewGoal{SprintID: sprint.ID, Title: "B", Owner: "daan", EstimatedHours: 4.5})
	require.NoError(t, err)

	_, err = goals.LogHours(ctx, a.ID, 10)
	require.NoError(t, err)
	_, err = goals.MarkAchieved(ctx, a.ID, nil)
	require.NoError(t, err)

	stats, err := goals.Stats(ctx, sprint.ID)
	require.NoError(t, err)
	assert.Equal(t, &SprintStats{
		TotalGoals:     2,
		AchievedGoals:  1,
		EstimatedHours: 12.5,
		ActualHours:    10,
	}, stats)
}

// The end-to-end scenario: one sprint, one goal, two criteria, one completed.
func TestCriterionProgressScenario(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	sprints := NewSprintService(store)
	goals := NewGoalService(store)
	criteria := NewCriterionService(store)

	sprint, err := sprints.Create(ctx, NewSprint{SequenceNumber: 1, StartDate: "2026-01-13", EndDate: "2026-01-26"})
	require.NoError(t, err)
	goal, err := goals.Create(ctx, NewGoal{SprintID: sprint.ID, Title: "Ship X", Owner: "sanne", EstimatedHours: 8})
	require.NoError(t, err)

	batch, err := criteria.CreateBatch(ctx, goal.ID, []string{
		"Deployed to production",
		"Error rate below 1%",
	})
	require.NoError(t, err)
	require.Len(t, batch, 2)

	_, err = criteria.Complete(ctx, batch[0].ID)
	require.NoError(t, err)

	progress, err := criteria.ProgressByGoal(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, &Progress{Completed: 1, Total: 2, Percentage: 50}, progress)
}

func TestCriterionProgressEmptyGoal(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	sprints := NewSprintService(store)
	goals := NewGoalService(store)
	criteria := NewCriterionService(store)

	sprint, err := sprints.Create(ctx, NewSprint{SequenceNumber: 1, StartDate: "2026-03-02", EndDate: "2026-03-15"})
	require.NoError(t, err)
	goal, err := goals.Create(ctx, NewGoal{SprintID: sprint.ID, Title: "No criteria", Owner: "daan", EstimatedHours: 2})
	require.NoError(t, err)

	progress, err := criteria.ProgressByGoal(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, &Progress{Completed: 0, Total: 0, Percentage: 0}, progress)
}

func TestCriterionBatchAllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	sprints := NewSprintService(store)
	goals := NewGoalService(store)
	criteria := NewCriterionService(store)

	sprint, err := sprints.Create(ctx, NewSprint{SequenceNumber: 1, StartDate: "2026-03-02", EndDate: "2026-03-15"})
	require.NoError(t, err)
	goal, err := goals.Create(ctx, NewGoal{SprintID: sprint.ID, Title: "Ship X", Owner: "sanne", EstimatedHours: 8})
	require.NoError(t, err)

	_, err = criteria.CreateBatch(ctx, goal.ID, []string{"Valid one", ""})
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Violations, 1)
	assert.Contains(t, verr.Violations[0], "criterion[1]")

	listed, err := criteria.ListByGoal(ctx, goal.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestCriterionMutationRestampsGoal(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	sprints := NewSprintService(store)
	goals := NewGoalService(store).WithClock(fixedClock("2026-03-02T09:00:00Z"))
	criteria := NewCriterionService(store).WithClock(fixedClock("2026-03-06T09:00:00Z"))

	sprint, err := sprints.Create(ctx, NewSprint{SequenceNumber: 1, StartDate: "2026-03-02", EndDate: "2026-03-15"})
	require.NoError(t, err)
	goal, err := goals.Create(ctx, NewGoal{SprintID: sprint.ID, Title: "Ship X", Owner: "sanne", EstimatedHours: 8})
	require.NoError(t, err)

	crit, err := criteria.Create(ctx, goal.ID, "Deployed")
	require.NoError(t, err)

	toggled, err := criteria.Toggle(ctx, crit.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Done)

	got, err := goals.Get(ctx, goal.ID)
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.After(goal.UpdatedAt))

	back, err := criteria.Uncomplete(ctx, crit.ID)
	require.NoError(t, err)
	assert.False(t, back.Done)
}

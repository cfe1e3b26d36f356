package service

import (
	"context"
	"errors"
	"time"

	"github.com/jwdebruin/sprintplan/pkg/types"
)

// GoalService manages goals.
type GoalService struct {
	store types.Store
	now   func() time.Time
}

// NewGoalService wraps store.
func NewGoalService(store types.Store) *GoalService {
	return &GoalService{store: store, now: time.Now}
}

// WithClock replaces the service's clock and returns the service.
func (g *GoalService) WithClock(now func() time.Time) *GoalService {
	g.now = now
	return g
}

// NewGoal carries the caller's input for goal creation.
type NewGoal struct {
	SprintID       string
	Title          string
	Description    string
	Owner          string
	EstimatedHours float64
}

// Create validates and persists a new goal under an existing sprint. A
// missing sprint fails with a not-found error before anything is written.
func (g *GoalService) Create(ctx context.Context, in NewGoal) (*types.Goal, error) {
	if !types.ValidID(in.SprintID) {
		return nil, types.ErrInvalidID
	}
	now := g.now().UTC()
	goal := &types.Goal{
		ID:             types.NewID(),
		SprintID:       in.SprintID,
		Title:          in.Title,
		Description:    in.Description,
		Owner:          in.Owner,
		EstimatedHours: in.EstimatedHours,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := goal.Validate(); err != nil {
		return nil, err
	}
	// The parent check and the insert share a transaction so the sprint
	// cannot vanish between them.
	err := g.store.Transact(ctx, func(tx types.Store) error {
		ok, err := tx.SprintExists(ctx, in.SprintID)
		if err != nil {
			return err
		}
		if !ok {
			return &types.NotFoundError{Kind: "sprint", ID: in.SprintID}
		}
		return tx.CreateGoal(ctx, goal)
	})
	if err != nil {
		return nil, err
	}
	return goal, nil
}

// Get returns the goal with the given ID.
func (g *GoalService) Get(ctx context.Context, id string) (*types.Goal, error) {
	if !types.ValidID(id) {
		return nil, types.ErrInvalidID
	}
	goal, err := g.store.GetGoal(ctx, id)
	if errors.Is(err, types.ErrNotFound) {
		return nil, &types.NotFoundError{Kind: "goal", ID: id}
	}
	return goal, err
}

// ListBySprint returns the sprint's goals ordered by creation time.
func (g *GoalService) ListBySprint(ctx context.Context, sprintID string) ([]*types.Goal, error) {
	if !types.ValidID(sprintID) {
		return nil, types.ErrInvalidID
	}
	return g.store.ListGoalsBySprint(ctx, sprintID)
}

// ListByOwner returns the owner's goals across all sprints ordered by
// creation time.
func (g *GoalService) ListByOwner(ctx context.Context, owner string) ([]*types.Goal, error) {
	return g.store.ListGoalsByOwner(ctx, owner)
}

// GoalUpdate carries a partial update for a goal; the service stamps the
// modification timestamp itself.
type GoalUpdate struct {
	Title          *string
	Description    *string
	Owner          *string
	EstimatedHours *float64
	ActualHours    *float64
	Achieved       *types.TriState
	CompletionNote *string
	LessonsLearned *string
}

// Update validates and applies a partial update, returning the updated goal.
func (g *GoalService) Update(ctx context.Context, id string, upd GoalUpdate) (*types.Goal, error) {
	return g.update(ctx, id, types.GoalUpdate{
		Title:          upd.Title,
		Description:    upd.Description,
		Owner:          upd.Owner,
		EstimatedHours: upd.EstimatedHours,
		ActualHours:    upd.ActualHours,
		Achieved:       upd.Achieved,
		CompletionNote: upd.CompletionNote,
		LessonsLearned: upd.LessonsLearned,
	})
}

// Delete removes the goal and its criteria. Returns false when the goal does
// not exist.
func (g *GoalService) Delete(ctx context.Context, id string) (bool, error) {
	if !types.ValidID(id) {
		return false, types.ErrInvalidID
	}
	return g.store.DeleteGoal(ctx, id)
}

// MarkAchieved records the goal as achieved, optionally with a completion
// note. A nil note leaves the stored note unchanged.
func (g *GoalService) MarkAchieved(ctx context.Context, id string, note *string) (*types.Goal, error) {
	achieved := types.TriTrue
	return g.update(ctx, id, types.GoalUpdate{Achieved: &achieved, CompletionNote: note})
}

// MarkNotAchieved records the goal as not achieved, optionally with lessons
// learned. A nil lessons value leaves the stored one unchanged.
func (g *GoalService) MarkNotAchieved(ctx context.Context, id string, lessons *string) (*types.Goal, error) {
	achieved := types.TriFalse
	return g.update(ctx, id, types.GoalUpdate{Achieved: &achieved, LessonsLearned: lessons})
}

// LogHours records the actual hours spent on the goal.
func (g *GoalService) LogHours(ctx context.Context, id string, hours float64) (*types.Goal, error) {
	if !types.ValidHours(hours) {
		return nil, types.NewValidationError([]string{
			"werkelijke_uren must be non-negative in 0.25 increments",
		})
	}
	return g.update(ctx, id, types.GoalUpdate{ActualHours: &hours})
}

// update stamps the modification timestamp, validates the would-be result,
// and persists.
func (g *GoalService) update(ctx context.Context, id string, upd types.GoalUpdate) (*types.Goal, error) {
	if !types.ValidID(id) {
		return nil, types.ErrInvalidID
	}
	upd.UpdatedAt = g.now().UTC()
	var updated *types.Goal
	err := g.store.Transact(ctx, func(tx types.Store) error {
		goal, err := tx.GetGoal(ctx, id)
		if err != nil {
			return err
		}
		upd.Apply(goal)
		if err := goal.Validate(); err != nil {
			return err
		}
		if err := tx.UpdateGoal(ctx, id, upd); err != nil {
			return err
		}
		updated = goal
		return nil
	})
	if errors.Is(err, types.ErrNotFound) {
		return nil, &types.NotFoundError{Kind: "goal", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SprintStats aggregates the goals of one sprint. Goals without logged actual
// hours count as zero in ActualHours.
type SprintStats struct {
	TotalGoals     int     `json:"total_goals"`
	AchievedGoals  int     `json:"achieved_goals"`
	EstimatedHours float64 `json:"estimated_hours"`
	ActualHours    float64 `json:"actual_hours"`
}

// Stats computes aggregate figures for the sprint's goals.
func (g *GoalService) Stats(ctx context.Context, sprintID string) (*SprintStats, error) {
	if !types.ValidID(sprintID) {
		return nil, types.ErrInvalidID
	}
	goals, err := g.store.ListGoalsBySprint(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	stats := &SprintStats{TotalGoals: len(goals)}
	for _, goal := range goals {
		if goal.Achieved == types.TriTrue {
			stats.AchievedGoals++
		}
		stats.EstimatedHours += goal.EstimatedHours
		if goal.ActualHours != nil {
			stats.ActualHours += *goal.ActualHours
		}
	}
	return stats, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jwdebruin/sprintplan/pkg/types"
)

// CriterionService manages success criteria. Mutating a criterion counts as
// working on its goal, so every criterion mutation re-stamps the parent
// goal's modification timestamp in the same transaction.
type CriterionService struct {
	store types.Store
	now   func() time.Time
}

// NewCriterionService wraps store.
func NewCriterionService(store types.Store) *CriterionService {
	return &CriterionService{store: store, now: time.Now}
}

// WithClock replaces the service's clock and returns the service.
func (c *CriterionService) WithClock(now func() time.Time) *CriterionService {
	c.now = now
	return c
}

// Create validates and persists a new criterion under an existing goal.
func (c *CriterionService) Create(ctx context.Context, goalID, description string) (*types.SuccessCriterion, error) {
	criteria, err := c.CreateBatch(ctx, goalID, []string{description})
	if err != nil {
		return nil, err
	}
	return criteria[0], nil
}

// CreateBatch persists a batch of criteria for one goal as a unit. Every
// description is validated first, violations carrying their batch position;
// when any fails, nothing is persisted.
func (c *CriterionService) CreateBatch(ctx context.Context, goalID string, descriptions []string) ([]*types.SuccessCriterion, error) {
	if !types.ValidID(goalID) {
		return nil, types.ErrInvalidID
	}

	criteria := make([]*types.SuccessCriterion, 0, len(descriptions))
	var violations []string
	for i, desc := range descriptions {
		crit := &types.SuccessCriterion{
			ID:          types.NewID(),
			GoalID:      goalID,
			Description: desc,
		}
		if err := crit.Validate(); err != nil {
			var verr *types.ValidationError
			if errors.As(err, &verr) {
				for _, v := range verr.Violations {
					violations = append(violations, fmt.Sprintf("criterion[%d]: %s", i, v))
				}
				continue
			}
			return nil, err
		}
		criteria = append(criteria, crit)
	}
	if err := types.NewValidationError(violations); err != nil {
		return nil, err
	}

	err := c.store.Transact(ctx, func(tx types.Store) error {
		ok, err := tx.GoalExists(ctx, goalID)
		if err != nil {
			return err
		}
		if !ok {
			return &types.NotFoundError{Kind: "goal", ID: goalID}
		}
		for _, crit := range criteria {
			if err := tx.CreateCriterion(ctx, crit); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return criteria, nil
}

// Get returns the criterion with the given ID.
func (c *CriterionService) Get(ctx context.Context, id string) (*types.SuccessCriterion, error) {
	if !types.ValidID(id) {
		return nil, types.ErrInvalidID
	}
	crit, err := c.store.GetCriterion(ctx, id)
	if errors.Is(err, types.ErrNotFound) {
		return nil, &types.NotFoundError{Kind: "criterion", ID: id}
	}
	return crit, err
}

// ListByGoal returns the goal's criteria in insertion order.
func (c *CriterionService) ListByGoal(ctx context.Context, goalID string) ([]*types.SuccessCriterion, error) {
	if !types.ValidID(goalID) {
		return nil, types.ErrInvalidID
	}
	return c.store.ListCriteriaByGoal(ctx, goalID)
}

// Update validates and applies a partial update, returning the updated
// criterion.
func (c *CriterionService) Update(ctx context.Context, id string, upd types.CriterionUpdate) (*types.SuccessCriterion, error) {
	return c.applyUpdate(ctx, id, func(*types.SuccessCriterion) types.CriterionUpdate {
		return upd
	})
}

// Delete removes the criterion. Returns false when it does not exist.
func (c *CriterionService) Delete(ctx context.Context, id string) (bool, error) {
	if !types.ValidID(id) {
		return false, types.ErrInvalidID
	}
	return c.store.DeleteCriterion(ctx, id)
}

// Complete marks the criterion done.
func (c *CriterionService) Complete(ctx context.Context, id string) (*types.SuccessCriterion, error) {
	return c.setDone(ctx, id, true)
}

// Uncomplete marks the criterion not done.
func (c *CriterionService) Uncomplete(ctx context.Context, id string) (*types.SuccessCriterion, error) {
	return c.setDone(ctx, id, false)
}

// Toggle flips the criterion's done flag.
func (c *CriterionService) Toggle(ctx context.Context, id string) (*types.SuccessCriterion, error) {
	return c.applyUpdate(ctx, id, func(crit *types.SuccessCriterion) types.CriterionUpdate {
		done := !crit.Done
		return types.CriterionUpdate{Done: &done}
	})
}

func (c *CriterionService) setDone(ctx context.Context, id string, done bool) (*types.SuccessCriterion, error) {
	return c.applyUpdate(ctx, id, func(*types.SuccessCriterion) types.CriterionUpdate {
		return types.CriterionUpdate{Done: &done}
	})
}

// applyUpdate loads the criterion, derives the update from its current state,
// validates the result, and persists it together with the parent goal's fresh
// modification timestamp.
func (c *CriterionService) applyUpdate(ctx context.Context, id string, build func(*types.SuccessCriterion) types.CriterionUpdate) (*types.SuccessCriterion, error) {
	if !types.ValidID(id) {
		return nil, types.ErrInvalidID
	}
	var updated *types.SuccessCriterion
	err := c.store.Transact(ctx, func(tx types.Store) error {
		crit, err := tx.GetCriterion(ctx, id)
		if err != nil {
			return err
		}
		upd := build(crit)
		upd.Apply(crit)
		if err := crit.Validate(); err != nil {
			return err
		}
		if err := tx.UpdateCriterion(ctx, id, upd); err != nil {
			return err
		}
		if err := tx.UpdateGoal(ctx, crit.GoalID, types.GoalUpdate{UpdatedAt: c.now().UTC()}); err != nil {
			return err
		}
		updated = crit
		return nil
	})
	if errors.Is(err, types.ErrNotFound) {
		return nil, &types.NotFoundError{Kind: "criterion", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Progress is per-goal completion state. Percentage is rounded to the
// nearest integer and defined as 0 for a goal without criteria.
type Progress struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// ProgressByGoal computes completion progress over the goal's criteria.
func (c *CriterionService) ProgressByGoal(ctx context.Context, goalID string) (*Progress, error) {
	criteria, err := c.ListByGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	p := &Progress{Total: len(criteria)}
	for _, crit := range criteria {
		if crit.Done {
			p.Completed++
		}
	}
	if p.Total > 0 {
		p.Percentage = int(math.Round(float64(p.Completed) / float64(p.Total) * 100))
	}
	return p, nil
}

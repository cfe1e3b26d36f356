package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	bolt "go.etcd.io/bbolt"

	"github.com/jwdebruin/sprintplan/pkg/types"
)

// CreateGoal persists the goal and its sprint and owner index entries.
func (s *Store) CreateGoal(ctx context.Context, goal *types.Goal) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.update(func(tx *bolt.Tx) error {
		if err := putJSON(tx.Bucket(bucketGoals), goal.ID, goal); err != nil {
			return err
		}
		if err := tx.Bucket(bucketGoalsBySprint).Put(indexKey(goal.SprintID, goal.ID), nil); err != nil {
			return err
		}
		return tx.Bucket(bucketGoalsByOwner).Put(indexKey(goal.Owner, goal.ID), nil)
	})
}

// GetGoal returns the goal with the given ID, or types.ErrNotFound.
func (s *Store) GetGoal(ctx context.Context, id string) (*types.Goal, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var goal *types.Goal
	err := s.view(func(tx *bolt.Tx) error {
		var err error
		goal, err = loadGoal(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return goal, nil
}

// ListGoalsBySprint returns the sprint's goals ordered by creation time.
func (s *Store) ListGoalsBySprint(ctx context.Context, sprintID string) ([]*types.Goal, error) {
	return s.listGoals(ctx, bucketGoalsBySprint, sprintID)
}

// ListGoalsByOwner returns the owner's goals across all sprints ordered by
// creation time.
func (s *Store) ListGoalsByOwner(ctx context.Context, owner string) ([]*types.Goal, error) {
	return s.listGoals(ctx, bucketGoalsByOwner, owner)
}

// listGoals loads all goals matched by an index prefix scan. The index keys
// order by goal ID, so the creation-time ordering is restored after loading.
func (s *Store) listGoals(ctx context.Context, idx []byte, parent string) ([]*types.Goal, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	goals := []*types.Goal{}
	err := s.view(func(tx *bolt.Tx) error {
		return scanIndex(tx.Bucket(idx), parent, func(goalID string) error {
			goal, err := loadGoal(tx, goalID)
			if err != nil {
				return err
			}
			goals = append(goals, goal)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(goals, func(i, j int) bool {
		if !goals[i].CreatedAt.Equal(goals[j].CreatedAt) {
			return goals[i].CreatedAt.Before(goals[j].CreatedAt)
		}
		return goals[i].ID < goals[j].ID
	})
	return goals, nil
}

// UpdateGoal applies upd to the stored goal, moving the owner index entry
// when the owner changes. A missing goal returns types.ErrNotFound.
func (s *Store) UpdateGoal(ctx context.Context, id string, upd types.GoalUpdate) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.update(func(tx *bolt.Tx) error {
		goal, err := loadGoal(tx, id)
		if err != nil {
			return err
		}
		oldOwner := goal.Owner
		upd.Apply(goal)
		if goal.Owner != oldOwner {
			ownerIdx := tx.Bucket(bucketGoalsByOwner)
			if err := ownerIdx.Delete(indexKey(oldOwner, id)); err != nil {
				return err
			}
			if err := ownerIdx.Put(indexKey(goal.Owner, id), nil); err != nil {
				return err
			}
		}
		return putJSON(tx.Bucket(bucketGoals), id, goal)
	})
}

// DeleteGoal removes the goal and its success criteria in one transaction.
// Returns false with no error when the goal does not exist.
func (s *Store) DeleteGoal(ctx context.Context, id string) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	deleted := false
	err := s.update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketGoals).Get([]byte(id)) == nil {
			return nil
		}
		if err := deleteGoalTree(tx, id); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// GoalExists reports whether a goal with the given ID is stored.
func (s *Store) GoalExists(ctx context.Context, id string) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	exists := false
	err := s.view(func(tx *bolt.Tx) error {
		exists = tx.Bucket(bucketGoals).Get([]byte(id)) != nil
		return nil
	})
	if err != nil {
		return false, err
	}
	return exists, nil
}

// deleteGoalTree removes a goal, its index entries, and all of its success
// criteria. The caller has already confirmed the goal exists.
func deleteGoalTree(tx *bolt.Tx, goalID string) error {
	goal, err := loadGoal(tx, goalID)
	if err != nil {
		return err
	}

	var criterionIDs []string
	if err := scanIndex(tx.Bucket(bucketCriteriaByGoal), goalID, func(critID string) error {
		criterionIDs = append(criterionIDs, critID)
		return nil
	}); err != nil {
		return err
	}
	criteria := tx.Bucket(bucketCriteria)
	critIdx := tx.Bucket(bucketCriteriaByGoal)
	for _, critID := range criterionIDs {
		if err := criteria.Delete([]byte(critID)); err != nil {
			return err
		}
		if err := critIdx.Delete(indexKey(goalID, critID)); err != nil {
			return err
		}
	}

	if err := tx.Bucket(bucketGoalsBySprint).Delete(indexKey(goal.SprintID, goalID)); err != nil {
		return err
	}
	if err := tx.Bucket(bucketGoalsByOwner).Delete(indexKey(goal.Owner, goalID)); err != nil {
		return err
	}
	return tx.Bucket(bucketGoals).Delete([]byte(goalID))
}

func loadGoal(tx *bolt.Tx, id string) (*types.Goal, error) {
	raw := tx.Bucket(bucketGoals).Get([]byte(id))
	if raw == nil {
		return nil, types.ErrNotFound
	}
	var goal types.Goal
	if err := json.Unmarshal(raw, &goal); err != nil {
		return nil, fmt.Errorf("decoding goal %s: %w", id, err)
	}
	return &goal, nil
}

package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	bolt "go.etcd.io/bbolt"

	"github.com/jwdebruin/sprintplan/pkg/types"
)

// CreateCriterion persists the success criterion and its goal index entry.
func (s *Store) CreateCriterion(ctx context.Context, crit *types.SuccessCriterion) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.update(func(tx *bolt.Tx) error {
		if err := putJSON(tx.Bucket(bucketCriteria), crit.ID, crit); err != nil {
			return err
		}
		return tx.Bucket(bucketCriteriaByGoal).Put(indexKey(crit.GoalID, crit.ID), nil)
	})
}

// GetCriterion returns the criterion with the given ID, or types.ErrNotFound.
func (s *Store) GetCriterion(ctx context.Context, id string) (*types.SuccessCriterion, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var crit *types.SuccessCriterion
	err := s.view(func(tx *bolt.Tx) error {
		var err error
		crit, err = loadCriterion(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return crit, nil
}

// ListCriteriaByGoal returns the goal's criteria ordered by ID. Generated IDs
// are time-ordered, so for locally created criteria this is insertion order.
func (s *Store) ListCriteriaByGoal(ctx context.Context, goalID string) ([]*types.SuccessCriterion, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	criteria := []*types.SuccessCriterion{}
	err := s.view(func(tx *bolt.Tx) error {
		return scanIndex(tx.Bucket(bucketCriteriaByGoal), goalID, func(critID string) error {
			crit, err := loadCriterion(tx, critID)
			if err != nil {
				return err
			}
			criteria = append(criteria, crit)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(criteria, func(i, j int) bool { return criteria[i].ID < criteria[j].ID })
	return criteria, nil
}

// UpdateCriterion applies upd to the stored criterion. A missing criterion
// returns types.ErrNotFound.
func (s *Store) UpdateCriterion(ctx context.Context, id string, upd types.CriterionUpdate) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.update(func(tx *bolt.Tx) error {
		crit, err := loadCriterion(tx, id)
		if err != nil {
			return err
		}
		upd.Apply(crit)
		return putJSON(tx.Bucket(bucketCriteria), id, crit)
	})
}

// DeleteCriterion removes the criterion and its index entry. Returns false
// with no error when the criterion does not exist.
func (s *Store) DeleteCriterion(ctx context.Context, id string) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	deleted := false
	err := s.update(func(tx *bolt.Tx) error {
		crit, err := loadCriterion(tx, id)
		if err != nil {
			if err == types.ErrNotFound {
				return nil
			}
			return err
		}
		if err := tx.Bucket(bucketCriteriaByGoal).Delete(indexKey(crit.GoalID, id)); err != nil {
			return err
		}
		if err := tx.Bucket(bucketCriteria).Delete([]byte(id)); err != nil {
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

// CriterionExists reports whether a criterion with the given ID is stored.
func (s *Store) CriterionExists(ctx context.Context, id string) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	exists := false
	err := s.view(func(tx *bolt.Tx) error {
		exists = tx.Bucket(bucketCriteria).Get([]byte(id)) != nil
		return nil
	})
	if err != nil {
		return false, err
	}
	return exists, nil
}

func loadCriterion(tx *bolt.Tx, id string) (*types.SuccessCriterion, error) {
	raw := tx.Bucket(bucketCriteria).Get([]byte(id))
	if raw == nil {
		return nil, types.ErrNotFound
	}
	var crit types.SuccessCriterion
	if err := json.Unmarshal(raw, &crit); err != nil {
		return nil, fmt.Errorf("decoding criterion %s: %w", id, err)
	}
	return &crit, nil
}

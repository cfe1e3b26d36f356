package boltstore

import (
	"context"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/jwdebruin/sprintplan/pkg/types"
)

// CreateSprint persists the sprint and its sequence-number index entry.
// A taken sequence number returns types.ErrSequenceInUse.
func (s *Store) CreateSprint(ctx context.Context, sprint *types.Sprint) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.update(func(tx *bolt.Tx) error {
		seqIdx := tx.Bucket(bucketSprintBySeq)
		seqKey := u64(uint64(sprint.SequenceNumber))
		if seqIdx.Get(seqKey) != nil {
			return types.ErrSequenceInUse
		}
		if err := putJSON(tx.Bucket(bucketSprints), sprint.ID, sprint); err != nil {
			return err
		}
		return seqIdx.Put(seqKey, []byte(sprint.ID))
	})
}

// GetSprint returns the sprint with the given ID, or types.ErrNotFound.
func (s *Store) GetSprint(ctx context.Context, id string) (*types.Sprint, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var sprint *types.Sprint
	err := s.view(func(tx *bolt.Tx) error {
		var err error
		sprint, err = loadSprint(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sprint, nil
}

// GetSprintBySequence returns the sprint holding the given sequence number,
// or types.ErrNotFound.
func (s *Store) GetSprintBySequence(ctx context.Context, seq int) (*types.Sprint, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var sprint *types.Sprint
	err := s.view(func(tx *bolt.Tx) error {
		id := tx.Bucket(bucketSprintBySeq).Get(u64(uint64(seq)))
		if id == nil {
			return types.ErrNotFound
		}
		var err error
		sprint, err = loadSprint(tx, string(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return sprint, nil
}

// ListSprints returns all sprints ordered by sequence number ascending. The
// sequence index is already in that order, so this is a single forward scan.
func (s *Store) ListSprints(ctx context.Context) ([]*types.Sprint, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	sprints := []*types.Sprint{}
	err := s.view(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketSprintBySeq).Cursor()
		for k, id := c.First(); k != nil; k, id = c.Next() {
			sprint, err := loadSprint(tx, string(id))
			if err != nil {
				return err
			}
			sprints = append(sprints, sprint)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sprints, nil
}

// GetLatestSprint returns the sprint with the highest sequence number, or
// (nil, nil) when the store holds no sprints.
func (s *Store) GetLatestSprint(ctx context.Context) (*types.Sprint, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var sprint *types.Sprint
	err := s.view(func(tx *bolt.Tx) error {
		_, id := tx.Bucket(bucketSprintBySeq).Cursor().Last()
		if id == nil {
			return nil
		}
		var err error
		sprint, err = loadSprint(tx, string(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return sprint, nil
}

// GetCurrentSprint returns the highest-numbered sprint whose date range
// contains date, or (nil, nil) when no sprint does. The index orders by
// sequence only, so the date check is an in-memory filter on the reverse
// scan, stopping at the first hit.
func (s *Store) GetCurrentSprint(ctx context.Context, date string) (*types.Sprint, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var current *types.Sprint
	err := s.view(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketSprintBySeq).Cursor()
		for k, id := c.Last(); k != nil; k, id = c.Prev() {
			sprint, err := loadSprint(tx, string(id))
			if err != nil {
				return err
			}
			if sprint.Contains(date) {
				current = sprint
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return current, nil
}

// UpdateSprint applies upd to the stored sprint, maintaining the sequence
// index when the number changes. A missing sprint returns types.ErrNotFound;
// moving to a number held by another sprint returns types.ErrSequenceInUse.
func (s *Store) UpdateSprint(ctx context.Context, id string, upd types.SprintUpdate) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.update(func(tx *bolt.Tx) error {
		sprint, err := loadSprint(tx, id)
		if err != nil {
			return err
		}
		oldSeq := sprint.SequenceNumber
		upd.Apply(sprint)
		seqIdx := tx.Bucket(bucketSprintBySeq)
		if sprint.SequenceNumber != oldSeq {
			newKey := u64(uint64(sprint.SequenceNumber))
			if holder := seqIdx.Get(newKey); holder != nil && string(holder) != id {
				return types.ErrSequenceInUse
			}
			if err := seqIdx.Delete(u64(uint64(oldSeq))); err != nil {
				return err
			}
			if err := seqIdx.Put(newKey, []byte(id)); err != nil {
				return err
			}
		}
		return putJSON(tx.Bucket(bucketSprints), id, sprint)
	})
}

// DeleteSprint removes the sprint together with its goals and their success
// criteria in one transaction. Returns false with no error when the sprint
// does not exist.
func (s *Store) DeleteSprint(ctx context.Context, id string) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	deleted := false
	err := s.update(func(tx *bolt.Tx) error {
		sprints := tx.Bucket(bucketSprints)
		raw := sprints.Get([]byte(id))
		if raw == nil {
			return nil
		}
		var sprint types.Sprint
		if err := json.Unmarshal(raw, &sprint); err != nil {
			return fmt.Errorf("decoding sprint %s: %w", id, err)
		}

		var goalIDs []string
		if err := scanIndex(tx.Bucket(bucketGoalsBySprint), id, func(goalID string) error {
			goalIDs = append(goalIDs, goalID)
			return nil
		}); err != nil {
			return err
		}
		for _, goalID := range goalIDs {
			if err := deleteGoalTree(tx, goalID); err != nil {
				return err
			}
		}

		if err := tx.Bucket(bucketSprintBySeq).Delete(u64(uint64(sprint.SequenceNumber))); err != nil {
			return err
		}
		if err := sprints.Delete([]byte(id)); err != nil {
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

// SprintExists reports whether a sprint with the given ID is stored.
func (s *Store) SprintExists(ctx context.Context, id string) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	exists := false
	err := s.view(func(tx *bolt.Tx) error {
		exists = tx.Bucket(bucketSprints).Get([]byte(id)) != nil
		return nil
	})
	if err != nil {
		return false, err
	}
	return exists, nil
}

func loadSprint(tx *bolt.Tx, id string) (*types.Sprint, error) {
	raw := tx.Bucket(bucketSprints).Get([]byte(id))
	if raw == nil {
		return nil, types.ErrNotFound
	}
	var sprint types.Sprint
	if err := json.Unmarshal(raw, &sprint); err != nil {
		return nil, fmt.Errorf("decoding sprint %s: %w", id, err)
	}
	return &sprint, nil
}

func putJSON(b *bolt.Bucket, id string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", id, err)
	}
	return b.Put([]byte(id), raw)
}

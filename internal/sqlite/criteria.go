package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jwdebruin/sprintplan/pkg/types"
)

const criterionColumns = "id, goal_id, beschrijving, voltooid"

// CreateCriterion inserts a success criterion.
func (s *Store) CreateCriterion(ctx context.Context, c *types.SuccessCriterion) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.q.ExecContext(ctx,
		"INSERT INTO criteria (id, goal_id, beschrijving, voltooid) VALUES (?, ?, ?, ?)",
		c.ID, c.GoalID, c.Description, boolToInt(c.Done),
	)
	if err != nil {
		return fmt.Errorf("inserting criterion: %w", err)
	}
	return nil
}

// GetCriterion retrieves a criterion by ID. Returns types.ErrNotFound when
// absent.
func (s *Store) GetCriterion(ctx context.Context, id string) (*types.SuccessCriterion, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	row := s.q.QueryRowContext(ctx, "SELECT "+criterionColumns+" FROM criteria WHERE id = ?", id)
	var c types.SuccessCriterion
	var done int
	if err := row.Scan(&c.ID, &c.GoalID, &c.Description, &done); err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting criterion %s: %w", id, err)
	}
	c.Done = done == 1
	return &c, nil
}

// ListCriteriaByGoal returns the goal's criteria ordered by ID. Generated IDs
// are time-ordered, and imported foreign IDs keep the same order on every
// backend.
func (s *Store) ListCriteriaByGoal(ctx context.Context, goalID string) ([]*types.SuccessCriterion, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+criterionColumns+" FROM criteria WHERE goal_id = ? ORDER BY id ASC", goalID)
	if err != nil {
		return nil, fmt.Errorf("listing criteria: %w", err)
	}
	defer rows.Close()

	criteria := []*types.SuccessCriterion{}
	for rows.Next() {
		var c types.SuccessCriterion
		var done int
		if err := rows.Scan(&c.ID, &c.GoalID, &c.Description, &done); err != nil {
			return nil, fmt.Errorf("scanning criterion: %w", err)
		}
		c.Done = done == 1
		criteria = append(criteria, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating criteria: %w", err)
	}
	return criteria, nil
}

// UpdateCriterion applies a partial update. Returns types.ErrNotFound when
// the criterion does not exist.
func (s *Store) UpdateCriterion(ctx context.Context, id string, upd types.CriterionUpdate) error {
	if err := s.ready(); err != nil {
		return err
	}

	var sets []string
	var args []any
	if upd.Description != nil {
		sets = append(sets, "beschrijving = ?")
		args = append(args, *upd.Description)
	}
	if upd.Done != nil {
		sets = append(sets, "voltooid = ?")
		args = append(args, boolToInt(*upd.Done))
	}
	if len(sets) == 0 {
		ok, err := s.exists(ctx, "criteria", id)
		if err != nil {
			return err
		}
		if !ok {
			return types.ErrNotFound
		}
		return nil
	}

	args = append(args, id)
	res, err := s.q.ExecContext(ctx,
		"UPDATE criteria SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("updating criterion: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// DeleteCriterion removes a criterion. Returns (false, nil) when it does not
// exist.
func (s *Store) DeleteCriterion(ctx context.Context, id string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	res, err := s.q.ExecContext(ctx, "DELETE FROM criteria WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting criterion: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}
	return n > 0, nil
}

// CriterionExists reports whether a criterion with the given ID exists.
func (s *Store) CriterionExists(ctx context.Context, id string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.exists(ctx, "criteria", id)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

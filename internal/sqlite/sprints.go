package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jwdebruin/sprintplan/pkg/types"
)

const sprintColumns = "id, volgnummer, startdatum, einddatum"

// CreateSprint inserts a sprint. A duplicate sequence number surfaces as
// types.ErrSequenceInUse.
func (s *Store) CreateSprint(ctx context.Context, sp *types.Sprint) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.q.ExecContext(ctx,
		"INSERT INTO sprints (id, volgnummer, startdatum, einddatum) VALUES (?, ?, ?, ?)",
		sp.ID, sp.SequenceNumber, sp.StartDate, sp.EndDate,
	)
	if err != nil {
		if strings.Contains(err.Error(), "sprints.volgnummer") {
			return types.ErrSequenceInUse
		}
		return fmt.Errorf("inserting sprint: %w", err)
	}
	return nil
}

// GetSprint retrieves a sprint by ID. Returns types.ErrNotFound when absent.
func (s *Store) GetSprint(ctx context.Context, id string) (*types.Sprint, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	row := s.q.QueryRowContext(ctx, "SELECT "+sprintColumns+" FROM sprints WHERE id = ?", id)
	return scanSprint(row)
}

// ListSprints returns every sprint ordered by sequence number.
func (s *Store) ListSprints(ctx context.Context) ([]*types.Sprint, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.q.QueryContext(ctx, "SELECT "+sprintColumns+" FROM sprints ORDER BY volgnummer ASC")
	if err != nil {
		return nil, fmt.Errorf("listing sprints: %w", err)
	}
	defer rows.Close()

	sprints := []*types.Sprint{}
	for rows.Next() {
		var sp types.Sprint
		if err := rows.Scan(&sp.ID, &sp.SequenceNumber, &sp.StartDate, &sp.EndDate); err != nil {
			return nil, fmt.Errorf("scanning sprint: %w", err)
		}
		sprints = append(sprints, &sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sprints: %w", err)
	}
	return sprints, nil
}

// GetSprintBySequence retrieves the sprint with the given sequence number.
// Returns types.ErrNotFound when absent.
func (s *Store) GetSprintBySequence(ctx context.Context, seq int) (*types.Sprint, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	row := s.q.QueryRowContext(ctx, "SELECT "+sprintColumns+" FROM sprints WHERE volgnummer = ?", seq)
	return scanSprint(row)
}

// GetLatestSprint returns the sprint with the highest sequence number, or
// (nil, nil) when no sprints exist.
func (s *Store) GetLatestSprint(ctx context.Context) (*types.Sprint, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	row := s.q.QueryRowContext(ctx,
		"SELECT "+sprintColumns+" FROM sprints ORDER BY volgnummer DESC LIMIT 1")
	sp, err := scanSprint(row)
	if err == types.ErrNotFound {
		return nil, nil
	}
	return sp, err
}

// GetCurrentSprint returns the sprint whose date range contains date, the
// highest sequence number winning when several qualify, or (nil, nil) when
// none does. Date comparison is lexicographic on the fixed-width format.
func (s *Store) GetCurrentSprint(ctx context.Context, date string) (*types.Sprint, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	row := s.q.QueryRowContext(ctx,
		"SELECT "+sprintColumns+" FROM sprints WHERE startdatum <= ? AND einddatum >= ? ORDER BY volgnummer DESC LIMIT 1",
		date, date,
	)
	sp, err := scanSprint(row)
	if err == types.ErrNotFound {
		return nil, nil
	}
	return sp, err
}

// UpdateSprint applies a partial update. Returns types.ErrNotFound when the
// sprint does not exist, types.ErrSequenceInUse on a sequence collision.
func (s *Store) UpdateSprint(ctx context.Context, id string, upd types.SprintUpdate) error {
	if err := s.ready(); err != nil {
		return err
	}

	var sets []string
	var args []any
	if upd.SequenceNumber != nil {
		sets = append(sets, "volgnummer = ?")
		args = append(args, *upd.SequenceNumber)
	}
	if upd.StartDate != nil {
		sets = append(sets, "startdatum = ?")
		args = append(args, *upd.StartDate)
	}
	if upd.EndDate != nil {
		sets = append(sets, "einddatum = ?")
		args = append(args, *upd.EndDate)
	}
	if len(sets) == 0 {
		// Nothing to change; still report a missing target.
		ok, err := s.exists(ctx, "sprints", id)
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
		"UPDATE sprints SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		if strings.Contains(err.Error(), "sprints.volgnummer") {
			return types.ErrSequenceInUse
		}
		return fmt.Errorf("updating sprint: %w", err)
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

// DeleteSprint removes a sprint together with all its goals and their
// criteria, children first, in one transaction. Returns (false, nil) when the
// sprint does not exist.
func (s *Store) DeleteSprint(ctx context.Context, id string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	ok, err := s.exists(ctx, "sprints", id)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	err = s.Transact(ctx, func(tx types.Store) error {
		ts := tx.(*Store)
		if _, err := ts.q.ExecContext(ctx,
			"DELETE FROM criteria WHERE goal_id IN (SELECT id FROM goals WHERE sprint_id = ?)", id); err != nil {
			return fmt.Errorf("deleting sprint criteria: %w", err)
		}
		if _, err := ts.q.ExecContext(ctx, "DELETE FROM goals WHERE sprint_id = ?", id); err != nil {
			return fmt.Errorf("deleting sprint goals: %w", err)
		}
		if _, err := ts.q.ExecContext(ctx, "DELETE FROM sprints WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting sprint: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// SprintExists reports whether a sprint with the given ID exists.
func (s *Store) SprintExists(ctx context.Context, id string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.exists(ctx, "sprints", id)
}

func scanSprint(row *sql.Row) (*types.Sprint, error) {
	var sp types.Sprint
	if err := row.Scan(&sp.ID, &sp.SequenceNumber, &sp.StartDate, &sp.EndDate); err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("scanning sprint: %w", err)
	}
	return &sp, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jwdebruin/sprintplan/pkg/types"
)

// timeLayout preserves sub-second precision so a stored goal round-trips with
// identical timestamps. Fractional digits are fixed-width, not trimmed, so
// lexicographic order of stored values is chronological order and ORDER BY on
// timestamp columns stays correct.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const goalColumns = "id, sprint_id, titel, beschrijving, eigenaar, geschatte_uren, " +
	"werkelijke_uren, behaald, toelichting, geleerde_lessen, aangemaakt_op, gewijzigd_op"

// CreateGoal inserts a goal. Parent existence is the service layer's duty;
// the foreign key still rejects a dangling sprint reference.
func (s *Store) CreateGoal(ctx context.Context, g *types.Goal) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.q.ExecContext(ctx,
		"INSERT INTO goals ("+goalColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		g.ID, g.SprintID, g.Title, g.Description, g.Owner, g.EstimatedHours,
		nullFloat(g.ActualHours), triToNull(g.Achieved), nullString(g.CompletionNote),
		nullString(g.LessonsLearned), g.CreatedAt.Format(timeLayout), g.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting goal: %w", err)
	}
	return nil
}

// GetGoal retrieves a goal by ID. Returns types.ErrNotFound when absent.
func (s *Store) GetGoal(ctx context.Context, id string) (*types.Goal, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	row := s.q.QueryRowContext(ctx, "SELECT "+goalColumns+" FROM goals WHERE id = ?", id)
	g, err := scanGoal(row.Scan)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting goal %s: %w", id, err)
	}
	return g, nil
}

// ListGoalsBySprint returns the sprint's goals ordered by creation time.
func (s *Store) ListGoalsBySprint(ctx context.Context, sprintID string) ([]*types.Goal, error) {
	return s.listGoals(ctx, "sprint_id = ?", sprintID)
}

// ListGoalsByOwner returns all goals with the given owner, newest sprint
// first within creation order.
func (s *Store) ListGoalsByOwner(ctx context.Context, owner string) ([]*types.Goal, error) {
	return s.listGoals(ctx, "eigenaar = ?", owner)
}

func (s *Store) listGoals(ctx context.Context, where string, arg any) ([]*types.Goal, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+goalColumns+" FROM goals WHERE "+where+" ORDER BY aangemaakt_op ASC, id ASC", arg)
	if err != nil {
		return nil, fmt.Errorf("listing goals: %w", err)
	}
	defer rows.Close()

	goals := []*types.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning goal: %w", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating goals: %w", err)
	}
	return goals, nil
}

// UpdateGoal applies a partial update and writes the new modification
// timestamp. Returns types.ErrNotFound when the goal does not exist.
func (s *Store) UpdateGoal(ctx context.Context, id string, upd types.GoalUpdate) error {
	if err := s.ready(); err != nil {
		return err
	}

	sets := []string{"gewijzigd_op = ?"}
	args := []any{upd.UpdatedAt.Format(timeLayout)}
	if upd.Title != nil {
		sets = append(sets, "titel = ?")
		args = append(args, *upd.Title)
	}
	if upd.Description != nil {
		sets = append(sets, "beschrijving = ?")
		args = append(args, *upd.Description)
	}
	if upd.Owner != nil {
		sets = append(sets, "eigenaar = ?")
		args = append(args, *upd.Owner)
	}
	if upd.EstimatedHours != nil {
		sets = append(sets, "geschatte_uren = ?")
		args = append(args, *upd.EstimatedHours)
	}
	if upd.ActualHours != nil {
		sets = append(sets, "werkelijke_uren = ?")
		args = append(args, *upd.ActualHours)
	}
	if upd.Achieved != nil {
		sets = append(sets, "behaald = ?")
		args = append(args, triToNull(*upd.Achieved))
	}
	if upd.CompletionNote != nil {
		sets = append(sets, "toelichting = ?")
		args = append(args, *upd.CompletionNote)
	}
	if upd.LessonsLearned != nil {
		sets = append(sets, "geleerde_lessen = ?")
		args = append(args, *upd.LessonsLearned)
	}

	args = append(args, id)
	res, err := s.q.ExecContext(ctx,
		"UPDATE goals SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("updating goal: %w", err)
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

// DeleteGoal removes a goal and its criteria, children first, in one
// transaction. Returns (false, nil) when the goal does not exist.
func (s *Store) DeleteGoal(ctx context.Context, id string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	ok, err := s.exists(ctx, "goals", id)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	err = s.Transact(ctx, func(tx types.Store) error {
		ts := tx.(*Store)
		if _, err := ts.q.ExecContext(ctx, "DELETE FROM criteria WHERE goal_id = ?", id); err != nil {
			return fmt.Errorf("deleting goal criteria: %w", err)
		}
		if _, err := ts.q.ExecContext(ctx, "DELETE FROM goals WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting goal: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// GoalExists reports whether a goal with the given ID exists.
func (s *Store) GoalExists(ctx context.Context, id string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.exists(ctx, "goals", id)
}

// scanGoal hydrates one row into a Goal, translating nullable columns and
// the integer-encoded tri-state at the boundary.
func scanGoal(scan func(dest ...any) error) (*types.Goal, error) {
	var g types.Goal
	var actual sql.NullFloat64
	var achieved sql.NullInt64
	var note, lessons sql.NullString
	var createdAt, updatedAt string

	err := scan(&g.ID, &g.SprintID, &g.Title, &g.Description, &g.Owner, &g.EstimatedHours,
		&actual, &achieved, &note, &lessons, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if actual.Valid {
		g.ActualHours = &actual.Float64
	}
	g.Achieved = triFromNull(achieved)
	if note.Valid {
		g.CompletionNote = &note.String
	}
	if lessons.Valid {
		g.LessonsLearned = &lessons.String
	}
	if g.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parsing aangemaakt_op: %w", err)
	}
	if g.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing gewijzigd_op: %w", err)
	}
	return &g, nil
}

// triToNull encodes a TriState as a nullable integer: NULL for unset, 1 for
// true, 0 for false.
func triToNull(t types.TriState) any {
	switch t {
	case types.TriTrue:
		return int64(1)
	case types.TriFalse:
		return int64(0)
	default:
		return nil
	}
}

func triFromNull(v sql.NullInt64) types.TriState {
	switch {
	case !v.Valid:
		return types.TriUnset
	case v.Int64 == 1:
		return types.TriTrue
	default:
		return types.TriFalse
	}
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

// Package service holds the entity services. Each service wraps one storage
// adapter and is the single place where validation, identifier generation,
// timestamp stamping, and parent-existence checks happen; the storage layer
// below persists whatever it is handed.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jwdebruin/sprintplan/pkg/types"
)

// SprintDays is the nominal sprint length. Suggested end dates span this many
// days inclusive of the start.
const SprintDays = 14

// SprintService manages sprints.
type SprintService struct {
	store types.Store
	now   func() time.Time
}

// NewSprintService wraps store. The clock is the real one; tests swap it via
// WithClock.
func NewSprintService(store types.Store) *SprintService {
	return &SprintService{store: store, now: time.Now}
}

// WithClock replaces the service's clock and returns the service.
func (s *SprintService) WithClock(now func() time.Time) *SprintService {
	s.now = now
	return s
}

// NewSprint carries the caller's input for sprint creation. A zero
// SequenceNumber means the next available number; empty dates mean the
// suggested ones.
type NewSprint struct {
	SequenceNumber int
	StartDate      string
	EndDate        string
}

// Create validates and persists a new sprint, filling in the sequence number
// and dates where the caller left them to the service.
func (s *SprintService) Create(ctx context.Context, in NewSprint) (*types.Sprint, error) {
	sprint := &types.Sprint{
		ID:             types.NewID(),
		SequenceNumber: in.SequenceNumber,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
	}
	if sprint.SequenceNumber == 0 {
		seq, err := s.NextSequenceNumber(ctx)
		if err != nil {
			return nil, err
		}
		sprint.SequenceNumber = seq
	}
	if sprint.StartDate == "" && sprint.EndDate == "" {
		start, end, err := s.SuggestedDates(ctx)
		if err != nil {
			return nil, err
		}
		sprint.StartDate, sprint.EndDate = start, end
	}
	if err := sprint.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreateSprint(ctx, sprint); err != nil {
		return nil, err
	}
	return sprint, nil
}

// Get returns the sprint with the given ID.
func (s *SprintService) Get(ctx context.Context, id string) (*types.Sprint, error) {
	if !types.ValidID(id) {
		return nil, types.ErrInvalidID
	}
	sprint, err := s.store.GetSprint(ctx, id)
	if errors.Is(err, types.ErrNotFound) {
		return nil, &types.NotFoundError{Kind: "sprint", ID: id}
	}
	return sprint, err
}

// List returns all sprints ordered by sequence number.
func (s *SprintService) List(ctx context.Context) ([]*types.Sprint, error) {
	return s.store.ListSprints(ctx)
}

// BySequence returns the sprint with the given sequence number.
func (s *SprintService) BySequence(ctx context.Context, seq int) (*types.Sprint, error) {
	sprint, err := s.store.GetSprintBySequence(ctx, seq)
	if errors.Is(err, types.ErrNotFound) {
		return nil, &types.NotFoundError{Kind: "sprint", ID: fmt.Sprintf("#%d", seq)}
	}
	return sprint, err
}

// Latest returns the sprint with the highest sequence number, or nil when no
// sprints exist.
func (s *SprintService) Latest(ctx context.Context) (*types.Sprint, error) {
	return s.store.GetLatestSprint(ctx)
}

// Current returns the sprint whose date range contains today, or nil when no
// sprint does. When ranges overlap the highest sequence number wins.
func (s *SprintService) Current(ctx context.Context) (*types.Sprint, error) {
	return s.store.GetCurrentSprint(ctx, s.today())
}

// Update validates and applies a partial update, returning the updated
// sprint.
func (s *SprintService) Update(ctx context.Context, id string, upd types.SprintUpdate) (*types.Sprint, error) {
	if !types.ValidID(id) {
		return nil, types.ErrInvalidID
	}
	var updated *types.Sprint
	err := s.store.Transact(ctx, func(tx types.Store) error {
		sprint, err := tx.GetSprint(ctx, id)
		if err != nil {
			return err
		}
		upd.Apply(sprint)
		if err := sprint.Validate(); err != nil {
			return err
		}
		if err := tx.UpdateSprint(ctx, id, upd); err != nil {
			return err
		}
		updated = sprint
		return nil
	})
	if errors.Is(err, types.ErrNotFound) {
		return nil, &types.NotFoundError{Kind: "sprint", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the sprint and everything under it. Returns false when the
// sprint does not exist.
func (s *SprintService) Delete(ctx context.Context, id string) (bool, error) {
	if !types.ValidID(id) {
		return false, types.ErrInvalidID
	}
	return s.store.DeleteSprint(ctx, id)
}

// NextSequenceNumber returns one past the highest sequence number in use, or
// 1 for an empty store.
func (s *SprintService) NextSequenceNumber(ctx context.Context) (int, error) {
	latest, err := s.store.GetLatestSprint(ctx)
	if err != nil {
		return 0, err
	}
	if latest == nil {
		return 1, nil
	}
	return latest.SequenceNumber + 1, nil
}

// SuggestedDates proposes a date range for the next sprint: the day after the
// latest sprint's end, or with no sprints the first working day on or after
// today. The range spans SprintDays days inclusive.
func (s *SprintService) SuggestedDates(ctx context.Context) (start, end string, err error) {
	latest, err := s.store.GetLatestSprint(ctx)
	if err != nil {
		return "", "", err
	}

	var from time.Time
	if latest != nil {
		prev, err := time.Parse(types.DateLayout, latest.EndDate)
		if err != nil {
			return "", "", fmt.Errorf("parsing latest sprint end date: %w", err)
		}
		from = prev.AddDate(0, 0, 1)
	} else {
		from = s.now()
		switch from.Weekday() {
		case time.Saturday:
			from = from.AddDate(0, 0, 2)
		case time.Sunday:
			from = from.AddDate(0, 0, 1)
		}
	}
	to := from.AddDate(0, 0, SprintDays-1)
	return from.Format(types.DateLayout), to.Format(types.DateLayout), nil
}

func (s *SprintService) today() string {
	return s.now().Format(types.DateLayout)
}

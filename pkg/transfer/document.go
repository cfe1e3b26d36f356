// Package transfer implements JSON export and import of the full sprint
// tree. The document layout is the stable wire format: field names and types
// never change without a version bump, and they are identical regardless of
// which storage backend produced them.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jwdebruin/sprintplan/pkg/types"
)

// DocumentVersion is the wire format version written on export.
const DocumentVersion = "1.0"

// Document is the top-level export structure.
type Document struct {
	Version    string         `json:"version"`
	ExportedAt string         `json:"exported_at"`
	Sprints    []SprintRecord `json:"sprints"`
}

// SprintRecord is a sprint with its goals nested inline.
type SprintRecord struct {
	types.Sprint
	Goals []GoalRecord `json:"goals"`
}

// GoalRecord is a goal with its success criteria nested inline.
type GoalRecord struct {
	types.Goal
	SuccessCriteria []CriterionRecord `json:"success_criteria"`
}

// CriterionRecord is the wire form of a success criterion, which matches the
// entity exactly.
type CriterionRecord = types.SuccessCriterion

// Service exports and imports documents against one storage adapter.
type Service struct {
	store types.Store
	now   func() time.Time
}

// NewService wraps store.
func NewService(store types.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// WithClock replaces the service's clock and returns the service.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ExportAll builds a document holding every sprint with its full subtree.
func (s *Service) ExportAll(ctx context.Context) (*Document, error) {
	sprints, err := s.store.ListSprints(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sprints: %w", err)
	}
	doc := s.newDocument()
	for _, sprint := range sprints {
		record, err := s.exportSprint(ctx, sprint)
		if err != nil {
			return nil, err
		}
		doc.Sprints = append(doc.Sprints, *record)
	}
	return doc, nil
}

// ExportSprint builds a document holding one sprint with its subtree, or
// (nil, nil) when no sprint has the given ID.
func (s *Service) ExportSprint(ctx context.Context, sprintID string) (*Document, error) {
	if !types.ValidID(sprintID) {
		return nil, types.ErrInvalidID
	}
	sprint, err := s.store.GetSprint(ctx, sprintID)
	if errors.Is(err, types.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	record, err := s.exportSprint(ctx, sprint)
	if err != nil {
		return nil, err
	}
	doc := s.newDocument()
	doc.Sprints = append(doc.Sprints, *record)
	return doc, nil
}

func (s *Service) newDocument() *Document {
	return &Document{
		Version:    DocumentVersion,
		ExportedAt: s.now().UTC().Format(time.RFC3339),
		Sprints:    []SprintRecord{},
	}
}

func (s *Service) exportSprint(ctx context.Context, sprint *types.Sprint) (*SprintRecord, error) {
	record := &SprintRecord{Sprint: *sprint, Goals: []GoalRecord{}}
	goals, err := s.store.ListGoalsBySprint(ctx, sprint.ID)
	if err != nil {
		return nil, fmt.Errorf("listing goals of sprint %s: %w", sprint.ID, err)
	}
	for _, goal := range goals {
		grec := GoalRecord{Goal: *goal, SuccessCriteria: []CriterionRecord{}}
		criteria, err := s.store.ListCriteriaByGoal(ctx, goal.ID)
		if err != nil {
			return nil, fmt.Errorf("listing criteria of goal %s: %w", goal.ID, err)
		}
		for _, crit := range criteria {
			grec.SuccessCriteria = append(grec.SuccessCriteria, *crit)
		}
		record.Goals = append(record.Goals, grec)
	}
	return record, nil
}

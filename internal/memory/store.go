// Package memory implements an in-memory storage backend for sprintplan.
// It exists for tests and for throwaway sessions; nothing survives the
// process. Behavior matches the persistent backends operation for operation,
// which internal/storetest verifies.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jwdebruin/sprintplan/pkg/types"
)

// tables holds all entity maps. A transaction snapshot copies the whole
// struct, which is cheap at the scale this backend serves.
type tables struct {
	sprints  map[string]*types.Sprint
	goals    map[string]*types.Goal
	criteria map[string]*types.SuccessCriterion
}

func newTables() *tables {
	return &tables{
		sprints:  make(map[string]*types.Sprint),
		goals:    make(map[string]*types.Goal),
		criteria: make(map[string]*types.SuccessCriterion),
	}
}

func (t *tables) clone() *tables {
	cp := newTables()
	for id, s := range t.sprints {
		v := *s
		cp.sprints[id] = &v
	}
	for id, g := range t.goals {
		cp.goals[id] = cloneGoal(g)
	}
	for id, c := range t.criteria {
		v := *c
		cp.criteria[id] = &v
	}
	return cp
}

func cloneGoal(g *types.Goal) *types.Goal {
	v := *g
	if g.ActualHours != nil {
		h := *g.ActualHours
		v.ActualHours = &h
	}
	if g.CompletionNote != nil {
		n := *g.CompletionNote
		v.CompletionNote = &n
	}
	if g.LessonsLearned != nil {
		l := *g.LessonsLearned
		v.LessonsLearned = &l
	}
	return &v
}

// Store implements types.Store on process memory.
type Store struct {
	mu   sync.Mutex
	open bool
	data *tables
	inTx bool
}

var _ types.Store = (*Store)(nil)

// New returns an unopened Store; call Open with a Config to initialize.
func New() *Store {
	return &Store{}
}

// Open initializes the store. The DataDir in cfg is ignored.
func (s *Store) Open(ctx context.Context, cfg types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		return types.ErrAlreadyOpen
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.data = newTables()
	s.open = true
	return nil
}

// Close discards nothing but flips the open flag. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	return nil
}

func (s *Store) ready() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return types.ErrStoreClosed
	}
	return nil
}

// Transact snapshots the tables, runs fn against a transaction-bound Store
// sharing them, and restores the snapshot when fn fails. Nested calls join
// the enclosing transaction.
func (s *Store) Transact(ctx context.Context, fn func(tx types.Store) error) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.inTx {
		return fn(s)
	}

	snapshot := s.data.clone()
	bound := &Store{open: true, data: s.data, inTx: true}
	if err := fn(bound); err != nil {
		s.data.sprints = snapshot.sprints
		s.data.goals = snapshot.goals
		s.data.criteria = snapshot.criteria
		return err
	}
	return nil
}

// Clear removes every entity.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.sprints = make(map[string]*types.Sprint)
	s.data.goals = make(map[string]*types.Goal)
	s.data.criteria = make(map[string]*types.SuccessCriterion)
	return nil
}

// Sprints.

func (s *Store) CreateSprint(ctx context.Context, sp *types.Sprint) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.data.sprints {
		if existing.SequenceNumber == sp.SequenceNumber {
			return types.ErrSequenceInUse
		}
	}
	v := *sp
	s.data.sprints[sp.ID] = &v
	return nil
}

func (s *Store) GetSprint(ctx context.Context, id string) (*types.Sprint, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.data.sprints[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	v := *sp
	return &v, nil
}

func (s *Store) ListSprints(ctx context.Context) ([]*types.Sprint, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sprints := []*types.Sprint{}
	for _, sp := range s.data.sprints {
		v := *sp
		sprints = append(sprints, &v)
	}
	sort.Slice(sprints, func(i, j int) bool {
		return sprints[i].SequenceNumber < sprints[j].SequenceNumber
	})
	return sprints, nil
}

func (s *Store) GetSprintBySequence(ctx context.Context, seq int) (*types.Sprint, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sp := range s.data.sprints {
		if sp.SequenceNumber == seq {
			v := *sp
			return &v, nil
		}
	}
	return nil, types.ErrNotFound
}

func (s *Store) GetLatestSprint(ctx context.Context) (*types.Sprint, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *types.Sprint
	for _, sp := range s.data.sprints {
		if latest == nil || sp.SequenceNumber > latest.SequenceNumber {
			latest = sp
		}
	}
	if latest == nil {
		return nil, nil
	}
	v := *latest
	return &v, nil
}

func (s *Store) GetCurrentSprint(ctx context.Context, date string) (*types.Sprint, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var current *types.Sprint
	for _, sp := range s.data.sprints {
		if !sp.Contains(date) {
			continue
		}
		if current == nil || sp.SequenceNumber > current.SequenceNumber {
			current = sp
		}
	}
	if current == nil {
		return nil, nil
	}
	v := *current
	return &v, nil
}

func (s *Store) UpdateSprint(ctx context.Context, id string, upd types.SprintUpdate) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.data.sprints[id]
	if !ok {
		return types.ErrNotFound
	}
	if upd.SequenceNumber != nil {
		for _, existing := range s.data.sprints {
			if existing.ID != id && existing.SequenceNumber == *upd.SequenceNumber {
				return types.ErrSequenceInUse
			}
		}
	}
	upd.Apply(sp)
	return nil
}

func (s *Store) DeleteSprint(ctx context.Context, id string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.sprints[id]; !ok {
		return false, nil
	}
	for goalID, g := range s.data.goals {
		if g.SprintID != id {
			continue
		}
		for critID, c := range s.data.criteria {
			if c.GoalID == goalID {
				delete(s.data.criteria, critID)
			}
		}
		delete(s.data.goals, goalID)
	}
	delete(s.data.sprints, id)
	return true, nil
}

func (s *Store) SprintExists(ctx context.Context, id string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data.sprints[id]
	return ok, nil
}

// Goals.

func (s *Store) CreateGoal(ctx context.Context, g *types.Goal) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.goals[g.ID] = cloneGoal(g)
	return nil
}

func (s *Store) GetGoal(ctx context.Context, id string) (*types.Goal, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.data.goals[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return cloneGoal(g), nil
}

func (s *Store) ListGoalsBySprint(ctx context.Context, sprintID string) ([]*types.Goal, error) {
	return s.listGoals(func(g *types.Goal) bool { return g.SprintID == sprintID })
}

func (s *Store) ListGoalsByOwner(ctx context.Context, owner string) ([]*types.Goal, error) {
	return s.listGoals(func(g *types.Goal) bool { return g.Owner == owner })
}

func (s *Store) listGoals(keep func(*types.Goal) bool) ([]*types.Goal, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	goals := []*types.Goal{}
	for _, g := range s.data.goals {
		if keep(g) {
			goals = append(goals, cloneGoal(g))
		}
	}
	sort.Slice(goals, func(i, j int) bool {
		if !goals[i].CreatedAt.Equal(goals[j].CreatedAt) {
			return goals[i].CreatedAt.Before(goals[j].CreatedAt)
		}
		return goals[i].ID < goals[j].ID
	})
	return goals, nil
}

func (s *Store) UpdateGoal(ctx context.Context, id string, upd types.GoalUpdate) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.data.goals[id]
	if !ok {
		return types.ErrNotFound
	}
	upd.Apply(g)
	return nil
}

func (s *Store) DeleteGoal(ctx context.Context, id string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.goals[id]; !ok {
		return false, nil
	}
	for critID, c := range s.data.criteria {
		if c.GoalID == id {
			delete(s.data.criteria, critID)
		}
	}
	delete(s.data.goals, id)
	return true, nil
}

func (s *Store) GoalExists(ctx context.Context, id string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data.goals[id]
	return ok, nil
}

// Criteria.

func (s *Store) CreateCriterion(ctx context.Context, c *types.SuccessCriterion) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v := *c
	s.data.criteria[c.ID] = &v
	return nil
}

func (s *Store) GetCriterion(ctx context.Context, id string) (*types.SuccessCriterion, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data.criteria[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	v := *c
	return &v, nil
}

func (s *Store) ListCriteriaByGoal(ctx context.Context, goalID string) ([]*types.SuccessCriterion, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	criteria := []*types.SuccessCriterion{}
	for _, c := range s.data.criteria {
		if c.GoalID == goalID {
			v := *c
			criteria = append(criteria, &v)
		}
	}
	// Generated IDs are time-ordered, so ID order is insertion order.
	sort.Slice(criteria, func(i, j int) bool { return criteria[i].ID < criteria[j].ID })
	return criteria, nil
}

func (s *Store) UpdateCriterion(ctx context.Context, id string, upd types.CriterionUpdate) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data.criteria[id]
	if !ok {
		return types.ErrNotFound
	}
	upd.Apply(c)
	return nil
}

func (s *Store) DeleteCriterion(ctx context.Context, id string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.criteria[id]; !ok {
		return false, nil
	}
	delete(s.data.criteria, id)
	return true, nil
}

func (s *Store) CriterionExists(ctx context.Context, id string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data.criteria[id]
	return ok, nil
}

package types

import "context"

// Store is the storage adapter contract. Every backend must provide the same
// observable behavior for each operation so that callers can switch backends
// without code changes; internal/storetest makes that parity executable.
//
// Conventions shared by all implementations:
//   - Get* by ID returns ErrNotFound when the entity does not exist.
//   - GetLatestSprint and GetCurrentSprint return (nil, nil) when no sprint
//     qualifies; absence is a normal query result there, not an error.
//   - Update* on a nonexistent ID returns ErrNotFound.
//   - Delete* on a nonexistent ID returns (false, nil); deletion is a no-op,
//     never an error. Sprint and goal deletes cascade to all descendants
//     inside a single transaction, children first.
//   - After Close, every operation returns ErrStoreClosed. Close is
//     idempotent.
type Store interface {
	// Open initializes the backend from cfg, creating the data directory and
	// physical schema as needed. Opening an already-open store returns
	// ErrAlreadyOpen. Open is otherwise idempotent across process runs:
	// existing data is preserved and schema upgrades are additive.
	Open(ctx context.Context, cfg Config) error

	// Close releases backend resources. Idempotent.
	Close() error

	// Transact runs fn against a transaction-bound Store. All persistence
	// operations issued inside fn commit atomically together, or none do; any
	// error returned by fn aborts the whole transaction and is returned to
	// the caller. Calls issued on the outer Store while fn runs are not part
	// of the transaction. Nested Transact calls join the enclosing
	// transaction.
	Transact(ctx context.Context, fn func(tx Store) error) error

	// Sprints.
	CreateSprint(ctx context.Context, s *Sprint) error
	GetSprint(ctx context.Context, id string) (*Sprint, error)
	ListSprints(ctx context.Context) ([]*Sprint, error)
	GetSprintBySequence(ctx context.Context, seq int) (*Sprint, error)
	GetLatestSprint(ctx context.Context) (*Sprint, error)
	GetCurrentSprint(ctx context.Context, date string) (*Sprint, error)
	UpdateSprint(ctx context.Context, id string, upd SprintUpdate) error
	DeleteSprint(ctx context.Context, id string) (bool, error)
	SprintExists(ctx context.Context, id string) (bool, error)

	// Goals.
	CreateGoal(ctx context.Context, g *Goal) error
	GetGoal(ctx context.Context, id string) (*Goal, error)
	ListGoalsBySprint(ctx context.Context, sprintID string) ([]*Goal, error)
	ListGoalsByOwner(ctx context.Context, owner string) ([]*Goal, error)
	UpdateGoal(ctx context.Context, id string, upd GoalUpdate) error
	DeleteGoal(ctx context.Context, id string) (bool, error)
	GoalExists(ctx context.Context, id string) (bool, error)

	// Success criteria.
	CreateCriterion(ctx context.Context, c *SuccessCriterion) error
	GetCriterion(ctx context.Context, id string) (*SuccessCriterion, error)
	ListCriteriaByGoal(ctx context.Context, goalID string) ([]*SuccessCriterion, error)
	UpdateCriterion(ctx context.Context, id string, upd CriterionUpdate) error
	DeleteCriterion(ctx context.Context, id string) (bool, error)
	CriterionExists(ctx context.Context, id string) (bool, error)

	// Clear removes every entity from the store. Used by import --replace and
	// by tests.
	Clear(ctx context.Context) error
}

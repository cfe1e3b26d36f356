// Package sqlite implements the relational storage backend for sprintplan
// using the pure-Go modernc.org/sqlite driver. The schema re-asserts the
// validation rules as CHECK constraints, so a direct write that bypasses the
// service layer still cannot violate the core invariants.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/jwdebruin/sprintplan/pkg/types"
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "sprintplan.db"

// dbtx abstracts over *sql.DB and *sql.Tx so the same statement code serves
// both direct calls and transaction-bound stores.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements types.Store on a SQLite database. Transactions use the
// driver's native synchronous commit, which the database/sql API only
// finalizes after every statement issued inside the closure has applied, so
// the atomicity contract holds without further ceremony.
type Store struct {
	mu   sync.Mutex
	open bool
	cfg  types.Config
	db   *sql.DB
	q    dbtx
	inTx bool
}

var _ types.Store = (*Store)(nil)

// New returns an unopened Store; call Open with a Config to initialize.
func New() *Store {
	return &Store{}
}

// Open creates the data directory and database file if absent, enables
// foreign-key enforcement, and applies any pending schema migrations.
// Opening an already-open store returns types.ErrAlreadyOpen.
func (s *Store) Open(ctx context.Context, cfg types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return types.ErrAlreadyOpen
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, DBFileName))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return fmt.Errorf("enabling foreign keys: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return fmt.Errorf("migrating schema: %w", err)
	}

	s.cfg = cfg
	s.db = db
	s.q = db
	s.open = true
	return nil
}

// Close releases the database connection. Idempotent; operations after Close
// return types.ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil
	}
	s.open = false
	if s.inTx {
		// Transaction-bound stores do not own the connection.
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// ready guards every operation against use before Open or after Close.
func (s *Store) ready() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return types.ErrStoreClosed
	}
	return nil
}

// Transact runs fn against a transaction-bound Store. Every statement fn
// issues commits atomically with the rest, or none do. Nested calls join the
// enclosing transaction.
func (s *Store) Transact(ctx context.Context, fn func(tx types.Store) error) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	bound := &Store{open: true, cfg: s.cfg, db: s.db, q: tx, inTx: true}
	if err := fn(bound); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rolling back after %v: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Clear removes every entity in one transaction, children first.
func (s *Store) Clear(ctx context.Context) error {
	return s.Transact(ctx, func(tx types.Store) error {
		ts := tx.(*Store)
		for _, table := range []string{"criteria", "goals", "sprints"} {
			if _, err := ts.q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}
		return nil
	})
}

// exists reports whether a row with the given id exists in table.
func (s *Store) exists(ctx context.Context, table, id string) (bool, error) {
	var one int
	err := s.q.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s existence: %w", table, err)
	}
	return true, nil
}

// Package boltstore implements the embedded document backend for sprintplan
// on go.etcd.io/bbolt. Each entity kind lives in its own bucket as a JSON
// document in the wire-format field naming, with secondary index buckets on
// the fields the queries need. The underlying indexes only support single-key
// range scans, so range conditions over two fields (the "current sprint"
// query) are an index scan plus an in-memory filter pass.
package boltstore

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	bolt "go.etcd.io/bbolt"

	"github.com/jwdebruin/sprintplan/pkg/types"
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "sprintplan.bolt"

// schemaVersion is implicit in the bucket and index layout. Any change to
// either must bump this and add an explicit migration in migrateLocked.
const schemaVersion = 1

// Bucket names: one object store per entity kind, a meta store, and the
// secondary indexes.
var (
	bucketSprints        = []byte("sprints")
	bucketGoals          = []byte("goals")
	bucketCriteria       = []byte("criteria")
	bucketMeta           = []byte("meta")
	bucketSprintBySeq    = []byte("idx_sprint_seq")
	bucketGoalsBySprint  = []byte("idx_goals_sprint")
	bucketGoalsByOwner   = []byte("idx_goals_owner")
	bucketCriteriaByGoal = []byte("idx_criteria_goal")
)

var keySchemaVersion = []byte("schema_version")

var allBuckets = [][]byte{
	bucketSprints, bucketGoals, bucketCriteria, bucketMeta,
	bucketSprintBySeq, bucketGoalsBySprint, bucketGoalsByOwner, bucketCriteriaByGoal,
}

// Store implements types.Store on a bbolt database. Transact maps onto the
// backend's native read-write transaction covering all buckets at once, so
// multi-entity mutations such as cascade deletes are atomic by construction.
type Store struct {
	mu   sync.Mutex
	open bool
	db   *bolt.DB
	tx   *bolt.Tx
}

var _ types.Store = (*Store)(nil)

// New returns an unopened Store; call Open with a Config to initialize.
func New() *Store {
	return &Store{}
}

// Open creates the data directory and database file if absent, creates the
// buckets, and checks the schema version. Opening an already-open store
// returns types.ErrAlreadyOpen.
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

	db, err := bolt.Open(filepath.Join(dataDir, DBFileName), 0o600, nil)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		return migrateLocked(tx)
	})
	if err != nil {
		db.Close()
		return err
	}

	s.db = db
	s.open = true
	return nil
}

// migrateLocked checks the stored schema version and applies any pending
// layout migrations. Versions newer than this build refuse to open rather
// than risk silent index corruption.
func migrateLocked(tx *bolt.Tx) error {
	meta := tx.Bucket(bucketMeta)
	raw := meta.Get(keySchemaVersion)
	if raw == nil {
		return meta.Put(keySchemaVersion, u64(schemaVersion))
	}
	stored := binary.BigEndian.Uint64(raw)
	switch {
	case stored == schemaVersion:
		return nil
	case stored > schemaVersion:
		return fmt.Errorf("data directory has schema version %d, this build supports %d", stored, schemaVersion)
	default:
		// No historical versions exist yet. When version 2 lands, the
		// upgrade steps go here, gated per stored version.
		return meta.Put(keySchemaVersion, u64(schemaVersion))
	}
}

// Close releases the database file. Idempotent; operations after Close
// return types.ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return nil
	}
	s.open = false
	if s.tx != nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

func (s *Store) ready(ctx context.Context) error {
	s.mu.Lock()
	open := s.open
	s.mu.Unlock()
	if !open {
		return types.ErrStoreClosed
	}
	return ctx.Err()
}

// Transact runs fn against a Store bound to one read-write transaction
// spanning every bucket. Nested calls join the enclosing transaction.
func (s *Store) Transact(ctx context.Context, fn func(tx types.Store) error) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if s.tx != nil {
		return fn(s)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(&Store{open: true, db: s.db, tx: tx})
	})
}

// update runs fn in the bound transaction if there is one, otherwise in a
// fresh read-write transaction.
func (s *Store) update(fn func(tx *bolt.Tx) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	return s.db.Update(fn)
}

// view runs fn in the bound transaction if there is one, otherwise in a
// read-only transaction.
func (s *Store) view(fn func(tx *bolt.Tx) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	return s.db.View(fn)
}

// Clear removes every entity and index entry in one transaction.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if string(name) == string(bucketMeta) {
				continue
			}
			if err := tx.DeleteBucket(name); err != nil {
				return fmt.Errorf("dropping bucket %s: %w", name, err)
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return fmt.Errorf("recreating bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

// u64 encodes v as a fixed-width big-endian key, preserving numeric order
// under the lexicographic key comparison bbolt uses.
func u64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

// indexKey builds a composite secondary-index key: parent value, NUL
// separator, child ID. UUID strings never contain NUL, so prefix scans over
// the parent value cannot collide.
func indexKey(parent, childID string) []byte {
	key := make([]byte, 0, len(parent)+1+len(childID))
	key = append(key, parent...)
	key = append(key, 0)
	key = append(key, childID...)
	return key
}

// scanIndex walks all index entries whose parent component equals parent and
// calls fn with each child ID.
func scanIndex(b *bolt.Bucket, parent string, fn func(childID string) error) error {
	prefix := append([]byte(parent), 0)
	c := b.Cursor()
	for k, _ := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = c.Next() {
		if err := fn(string(k[len(prefix):])); err != nil {
			return err
		}
	}
	return nil
}

func hasPrefix(k, prefix []byte) bool {
	if len(k) < len(prefix) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

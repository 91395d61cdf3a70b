package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	// StateFilename is the bbolt database file name inside the state dir.
	StateFilename = "state.db"

	// MaxSearchHistory caps the number of remembered queries.
	MaxSearchHistory = 20
)

var (
	bucketExpansion = []byte("expansion")
	bucketSession   = []byte("session")

	keyLastOpened    = []byte("last_opened")
	keySearchHistory = []byte("search_history")
)

// Store persists expansion state and small session conveniences in a bbolt
// database. Expansion is a pure overlay keyed by tree node ID: the store
// never touches tree structure, and IDs for paths that no longer exist are
// simply inert until Compact removes them.
//
// All mutations are write-through: each one runs in its own bbolt
// transaction and is durable once the method returns.
type Store struct {
	db     *bolt.DB
	logger *slog.Logger
}

// Open opens (or creates) the state database under stateDir. A corrupt
// database is not fatal: it is reset to defaults with a logged warning
// rather than failing startup.
func Open(stateDir string) (*Store, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	path := filepath.Join(stateDir, StateFilename)

	db, err := openDB(path)
	if err != nil {
		slog.Warn("State database unusable, resetting to defaults", "path", path, "error", err)
		if rmErr := os.Remove(path); rmErr != nil {
			return nil, fmt.Errorf("failed to reset state database: %w", rmErr)
		}
		db, err = openDB(path)
		if err != nil {
			return nil, fmt.Errorf("failed to recreate state database: %w", err)
		}
	}

	return &Store{db: db, logger: slog.Default()}, nil
}

// openDB opens the bbolt file and ensures the buckets exist.
func openDB(path string) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketExpansion, bucketSession} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// IsExpanded reports whether the node is expanded. Unknown IDs default to
// collapsed; the root is always expanded.
func (s *Store) IsExpanded(nodeID string) bool {
	if nodeID == "" {
		return true
	}
	expanded := false
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketExpansion).Get([]byte(nodeID))
		expanded = len(v) == 1 && v[0] == 1
		return nil
	})
	if err != nil {
		s.logger.Warn("Failed to read expansion state", "node", nodeID, "error", err)
		return false
	}
	return expanded
}

// Toggle flips the node's expansion state and returns the new value.
// Toggling the root is a no-op: the root stays expanded.
func (s *Store) Toggle(nodeID string) (bool, error) {
	if nodeID == "" {
		return true, nil
	}
	next := !s.IsExpanded(nodeID)
	if err := s.Set(nodeID, next); err != nil {
		return false, err
	}
	return next, nil
}

// Set records the expansion state for one node.
func (s *Store) Set(nodeID string, expanded bool) error {
	if nodeID == "" {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketExpansion).Put([]byte(nodeID), boolByte(expanded))
	})
}

// SetAll records the expansion state for a batch of nodes in a single
// transaction, so an interrupted expand-all/collapse-all never leaves a
// half-written batch behind.
func (s *Store) SetAll(nodeIDs []string, expanded bool) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketExpansion)
		for _, id := range nodeIDs {
			if id == "" {
				continue
			}
			if err := b.Put([]byte(id), boolByte(expanded)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Snapshot returns the full expansion map.
func (s *Store) Snapshot() (map[string]bool, error) {
	out := make(map[string]bool)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketExpansion).ForEach(func(k, v []byte) error {
			out[string(k)] = len(v) == 1 && v[0] == 1
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot expansion state: %w", err)
	}
	return out, nil
}

// Compact removes expansion entries whose IDs are not in the live set.
// Stale entries are harmless, so this is optional housekeeping after a
// rescan, not a correctness requirement.
func (s *Store) Compact(live map[string]struct{}) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketExpansion)
		var stale [][]byte
		err := b.ForEach(func(k, _ []byte) error {
			if _, ok := live[string(k)]; !ok {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// LastOpened returns the relative path of the last opened document, or "".
func (s *Store) LastOpened() string {
	var path string
	_ = s.db.View(func(tx *bolt.Tx) error {
		path = string(tx.Bucket(bucketSession).Get(keyLastOpened))
		return nil
	})
	return path
}

// SetLastOpened records the last opened document path.
func (s *Store) SetLastOpened(path string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSession).Put(keyLastOpened, []byte(path))
	})
}

// SearchHistory returns remembered queries, most recent first.
func (s *Store) SearchHistory() []string {
	var history []string
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketSession).Get(keySearchHistory)
		if len(raw) == 0 {
			return nil
		}
		return json.Unmarshal(raw, &history)
	})
	if err != nil {
		s.logger.Warn("Discarding corrupt search history", "error", err)
		return nil
	}
	return history
}

// PushSearchHistory records a query at the front of the history, removing
// duplicates and trimming to MaxSearchHistory.
func (s *Store) PushSearchHistory(query string) error {
	if query == "" {
		return nil
	}
	history := s.SearchHistory()
	next := make([]string, 0, len(history)+1)
	next = append(next, query)
	for _, q := range history {
		if q != query {
			next = append(next, q)
		}
	}
	if len(next) > MaxSearchHistory {
		next = next[:MaxSearchHistory]
	}
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode search history: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSession).Put(keySearchHistory, raw)
	})
}

func boolByte(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

package journal

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/oklog/ulid/v2"
)

// RetentionPolicy defines how long entries are kept before automatic deletion.
type RetentionPolicy struct {
	// MaxAge is the maximum age of entries. Older entries are deleted.
	MaxAge time.Duration

	// CleanupInterval is how often the cleanup goroutine runs.
	// Defaults to MaxAge/10 if not set (minimum 1 minute).
	CleanupInterval time.Duration
}

// retentionState holds the state for the retention cleanup goroutine.
type retentionState struct {
	policy  RetentionPolicy
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.Mutex
	running bool
}

func (s *retentionState) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SetRetention configures the retention policy and starts background cleanup.
// Calling it again replaces the policy and restarts the cleanup goroutine.
// A zero MaxAge stops cleanup.
func (db *DB) SetRetention(policy RetentionPolicy) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.retention != nil && db.retention.isRunning() {
		db.retention.cancel()
		<-db.retention.done
	}

	if policy.MaxAge == 0 {
		db.retention = nil
		return
	}

	if policy.CleanupInterval == 0 {
		policy.CleanupInterval = policy.MaxAge / 10
		if policy.CleanupInterval < time.Minute {
			policy.CleanupInterval = time.Minute
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	state := &retentionState{
		policy:  policy,
		cancel:  cancel,
		done:    make(chan struct{}),
		running: true,
	}
	db.retention = state

	go db.runRetentionCleanup(ctx, state)
}

// runRetentionCleanup periodically deletes expired entries.
func (db *DB) runRetentionCleanup(ctx context.Context, state *retentionState) {
	defer close(state.done)
	defer func() {
		state.mu.Lock()
		state.running = false
		state.mu.Unlock()
	}()

	ticker := time.NewTicker(state.policy.CleanupInterval)
	defer ticker.Stop()

	db.sweep(state.policy.MaxAge)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			db.sweep(state.policy.MaxAge)
		}
	}
}

func (db *DB) sweep(maxAge time.Duration) {
	deleted, err := db.deleteBefore(time.Now().Add(-maxAge))
	if err != nil {
		db.logger.Warn("[Journal] Retention sweep failed", "error", err)
		return
	}
	if deleted > 0 {
		db.logger.Debug("[Journal] Retention sweep", "deleted", deleted)
	}
}

// DeleteBefore deletes all entries recorded before the given time and
// returns how many were removed.
func (db *DB) DeleteBefore(before time.Time) (int64, error) {
	db.mu.RLock()
	if db.closed {
		db.mu.RUnlock()
		return 0, ErrClosed
	}
	db.mu.RUnlock()

	return db.deleteBefore(before)
}

func (db *DB) deleteBefore(before time.Time) (int64, error) {
	var deleted int64

	err := db.badger.Update(func(txn *badger.Txn) error {
		expired, err := findExpired(txn, before)
		if err != nil {
			return err
		}

		for _, entry := range expired {
			if err := deleteEntryAndIndex(txn, entry); err != nil {
				continue
			}
			deleted++
		}

		return nil
	})

	return deleted, err
}

// expiredEntry holds what is needed to delete an entry and its index key.
type expiredEntry struct {
	id   ulid.ULID
	name string
}

// findExpired scans for entries before the cutoff time.
func findExpired(txn *badger.Txn, before time.Time) ([]expiredEntry, error) {
	var expired []expiredEntry

	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	prefix := entryKeyPrefix()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()

		id, err := decodeEntryKey(item.Key())
		if err != nil {
			continue
		}

		// Entries are sorted by time, so we can stop early
		if !ulidTime(id).Before(before) {
			break
		}

		var entry Entry
		err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
		if err != nil {
			continue
		}

		expired = append(expired, expiredEntry{id: id, name: entry.EventName})
	}

	return expired, nil
}

func deleteEntryAndIndex(txn *badger.Txn, e expiredEntry) error {
	if err := txn.Delete(encodeEntryKey(e.id)); err != nil {
		return err
	}
	return txn.Delete(encodeNameIndexKey(e.name, e.id))
}

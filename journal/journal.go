// Package journal keeps a local, queryable record of the event pings a
// tracker has sent. It is a debugging and audit aid: entries are written
// after the request completes and are never replayed.
package journal

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/oklog/ulid/v2"
)

// Options configures how a journal is opened.
type Options struct {
	// Path is the badger directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps the journal in memory only.
	InMemory bool

	// Logger receives records about entries that could not be written by
	// the Transport decorator. Nil discards them.
	Logger *slog.Logger
}

// DB is a journal handle.
type DB struct {
	badger    *badger.DB
	ulids     *ulidSource
	retention *retentionState
	logger    *slog.Logger
	closed    bool
	mu        sync.RWMutex
}

// Open creates or opens a journal at the given path.
func Open(path string) (*DB, error) {
	return OpenWithOptions(Options{Path: path})
}

// OpenInMemory creates a journal that lives only as long as the process.
func OpenInMemory() (*DB, error) {
	return OpenWithOptions(Options{InMemory: true})
}

// OpenWithOptions opens a journal configured by opts.
func OpenWithOptions(opts Options) (*DB, error) {
	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil // Disable BadgerDB's default logging

	bdb, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("journal: open %q: %w", opts.Path, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &DB{
		badger: bdb,
		ulids:  newULIDSource(),
		logger: logger,
	}, nil
}

// Close closes the journal.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return ErrClosed
	}

	// Stop retention goroutine if running
	if db.retention != nil && db.retention.isRunning() {
		db.retention.cancel()
		<-db.retention.done
	}

	db.closed = true

	return db.badger.Close()
}

// Record stores an entry. Its ID is always assigned here and its Timestamp
// is set to now when zero.
func (db *DB) Record(entry Entry) (*Entry, error) {
	db.mu.RLock()
	if db.closed {
		db.mu.RUnlock()
		return nil, ErrClosed
	}
	db.mu.RUnlock()

	if err := entry.validate(); err != nil {
		return nil, err
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	entry.ID = db.ulids.New(entry.Timestamp)

	data, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}

	err = db.badger.Update(func(txn *badger.Txn) error {
		if err := txn.Set(encodeEntryKey(entry.ID), data); err != nil {
			return fmt.Errorf("failed to write entry %s: %w", entry.ID, err)
		}
		if err := txn.Set(encodeNameIndexKey(entry.EventName, entry.ID), nil); err != nil {
			return fmt.Errorf("failed to write name index %s: %w", entry.EventName, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// Get retrieves a single entry by its ID.
func (db *DB) Get(id ulid.ULID) (*Entry, error) {
	db.mu.RLock()
	if db.closed {
		db.mu.RUnlock()
		return nil, ErrClosed
	}
	db.mu.RUnlock()

	var entry Entry

	err := db.badger.View(func(txn *badger.Txn) error {
		item, err := txn.Get(encodeEntryKey(id))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

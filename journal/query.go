package journal

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/oklog/ulid/v2"
)

// Query defines search criteria for entries.
type Query struct {
	// Start is the inclusive start time (nil means no lower bound).
	Start *time.Time

	// End is the inclusive end time (nil means no upper bound).
	End *time.Time

	// Names filters by event name (empty means all names).
	Names []string

	// FailedOnly keeps only entries whose transport returned an error.
	FailedOnly bool

	// Limit is the maximum number of entries to return (0 means no limit).
	Limit int

	// Descending returns entries in reverse chronological order.
	Descending bool
}

func (q Query) validate() error {
	if q.Limit < 0 {
		return ErrInvalidQuery
	}
	if q.Start != nil && q.End != nil && q.End.Before(*q.Start) {
		return ErrInvalidQuery
	}
	return nil
}

// Query finds entries matching the given criteria.
func (db *DB) Query(ctx context.Context, q Query) ([]*Entry, error) {
	db.mu.RLock()
	if db.closed {
		db.mu.RUnlock()
		return nil, ErrClosed
	}
	db.mu.RUnlock()

	if err := q.validate(); err != nil {
		return nil, err
	}

	var entries []*Entry

	err := db.badger.View(func(txn *badger.Txn) error {
		return db.scan(ctx, txn, q, func(e *Entry) bool {
			entries = append(entries, e)
			return q.Limit == 0 || len(entries) < q.Limit
		})
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// scan visits every entry matching q in order until visit returns false.
// A single name filter is served from the name index, anything else scans
// the primary keys.
func (db *DB) scan(ctx context.Context, txn *badger.Txn, q Query, visit func(*Entry) bool) error {
	if len(q.Names) == 1 {
		for _, id := range db.scanNameIndex(txn, q.Names[0], q) {
			if err := ctx.Err(); err != nil {
				return err
			}
			entry, ok := db.fetch(txn, id)
			if !ok || !matchesFilters(entry, q) {
				continue
			}
			if !visit(entry) {
				return nil
			}
		}
		return nil
	}

	opts := badger.DefaultIteratorOptions
	opts.Reverse = q.Descending

	it := txn.NewIterator(opts)
	defer it.Close()

	prefix := entryKeyPrefix()
	seekKey := prefix
	if q.Descending {
		seekKey = prefixEnd(prefix)
	}

	for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}

		item := it.Item()
		id, err := decodeEntryKey(item.Key())
		if err != nil {
			continue
		}

		// Apply time filter before deserializing
		if !matchesTimeRange(id, q) {
			// Keys are time ordered, so leaving the range ends the scan
			if !q.Descending && q.End != nil && ulidTime(id).After(*q.End) {
				break
			}
			if q.Descending && q.Start != nil && ulidTime(id).Before(*q.Start) {
				break
			}
			continue
		}

		var entry Entry
		err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
		if err != nil {
			continue
		}

		if !matchesFilters(&entry, q) {
			continue
		}

		if !visit(&entry) {
			break
		}
	}

	return nil
}

// scanNameIndex returns the IDs indexed under name within the time range.
func (db *DB) scanNameIndex(txn *badger.Txn, name string, q Query) []ulid.ULID {
	var ids []ulid.ULID

	prefix := encodeNameIndexPrefix(name)

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false // Index keys have no values
	opts.Reverse = q.Descending

	it := txn.NewIterator(opts)
	defer it.Close()

	seekKey := prefix
	if q.Descending {
		seekKey = prefixEnd(prefix)
	}

	for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
		id, err := decodeIndexKey(it.Item().Key())
		if err != nil {
			continue
		}
		if !matchesTimeRange(id, q) {
			continue
		}
		ids = append(ids, id)
	}

	return ids
}

// fetch loads a single entry inside txn.
func (db *DB) fetch(txn *badger.Txn, id ulid.ULID) (*Entry, bool) {
	item, err := txn.Get(encodeEntryKey(id))
	if err != nil {
		return nil, false
	}

	var entry Entry
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &entry)
	})
	if err != nil {
		return nil, false
	}
	return &entry, true
}

// matchesTimeRange checks if an entry ID falls within the query time range.
func matchesTimeRange(id ulid.ULID, q Query) bool {
	t := ulidTime(id)

	if q.Start != nil && t.Before(*q.Start) {
		return false
	}
	if q.End != nil && t.After(*q.End) {
		return false
	}

	return true
}

// matchesFilters checks if an entry matches all non-time filters.
func matchesFilters(entry *Entry, q Query) bool {
	if len(q.Names) > 0 && !slices.Contains(q.Names, entry.EventName) {
		return false
	}
	if q.FailedOnly && !entry.Failed() {
		return false
	}
	return true
}

// Count returns the total number of entries in the journal.
func (db *DB) Count() (int64, error) {
	db.mu.RLock()
	if db.closed {
		db.mu.RUnlock()
		return 0, ErrClosed
	}
	db.mu.RUnlock()

	var count int64

	err := db.badger.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := entryKeyPrefix()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

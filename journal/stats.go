package journal

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Stats summarises the entries matching a query.
type Stats struct {
	// Count is the number of matching entries.
	Count int64

	// Failed is the number of entries whose transport returned an error.
	Failed int64

	// ByName counts entries per event name.
	ByName map[string]int64

	// ByStatus counts entries per HTTP status; failed requests count
	// under 0.
	ByStatus map[int]int64

	// First and Last bound the timestamps of the matching entries.
	First time.Time
	Last  time.Time
}

// Stats computes a summary over entries matching the query. Limit and
// Descending are ignored.
func (db *DB) Stats(ctx context.Context, q Query) (*Stats, error) {
	db.mu.RLock()
	if db.closed {
		db.mu.RUnlock()
		return nil, ErrClosed
	}
	db.mu.RUnlock()

	if err := q.validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.Limit = 0
	q.Descending = false

	stats := &Stats{
		ByName:   make(map[string]int64),
		ByStatus: make(map[int]int64),
	}

	err := db.badger.View(func(txn *badger.Txn) error {
		return db.scan(ctx, txn, q, func(e *Entry) bool {
			stats.add(e)
			return true
		})
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *Stats) add(e *Entry) {
	s.Count++
	if e.Failed() {
		s.Failed++
	}
	s.ByName[e.EventName]++
	s.ByStatus[e.Status]++

	if s.First.IsZero() || e.Timestamp.Before(s.First) {
		s.First = e.Timestamp
	}
	if e.Timestamp.After(s.Last) {
		s.Last = e.Timestamp
	}
}

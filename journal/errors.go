package journal

import "errors"

var (
	// ErrClosed is returned when operating on a closed journal.
	ErrClosed = errors.New("journal: database is closed")

	// ErrNotFound is returned when an entry is not found.
	ErrNotFound = errors.New("journal: entry not found")

	// ErrEmptyURL is returned when an entry has no request URL.
	ErrEmptyURL = errors.New("journal: entry URL cannot be empty")

	// ErrInvalidQuery is returned when a query has invalid parameters.
	ErrInvalidQuery = errors.New("journal: invalid query parameters")
)

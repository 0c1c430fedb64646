package fivenine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is matched by errors returned from New when an
	// identifier fails validation.
	ErrInvalidArgument = errors.New("fivenine: invalid argument")

	// ErrNoTransport is returned by New when Config.Transport is nil.
	ErrNoTransport = errors.New("fivenine: transport is required")

	// ErrSerialization is matched by errors returned from TrackEvent when the
	// event properties cannot be JSON encoded.
	ErrSerialization = errors.New("fivenine: cannot serialize event properties")

	// ErrInvalidEventID is returned when parsing a malformed event ID.
	ErrInvalidEventID = errors.New("fivenine: invalid event ID")
)

// InvalidArgumentError names the identifier that failed validation.
type InvalidArgumentError struct {
	Field string
	Value string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("fivenine: invalid %s: %q", e.Field, e.Value)
}

func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// SerializationError wraps the JSON encoder failure for event properties.
type SerializationError struct {
	Event string
	Err   error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("fivenine: cannot serialize properties of event %q: %v", e.Event, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

func (e *SerializationError) Is(target error) bool {
	return target == ErrSerialization
}

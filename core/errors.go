package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCopy is returned by Copy: a duplicate entity would desynchronize
	// the session's identity map and the backref index.
	ErrNoCopy = errors.New("entity cannot be copied")

	// ErrUnidentified is returned when an identity is requested from an
	// entity missing its type or id.
	ErrUnidentified = errors.New("entity must have type and id")
)

// LookupError reports a failed field resolution. Field always holds the
// originally requested name, even when a deep chain failed partway through,
// so callers can match on exactly what they asked for.
type LookupError struct {
	Field string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("entity has no field %q", e.Field)
}

// DeepKeyError reports a deep key whose local field collides with an
// existing non-record value in the same record.
type DeepKeyError struct {
	Key   string
	Field string
}

func (e *DeepKeyError) Error() string {
	return fmt.Sprintf("cannot expand deep key %q: field %q holds a non-record value", e.Key, e.Field)
}

// ParentConfigError reports a Parent call on a type that is absent from the
// session's hierarchy configuration.
type ParentConfigError struct {
	Type string
}

func (e *ParentConfigError) Error() string {
	return fmt.Sprintf("%s does not have a parent type defined", e.Type)
}

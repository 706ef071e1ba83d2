package core

import (
	"context"

	"github.com/google/uuid"
)

// NewID returns a unique identifier string.
func NewID() string { return uuid.NewString() }

// Deferred is the handle for a value resolved outside the caller's own
// execution: a lazy accessor submitted to the session's concurrent
// execution facility instead of run inline.
type Deferred[T any] struct {
	id   string
	done chan struct{}
	val  T
	err  error
}

func newDeferred[T any]() *Deferred[T] {
	return &Deferred[T]{id: NewID(), done: make(chan struct{})}
}

// ID identifies this handle for tracking and logging.
func (d *Deferred[T]) ID() string { return d.id }

// Done returns a channel closed once the result is available.
func (d *Deferred[T]) Done() <-chan struct{} { return d.done }

// Wait blocks until the result is available or ctx is cancelled.
func (d *Deferred[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-d.done:
		return d.val, d.err
	}
}

func (d *Deferred[T]) resolve(val T, err error) {
	d.val, d.err = val, err
	close(d.done)
}

// Defer submits fn through s and returns a handle that resolves with fn's
// result. This is the single dispatch point turning any synchronous
// accessor into its fire-and-forget variant.
func Defer[T any](s Submitter, fn func() (T, error)) *Deferred[T] {
	d := newDeferred[T]()
	s.Submit(func() {
		d.resolve(fn())
	})
	return d
}

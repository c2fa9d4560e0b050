package lazy

import (
	"context"
	"errors"
)

var (
	// ErrProducerPanic wraps a panic recovered from a producer.
	ErrProducerPanic = errors.New("lazy: producer panicked")

	// ErrIndexOutOfRange is returned by Arena for indices outside [0, Len).
	ErrIndexOutOfRange = errors.New("lazy: index out of range")

	// ErrNilProducer is returned when a Ref or Arena has no producer.
	ErrNilProducer = errors.New("lazy: nil producer")
)

// Ref is a memoizing deferred loader.
//
// The first Get invokes the producer; every later Get returns the same value.
// Concurrent callers during the first load wait for it instead of starting
// their own. A failed load is not cached, so a later Get retries.
//
// A Ref must not be copied after first use.
type Ref[T any] struct {
	produce Producer[T]
	c       cell[T]
}

// New returns a Ref backed by produce. No work happens until the first Get.
func New[T any](produce Producer[T]) *Ref[T] {
	return &Ref[T]{produce: produce}
}

// Value returns a Ref that is already loaded with v.
func Value[T any](v T) *Ref[T] {
	r := &Ref[T]{}
	r.c.state = Loaded
	r.c.value = v
	return r
}

// Get returns the memoized value, loading it if needed.
//
// If ctx is cancelled while waiting, Get returns ctx.Err() but the load keeps
// running and its result is cached for later callers.
func (r *Ref[T]) Get(ctx context.Context) (T, error) {
	if r.produce == nil && r.c.current() != Loaded {
		var zero T
		return zero, ErrNilProducer
	}
	return r.c.get(ctx, r.produce)
}

// Peek returns the cached value without triggering a load.
func (r *Ref[T]) Peek() (T, bool) {
	return r.c.peek()
}

// State reports the current load state.
func (r *Ref[T]) State() State {
	return r.c.current()
}

// Loaded reports whether a value is cached.
func (r *Ref[T]) Loaded() bool {
	return r.c.current() == Loaded
}

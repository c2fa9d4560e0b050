package lazy

import (
	"context"
	"fmt"
)

// IndexedProducer produces the value for one arena slot.
type IndexedProducer[T any] func(ctx context.Context, index int) (T, error)

// Arena is a fixed-size table of lazily loaded entries keyed by position.
//
// Each entry moves through Unloaded -> Loading -> Loaded and follows the same
// rules as Ref: the producer for an index runs at most once per successful
// load, concurrent requests share the in-flight load, and failures are not
// cached.
type Arena[T any] struct {
	produce IndexedProducer[T]
	entries []cell[T]
}

// NewArena returns an arena with n unloaded entries.
func NewArena[T any](n int, produce IndexedProducer[T]) *Arena[T] {
	if n < 0 {
		n = 0
	}
	return &Arena[T]{
		produce: produce,
		entries: make([]cell[T], n),
	}
}

// Len returns the number of entries.
func (a *Arena[T]) Len() int {
	return len(a.entries)
}

// Get returns the value at index, loading it if needed.
func (a *Arena[T]) Get(ctx context.Context, index int) (T, error) {
	var zero T
	if index < 0 || index >= len(a.entries) {
		return zero, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, index, len(a.entries))
	}
	if a.produce == nil {
		return zero, ErrNilProducer
	}
	return a.entries[index].get(ctx, func(ctx context.Context) (T, error) {
		return a.produce(ctx, index)
	})
}

// Peek returns the cached value at index without loading.
func (a *Arena[T]) Peek(index int) (T, bool) {
	if index < 0 || index >= len(a.entries) {
		var zero T
		return zero, false
	}
	return a.entries[index].peek()
}

// State reports the load state at index. Out-of-range indices are Unloaded.
func (a *Arena[T]) State(index int) State {
	if index < 0 || index >= len(a.entries) {
		return Unloaded
	}
	return a.entries[index].current()
}

// Loaded returns the number of loaded entries.
func (a *Arena[T]) Loaded() int {
	n := 0
	for i := range a.entries {
		if a.entries[i].current() == Loaded {
			n++
		}
	}
	return n
}

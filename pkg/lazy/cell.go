package lazy

import (
	"context"
	"fmt"
	"sync"
)

// State is the load state of a cached entry.
type State int

const (
	// Unloaded means no value is cached and no load is running.
	Unloaded State = iota

	// Loading means a producer call is in flight.
	Loading

	// Loaded means a value is cached. It never changes afterwards.
	Loaded
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Producer produces the value behind a Ref.
type Producer[T any] func(ctx context.Context) (T, error)

// call is one in-flight producer invocation. Waiters block on done and then
// read val/err, which are written before done is closed.
type call[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// wait blocks until the call finishes or ctx is done.
func (c *call[T]) wait(ctx context.Context) (T, error) {
	select {
	case <-c.done:
		return c.val, c.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// cell holds the cache state shared by Ref and Arena entries.
type cell[T any] struct {
	mu       sync.Mutex
	state    State
	value    T
	inflight *call[T]
}

// get returns the cached value, joins an in-flight load, or starts one.
//
// The producer runs on its own goroutine under a context that ignores the
// caller's cancellation, so an abandoned load still completes and is cached.
func (c *cell[T]) get(ctx context.Context, produce Producer[T]) (T, error) {
	c.mu.Lock()
	switch c.state {
	case Loaded:
		v := c.value
		c.mu.Unlock()
		return v, nil
	case Loading:
		inflight := c.inflight
		c.mu.Unlock()
		return inflight.wait(ctx)
	}

	inflight := &call[T]{done: make(chan struct{})}
	c.state = Loading
	c.inflight = inflight
	c.mu.Unlock()

	go c.run(context.WithoutCancel(ctx), inflight, produce)

	return inflight.wait(ctx)
}

func (c *cell[T]) run(ctx context.Context, inflight *call[T], produce Producer[T]) {
	defer close(inflight.done)

	inflight.val, inflight.err = invoke(ctx, produce)

	c.mu.Lock()
	if inflight.err == nil {
		c.value = inflight.val
		c.state = Loaded
	} else {
		// Failures are not cached: the next get starts a fresh load.
		c.state = Unloaded
	}
	c.inflight = nil
	c.mu.Unlock()
}

// peek returns the cached value without loading.
func (c *cell[T]) peek() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Loaded {
		var zero T
		return zero, false
	}
	return c.value, true
}

func (c *cell[T]) current() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// invoke calls produce, turning a panic into an error so a broken producer
// cannot leave the entry stuck in Loading.
func invoke[T any](ctx context.Context, produce Producer[T]) (val T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			val = zero
			err = fmt.Errorf("%w: %v", ErrProducerPanic, r)
		}
	}()
	return produce(ctx)
}

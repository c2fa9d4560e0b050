package lazy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestArenaLoadsEachIndexOnce(t *testing.T) {
	calls := make([]atomic.Int32, 3)
	arena := NewArena(3, func(ctx context.Context, i int) (string, error) {
		calls[i].Add(1)
		return fmt.Sprintf("node-%d", i), nil
	})

	var wg sync.WaitGroup
	for round := 0; round < 5; round++ {
		for i := 0; i < arena.Len(); i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				v, err := arena.Get(context.Background(), i)
				if err != nil {
					t.Errorf("Get(%d) error = %v", i, err)
					return
				}
				if want := fmt.Sprintf("node-%d", i); v != want {
					t.Errorf("Get(%d) = %q, want %q", i, v, want)
				}
			}(i)
		}
	}
	wg.Wait()

	for i := range calls {
		if got := calls[i].Load(); got != 1 {
			t.Errorf("producer calls for %d = %d, want 1", i, got)
		}
	}
	if got := arena.Loaded(); got != 3 {
		t.Errorf("Loaded() = %d, want 3", got)
	}
}

func TestArenaStateTransitions(t *testing.T) {
	release := make(chan struct{})
	arena := NewArena(2, func(ctx context.Context, i int) (int, error) {
		<-release
		return i * 10, nil
	})

	if s := arena.State(1); s != Unloaded {
		t.Fatalf("State(1) = %s, want unloaded", s)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := arena.Get(context.Background(), 1); err != nil {
			t.Errorf("Get(1) error = %v", err)
		}
	}()

	waitForState(t, func() State { return arena.State(1) }, Loading)
	if s := arena.State(0); s != Unloaded {
		t.Errorf("State(0) = %s, want unloaded", s)
	}

	close(release)
	<-done

	if s := arena.State(1); s != Loaded {
		t.Errorf("State(1) = %s, want loaded", s)
	}
	if v, ok := arena.Peek(1); !ok || v != 10 {
		t.Errorf("Peek(1) = (%d, %v), want (10, true)", v, ok)
	}
	if _, ok := arena.Peek(0); ok {
		t.Error("Peek(0) should miss before load")
	}
}

func TestArenaFailureKeepsSiblings(t *testing.T) {
	errBoom := errors.New("fetch failed")
	var failNext atomic.Bool
	failNext.Store(true)
	arena := NewArena(2, func(ctx context.Context, i int) (int, error) {
		if i == 1 && failNext.Swap(false) {
			return 0, errBoom
		}
		return i + 100, nil
	})

	if _, err := arena.Get(context.Background(), 0); err != nil {
		t.Fatalf("Get(0) error = %v", err)
	}
	if _, err := arena.Get(context.Background(), 1); !errors.Is(err, errBoom) {
		t.Fatalf("Get(1) error = %v, want %v", err, errBoom)
	}

	if s := arena.State(0); s != Loaded {
		t.Errorf("State(0) = %s, want loaded", s)
	}
	if s := arena.State(1); s != Unloaded {
		t.Errorf("State(1) = %s, want unloaded", s)
	}

	v, err := arena.Get(context.Background(), 1)
	if err != nil || v != 101 {
		t.Errorf("Get(1) retry = (%d, %v), want (101, nil)", v, err)
	}
}

func TestArenaOutOfRange(t *testing.T) {
	arena := NewArena(1, func(ctx context.Context, i int) (int, error) { return i, nil })

	for _, idx := range []int{-1, 1, 99} {
		if _, err := arena.Get(context.Background(), idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Get(%d) error = %v, want ErrIndexOutOfRange", idx, err)
		}
		if s := arena.State(idx); s != Unloaded {
			t.Errorf("State(%d) = %s, want unloaded", idx, s)
		}
	}
}

func TestArenaNegativeSize(t *testing.T) {
	arena := NewArena[int](-3, nil)
	if arena.Len() != 0 {
		t.Errorf("Len() = %d, want 0", arena.Len())
	}
}

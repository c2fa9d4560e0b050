package lazy

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// waitForState polls until the state reported by get equals want.
func waitForState(t *testing.T, get func() State, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for get() != want {
		if time.Now().After(deadline) {
			t.Fatalf("state = %s, want %s", get(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRefMemoizes(t *testing.T) {
	var calls atomic.Int32
	ref := New(func(ctx context.Context) (*int, error) {
		calls.Add(1)
		v := 42
		return &v, nil
	})

	if ref.Loaded() {
		t.Fatal("ref should not load before first Get")
	}

	first, err := ref.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	second, err := ref.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if first != second {
		t.Error("Get() should return the same instance on every call")
	}
	if *first != 42 {
		t.Errorf("value = %d, want 42", *first)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("producer calls = %d, want 1", got)
	}
	if ref.State() != Loaded {
		t.Errorf("State() = %s, want loaded", ref.State())
	}
}

func TestRefFailureNotCached(t *testing.T) {
	var calls atomic.Int32
	errBoom := errors.New("boom")
	ref := New(func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "", errBoom
		}
		return "ok", nil
	})

	if _, err := ref.Get(context.Background()); !errors.Is(err, errBoom) {
		t.Fatalf("first Get() error = %v, want %v", err, errBoom)
	}
	if ref.State() != Unloaded {
		t.Errorf("State() after failure = %s, want unloaded", ref.State())
	}
	if _, ok := ref.Peek(); ok {
		t.Error("Peek() should report nothing cached after failure")
	}

	v, err := ref.Get(context.Background())
	if err != nil {
		t.Fatalf("second Get() error = %v", err)
	}
	if v != "ok" {
		t.Errorf("value = %q, want %q", v, "ok")
	}

	// Cached now: no third call.
	if _, err := ref.Get(context.Background()); err != nil {
		t.Fatalf("third Get() error = %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("producer calls = %d, want 2", got)
	}
}

func TestRefConcurrentGetsShareLoad(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	ref := New(func(ctx context.Context) (*string, error) {
		calls.Add(1)
		<-release
		s := "module"
		return &s, nil
	})

	const n = 16
	results := make([]*string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = ref.Get(context.Background())
		}(i)
	}

	waitForState(t, ref.State, Loading)
	close(release)
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("Get() #%d error = %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Errorf("Get() #%d returned a different instance", i)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("producer calls = %d, want 1", got)
	}
}

func TestRefCancelledWaiterDoesNotCancelLoad(t *testing.T) {
	var calls atomic.Int32
	var producerCtxErr atomic.Value
	release := make(chan struct{})
	ref := New(func(ctx context.Context) (int, error) {
		calls.Add(1)
		<-release
		if err := ctx.Err(); err != nil {
			producerCtxErr.Store(err)
		}
		return 7, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := ref.Get(ctx)
		done <- err
	}()

	waitForState(t, ref.State, Loading)
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Get() error = %v, want context.Canceled", err)
	}

	close(release)
	v, err := ref.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() after abandon error = %v", err)
	}
	if v != 7 {
		t.Errorf("value = %d, want 7", v)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("producer calls = %d, want 1", got)
	}
	if err := producerCtxErr.Load(); err != nil {
		t.Errorf("producer context was cancelled: %v", err)
	}
}

func TestRefPanicBecomesError(t *testing.T) {
	var calls atomic.Int32
	ref := New(func(ctx context.Context) (int, error) {
		if calls.Add(1) == 1 {
			panic("bad module")
		}
		return 1, nil
	})

	if _, err := ref.Get(context.Background()); !errors.Is(err, ErrProducerPanic) {
		t.Fatalf("Get() error = %v, want ErrProducerPanic", err)
	}
	if v, err := ref.Get(context.Background()); err != nil || v != 1 {
		t.Errorf("Get() after panic = (%d, %v), want (1, nil)", v, err)
	}
}

func TestValueRef(t *testing.T) {
	ref := Value("ready")
	if !ref.Loaded() {
		t.Fatal("Value() ref should be loaded")
	}
	v, err := ref.Get(context.Background())
	if err != nil || v != "ready" {
		t.Errorf("Get() = (%q, %v), want (%q, nil)", v, err, "ready")
	}
}

func TestRefNilProducer(t *testing.T) {
	ref := New[int](nil)
	if _, err := ref.Get(context.Background()); !errors.Is(err, ErrNilProducer) {
		t.Errorf("Get() error = %v, want ErrNilProducer", err)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Unloaded, "unloaded"},
		{Loading, "loading"},
		{Loaded, "loaded"},
		{State(9), "State(9)"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

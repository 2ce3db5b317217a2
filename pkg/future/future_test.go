package future

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCompleteOnce(t *testing.T) {
	f := New[int]()
	if f.IsDone() {
		t.Fatal("new future should be pending")
	}
	if _, ok, _ := f.Result(); ok {
		t.Fatal("Result() ok = true on pending future")
	}

	if !f.Complete(1, nil) {
		t.Fatal("first Complete() = false")
	}
	if f.Complete(2, nil) {
		t.Error("second Complete() = true")
	}

	v, err := f.Wait(context.Background())
	if err != nil || v != 1 {
		t.Errorf("Wait() = %d, %v; want 1, nil", v, err)
	}
}

func TestOnDoneOrdering(t *testing.T) {
	f := New[string]()
	var got []string
	var mu sync.Mutex
	record := func(s string, _ error) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	}

	f.OnDone(record)
	f.Complete("x", nil)
	f.OnDone(record) // already completed: runs immediately

	if len(got) != 2 || got[0] != "x" || got[1] != "x" {
		t.Errorf("callbacks saw %v, want [x x]", got)
	}
}

func TestWaitRespectsContext(t *testing.T) {
	f := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := f.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want deadline exceeded", err)
	}
	if f.IsDone() {
		t.Error("an abandoned Wait must not complete the future")
	}
}

func TestCancelPropagatesThroughThen(t *testing.T) {
	f := New[int]()
	calls := 0
	g := Then(f, func(v int) (int, error) {
		calls++
		return v * 2, nil
	})

	f.Cancel()
	<-g.Done()

	if !g.Cancelled() {
		t.Errorf("chained future error = %v, want cancellation", g.Err())
	}
	if calls != 0 {
		t.Error("continuation must not run after cancellation")
	}
}

func TestThenTransforms(t *testing.T) {
	g := Then(Completed(21), func(v int) (int, error) { return v * 2, nil })
	v, err := g.Wait(context.Background())
	if err != nil || v != 42 {
		t.Errorf("Wait() = %d, %v; want 42, nil", v, err)
	}

	boom := errors.New("boom")
	h := Then(Failed[int](boom), func(v int) (int, error) { return v, nil })
	if _, err := h.Wait(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Wait() error = %v, want %v", err, boom)
	}
}

func TestConcurrentWaiters(t *testing.T) {
	var runs atomic.Int32
	f := Go(func() (int, error) {
		runs.Add(1)
		time.Sleep(5 * time.Millisecond)
		return 7, nil
	})

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, err := f.Wait(context.Background()); v != 7 || err != nil {
				t.Errorf("Wait() = %d, %v", v, err)
			}
		}()
	}
	wg.Wait()

	if runs.Load() != 1 {
		t.Errorf("work ran %d times, want 1", runs.Load())
	}
}

func TestForward(t *testing.T) {
	src, dst := New[int](), New[int]()
	Forward(src, dst)
	src.Complete(3, nil)
	if v, err := dst.Wait(context.Background()); v != 3 || err != nil {
		t.Errorf("dst = %d, %v; want 3, nil", v, err)
	}
}

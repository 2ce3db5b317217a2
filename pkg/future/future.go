// Package future provides a single-assignment result shared by every party
// waiting on an asynchronous load.
//
// A [Future] completes exactly once, either with a value or with an error.
// Cancellation is an error that satisfies errors.Is(err, context.Canceled)
// (or context.DeadlineExceeded) and is reported separately by [Future.Cancelled]
// so callers can propagate it without treating it as a failure.
//
//	f := future.New[*pom.Descriptor]()
//	go func() { f.Complete(load()) }()
//	d, err := f.Wait(ctx)
//
// Callbacks registered with [Future.OnDone] run once the future completes, on
// the completing goroutine, or immediately if it already has.
package future

import (
	"context"
	"errors"
	"sync"
)

// Future is the pending or completed result of an asynchronous operation.
// All methods are safe for concurrent use.
type Future[T any] struct {
	done chan struct{}

	mu        sync.Mutex
	completed bool
	value     T
	err       error
	callbacks []func(T, error)
}

// New returns a pending future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Completed returns a future that already holds v.
func Completed[T any](v T) *Future[T] {
	f := New[T]()
	f.Complete(v, nil)
	return f
}

// Failed returns a future that already holds err.
func Failed[T any](err error) *Future[T] {
	f := New[T]()
	var zero T
	f.Complete(zero, err)
	return f
}

// Go runs fn on a new goroutine and returns a future for its result.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := New[T]()
	go func() { f.Complete(fn()) }()
	return f
}

// Complete sets the result. It reports false if the future had already completed,
// in which case the new result is dropped.
func (f *Future[T]) Complete(v T, err error) bool {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return false
	}
	f.completed = true
	f.value, f.err = v, err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(v, err)
	}
	return true
}

// Cancel completes the future with context.Canceled.
func (f *Future[T]) Cancel() bool {
	var zero T
	return f.Complete(zero, context.Canceled)
}

// Done returns a channel closed once the future completes.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// IsDone reports whether the future has completed.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result returns the value and error. ok is false while the future is pending.
func (f *Future[T]) Result() (v T, ok bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.completed, f.err
}

// Err returns the error of a completed future, or nil while pending.
func (f *Future[T]) Err() error {
	_, _, err := f.Result()
	return err
}

// Cancelled reports whether the future completed because it was cancelled.
func (f *Future[T]) Cancelled() bool {
	err := f.Err()
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Wait blocks until the future completes or ctx is done.
// When ctx ends first, ctx.Err() is returned and the future keeps running.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		v, _, err := f.Result()
		return v, err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// OnDone registers cb to run when the future completes.
func (f *Future[T]) OnDone(cb func(T, error)) {
	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	v, err := f.value, f.err
	f.mu.Unlock()
	cb(v, err)
}

// Forward completes dst with the result of src once src completes.
func Forward[T any](src, dst *Future[T]) {
	src.OnDone(func(v T, err error) { dst.Complete(v, err) })
}

// Then chains fn onto f. The returned future fails with f's error unchanged
// (cancellation included) and otherwise holds fn's result.
func Then[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	out := New[U]()
	f.OnDone(func(v T, err error) {
		if err != nil {
			var zero U
			out.Complete(zero, err)
			return
		}
		out.Complete(fn(v))
	})
	return out
}

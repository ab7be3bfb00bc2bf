package http

import (
	"context"
	"sync"
)

// Callback transforms the value of a successful asynchronous send. The
// returned value replaces the send result; a returned error fails the
// future with a *HandlerError unless an ErrorHandler recovers it.
type Callback func(value interface{}) (interface{}, error)

// ErrorHandler observes a failure from any earlier stage (transport,
// normalization or callback) and may replace it with a value, resolving
// the future successfully. A returned error fails the future with a
// *HandlerError.
type ErrorHandler func(err error) (interface{}, error)

// Future is the single-resolution handle of an asynchronous send. It
// resolves exactly once; all methods are safe for concurrent use. The
// value is an interface{} because a Callback may replace the canonical
// response with an arbitrary value.
type Future struct {
	done  chan struct{}
	once  sync.Once
	value interface{}
	err   error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// resolve records the outcome and unblocks waiters. Later calls are
// no-ops.
func (f *Future) resolve(value interface{}, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Done returns a channel that is closed when the future resolves.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future resolves or ctx is done, whichever comes
// first. A ctx expiry returns ctx.Err() and leaves the future itself
// untouched; it may still resolve later.
func (f *Future) Wait(ctx context.Context) (interface{}, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result blocks until the future resolves and returns its outcome.
func (f *Future) Result() (interface{}, error) {
	<-f.done
	return f.value, f.err
}

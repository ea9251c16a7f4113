package future

import (
	"sync"

	"github.com/kbukum/pullstream/errors"
	"github.com/kbukum/pullstream/loop"
)

type handler[T any] struct {
	onValue func(T)
	onError func(error)
}

// Future is the read side of a single eventual outcome.
type Future[T any] struct {
	sched    loop.Scheduler
	mu       sync.Mutex
	settled  bool
	value    T
	err      error
	handlers []handler[T]
}

// Promise settles its Future exactly once.
type Promise[T any] struct {
	f *Future[T]
}

// NewPromise creates an unsettled promise whose handlers run on s.
func NewPromise[T any](s loop.Scheduler) *Promise[T] {
	return &Promise[T]{f: &Future[T]{sched: s}}
}

// Future returns the read side of the promise.
func (p *Promise[T]) Future() *Future[T] { return p.f }

// Resolve settles the future with v. It returns an ALREADY_SETTLED error if
// the future was settled before.
func (p *Promise[T]) Resolve(v T) error {
	return p.f.settle(v, nil)
}

// Reject settles the future with err. A nil err is replaced with an internal
// error so a rejected future always carries a failure.
func (p *Promise[T]) Reject(err error) error {
	if err == nil {
		err = errors.New(errors.ErrCodeInternal, "promise rejected with nil error")
	}
	var zero T
	return p.f.settle(zero, err)
}

func (f *Future[T]) settle(v T, err error) error {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return errors.AlreadySettled()
	}
	f.settled = true
	f.value = v
	f.err = err
	pending := f.handlers
	f.handlers = nil
	f.mu.Unlock()

	for _, h := range pending {
		f.dispatch(h)
	}
	return nil
}

// Then registers handlers for the outcome. Exactly one of onValue or onError
// is called, on a later scheduler turn. Either may be nil.
func (f *Future[T]) Then(onValue func(T), onError func(error)) {
	h := handler[T]{onValue: onValue, onError: onError}
	f.mu.Lock()
	if !f.settled {
		f.handlers = append(f.handlers, h)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	f.dispatch(h)
}

func (f *Future[T]) dispatch(h handler[T]) {
	f.sched.Schedule(func() {
		v, err := f.value, f.err
		switch {
		case err != nil:
			if h.onError != nil {
				h.onError(err)
			}
		case h.onValue != nil:
			h.onValue(v)
		}
	})
}

// Settled reports whether the future has been resolved or rejected.
func (f *Future[T]) Settled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settled
}

// Poll returns the outcome without blocking. ok is false while unsettled.
func (f *Future[T]) Poll() (value T, ok bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.settled {
		var zero T
		return zero, false, nil
	}
	return f.value, true, f.err
}

// Rejected returns a future that is rejected with err on the next turn.
func Rejected[T any](s loop.Scheduler, err error) *Future[T] {
	p := NewPromise[T](s)
	s.Schedule(func() { _ = p.Reject(err) })
	return p.Future()
}

// Resolved returns a future that is resolved with v on the next turn.
func Resolved[T any](s loop.Scheduler, v T) *Future[T] {
	p := NewPromise[T](s)
	s.Schedule(func() { _ = p.Resolve(v) })
	return p.Future()
}

package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const dialKey = "dial"

// ErrHandleReset is returned to callers whose in-flight dial finished after Reset.
var ErrHandleReset = errors.New("connection was reset while dialing")

// Lazy holds a process-wide handle that is established on first use.
// Concurrent first callers share one in-flight dial; a failed dial is not cached.
type Lazy[T any] struct {
	dial    func(ctx context.Context) (T, error)
	release func(T)
	timeout time.Duration

	group singleflight.Group
	mu    sync.RWMutex
	value T
	ready bool
	gen   uint64
}

// NewLazy builds a Lazy handle. release, when set, closes handles whose dial
// completed after Reset; nil leaves them to the garbage collector.
func NewLazy[T any](
	dial func(ctx context.Context) (T, error),
	release func(T),
	timeout time.Duration,
) *Lazy[T] {
	return &Lazy[T]{dial: dial, release: release, timeout: timeout}
}

//nolint:ireturn
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	if v, ok := l.cached(); ok {
		return v, nil
	}

	res, err, _ := l.group.Do(dialKey, func() (any, error) {
		l.mu.RLock()
		v, ok, gen := l.value, l.ready, l.gen
		l.mu.RUnlock()
		if ok {
			return v, nil
		}

		// The dial outlives the caller that triggered it: other callers may be waiting on it.
		dialCtx := context.WithoutCancel(ctx)
		if l.timeout > 0 {
			var cancel context.CancelFunc
			dialCtx, cancel = context.WithTimeout(dialCtx, l.timeout)
			defer cancel()
		}

		v, err := l.dial(dialCtx)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		if l.gen != gen {
			l.mu.Unlock()
			if l.release != nil {
				l.release(v)
			}
			return nil, ErrHandleReset
		}
		l.value = v
		l.ready = true
		l.mu.Unlock()

		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return res.(T), nil //nolint:forcetypeassert
}

// Peek returns the handle only if it was already established.
//
//nolint:ireturn
func (l *Lazy[T]) Peek() (T, bool) {
	return l.cached()
}

// Reset forgets the established handle and returns it so the caller can release it.
// A dial still in flight is released when it completes instead of being cached.
//
//nolint:ireturn
func (l *Lazy[T]) Reset() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.value, l.ready
	var zero T
	l.value = zero
	l.ready = false
	l.gen++
	l.group.Forget(dialKey)
	return v, ok
}

//nolint:ireturn
func (l *Lazy[T]) cached() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.value, l.ready
}

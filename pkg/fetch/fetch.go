// Package fetch runs network-bound loads with a hard timeout and discards
// results that were superseded by a newer request. Ordering is by request
// token, not by completion order: the last request to start wins.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultTimeout bounds a load when the caller does not supply one.
const DefaultTimeout = 5 * time.Second

var (
	// ErrSuperseded is returned when a newer request started before this one
	// finished. Its result has been discarded.
	ErrSuperseded = errors.New("request superseded by newer request")
	// ErrTimeout is returned when a load exceeds its timeout.
	ErrTimeout = errors.New("request timed out")
)

// Token identifies one request issued by a Guard.
type Token uint64

// Guard issues request tokens. Only the most recently issued token is current.
type Guard struct {
	mu  sync.Mutex
	gen uint64
}

// Begin issues a new token, superseding every earlier one.
func (g *Guard) Begin() Token {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	return Token(g.gen)
}

// Current reports whether t is still the latest token.
func (g *Guard) Current(t Token) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return uint64(t) == g.gen
}

// Commit runs fn only if t is still current, holding the guard's lock so no
// newer request can begin in between. It reports whether fn ran.
func (g *Guard) Commit(t Token, fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if uint64(t) != g.gen {
		return false
	}
	fn()
	return true
}

type result[T any] struct {
	val T
	err error
}

// Run calls fn in its own goroutine and waits for it, the timeout, or ctx
// cancellation, whichever comes first. On timeout the goroutine may still be
// running; its result is dropped. A panic inside fn becomes an error.
func Run[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch := make(chan result[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result[T]{err: fmt.Errorf("panic during fetch: %v", r)}
			}
		}()
		v, err := fn(ctx)
		ch <- result[T]{val: v, err: err}
	}()

	var zero T
	select {
	case res := <-ch:
		if res.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return res.val, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return zero, ctx.Err()
	}
}

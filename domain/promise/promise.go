// Package promise implements bounded polling for asynchronous page state.
// A promise repeatedly evaluates a check at a fixed interval until it is
// satisfied or the try limit is exhausted.
package promise

import (
	"context"
	"fmt"
	"time"
)

// Defaults used when no options are given.
const (
	DefaultTryLimit    = 60
	DefaultTryInterval = 500 * time.Millisecond
)

// BrokenPromise is returned when a promise is never fulfilled within its
// try limit. There is no wider error taxonomy; every unmet wait fails the
// same way.
type BrokenPromise struct {
	Description string
}

func (e *BrokenPromise) Error() string {
	return fmt.Sprintf("promise not fulfilled: %s", e.Description)
}

// CheckFunc evaluates the awaited condition once. It returns the value the
// caller is waiting for and whether the condition held. A check that cannot
// be evaluated yet should simply report false.
type CheckFunc[T any] func(ctx context.Context) (T, bool)

// Promise polls a check until it is satisfied
type Promise[T any] struct {
	check       CheckFunc[T]
	description string
	tryLimit    int
	tryInterval time.Duration
}

// Option adjusts polling behavior
type Option func(*settings)

type settings struct {
	tryLimit    int
	tryInterval time.Duration
}

// WithTryLimit sets the maximum number of checks before the promise breaks
func WithTryLimit(n int) Option {
	return func(s *settings) { s.tryLimit = n }
}

// WithTryInterval sets the pause between checks
func WithTryInterval(d time.Duration) Option {
	return func(s *settings) { s.tryInterval = d }
}

// New - creates a promise over a value-producing check
func New[T any](check CheckFunc[T], description string, opts ...Option) *Promise[T] {
	s := settings{tryLimit: DefaultTryLimit, tryInterval: DefaultTryInterval}
	for _, opt := range opts {
		opt(&s)
	}
	return &Promise[T]{
		check:       check,
		description: description,
		tryLimit:    s.tryLimit,
		tryInterval: s.tryInterval,
	}
}

// Fulfill polls the check until it is satisfied, returning the produced
// value. A promise that never fulfills within the try limit returns
// *BrokenPromise; a cancelled context returns ctx.Err().
func (p *Promise[T]) Fulfill(ctx context.Context) (T, error) {
	var zero T

	for attempt := 0; attempt < p.tryLimit; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		if value, ok := p.check(ctx); ok {
			return value, nil
		}

		// No pause after the final attempt
		if attempt == p.tryLimit-1 {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(p.tryInterval):
		}
	}

	return zero, &BrokenPromise{Description: p.description}
}

// EmptyPromise waits for a boolean condition with no produced value
type EmptyPromise struct {
	inner *Promise[struct{}]
}

// NewEmpty - creates a promise over a boolean check
func NewEmpty(check func(ctx context.Context) bool, description string, opts ...Option) *EmptyPromise {
	wrapped := func(ctx context.Context) (struct{}, bool) {
		return struct{}{}, check(ctx)
	}
	return &EmptyPromise{inner: New(wrapped, description, opts...)}
}

// Fulfill polls until the condition holds
func (p *EmptyPromise) Fulfill(ctx context.Context) error {
	_, err := p.inner.Fulfill(ctx)
	return err
}

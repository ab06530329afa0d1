package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	naverrors "github.com/vango-dev/nav/internal/errors"
)

// suspender wraps every external call a navigation makes: lazy loads,
// guards and resolvers. After each call it checks whether the navigation
// was superseded and, if so, discards the result.
type suspender struct {
	// timeout bounds each call; zero waits indefinitely.
	timeout time.Duration
	// stale returns a canceling error once a newer navigation was scheduled.
	stale func() error
}

func suspend[T any](ctx context.Context, s *suspender, fn func(context.Context) (T, error)) (T, error) {
	var timeout time.Duration
	if s != nil {
		timeout = s.timeout
	}
	v, err := callWithTimeout(ctx, timeout, fn)
	if s != nil && s.stale != nil {
		if serr := s.stale(); serr != nil {
			var zero T
			return zero, serr
		}
	}
	return v, err
}

// callWithTimeout runs fn, giving up after timeout. A call that times out
// keeps running in its goroutine; its result is dropped.
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		ch <- result{v: v, err: err}
	}()

	select {
	case res := <-ch:
		return res.v, res.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, naverrors.New(naverrors.CodeGuardTimeout).
				WithDetail(fmt.Sprintf("no result after %s", timeout)).
				Wrap(ErrGuardTimeout)
		}
		return zero, ctx.Err()
	}
}

// guardFailure attributes err to the guard or resolver that returned it.
// Cancellations pass through unchanged.
func guardFailure(kind, name string, err error) error {
	if IsNavigationCanceling(err) {
		return err
	}
	var ge *GuardError
	if errors.As(err, &ge) {
		return err
	}
	return &GuardError{Kind: kind, Name: name, Err: err}
}

package router

import (
	"context"
	"sync"
)

// Navigation is the handle of a scheduled navigation. It settles exactly
// once: true when the navigation committed, false when it was canceled, or
// with the error returned by the router's ErrorHandler.
type Navigation struct {
	id  int64
	url string

	once sync.Once
	done chan struct{}
	ok   bool
	err  error
}

func newNavigation(id int64, url string) *Navigation {
	return &Navigation{id: id, url: url, done: make(chan struct{})}
}

// settledNavigation returns a handle that is already settled. Navigations
// coalesced with an earlier one and requests that fail before scheduling
// get one.
func settledNavigation(url string, ok bool, err error) *Navigation {
	n := newNavigation(0, url)
	n.settle(ok, err)
	return n
}

func (n *Navigation) settle(ok bool, err error) {
	n.once.Do(func() {
		n.ok = ok
		n.err = err
		close(n.done)
	})
}

// ID returns the navigation id, or 0 if the navigation was never scheduled.
func (n *Navigation) ID() int64 {
	return n.id
}

// URL returns the requested URL.
func (n *Navigation) URL() string {
	return n.url
}

// Done is closed when the navigation settles.
func (n *Navigation) Done() <-chan struct{} {
	return n.done
}

// Result blocks until the navigation settles and returns its outcome.
func (n *Navigation) Result() (bool, error) {
	<-n.done
	return n.ok, n.err
}

// Wait is Result bounded by ctx.
func (n *Navigation) Wait(ctx context.Context) (bool, error) {
	select {
	case <-n.done:
		return n.ok, n.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

package router

import (
	"sync"

	"github.com/vango-dev/nav/pkg/tree"
)

// DetachedRouteHandle is what a ReuseStrategy stores for a detached route:
// the component, the subtree of live routes below it and the contexts of
// its nested outlets.
type DetachedRouteHandle struct {
	Component any

	route    *tree.Node[*ActivatedRoute]
	contexts map[string]*OutletContext
}

// Route returns the detached live route.
func (h *DetachedRouteHandle) Route() *ActivatedRoute {
	return h.route.Value
}

// ReuseStrategy decides which live routes survive a navigation.
type ReuseStrategy interface {
	// ShouldDetach reports whether a route being left is stored instead of
	// destroyed.
	ShouldDetach(route *RouteSnapshot) bool
	// Store saves a detached route. A nil handle deletes what is stored.
	Store(route *RouteSnapshot, handle *DetachedRouteHandle)
	// ShouldAttach reports whether a stored route is reattached for route.
	ShouldAttach(route *RouteSnapshot) bool
	// Retrieve returns the stored handle for route, or nil.
	Retrieve(route *RouteSnapshot) *DetachedRouteHandle
	// ShouldReuseRoute reports whether the live route for current is kept
	// for future.
	ShouldReuseRoute(future, current *RouteSnapshot) bool
}

// DefaultReuseStrategy reuses a live route when the same Route matched, and
// never detaches.
type DefaultReuseStrategy struct{}

func (DefaultReuseStrategy) ShouldDetach(*RouteSnapshot) bool { return false }
func (DefaultReuseStrategy) Store(*RouteSnapshot, *DetachedRouteHandle) {}
func (DefaultReuseStrategy) ShouldAttach(*RouteSnapshot) bool { return false }
func (DefaultReuseStrategy) Retrieve(*RouteSnapshot) *DetachedRouteHandle { return nil }
func (DefaultReuseStrategy) ShouldReuseRoute(future, current *RouteSnapshot) bool {
	return future.RouteConfig == current.RouteConfig
}

// KeepAliveKey is the Route.Data key that opts a route into KeepAliveStrategy.
const KeepAliveKey = "keepAlive"

// KeepAliveStrategy detaches routes whose data sets KeepAliveKey to true and
// reattaches them when the same Route matches again.
type KeepAliveStrategy struct {
	DefaultReuseStrategy

	mu     sync.Mutex
	stored map[*Route]*DetachedRouteHandle
}

// NewKeepAliveStrategy creates an empty strategy.
func NewKeepAliveStrategy() *KeepAliveStrategy {
	return &KeepAliveStrategy{stored: make(map[*Route]*DetachedRouteHandle)}
}

func (s *KeepAliveStrategy) ShouldDetach(route *RouteSnapshot) bool {
	if route.RouteConfig == nil {
		return false
	}
	keep, _ := route.RouteConfig.Data[KeepAliveKey].(bool)
	return keep
}

func (s *KeepAliveStrategy) Store(route *RouteSnapshot, handle *DetachedRouteHandle) {
	if route.RouteConfig == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if handle == nil {
		delete(s.stored, route.RouteConfig)
		return
	}
	s.stored[route.RouteConfig] = handle
}

func (s *KeepAliveStrategy) ShouldAttach(route *RouteSnapshot) bool {
	return s.Retrieve(route) != nil
}

func (s *KeepAliveStrategy) Retrieve(route *RouteSnapshot) *DetachedRouteHandle {
	if route.RouteConfig == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stored[route.RouteConfig]
}

// Len returns the number of stored routes.
func (s *KeepAliveStrategy) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stored)
}

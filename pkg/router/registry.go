package router

import (
	"context"
	"sync"

	naverrors "github.com/vango-dev/nav/internal/errors"
)

// CanActivateFunc decides whether route may be activated in the future state.
type CanActivateFunc func(ctx context.Context, route *RouteSnapshot, state *StateSnapshot) (bool, error)

// CanActivateChildFunc decides whether a descendant of the route holding the
// guard may be activated. It receives the descendant.
type CanActivateChildFunc func(ctx context.Context, child *RouteSnapshot, state *StateSnapshot) (bool, error)

// CanDeactivateFunc decides whether the current route may be left. component
// is what the outlet currently shows, or nil.
type CanDeactivateFunc func(ctx context.Context, component any, current *RouteSnapshot, currentState, nextState *StateSnapshot) (bool, error)

// CanLoadFunc decides whether the lazily loaded children of route may be
// fetched.
type CanLoadFunc func(ctx context.Context, route *Route) (bool, error)

// ResolveFunc produces one data value for the route before activation.
type ResolveFunc func(ctx context.Context, route *RouteSnapshot, state *StateSnapshot) (any, error)

// Registry maps guard and resolver names to implementations. Lookups that
// miss fall back to the parent registry, which is how lazily loaded tables
// see the guards of the table that loaded them.
type Registry struct {
	parent *Registry

	mu               sync.RWMutex
	canActivate      map[string]CanActivateFunc
	canActivateChild map[string]CanActivateChildFunc
	canDeactivate    map[string]CanDeactivateFunc
	canLoad          map[string]CanLoadFunc
	resolvers        map[string]ResolveFunc
}

// NewRegistry creates an empty root registry.
func NewRegistry() *Registry {
	return &Registry{
		canActivate:      make(map[string]CanActivateFunc),
		canActivateChild: make(map[string]CanActivateChildFunc),
		canDeactivate:    make(map[string]CanDeactivateFunc),
		canLoad:          make(map[string]CanLoadFunc),
		resolvers:        make(map[string]ResolveFunc),
	}
}

// Child creates a registry scoped below r.
func (r *Registry) Child() *Registry {
	c := NewRegistry()
	c.parent = r
	return c
}

// Parent returns the enclosing registry, or nil for the root.
func (r *Registry) Parent() *Registry {
	return r.parent
}

// CanActivate registers a canActivate guard.
func (r *Registry) CanActivate(name string, fn CanActivateFunc) *Registry {
	r.mu.Lock()
	r.canActivate[name] = fn
	r.mu.Unlock()
	return r
}

// CanActivateChild registers a canActivateChild guard.
func (r *Registry) CanActivateChild(name string, fn CanActivateChildFunc) *Registry {
	r.mu.Lock()
	r.canActivateChild[name] = fn
	r.mu.Unlock()
	return r
}

// CanDeactivate registers a canDeactivate guard.
func (r *Registry) CanDeactivate(name string, fn CanDeactivateFunc) *Registry {
	r.mu.Lock()
	r.canDeactivate[name] = fn
	r.mu.Unlock()
	return r
}

// CanLoad registers a canLoad guard.
func (r *Registry) CanLoad(name string, fn CanLoadFunc) *Registry {
	r.mu.Lock()
	r.canLoad[name] = fn
	r.mu.Unlock()
	return r
}

// Resolver registers a data resolver.
func (r *Registry) Resolver(name string, fn ResolveFunc) *Registry {
	r.mu.Lock()
	r.resolvers[name] = fn
	r.mu.Unlock()
	return r
}

// lookup walks the scope chain until pick finds name.
func lookup[F any](r *Registry, pick func(*Registry) (F, bool)) (F, bool) {
	for cur := r; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		fn, ok := pick(cur)
		cur.mu.RUnlock()
		if ok {
			return fn, true
		}
	}
	var zero F
	return zero, false
}

func (r *Registry) lookupCanActivate(name string) (CanActivateFunc, error) {
	fn, ok := lookup(r, func(c *Registry) (CanActivateFunc, bool) { f, ok := c.canActivate[name]; return f, ok })
	if !ok {
		return nil, unknownGuard("canActivate", name)
	}
	return fn, nil
}

func (r *Registry) lookupCanActivateChild(name string) (CanActivateChildFunc, error) {
	fn, ok := lookup(r, func(c *Registry) (CanActivateChildFunc, bool) { f, ok := c.canActivateChild[name]; return f, ok })
	if !ok {
		return nil, unknownGuard("canActivateChild", name)
	}
	return fn, nil
}

func (r *Registry) lookupCanDeactivate(name string) (CanDeactivateFunc, error) {
	fn, ok := lookup(r, func(c *Registry) (CanDeactivateFunc, bool) { f, ok := c.canDeactivate[name]; return f, ok })
	if !ok {
		return nil, unknownGuard("canDeactivate", name)
	}
	return fn, nil
}

func (r *Registry) lookupCanLoad(name string) (CanLoadFunc, error) {
	fn, ok := lookup(r, func(c *Registry) (CanLoadFunc, bool) { f, ok := c.canLoad[name]; return f, ok })
	if !ok {
		return nil, unknownGuard("canLoad", name)
	}
	return fn, nil
}

func (r *Registry) lookupResolver(name string) (ResolveFunc, error) {
	fn, ok := lookup(r, func(c *Registry) (ResolveFunc, bool) { f, ok := c.resolvers[name]; return f, ok })
	if !ok {
		return nil, &GuardError{Kind: "resolve", Name: name, Err: naverrors.New(naverrors.CodeUnknownResolver)}
	}
	return fn, nil
}

func unknownGuard(kind, name string) error {
	return &GuardError{Kind: kind, Name: name, Err: naverrors.New(naverrors.CodeUnknownGuard)}
}

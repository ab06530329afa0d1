package main

import (
	"context"

	"github.com/vango-dev/nav/pkg/router"
)

// guardPolicy stands in for the guards and resolvers a table names. Guards
// listed in deny reject; every other guard allows. Resolvers resolve to
// their own name.
type guardPolicy struct {
	deny map[string]bool
}

func newGuardPolicy(deny []string) guardPolicy {
	p := guardPolicy{deny: make(map[string]bool, len(deny))}
	for _, name := range deny {
		p.deny[name] = true
	}
	return p
}

func (p guardPolicy) allow(name string) bool {
	return !p.deny[name]
}

// register installs stubs for every name routes and their children use.
func (p guardPolicy) register(reg *router.Registry, routes []*router.Route) {
	for _, r := range routes {
		for _, name := range r.CanActivate {
			ok := p.allow(name)
			reg.CanActivate(name, func(context.Context, *router.RouteSnapshot, *router.StateSnapshot) (bool, error) {
				return ok, nil
			})
		}
		for _, name := range r.CanActivateChild {
			ok := p.allow(name)
			reg.CanActivateChild(name, func(context.Context, *router.RouteSnapshot, *router.StateSnapshot) (bool, error) {
				return ok, nil
			})
		}
		for _, name := range r.CanDeactivate {
			ok := p.allow(name)
			reg.CanDeactivate(name, func(context.Context, any, *router.RouteSnapshot, *router.StateSnapshot, *router.StateSnapshot) (bool, error) {
				return ok, nil
			})
		}
		for _, name := range r.CanLoad {
			ok := p.allow(name)
			reg.CanLoad(name, func(context.Context, *router.Route) (bool, error) {
				return ok, nil
			})
		}
		for _, name := range r.Resolve {
			value := name
			reg.Resolver(name, func(context.Context, *router.RouteSnapshot, *router.StateSnapshot) (any, error) {
				return value, nil
			})
		}
		p.register(reg, r.Children)
	}
}

package router

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// LoadedConfig is the result of loading a lazily configured branch: its
// route table and the registry its guards and resolvers are looked up in.
type LoadedConfig struct {
	Routes   []*Route
	Registry *Registry
}

// ConfigLoader fetches the child table named by Route.LoadChildren. parent is
// the registry in scope where the route is declared; a loader that has its
// own guards returns parent.Child() populated with them.
type ConfigLoader interface {
	Load(ctx context.Context, parent *Registry, route *Route) (*LoadedConfig, error)
}

// ConfigLoaderFunc is a function adapter for ConfigLoader.
type ConfigLoaderFunc func(ctx context.Context, parent *Registry, route *Route) (*LoadedConfig, error)

// Load implements ConfigLoader.
func (f ConfigLoaderFunc) Load(ctx context.Context, parent *Registry, route *Route) (*LoadedConfig, error) {
	return f(ctx, parent, route)
}

// routeLoader loads each lazily configured route at most once per process
// and caches the result on the route. Concurrent loads of the same route,
// from a navigation and the preloader, share one call. The shared call runs
// detached from the cancellation of whichever caller started it; each caller
// stops waiting when its own context ends.
type routeLoader struct {
	loader ConfigLoader
	group  singleflight.Group
	emit   func(Event)
}

func (l *routeLoader) load(ctx context.Context, parent *Registry, route *Route) (*LoadedConfig, error) {
	if cfg := route.loaded.Load(); cfg != nil {
		return cfg, nil
	}
	if l.loader == nil {
		return nil, &LoadError{Route: route.Path, Err: ErrNoLoader}
	}

	key := fmt.Sprintf("%p", route)
	detached := context.WithoutCancel(ctx)
	ch := l.group.DoChan(key, func() (any, error) {
		if cfg := route.loaded.Load(); cfg != nil {
			return cfg, nil
		}

		l.emit(RouteConfigLoadStart{Route: route})
		cfg, err := l.loader.Load(detached, parent, route)
		if err != nil {
			return nil, &LoadError{Route: route.Path, Err: err}
		}
		if cfg == nil {
			cfg = &LoadedConfig{}
		}
		loaded := &LoadedConfig{Routes: cfg.Routes, Registry: cfg.Registry}
		if loaded.Registry == nil {
			loaded.Registry = parent
		}
		if err := validateConfigAt(loaded.Routes, route.Path); err != nil {
			return nil, err
		}
		standardizeConfig(loaded.Routes)

		route.loaded.Store(loaded)
		l.emit(RouteConfigLoadEnd{Route: route})
		return loaded, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*LoadedConfig), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

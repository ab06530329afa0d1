package router

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Preload loads, in the background of navigations, every lazily configured
// route the PreloadingStrategy selects. Routes guarded by canLoad are never
// preloaded. Branches of one level load concurrently.
func (r *Router) Preload(ctx context.Context) error {
	r.mu.Lock()
	config := r.config
	r.mu.Unlock()
	return r.preloadRoutes(ctx, r.opts.registry, config)
}

func (r *Router) preloadRoutes(ctx context.Context, scope *Registry, routes []*Route) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, route := range routes {
		route := route
		lazy := route.LoadChildren != "" && len(route.CanLoad) == 0

		switch {
		case lazy && route.Loaded() != nil:
			cfg := route.Loaded()
			g.Go(func() error { return r.preloadRoutes(ctx, cfg.Registry, cfg.Routes) })
		case lazy:
			if !r.opts.preloading.ShouldPreload(route) {
				continue
			}
			g.Go(func() error {
				cfg, err := r.loader.load(ctx, scope, route)
				if err != nil {
					return err
				}
				r.log.Debug("route preloaded", "path", route.Path, "routes", len(cfg.Routes))
				return r.preloadRoutes(ctx, cfg.Registry, cfg.Routes)
			})
		case route.Children != nil:
			g.Go(func() error { return r.preloadRoutes(ctx, scope, route.Children) })
		}
	}
	return g.Wait()
}

package router

import (
	"context"
	"sort"

	"github.com/vango-dev/nav/pkg/urltree"
)

// =============================================================================
// Guard Planning
// =============================================================================

// canActivateCheck is a route to activate together with its path from the
// root, whose strict ancestors contribute canActivateChild guards.
type canActivateCheck struct {
	path []*RouteSnapshot
}

func (c canActivateCheck) route() *RouteSnapshot {
	return c.path[len(c.path)-1]
}

// canDeactivateCheck is a current route to leave and the component its
// outlet shows, if any.
type canDeactivateCheck struct {
	component any
	route     *RouteSnapshot
}

// guardChecks is the plan computed by diffing the future snapshot against
// the current one. Deactivations are listed leaf first and activations root
// first.
type guardChecks struct {
	canActivate   []canActivateCheck
	canDeactivate []canDeactivateCheck
}

func (g *guardChecks) isActivating() bool {
	return len(g.canActivate) > 0
}

func (g *guardChecks) isDeactivating() bool {
	return len(g.canDeactivate) > 0
}

// planGuards walks future and current in lock-step by outlet.
func planGuards(future, current *StateSnapshot, contexts *OutletContexts) *guardChecks {
	g := &guardChecks{}
	var currRoot *RouteSnapshot
	if current != nil {
		currRoot = current.Root()
	}
	g.childRouteGuards(future, current, future.Root(), currRoot, contexts, []*RouteSnapshot{future.Root()})
	return g
}

func (g *guardChecks) childRouteGuards(fs, cs *StateSnapshot, future, curr *RouteSnapshot, contexts *OutletContexts, path []*RouteSnapshot) {
	prev := childrenByOutlet(cs, curr)
	for _, child := range fs.tree.Children(future) {
		g.routeGuards(fs, cs, child, prev[child.Outlet], contexts, extendPath(path, child))
		delete(prev, child.Outlet)
	}
	if curr == nil {
		return
	}
	for _, left := range cs.tree.Children(curr) {
		if _, ok := prev[left.Outlet]; ok {
			g.deactivateRouteAndItsChildren(cs, left, contexts.getContext(left.Outlet))
		}
	}
}

func (g *guardChecks) routeGuards(fs, cs *StateSnapshot, future, curr *RouteSnapshot, contexts *OutletContexts, path []*RouteSnapshot) {
	oc := contexts.getContext(future.Outlet)

	if curr != nil && future.RouteConfig == curr.RouteConfig {
		shouldRun := shouldRunGuardsAndResolvers(curr, future, future.RouteConfig.RunGuardsAndResolvers)
		if shouldRun {
			g.canActivate = append(g.canActivate, canActivateCheck{path: path})
		} else {
			future.Data = curr.Data
			future.resolvedData = curr.resolvedData
		}

		if future.Component != nil {
			g.childRouteGuards(fs, cs, future, curr, oc.childContexts(), path)
		} else {
			g.childRouteGuards(fs, cs, future, curr, contexts, path)
		}

		if shouldRun {
			g.canDeactivate = append(g.canDeactivate, canDeactivateCheck{component: oc.activeComponent(), route: curr})
		}
		return
	}

	if curr != nil {
		g.deactivateRouteAndItsChildren(cs, curr, oc)
	}
	g.canActivate = append(g.canActivate, canActivateCheck{path: path})
	if future.Component != nil {
		g.childRouteGuards(fs, nil, future, nil, oc.childContexts(), path)
	} else {
		g.childRouteGuards(fs, nil, future, nil, contexts, path)
	}
}

func (g *guardChecks) deactivateRouteAndItsChildren(cs *StateSnapshot, route *RouteSnapshot, oc *OutletContext) {
	for _, child := range cs.tree.Children(route) {
		switch {
		case route.Component == nil:
			g.deactivateRouteAndItsChildren(cs, child, oc)
		case oc != nil:
			g.deactivateRouteAndItsChildren(cs, child, oc.children.getContext(child.Outlet))
		default:
			g.deactivateRouteAndItsChildren(cs, child, nil)
		}
	}

	var component any
	if route.Component != nil {
		component = oc.activeComponent()
	}
	g.canDeactivate = append(g.canDeactivate, canDeactivateCheck{component: component, route: route})
}

func shouldRunGuardsAndResolvers(curr, future *RouteSnapshot, mode RunGuardsAndResolvers) bool {
	switch mode {
	case RunAlways:
		return true
	case RunOnParamsOrQueryParamsChange:
		return !equalParamsAndURLSegments(curr, future) || !equalQuery(curr.QueryParams, future.QueryParams)
	default:
		return !equalParamsAndURLSegments(curr, future)
	}
}

// equalParamsAndURLSegments compares parameters and consumed segments of a
// and b and of all their ancestors.
func equalParamsAndURLSegments(a, b *RouteSnapshot) bool {
	if !equalStringMaps(a.Params, b.Params) || !urltree.EqualSegments(a.URL, b.URL) {
		return false
	}
	ap, bp := a.Parent(), b.Parent()
	if (ap == nil) != (bp == nil) {
		return false
	}
	return ap == nil || equalParamsAndURLSegments(ap, bp)
}

func childrenByOutlet(st *StateSnapshot, s *RouteSnapshot) map[string]*RouteSnapshot {
	m := map[string]*RouteSnapshot{}
	if st == nil || s == nil {
		return m
	}
	for _, c := range st.tree.Children(s) {
		m[c.Outlet] = c
	}
	return m
}

func extendPath(path []*RouteSnapshot, s *RouteSnapshot) []*RouteSnapshot {
	out := make([]*RouteSnapshot, len(path)+1)
	copy(out, path)
	out[len(path)] = s
	return out
}

// =============================================================================
// Guard Execution
// =============================================================================

// guardRunner executes a plan one guard at a time. The first guard that
// returns false or fails stops the run.
type guardRunner struct {
	ctx     context.Context
	calls   *suspender
	emit    func(Event)
	future  *StateSnapshot
	current *StateSnapshot
}

// checkGuards runs every canDeactivate guard, then for each activating route
// the canActivateChild guards of its ancestors, nearest first, followed by
// its own canActivate guards.
func (r *guardRunner) checkGuards(checks *guardChecks) (bool, error) {
	if !checks.isDeactivating() && !checks.isActivating() {
		return true, nil
	}

	for _, check := range checks.canDeactivate {
		ok, err := r.runCanDeactivate(check)
		if err != nil || !ok {
			return false, err
		}
	}

	for _, check := range checks.canActivate {
		route := check.route()
		if parent := route.Parent(); parent != nil {
			r.emit(ChildActivationStart{Snapshot: parent})
		}
		r.emit(ActivationStart{Snapshot: route})

		ok, err := r.runCanActivateChild(check.path)
		if err != nil || !ok {
			return false, err
		}
		ok, err = r.runCanActivate(route)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (r *guardRunner) runCanDeactivate(check canDeactivateCheck) (bool, error) {
	cfg := check.route.RouteConfig
	if cfg == nil {
		return true, nil
	}
	for _, name := range cfg.CanDeactivate {
		fn, err := check.route.registry.lookupCanDeactivate(name)
		if err != nil {
			return false, err
		}
		ok, err := suspend(r.ctx, r.calls, func(ctx context.Context) (bool, error) {
			return fn(ctx, check.component, check.route, r.current, r.future)
		})
		if err != nil {
			return false, guardFailure("canDeactivate", name, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (r *guardRunner) runCanActivateChild(path []*RouteSnapshot) (bool, error) {
	child := path[len(path)-1]
	for i := len(path) - 2; i >= 0; i-- {
		ancestor := path[i]
		if ancestor.RouteConfig == nil {
			continue
		}
		for _, name := range ancestor.RouteConfig.CanActivateChild {
			fn, err := ancestor.registry.lookupCanActivateChild(name)
			if err != nil {
				return false, err
			}
			ok, err := suspend(r.ctx, r.calls, func(ctx context.Context) (bool, error) {
				return fn(ctx, child, r.future)
			})
			if err != nil {
				return false, guardFailure("canActivateChild", name, err)
			}
			if !ok {
				return false, nil
			}
		}
	}
	return true, nil
}

func (r *guardRunner) runCanActivate(route *RouteSnapshot) (bool, error) {
	if route.RouteConfig == nil {
		return true, nil
	}
	for _, name := range route.RouteConfig.CanActivate {
		fn, err := route.registry.lookupCanActivate(name)
		if err != nil {
			return false, err
		}
		ok, err := suspend(r.ctx, r.calls, func(ctx context.Context) (bool, error) {
			return fn(ctx, route, r.future)
		})
		if err != nil {
			return false, guardFailure("canActivate", name, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// =============================================================================
// Data Resolution
// =============================================================================

// resolveData runs the resolvers of every activating route, root first, so
// that a route sees the resolved data of the ancestors it inherits from.
func (r *guardRunner) resolveData(checks *guardChecks, always bool) error {
	for _, check := range checks.canActivate {
		if err := r.runResolve(check.route(), always); err != nil {
			return err
		}
	}
	return nil
}

func (r *guardRunner) runResolve(route *RouteSnapshot, always bool) error {
	keys := make([]string, 0, len(route.resolve))
	for k := range route.resolve {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	resolved := make(map[string]any, len(keys))
	for _, key := range keys {
		name := route.resolve[key]
		fn, err := route.registry.lookupResolver(name)
		if err != nil {
			return err
		}
		v, err := suspend(r.ctx, r.calls, func(ctx context.Context) (any, error) {
			return fn(ctx, route, r.future)
		})
		if err != nil {
			return guardFailure("resolve", name, err)
		}
		resolved[key] = v
	}
	route.resolvedData = resolved

	data := make(map[string]any, len(route.Data)+len(resolved))
	for k, v := range route.Data {
		data[k] = v
	}
	for k, v := range inherited(route, always).resolve {
		data[k] = v
	}
	route.Data = data
	return nil
}

package router

// activator applies a committed navigation to the outlets: it deactivates
// or detaches what the new state no longer shows, publishes the new
// snapshots and activates or reattaches what it newly shows.
type activator struct {
	strategy ReuseStrategy
	future   *RouterState
	curr     *RouterState
	emit     func(Event)
	factory  OutletFactory
}

func (a *activator) activate(contexts *OutletContexts) {
	futureRoot := a.future.Root()
	var currRoot *ActivatedRoute
	if a.curr != nil {
		currRoot = a.curr.Root()
	}
	a.deactivateChildRoutes(futureRoot, currRoot, contexts)
	advanceActivatedRoute(futureRoot)
	a.activateChildRoutes(futureRoot, currRoot, contexts)
}

func (a *activator) currChildren(curr *ActivatedRoute) []*ActivatedRoute {
	if a.curr == nil || curr == nil {
		return nil
	}
	return a.curr.tree.Children(curr)
}

func (a *activator) currChildMap(curr *ActivatedRoute) map[string]*ActivatedRoute {
	m := map[string]*ActivatedRoute{}
	for _, c := range a.currChildren(curr) {
		m[c.Outlet] = c
	}
	return m
}

func (a *activator) deactivateChildRoutes(future, curr *ActivatedRoute, contexts *OutletContexts) {
	prev := a.currChildMap(curr)
	for _, fc := range a.future.tree.Children(future) {
		a.deactivateRoutes(fc, prev[fc.Outlet], contexts)
		delete(prev, fc.Outlet)
	}
	for _, left := range a.currChildren(curr) {
		if _, ok := prev[left.Outlet]; ok {
			a.deactivateRouteAndItsChildren(left, contexts)
		}
	}
}

func (a *activator) deactivateRoutes(future, curr *ActivatedRoute, parentContexts *OutletContexts) {
	if future == curr {
		if future.Component != nil {
			if ctx := parentContexts.getContext(future.Outlet); ctx != nil {
				a.deactivateChildRoutes(future, curr, ctx.children)
			}
		} else {
			a.deactivateChildRoutes(future, curr, parentContexts)
		}
		return
	}
	if curr != nil {
		a.deactivateRouteAndItsChildren(curr, parentContexts)
	}
}

func (a *activator) deactivateRouteAndItsChildren(route *ActivatedRoute, parentContexts *OutletContexts) {
	if a.strategy.ShouldDetach(route.Snapshot()) && a.detachAndStoreRouteSubtree(route, parentContexts) {
		return
	}
	a.deactivateRouteAndOutlet(route, parentContexts)
}

// detachAndStoreRouteSubtree hands the route, its subtree and its nested
// outlet contexts to the strategy. It reports false when there is no
// activated outlet to detach from.
func (a *activator) detachAndStoreRouteSubtree(route *ActivatedRoute, parentContexts *OutletContexts) bool {
	ctx := parentContexts.getContext(route.Outlet)
	if ctx == nil || ctx.outlet == nil {
		return false
	}
	component, err := ctx.outlet.Detach()
	if err != nil {
		return false
	}
	contexts := ctx.children.onOutletDeactivated()
	a.strategy.Store(route.Snapshot(), &DetachedRouteHandle{
		Component: component,
		route:     a.curr.tree.Subtree(route),
		contexts:  contexts,
	})
	return true
}

func (a *activator) deactivateRouteAndOutlet(route *ActivatedRoute, parentContexts *OutletContexts) {
	ctx := parentContexts.getContext(route.Outlet)
	if ctx == nil {
		return
	}
	contexts := parentContexts
	if route.Component != nil {
		contexts = ctx.children
	}
	for _, c := range a.currChildren(route) {
		a.deactivateRouteAndItsChildren(c, contexts)
	}
	if ctx.outlet != nil {
		ctx.outlet.Deactivate()
		ctx.children.onOutletDeactivated()
	}
}

func (a *activator) activateChildRoutes(future, curr *ActivatedRoute, contexts *OutletContexts) {
	prev := a.currChildMap(curr)
	children := a.future.tree.Children(future)
	for _, c := range children {
		a.activateRoutes(c, prev[c.Outlet], contexts)
		a.emit(ActivationEnd{Snapshot: c.Snapshot()})
	}
	if len(children) > 0 {
		a.emit(ChildActivationEnd{Snapshot: future.Snapshot()})
	}
}

func (a *activator) activateRoutes(future, curr *ActivatedRoute, parentContexts *OutletContexts) {
	advanceActivatedRoute(future)

	if future == curr {
		if future.Component != nil {
			ctx := parentContexts.getOrCreateContext(future.Outlet)
			a.activateChildRoutes(future, curr, ctx.children)
		} else {
			a.activateChildRoutes(future, curr, parentContexts)
		}
		return
	}

	if future.Component == nil {
		a.activateChildRoutes(future, nil, parentContexts)
		return
	}

	ctx := parentContexts.getOrCreateContext(future.Outlet)
	if a.strategy.ShouldAttach(future.Snapshot()) {
		if stored := a.strategy.Retrieve(future.Snapshot()); stored != nil {
			a.strategy.Store(future.Snapshot(), nil)
			ctx.children.onOutletReAttached(stored.contexts)
			ctx.attachRef = stored.Component
			ctx.route = stored.route.Value
			if outlet := a.outletFor(ctx, future.Outlet); outlet != nil {
				outlet.Attach(stored.Component, stored.route.Value)
			}
			advanceActivatedRouteTree(stored.route)
			return
		}
	}

	ctx.attachRef = nil
	ctx.route = future
	if outlet := a.outletFor(ctx, future.Outlet); outlet != nil {
		outlet.ActivateWith(future)
	}
	a.activateChildRoutes(future, nil, ctx.children)
}

// outletFor returns the outlet of ctx, creating one through the factory
// when no host registered it.
func (a *activator) outletFor(ctx *OutletContext, name string) Outlet {
	if ctx.outlet == nil && a.factory != nil {
		ctx.outlet = a.factory(name)
	}
	return ctx.outlet
}

package router

import (
	"errors"
	"sort"
	"sync"
)

// ErrOutletNotActivated is returned by Detach on an empty outlet.
var ErrOutletNotActivated = errors.New("router: outlet is not activated")

// Outlet is a slot a host renders routes into. The router drives it during
// activation; the host decides what showing a component means.
type Outlet interface {
	IsActivated() bool
	// Component returns the shown component, or nil.
	Component() any
	// ActivatedRoute returns the route the outlet shows, or nil.
	ActivatedRoute() *ActivatedRoute
	// ActivateWith shows a fresh instance for route.
	ActivateWith(route *ActivatedRoute)
	// Deactivate destroys what the outlet shows.
	Deactivate()
	// Detach removes the shown component without destroying it and returns
	// it for a later Attach.
	Detach() (any, error)
	// Attach shows a previously detached component for route.
	Attach(component any, route *ActivatedRoute)
}

// OutletFactory creates the outlet for name when a route activates into an
// outlet no host registered.
type OutletFactory func(name string) Outlet

// HeadlessOutlet is an Outlet that only records what it shows. It backs
// routers that run without a view layer, such as servers and tests.
type HeadlessOutlet struct {
	Name string

	mu        sync.Mutex
	component any
	route     *ActivatedRoute
	// Activations counts ActivateWith and Attach calls.
	activations int
}

// NewHeadlessOutlet is the default OutletFactory.
func NewHeadlessOutlet(name string) Outlet {
	return &HeadlessOutlet{Name: name}
}

func (o *HeadlessOutlet) IsActivated() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.route != nil
}

func (o *HeadlessOutlet) Component() any {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.component
}

func (o *HeadlessOutlet) ActivatedRoute() *ActivatedRoute {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.route
}

func (o *HeadlessOutlet) ActivateWith(route *ActivatedRoute) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.route = route
	o.component = route.Component
	o.activations++
}

func (o *HeadlessOutlet) Deactivate() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.route = nil
	o.component = nil
}

func (o *HeadlessOutlet) Detach() (any, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.route == nil {
		return nil, ErrOutletNotActivated
	}
	c := o.component
	o.route = nil
	o.component = nil
	return c, nil
}

func (o *HeadlessOutlet) Attach(component any, route *ActivatedRoute) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.route = route
	o.component = component
	o.activations++
}

// Activations returns how many times a component was shown.
func (o *HeadlessOutlet) Activations() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.activations
}

// OutletContext is the router-side record of one outlet: the outlet itself
// once a host registers it, the route it should show and the contexts of
// outlets nested inside it.
type OutletContext struct {
	outlet    Outlet
	route     *ActivatedRoute
	attachRef any
	children  *OutletContexts
}

func newOutletContext() *OutletContext {
	return &OutletContext{children: NewOutletContexts()}
}

// Outlet returns the registered outlet, or nil.
func (c *OutletContext) Outlet() Outlet {
	if c == nil {
		return nil
	}
	return c.outlet
}

// Route returns the route activated into this outlet, or nil.
func (c *OutletContext) Route() *ActivatedRoute {
	if c == nil {
		return nil
	}
	return c.route
}

// Children returns the contexts of the nested outlets.
func (c *OutletContext) Children() *OutletContexts {
	return c.childContexts()
}

func (c *OutletContext) childContexts() *OutletContexts {
	if c == nil {
		return nil
	}
	return c.children
}

func (c *OutletContext) activeComponent() any {
	if c == nil || c.outlet == nil || !c.outlet.IsActivated() {
		return nil
	}
	return c.outlet.Component()
}

// OutletContexts maps outlet names to contexts at one level of nesting.
// All methods accept a nil receiver as an empty set.
type OutletContexts struct {
	mu       sync.Mutex
	contexts map[string]*OutletContext
}

// NewOutletContexts creates an empty set.
func NewOutletContexts() *OutletContexts {
	return &OutletContexts{contexts: make(map[string]*OutletContext)}
}

// OnChildOutletCreated registers outlet under name. If a route is already
// waiting for it, the outlet is activated with it.
func (oc *OutletContexts) OnChildOutletCreated(name string, outlet Outlet) {
	ctx := oc.getOrCreateContext(name)
	ctx.outlet = outlet
	if outlet.IsActivated() || ctx.route == nil {
		return
	}
	if ctx.attachRef != nil {
		outlet.Attach(ctx.attachRef, ctx.route)
	} else {
		outlet.ActivateWith(ctx.route)
	}
}

// OnChildOutletDestroyed forgets the outlet registered under name.
func (oc *OutletContexts) OnChildOutletDestroyed(name string) {
	if ctx := oc.getContext(name); ctx != nil {
		ctx.outlet = nil
	}
}

// Context returns the context for name, or nil.
func (oc *OutletContexts) Context(name string) *OutletContext {
	return oc.getContext(name)
}

// Names returns the registered outlet names in sorted order.
func (oc *OutletContexts) Names() []string {
	if oc == nil {
		return nil
	}
	oc.mu.Lock()
	defer oc.mu.Unlock()
	names := make([]string, 0, len(oc.contexts))
	for n := range oc.contexts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// onOutletDeactivated clears the set and returns the previous contexts.
func (oc *OutletContexts) onOutletDeactivated() map[string]*OutletContext {
	if oc == nil {
		return nil
	}
	oc.mu.Lock()
	defer oc.mu.Unlock()
	prev := oc.contexts
	oc.contexts = make(map[string]*OutletContext)
	return prev
}

// onOutletReAttached restores contexts saved by onOutletDeactivated.
func (oc *OutletContexts) onOutletReAttached(contexts map[string]*OutletContext) {
	if contexts == nil {
		contexts = make(map[string]*OutletContext)
	}
	oc.mu.Lock()
	oc.contexts = contexts
	oc.mu.Unlock()
}

func (oc *OutletContexts) getOrCreateContext(name string) *OutletContext {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	ctx, ok := oc.contexts[name]
	if !ok {
		ctx = newOutletContext()
		oc.contexts[name] = ctx
	}
	return ctx
}

func (oc *OutletContexts) getContext(name string) *OutletContext {
	if oc == nil {
		return nil
	}
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.contexts[name]
}

package router

import (
	"net/url"
	"reflect"

	"go.uber.org/atomic"

	"github.com/vango-dev/nav/pkg/tree"
	"github.com/vango-dev/nav/pkg/urltree"
)

// ActivatedRoute is the live counterpart of a RouteSnapshot. A route that is
// reused across navigations keeps its identity; its observable fields are
// pushed the new values when a navigation commits.
type ActivatedRoute struct {
	URL         *Behavior[[]urltree.Segment]
	Params      *Behavior[map[string]string]
	QueryParams *Behavior[url.Values]
	Fragment    *Behavior[string]
	Data        *Behavior[map[string]any]

	Outlet    string
	Component any

	snapshot       atomic.Pointer[RouteSnapshot]
	futureSnapshot *RouteSnapshot
	state          atomic.Pointer[RouterState]
}

func newActivatedRoute(s *RouteSnapshot) *ActivatedRoute {
	return &ActivatedRoute{
		URL:            newBehavior(s.URL),
		Params:         newBehavior(s.Params),
		QueryParams:    newBehavior(s.QueryParams),
		Fragment:       newBehavior(s.Fragment),
		Data:           newBehavior(s.Data),
		Outlet:         s.Outlet,
		Component:      s.Component,
		futureSnapshot: s,
	}
}

// Snapshot returns the snapshot the route was last activated with. It is nil
// until the route's first activation.
func (a *ActivatedRoute) Snapshot() *RouteSnapshot {
	return a.snapshot.Load()
}

// RouteConfig returns the matched route.
func (a *ActivatedRoute) RouteConfig() *Route {
	return a.futureSnapshot.RouteConfig
}

// Parent returns the parent route in the current state, or nil.
func (a *ActivatedRoute) Parent() *ActivatedRoute {
	st := a.state.Load()
	if st == nil {
		return nil
	}
	p, _ := st.tree.Parent(a)
	return p
}

// Children returns the child routes in the current state.
func (a *ActivatedRoute) Children() []*ActivatedRoute {
	st := a.state.Load()
	if st == nil {
		return nil
	}
	return st.tree.Children(a)
}

// FirstChild returns the first child route, or nil.
func (a *ActivatedRoute) FirstChild() *ActivatedRoute {
	st := a.state.Load()
	if st == nil {
		return nil
	}
	c, _ := st.tree.FirstChild(a)
	return c
}

// PathFromRoot returns the routes from the root down to a.
func (a *ActivatedRoute) PathFromRoot() []*ActivatedRoute {
	st := a.state.Load()
	if st == nil {
		return []*ActivatedRoute{a}
	}
	return st.tree.PathFromRoot(a)
}

func (a *ActivatedRoute) String() string {
	if s := a.Snapshot(); s != nil {
		return s.String()
	}
	return a.futureSnapshot.String()
}

// RouterState is the tree of live routes.
type RouterState struct {
	tree *tree.Tree[*ActivatedRoute]
	// Snapshot is the state snapshot the tree was built from.
	Snapshot *StateSnapshot

	// futures holds the snapshots reused routes advance to once bound.
	futures map[*ActivatedRoute]*RouteSnapshot
}

func newRouterState(root *tree.Node[*ActivatedRoute], snapshot *StateSnapshot) *RouterState {
	return &RouterState{tree: tree.New(root), Snapshot: snapshot}
}

// bind makes rs the state its routes resolve their relatives through and
// hands reused routes their future snapshots. It must only run for a
// committed state.
func (rs *RouterState) bind() {
	for a, s := range rs.futures {
		a.futureSnapshot = s
	}
	rs.futures = nil
	rs.tree.Walk(func(_ tree.NodeID, a *ActivatedRoute) bool {
		a.state.Store(rs)
		return true
	})
}

// Root returns the root route.
func (rs *RouterState) Root() *ActivatedRoute {
	return rs.tree.Root()
}

// Walk visits every route in pre-order until fn returns false.
func (rs *RouterState) Walk(fn func(a *ActivatedRoute) bool) {
	rs.tree.Walk(func(_ tree.NodeID, a *ActivatedRoute) bool { return fn(a) })
}

// Leaf follows first children from the root and returns the deepest route.
func (rs *RouterState) Leaf() *ActivatedRoute {
	cur := rs.Root()
	for {
		next, ok := rs.tree.FirstChild(cur)
		if !ok {
			return cur
		}
		cur = next
	}
}

func (rs *RouterState) String() string {
	return rs.Snapshot.String()
}

// emptyRouterState is the state of a router that has not navigated.
func emptyRouterState(t *urltree.Tree) *RouterState {
	snap := emptyStateSnapshot(t)
	root := newActivatedRoute(snap.Root())
	root.snapshot.Store(snap.Root())
	rs := newRouterState(tree.NewNode(root), snap)
	rs.bind()
	return rs
}

// advanceActivatedRoute publishes the future snapshot, pushing only the
// fields that changed. A route's first activation pushes its data.
func advanceActivatedRoute(a *ActivatedRoute) {
	next := a.futureSnapshot
	cur := a.snapshot.Load()
	a.snapshot.Store(next)
	if cur == nil {
		a.Data.next(next.Data)
		return
	}
	if !equalQuery(cur.QueryParams, next.QueryParams) {
		a.QueryParams.next(next.QueryParams)
	}
	if cur.Fragment != next.Fragment {
		a.Fragment.next(next.Fragment)
	}
	if !equalStringMaps(cur.Params, next.Params) {
		a.Params.next(next.Params)
	}
	if !urltree.EqualSegments(cur.URL, next.URL) {
		a.URL.next(next.URL)
	}
	if !reflect.DeepEqual(cur.Data, next.Data) {
		a.Data.next(next.Data)
	}
}

func advanceActivatedRouteTree(n *tree.Node[*ActivatedRoute]) {
	advanceActivatedRoute(n.Value)
	for _, c := range n.Children {
		advanceActivatedRouteTree(c)
	}
}

func equalStringMaps(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}

func equalQuery(a, b url.Values) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || len(va) != len(vb) {
			return false
		}
		for i := range va {
			if va[i] != vb[i] {
				return false
			}
		}
	}
	return true
}

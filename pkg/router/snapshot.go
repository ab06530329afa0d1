package router

import (
	"net/url"
	"sort"
	"strings"

	"github.com/vango-dev/nav/pkg/tree"
	"github.com/vango-dev/nav/pkg/urltree"
)

// RouteSnapshot is one matched route at one point in time. Snapshots are
// built by the recognizer and are read-only once a navigation publishes
// them.
type RouteSnapshot struct {
	// URL holds the segments this route consumed.
	URL []urltree.Segment
	// Params holds positional and matrix parameters, own and inherited.
	Params map[string]string
	// QueryParams and Fragment are shared by every route of a navigation.
	QueryParams url.Values
	Fragment    string
	// Data holds static and resolved data, own and inherited.
	Data map[string]any
	// Outlet is the outlet this route activates into.
	Outlet string
	// Component is the matched route's component, nil when componentless.
	Component any
	// RouteConfig is the matched route; nil for the root snapshot.
	RouteConfig *Route

	// urlSegment is the group of the URL tree the consumed segments came from
	// and lastPathIndex the index of the last consumed one, which is what
	// relative navigation anchors to.
	urlSegment    *urltree.SegmentGroup
	lastPathIndex int

	resolve      map[string]string
	resolvedData map[string]any
	registry     *Registry

	ownParams map[string]string
	ownData   map[string]any

	state *StateSnapshot
}

func newRouteSnapshot(segments []urltree.Segment, params map[string]string, t *urltree.Tree,
	outlet string, route *Route, group *urltree.SegmentGroup, lastPathIndex int, registry *Registry) *RouteSnapshot {
	s := &RouteSnapshot{
		URL:           segments,
		QueryParams:   t.QueryParams,
		Fragment:      t.Fragment,
		Outlet:        outlet,
		RouteConfig:   route,
		urlSegment:    group,
		lastPathIndex: lastPathIndex,
		registry:      registry,
		ownParams:     params,
		ownData:       map[string]any{},
		resolve:       map[string]string{},
		resolvedData:  map[string]any{},
	}
	if s.URL == nil {
		s.URL = []urltree.Segment{}
	}
	if s.ownParams == nil {
		s.ownParams = map[string]string{}
	}
	if route != nil {
		s.Component = route.Component
		for k, v := range route.Data {
			s.ownData[k] = v
		}
		for k, v := range route.Resolve {
			s.resolve[k] = v
		}
	}
	s.Params = s.ownParams
	s.Data = s.ownData
	return s
}

// Parent returns the parent snapshot, or nil for the root.
func (s *RouteSnapshot) Parent() *RouteSnapshot {
	if s.state == nil {
		return nil
	}
	p, _ := s.state.tree.Parent(s)
	return p
}

// Root returns the root snapshot of the tree s belongs to.
func (s *RouteSnapshot) Root() *RouteSnapshot {
	if s.state == nil {
		return s
	}
	return s.state.Root()
}

// Children returns the child snapshots, primary outlet first.
func (s *RouteSnapshot) Children() []*RouteSnapshot {
	if s.state == nil {
		return nil
	}
	return s.state.tree.Children(s)
}

// FirstChild returns the first child snapshot, or nil.
func (s *RouteSnapshot) FirstChild() *RouteSnapshot {
	if s.state == nil {
		return nil
	}
	c, _ := s.state.tree.FirstChild(s)
	return c
}

// PathFromRoot returns the snapshots from the root down to s.
func (s *RouteSnapshot) PathFromRoot() []*RouteSnapshot {
	if s.state == nil {
		return []*RouteSnapshot{s}
	}
	return s.state.tree.PathFromRoot(s)
}

// Anchor returns the URL position relative navigation from this route
// starts at.
func (s *RouteSnapshot) Anchor() *urltree.Anchor {
	return &urltree.Anchor{Group: s.urlSegment, LastPathIndex: s.lastPathIndex}
}

// String renders the consumed segments and the matched path.
func (s *RouteSnapshot) String() string {
	parts := make([]string, len(s.URL))
	for i, seg := range s.URL {
		parts[i] = seg.String()
	}
	path := "<root>"
	if s.RouteConfig != nil {
		path = s.RouteConfig.Path
	}
	return "Route(url:'" + strings.Join(parts, "/") + "', path:'" + path + "')"
}

// StateSnapshot is the tree of route snapshots a navigation recognized.
type StateSnapshot struct {
	// URL is the serialized URL the tree was recognized from.
	URL  string
	tree *tree.Tree[*RouteSnapshot]
}

func newStateSnapshot(u string, root *tree.Node[*RouteSnapshot]) *StateSnapshot {
	st := &StateSnapshot{URL: u, tree: tree.New(root)}
	st.tree.Walk(func(_ tree.NodeID, s *RouteSnapshot) bool {
		s.state = st
		return true
	})
	return st
}

// Root returns the root snapshot.
func (st *StateSnapshot) Root() *RouteSnapshot {
	return st.tree.Root()
}

// Walk visits every snapshot in pre-order until fn returns false.
func (st *StateSnapshot) Walk(fn func(s *RouteSnapshot) bool) {
	st.tree.Walk(func(_ tree.NodeID, s *RouteSnapshot) bool { return fn(s) })
}

// String renders the tree, e.g. "Route(url:'', path:'<root>') { Route(...) }".
func (st *StateSnapshot) String() string {
	if st == nil {
		return "<nil>"
	}
	var sb strings.Builder
	var render func(id tree.NodeID)
	render = func(id tree.NodeID) {
		sb.WriteString(st.tree.Value(id).String())
		children := st.tree.ChildIDs(id)
		if len(children) == 0 {
			return
		}
		sb.WriteString(" { ")
		for i, c := range children {
			if i > 0 {
				sb.WriteString(", ")
			}
			render(c)
		}
		sb.WriteString(" } ")
	}
	if st.tree.Len() > 0 {
		render(st.tree.RootID())
	}
	return sb.String()
}

// sortSnapshots orders siblings primary outlet first, then by outlet name.
func sortSnapshots(nodes []*tree.Node[*RouteSnapshot]) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i].Value.Outlet, nodes[j].Value.Outlet
		if a == urltree.Primary {
			return b != urltree.Primary
		}
		if b == urltree.Primary {
			return false
		}
		return a < b
	})
}

// inheritParamsAndData computes Params and Data of every snapshot from the
// own values along its path. With emptyOnly inheritance a route inherits
// while it has an empty path or its parent is componentless; with always it
// inherits from every ancestor.
func inheritParamsAndData(st *StateSnapshot, always bool) {
	st.tree.Walk(func(_ tree.NodeID, s *RouteSnapshot) bool {
		in := inherited(s, always)
		s.Params = in.params
		s.Data = in.data
		return true
	})
}

type inheritance struct {
	params  map[string]string
	data    map[string]any
	resolve map[string]any
}

func inherited(s *RouteSnapshot, always bool) inheritance {
	path := s.PathFromRoot()
	from := 0
	if !always {
		from = len(path) - 1
		for from >= 1 {
			cur, parent := path[from], path[from-1]
			if cur.RouteConfig != nil && cur.RouteConfig.Path == "" {
				from--
			} else if parent.Component == nil {
				from--
			} else {
				break
			}
		}
	}

	in := inheritance{params: map[string]string{}, data: map[string]any{}, resolve: map[string]any{}}
	for _, p := range path[from:] {
		for k, v := range p.ownParams {
			in.params[k] = v
		}
		for k, v := range p.ownData {
			in.data[k] = v
		}
		for k, v := range p.resolvedData {
			in.resolve[k] = v
		}
	}
	return in
}

// emptyStateSnapshot is the snapshot of a router that has not navigated.
func emptyStateSnapshot(t *urltree.Tree) *StateSnapshot {
	root := newRouteSnapshot(nil, nil, t, urltree.Primary, nil, t.Root, -1, nil)
	return newStateSnapshot(t.String(), tree.NewNode(root))
}

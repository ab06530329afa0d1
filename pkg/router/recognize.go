package router

import (
	"fmt"

	naverrors "github.com/vango-dev/nav/internal/errors"
	"github.com/vango-dev/nav/pkg/tree"
	"github.com/vango-dev/nav/pkg/urltree"
)

// =============================================================================
// Recognition
// =============================================================================

// recognition tags the outcome of matching part of a redirect-free tree.
type recognition struct {
	matched   bool
	nodes     []*tree.Node[*RouteSnapshot]
	unmatched *urltree.SegmentGroup
}

func recognized(nodes ...*tree.Node[*RouteSnapshot]) recognition {
	return recognition{matched: true, nodes: nodes}
}

func unrecognized(g *urltree.SegmentGroup) recognition {
	return recognition{unmatched: g}
}

// segmentSource records, for a group synthesized while matching, the group
// of the URL tree it stands for and how many segments of that group were
// consumed before it.
type segmentSource struct {
	group *urltree.SegmentGroup
	shift int
}

type recognizer struct {
	config   []*Route
	registry *Registry
	tree     *urltree.Tree
	url      string
	always   bool
	sources  map[*urltree.SegmentGroup]segmentSource
}

// recognize matches a redirect-free tree against config and returns the
// snapshot tree with inherited parameters and data.
func recognize(config []*Route, registry *Registry, t *urltree.Tree, u string, always bool) (*StateSnapshot, error) {
	r := &recognizer{
		config:   config,
		registry: registry,
		tree:     t,
		url:      u,
		always:   always,
		sources:  make(map[*urltree.SegmentGroup]segmentSource),
	}

	rootGroup, _ := r.split(t.Root, nil, nil, config)
	res, err := r.processSegmentGroup(registry, config, rootGroup, urltree.Primary)
	if err != nil {
		return nil, err
	}
	if !res.matched {
		return nil, &NoMatchError{Segment: res.unmatched.String()}
	}

	root := newRouteSnapshot(nil, nil, t, urltree.Primary, nil, t.Root, -1, registry)
	st := newStateSnapshot(u, tree.NewNode(root, res.nodes...))
	inheritParamsAndData(st, always)
	return st, nil
}

func (r *recognizer) processSegmentGroup(scope *Registry, config []*Route, g *urltree.SegmentGroup, outlet string) (recognition, error) {
	if len(g.Segments()) == 0 && g.HasChildren() {
		return r.processChildren(scope, config, g)
	}
	return r.processSegment(scope, config, g, g.Segments(), outlet)
}

// processChildren matches every child outlet and orders the resulting
// siblings primary first, then by outlet name.
func (r *recognizer) processChildren(scope *Registry, config []*Route, g *urltree.SegmentGroup) (recognition, error) {
	var nodes []*tree.Node[*RouteSnapshot]
	for _, c := range g.Children() {
		res, err := r.processSegmentGroup(scope, config, c.Group, c.Outlet)
		if err != nil || !res.matched {
			return res, err
		}
		nodes = append(nodes, res.nodes...)
	}
	if err := checkOutletNameUniqueness(nodes); err != nil {
		return recognition{}, err
	}
	sortSnapshots(nodes)
	return recognized(nodes...), nil
}

func (r *recognizer) processSegment(scope *Registry, config []*Route, g *urltree.SegmentGroup, segments []urltree.Segment, outlet string) (recognition, error) {
	for _, route := range config {
		res, err := r.processSegmentAgainstRoute(scope, route, g, segments, outlet)
		if err != nil {
			return recognition{}, err
		}
		if res.matched {
			return res, nil
		}
	}
	if noLeftovers(g, segments, outlet) {
		return recognized(), nil
	}
	return unrecognized(g), nil
}

func (r *recognizer) processSegmentAgainstRoute(scope *Registry, route *Route, raw *urltree.SegmentGroup, segments []urltree.Segment, outlet string) (recognition, error) {
	if route.hasRedirect() || route.OutletName() != outlet {
		return unrecognized(raw), nil
	}

	var (
		snapshot  *RouteSnapshot
		consumed  []urltree.Segment
		rawSliced []urltree.Segment
	)
	if route.Path == Wildcard {
		params := map[string]string{}
		if n := len(segments); n > 0 {
			for k, v := range segments[n-1].Parameters {
				params[k] = v
			}
		}
		snapshot = newRouteSnapshot(segments, params, r.tree, outlet, route,
			r.sourceGroup(raw), r.pathIndexShift(raw)+len(segments), scope)
	} else {
		m, ok := matchRoute(raw, route, segments)
		if !ok {
			return unrecognized(raw), nil
		}
		consumed = m.consumed
		rawSliced = segments[m.lastChild:]
		snapshot = newRouteSnapshot(m.consumed, m.params, r.tree, outlet, route,
			r.sourceGroup(raw), r.pathIndexShift(raw)+len(m.consumed), scope)
	}

	childScope, childConfig := loadedChildConfig(scope, route)
	g, sliced := r.split(raw, consumed, rawSliced, childConfig)

	if len(sliced) == 0 && g.HasChildren() {
		res, err := r.processChildren(childScope, childConfig, g)
		if err != nil || !res.matched {
			return res, err
		}
		return recognized(tree.NewNode(snapshot, res.nodes...)), nil
	}
	if len(childConfig) == 0 && len(sliced) == 0 {
		return recognized(tree.NewNode(snapshot)), nil
	}

	res, err := r.processSegment(childScope, childConfig, g, sliced, urltree.Primary)
	if err != nil || !res.matched {
		return res, err
	}
	return recognized(tree.NewNode(snapshot, res.nodes...)), nil
}

// loadedChildConfig returns the already available children of route and the
// registry they are declared in.
func loadedChildConfig(scope *Registry, route *Route) (*Registry, []*Route) {
	if route.Children != nil {
		return scope, route.Children
	}
	if cfg := route.Loaded(); cfg != nil {
		return cfg.Registry, cfg.Routes
	}
	return scope, nil
}

// split prepares the group below a matched route. Empty-path routes,
// including those into named outlets, get empty groups to match against.
// Every group it creates is recorded in the source table.
func (r *recognizer) split(g *urltree.SegmentGroup, consumed, sliced []urltree.Segment, config []*Route) (*urltree.SegmentGroup, []urltree.Segment) {
	shift := len(consumed)
	track := func(s *urltree.SegmentGroup) *urltree.SegmentGroup {
		r.sources[s] = segmentSource{group: g, shift: shift}
		return s
	}

	if len(sliced) > 0 && containsEmptyPathMatchesWithNamedOutlets(g, sliced, config) {
		children := []urltree.Child{{Outlet: urltree.Primary, Group: track(urltree.NewSegmentGroup(sliced, g.Children()...))}}
		for _, route := range config {
			if route.Path == "" && route.Matcher == nil && route.OutletName() != urltree.Primary {
				children = append(children, urltree.Child{Outlet: route.OutletName(), Group: track(urltree.NewSegmentGroup(nil))})
			}
		}
		return track(urltree.NewSegmentGroup(consumed, children...)), nil
	}

	if len(sliced) == 0 && containsEmptyPathMatches(g, sliced, config) {
		children := g.Children()
		added := map[string]bool{}
		for _, route := range config {
			outlet := route.OutletName()
			if isEmptyPathMatch(g, sliced, route) && !g.HasChild(outlet) && !added[outlet] {
				added[outlet] = true
				children = append(children, urltree.Child{Outlet: outlet, Group: track(urltree.NewSegmentGroup(nil))})
			}
		}
		return track(urltree.NewSegmentGroup(g.Segments(), children...)), sliced
	}

	return track(urltree.NewSegmentGroup(g.Segments(), g.Children()...)), sliced
}

// sourceGroup follows the source table back to a group of the URL tree.
func (r *recognizer) sourceGroup(g *urltree.SegmentGroup) *urltree.SegmentGroup {
	for {
		src, ok := r.sources[g]
		if !ok {
			return g
		}
		g = src.group
	}
}

// pathIndexShift returns the index of the last segment of the source group
// consumed before g, or -1.
func (r *recognizer) pathIndexShift(g *urltree.SegmentGroup) int {
	shift := 0
	for {
		src, ok := r.sources[g]
		if !ok {
			return shift - 1
		}
		shift += src.shift
		g = src.group
	}
}

func containsEmptyPathMatchesWithNamedOutlets(g *urltree.SegmentGroup, sliced []urltree.Segment, config []*Route) bool {
	for _, route := range config {
		if isEmptyPathMatch(g, sliced, route) && route.OutletName() != urltree.Primary {
			return true
		}
	}
	return false
}

func containsEmptyPathMatches(g *urltree.SegmentGroup, sliced []urltree.Segment, config []*Route) bool {
	for _, route := range config {
		if isEmptyPathMatch(g, sliced, route) {
			return true
		}
	}
	return false
}

func checkOutletNameUniqueness(nodes []*tree.Node[*RouteSnapshot]) error {
	seen := make(map[string]*RouteSnapshot, len(nodes))
	for _, n := range nodes {
		s := n.Value
		if prev, ok := seen[s.Outlet]; ok {
			return naverrors.New(naverrors.CodeDuplicateOutlet).WithDetail(fmt.Sprintf(
				"Two segments cannot have the same outlet name: '%s' and '%s'.", segmentsString(prev.URL), segmentsString(s.URL)))
		}
		seen[s.Outlet] = s
	}
	return nil
}

func segmentsString(segs []urltree.Segment) string {
	return urltree.NewSegmentGroup(segs).String()
}

package router

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	naverrors "github.com/vango-dev/nav/internal/errors"
	"github.com/vango-dev/nav/pkg/urltree"
)

// =============================================================================
// Redirect Resolution
// =============================================================================

// expandKind tags the outcome of expanding part of a URL tree. No-match and
// absolute redirects are search outcomes, not errors: they travel as values
// and real failures travel as the error return.
type expandKind int

const (
	expandMatched expandKind = iota
	expandNoMatch
	expandAbsoluteRedirect
)

type expansion struct {
	kind expandKind
	// group is the expanded group for expandMatched and the group that could
	// not be matched for expandNoMatch.
	group *urltree.SegmentGroup
	// tree replaces the whole URL for expandAbsoluteRedirect.
	tree *urltree.Tree
}

func matched(g *urltree.SegmentGroup) expansion {
	return expansion{kind: expandMatched, group: g}
}

func noMatch(g *urltree.SegmentGroup) expansion {
	return expansion{kind: expandNoMatch, group: g}
}

func absoluteRedirect(t *urltree.Tree) expansion {
	return expansion{kind: expandAbsoluteRedirect, tree: t}
}

// redirectResolver rewrites a URL tree until no segment maps to a redirecting
// route, loading lazily configured branches on the way.
type redirectResolver struct {
	ctx      context.Context
	loader   *routeLoader
	calls    *suspender
	tree     *urltree.Tree
	config   []*Route
	registry *Registry

	// allowRedirects is cleared by the first absolute redirect.
	allowRedirects bool
}

func newRedirectResolver(ctx context.Context, loader *routeLoader, calls *suspender,
	t *urltree.Tree, config []*Route, registry *Registry) *redirectResolver {
	return &redirectResolver{
		ctx:            ctx,
		loader:         loader,
		calls:          calls,
		tree:           t,
		config:         config,
		registry:       registry,
		allowRedirects: true,
	}
}

// apply returns the redirect-free tree.
func (rr *redirectResolver) apply() (*urltree.Tree, error) {
	res, err := rr.expandSegmentGroup(rr.registry, rr.config, rr.tree.Root, urltree.Primary)
	if err != nil {
		return nil, err
	}
	switch res.kind {
	case expandAbsoluteRedirect:
		rr.allowRedirects = false
		return rr.match(res.tree)
	case expandNoMatch:
		return nil, &NoMatchError{Segment: res.group.String()}
	}
	return createRootTree(res.group, rr.tree.QueryParams, rr.tree.Fragment), nil
}

// match expands the target of an absolute redirect with redirects disabled.
func (rr *redirectResolver) match(t *urltree.Tree) (*urltree.Tree, error) {
	res, err := rr.expandSegmentGroup(rr.registry, rr.config, t.Root, urltree.Primary)
	if err != nil {
		return nil, err
	}
	if res.kind != expandMatched {
		seg := ""
		if res.group != nil {
			seg = res.group.String()
		}
		return nil, &NoMatchError{Segment: seg}
	}
	return createRootTree(res.group, t.QueryParams, t.Fragment), nil
}

// createRootTree mounts a root candidate that has segments under the primary
// outlet of an empty root.
func createRootTree(candidate *urltree.SegmentGroup, query url.Values, fragment string) *urltree.Tree {
	root := candidate
	if len(candidate.Segments()) > 0 {
		root = urltree.NewSegmentGroup(nil, urltree.Child{Outlet: urltree.Primary, Group: candidate})
	}
	return urltree.New(root, query, fragment)
}

func (rr *redirectResolver) expandSegmentGroup(scope *Registry, routes []*Route, g *urltree.SegmentGroup, outlet string) (expansion, error) {
	if len(g.Segments()) == 0 && g.HasChildren() {
		children, res, err := rr.expandChildren(scope, routes, g)
		if err != nil || res.kind != expandMatched {
			return res, err
		}
		return matched(urltree.NewSegmentGroup(nil, children...)), nil
	}
	return rr.expandSegment(scope, g, routes, g.Segments(), outlet, true)
}

// expandChildren expands every child outlet, primary first. The returned
// expansion is expandMatched unless a child failed to match or redirected
// absolutely.
func (rr *redirectResolver) expandChildren(scope *Registry, routes []*Route, g *urltree.SegmentGroup) ([]urltree.Child, expansion, error) {
	children := g.Children()
	out := make([]urltree.Child, 0, len(children))
	for _, c := range children {
		res, err := rr.expandSegmentGroup(scope, routes, c.Group, c.Outlet)
		if err != nil {
			return nil, expansion{}, err
		}
		if res.kind != expandMatched {
			return nil, res, nil
		}
		out = append(out, urltree.Child{Outlet: c.Outlet, Group: res.group})
	}
	return out, expansion{kind: expandMatched}, nil
}

// expandSegment tries routes in declaration order. A route that does not
// match hands over to the next one; the first other outcome wins.
func (rr *redirectResolver) expandSegment(scope *Registry, g *urltree.SegmentGroup, routes []*Route,
	segments []urltree.Segment, outlet string, allowRedirects bool) (expansion, error) {
	for _, r := range routes {
		res, err := rr.expandSegmentAgainstRoute(scope, g, routes, r, segments, outlet, allowRedirects)
		if err != nil {
			return expansion{}, err
		}
		if res.kind != expandNoMatch {
			return res, nil
		}
	}
	if noLeftovers(g, segments, outlet) {
		return matched(urltree.NewSegmentGroup(nil)), nil
	}
	return noMatch(g), nil
}

func (rr *redirectResolver) expandSegmentAgainstRoute(scope *Registry, g *urltree.SegmentGroup, routes []*Route,
	r *Route, segments []urltree.Segment, outlet string, allowRedirects bool) (expansion, error) {
	if r.OutletName() != outlet {
		return noMatch(g), nil
	}
	if !r.hasRedirect() {
		return rr.matchSegmentAgainstRoute(scope, g, r, segments)
	}
	if allowRedirects && rr.allowRedirects {
		return rr.expandSegmentAgainstRouteUsingRedirect(scope, g, routes, r, segments, outlet)
	}
	return noMatch(g), nil
}

func (rr *redirectResolver) expandSegmentAgainstRouteUsingRedirect(scope *Registry, g *urltree.SegmentGroup, routes []*Route,
	r *Route, segments []urltree.Segment, outlet string) (expansion, error) {
	if r.Path == Wildcard {
		t, err := rr.applyRedirectCommands(nil, r.RedirectTo, nil)
		if err != nil {
			return expansion{}, err
		}
		if strings.HasPrefix(r.RedirectTo, "/") {
			return absoluteRedirect(t), nil
		}
		segs, err := linearizeSegments(r, t)
		if err != nil {
			return expansion{}, err
		}
		return rr.expandSegment(scope, urltree.NewSegmentGroup(segs), routes, segs, outlet, false)
	}

	m, ok := matchRoute(g, r, segments)
	if !ok {
		return noMatch(g), nil
	}
	t, err := rr.applyRedirectCommands(m.consumed, r.RedirectTo, m.posParams)
	if err != nil {
		return expansion{}, err
	}
	if strings.HasPrefix(r.RedirectTo, "/") {
		return absoluteRedirect(t), nil
	}
	segs, err := linearizeSegments(r, t)
	if err != nil {
		return expansion{}, err
	}
	rest := segments[m.lastChild:]
	next := make([]urltree.Segment, 0, len(segs)+len(rest))
	next = append(next, segs...)
	next = append(next, rest...)
	return rr.expandSegment(scope, g, routes, next, outlet, false)
}

func (rr *redirectResolver) matchSegmentAgainstRoute(scope *Registry, raw *urltree.SegmentGroup, r *Route, segments []urltree.Segment) (expansion, error) {
	if r.Path == Wildcard {
		if r.LoadChildren != "" {
			if _, err := rr.load(scope, r); err != nil {
				return expansion{}, err
			}
		}
		return matched(urltree.NewSegmentGroup(segments)), nil
	}

	m, ok := matchRoute(raw, r, segments)
	if !ok {
		return noMatch(raw), nil
	}
	rawSliced := segments[m.lastChild:]

	childScope, childConfig, err := rr.childConfig(scope, r)
	if err != nil {
		return expansion{}, err
	}

	g, sliced := splitForRedirects(raw, m.consumed, rawSliced, childConfig)
	if len(sliced) == 0 && g.HasChildren() {
		children, res, err := rr.expandChildren(childScope, childConfig, g)
		if err != nil || res.kind != expandMatched {
			return res, err
		}
		return matched(urltree.NewSegmentGroup(m.consumed, children...)), nil
	}
	if len(childConfig) == 0 && len(sliced) == 0 {
		return matched(urltree.NewSegmentGroup(m.consumed)), nil
	}

	res, err := rr.expandSegment(childScope, g, childConfig, sliced, urltree.Primary, true)
	if err != nil || res.kind != expandMatched {
		return res, err
	}
	cs := res.group
	segs := make([]urltree.Segment, 0, len(m.consumed)+len(cs.Segments()))
	segs = append(segs, m.consumed...)
	segs = append(segs, cs.Segments()...)
	return matched(urltree.NewSegmentGroup(segs, cs.Children()...)), nil
}

// childConfig returns the routes matched below r and the registry they are
// declared in, running canLoad guards and loading lazy children as needed.
func (rr *redirectResolver) childConfig(scope *Registry, r *Route) (*Registry, []*Route, error) {
	if r.Children != nil {
		return scope, r.Children, nil
	}
	if r.LoadChildren == "" {
		return scope, nil, nil
	}
	if cfg := r.Loaded(); cfg != nil {
		return cfg.Registry, cfg.Routes, nil
	}

	ok, err := rr.runCanLoad(scope, r)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, &NavigationCancelingError{
			Reason: fmt.Sprintf("Cannot load children because the guard of the route \"path: '%s'\" returned false", r.Path),
		}
	}
	cfg, err := rr.load(scope, r)
	if err != nil {
		return nil, nil, err
	}
	return cfg.Registry, cfg.Routes, nil
}

func (rr *redirectResolver) runCanLoad(scope *Registry, r *Route) (bool, error) {
	for _, name := range r.CanLoad {
		fn, err := scope.lookupCanLoad(name)
		if err != nil {
			return false, err
		}
		ok, err := suspend(rr.ctx, rr.calls, func(ctx context.Context) (bool, error) {
			return fn(ctx, r)
		})
		if err != nil {
			return false, guardFailure("canLoad", name, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (rr *redirectResolver) load(scope *Registry, r *Route) (*LoadedConfig, error) {
	return suspend(rr.ctx, rr.calls, func(ctx context.Context) (*LoadedConfig, error) {
		return rr.loader.load(ctx, scope, r)
	})
}

// applyRedirectCommands builds the redirect target, substituting positional
// parameters and reusing consumed segments with the same path.
func (rr *redirectResolver) applyRedirectCommands(consumed []urltree.Segment, redirectTo string, posParams map[string]urltree.Segment) (*urltree.Tree, error) {
	t, err := urltree.Parse(redirectTo)
	if err != nil {
		return nil, naverrors.New(naverrors.CodeMalformedURL).WithRoute(redirectTo).Wrap(err)
	}
	root, err := createRedirectGroup(redirectTo, t.Root, consumed, posParams)
	if err != nil {
		return nil, err
	}
	return urltree.New(root, redirectQueryParams(t.QueryParams, rr.tree.QueryParams), t.Fragment), nil
}

// redirectQueryParams copies the redirect's query, replacing ":name" values
// with the value of name in the source URL.
func redirectQueryParams(redirect, actual url.Values) url.Values {
	out := url.Values{}
	for k, vs := range redirect {
		if len(vs) == 1 && strings.HasPrefix(vs[0], ":") {
			if src, ok := actual[vs[0][1:]]; ok {
				out[k] = src
			}
			continue
		}
		out[k] = vs
	}
	return out
}

func createRedirectGroup(redirectTo string, g *urltree.SegmentGroup, consumed []urltree.Segment, posParams map[string]urltree.Segment) (*urltree.SegmentGroup, error) {
	segs, err := createRedirectSegments(redirectTo, g.Segments(), consumed, posParams)
	if err != nil {
		return nil, err
	}
	var children []urltree.Child
	for _, c := range g.Children() {
		cg, err := createRedirectGroup(redirectTo, c.Group, consumed, posParams)
		if err != nil {
			return nil, err
		}
		children = append(children, urltree.Child{Outlet: c.Outlet, Group: cg})
	}
	return urltree.NewSegmentGroup(segs, children...), nil
}

func createRedirectSegments(redirectTo string, targets, actual []urltree.Segment, posParams map[string]urltree.Segment) ([]urltree.Segment, error) {
	out := make([]urltree.Segment, 0, len(targets))
	for _, s := range targets {
		if strings.HasPrefix(s.Path, ":") {
			p, ok := posParams[s.Path[1:]]
			if !ok {
				return nil, naverrors.New(naverrors.CodeMissingRedirectParam).
					WithRoute(redirectTo).
					WithDetail(fmt.Sprintf("Cannot redirect to '%s'. Cannot find '%s'.", redirectTo, s.Path))
			}
			out = append(out, p)
			continue
		}
		out = append(out, findOrReturn(s, &actual))
	}
	return out, nil
}

// findOrReturn returns the first remaining actual segment with the same path
// as s, dropping it and everything after it from actual, or s itself.
func findOrReturn(s urltree.Segment, actual *[]urltree.Segment) urltree.Segment {
	for i, a := range *actual {
		if a.Path == s.Path {
			*actual = (*actual)[:i]
			return a
		}
	}
	return s
}

// linearizeSegments flattens a relative redirect target along its primary
// outlets. Named outlets are only allowed in absolute redirects.
func linearizeSegments(r *Route, t *urltree.Tree) ([]urltree.Segment, error) {
	var out []urltree.Segment
	c := t.Root
	for {
		out = append(out, c.Segments()...)
		if c.NumberOfChildren() == 0 {
			return out, nil
		}
		if c.NumberOfChildren() > 1 || !c.HasChild(urltree.Primary) {
			return nil, naverrors.New(naverrors.CodeNamedOutletRedirect).WithRoute(r.RedirectTo)
		}
		c = c.Child(urltree.Primary)
	}
}

// splitForRedirects prepares the group below a matched route so that
// empty-path redirects, including those into named outlets, get a group to
// match against.
func splitForRedirects(g *urltree.SegmentGroup, consumed, sliced []urltree.Segment, config []*Route) (*urltree.SegmentGroup, []urltree.Segment) {
	if len(sliced) > 0 && containsEmptyPathRedirectsWithNamedOutlets(g, sliced, config) {
		primary := urltree.NewSegmentGroup(sliced, g.Children()...)
		s := urltree.NewSegmentGroup(consumed, childrenForEmptySegments(config, primary)...)
		return mergeTrivialChildren(s), nil
	}
	if len(sliced) == 0 && containsEmptyPathRedirects(g, sliced, config) {
		s := urltree.NewSegmentGroup(g.Segments(), addEmptySegmentsToChildren(g, sliced, config)...)
		return mergeTrivialChildren(s), sliced
	}
	return g, sliced
}

func mergeTrivialChildren(s *urltree.SegmentGroup) *urltree.SegmentGroup {
	if s.NumberOfChildren() == 1 && s.HasChild(urltree.Primary) {
		c := s.Child(urltree.Primary)
		segs := make([]urltree.Segment, 0, len(s.Segments())+len(c.Segments()))
		segs = append(segs, s.Segments()...)
		segs = append(segs, c.Segments()...)
		return urltree.NewSegmentGroup(segs, c.Children()...)
	}
	return s
}

func addEmptySegmentsToChildren(g *urltree.SegmentGroup, sliced []urltree.Segment, config []*Route) []urltree.Child {
	children := g.Children()
	added := map[string]bool{}
	for _, r := range config {
		outlet := r.OutletName()
		if isEmptyPathRedirect(g, sliced, r) && !g.HasChild(outlet) && !added[outlet] {
			added[outlet] = true
			children = append(children, urltree.Child{Outlet: outlet, Group: urltree.NewSegmentGroup(nil)})
		}
	}
	return children
}

func childrenForEmptySegments(config []*Route, primary *urltree.SegmentGroup) []urltree.Child {
	children := []urltree.Child{{Outlet: urltree.Primary, Group: primary}}
	for _, r := range config {
		if r.Path == "" && r.Matcher == nil && r.OutletName() != urltree.Primary {
			children = append(children, urltree.Child{Outlet: r.OutletName(), Group: urltree.NewSegmentGroup(nil)})
		}
	}
	return children
}

func containsEmptyPathRedirectsWithNamedOutlets(g *urltree.SegmentGroup, sliced []urltree.Segment, config []*Route) bool {
	for _, r := range config {
		if isEmptyPathRedirect(g, sliced, r) && r.OutletName() != urltree.Primary {
			return true
		}
	}
	return false
}

func containsEmptyPathRedirects(g *urltree.SegmentGroup, sliced []urltree.Segment, config []*Route) bool {
	for _, r := range config {
		if isEmptyPathRedirect(g, sliced, r) {
			return true
		}
	}
	return false
}

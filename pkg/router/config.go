package router

import (
	"strings"

	"go.uber.org/atomic"

	"github.com/vango-dev/nav/pkg/urltree"
)

// PathMatch selects how a route path is matched against the URL.
type PathMatch string

const (
	// PathMatchPrefix matches when the path is a prefix of the remaining URL.
	PathMatchPrefix PathMatch = "prefix"
	// PathMatchFull matches only when the path consumes the remaining URL.
	PathMatchFull PathMatch = "full"
)

// RunGuardsAndResolvers selects when guards and resolvers run again for a
// route that is reused across navigations.
type RunGuardsAndResolvers string

const (
	// RunOnParamsChange reruns when path or matrix parameters change. Default.
	RunOnParamsChange RunGuardsAndResolvers = "paramsChange"
	// RunOnParamsOrQueryParamsChange also reruns when the query changes.
	RunOnParamsOrQueryParamsChange RunGuardsAndResolvers = "paramsOrQueryParamsChange"
	// RunAlways reruns on every navigation.
	RunAlways RunGuardsAndResolvers = "always"
)

// Wildcard is the path that matches any remaining segments.
const Wildcard = "**"

// MatchResult is what a URLMatcher returns on success: the consumed segments
// and the positional parameters bound while matching them.
type MatchResult struct {
	Consumed  []urltree.Segment
	PosParams map[string]urltree.Segment
}

// URLMatcher is a custom matching function used instead of Route.Path.
type URLMatcher func(segments []urltree.Segment, group *urltree.SegmentGroup, route *Route) (MatchResult, bool)

// Route is one entry of a declarative route table.
//
// Routes are identified by pointer: two navigations that match the same
// *Route are considered to activate the same route.
type Route struct {
	// Path is matched segment by segment. ":name" binds a parameter, "**"
	// matches everything and "" matches nothing.
	Path string

	// PathMatch defaults to PathMatchPrefix.
	PathMatch PathMatch

	// Matcher replaces Path when set.
	Matcher URLMatcher

	// Component is handed to the outlet on activation. Componentless routes
	// group children and pass their parameters down.
	Component any

	// RedirectTo rewrites the matched segments. A leading slash makes the
	// redirect absolute; "/" redirects to the root.
	RedirectTo string

	// Outlet names the outlet this route activates into. Empty means primary.
	Outlet string

	// Children are matched against the segments left after this route.
	Children []*Route

	// LoadChildren names a lazily loaded child table, fetched through the
	// router's ConfigLoader.
	LoadChildren string

	// Guard names, looked up in the Registry in scope.
	CanActivate      []string
	CanActivateChild []string
	CanDeactivate    []string
	CanLoad          []string

	// Resolve maps data keys to resolver names.
	Resolve map[string]string

	// Data is static data merged into the route snapshot.
	Data map[string]any

	// RunGuardsAndResolvers defaults to RunOnParamsChange.
	RunGuardsAndResolvers RunGuardsAndResolvers

	loaded atomic.Pointer[LoadedConfig]
}

// OutletName returns the outlet the route activates into.
func (r *Route) OutletName() string {
	if r.Outlet == "" {
		return urltree.Primary
	}
	return r.Outlet
}

// Loaded returns the cached lazily loaded configuration, if any.
func (r *Route) Loaded() *LoadedConfig {
	return r.loaded.Load()
}

func (r *Route) pathMatch() PathMatch {
	if r.PathMatch == "" {
		return PathMatchPrefix
	}
	return r.PathMatch
}

func (r *Route) hasRedirect() bool {
	return r.RedirectTo != ""
}

// childConfig returns the routes matched below r: static children, the
// loaded table, or nothing.
func (r *Route) childConfig() []*Route {
	if r.Children != nil {
		return r.Children
	}
	if r.LoadChildren != "" {
		if cfg := r.loaded.Load(); cfg != nil {
			return cfg.Routes
		}
	}
	return nil
}

// EmptyOutlet is the component assigned to componentless routes that target
// a named outlet, so that their children have an outlet to render into.
type EmptyOutlet struct{}

// standardizeConfig fills in defaults the engine relies on.
func standardizeConfig(routes []*Route) {
	for _, r := range routes {
		if r.Component == nil && r.Children != nil && r.OutletName() != urltree.Primary {
			r.Component = EmptyOutlet{}
		}
		if r.Children != nil {
			standardizeConfig(r.Children)
		}
	}
}

// fullPath joins a parent path and a route path the way error messages show
// them.
func fullPath(parent string, r *Route) string {
	if r == nil {
		return parent
	}
	switch {
	case parent == "" && r.Path == "":
		return ""
	case parent == "":
		return r.Path
	case r.Path == "":
		return parent + "/"
	default:
		return parent + "/" + r.Path
	}
}

// defaultURLMatcher matches route.Path against the leading segments.
func defaultURLMatcher(segments []urltree.Segment, group *urltree.SegmentGroup, route *Route) (MatchResult, bool) {
	parts := strings.Split(route.Path, "/")
	if len(parts) > len(segments) {
		return MatchResult{}, false
	}
	if route.pathMatch() == PathMatchFull && (group.HasChildren() || len(parts) < len(segments)) {
		return MatchResult{}, false
	}

	pos := make(map[string]urltree.Segment)
	for i, part := range parts {
		if strings.HasPrefix(part, ":") {
			pos[part[1:]] = segments[i]
			continue
		}
		if part != segments[i].Path {
			return MatchResult{}, false
		}
	}
	return MatchResult{Consumed: segments[:len(parts)], PosParams: pos}, true
}

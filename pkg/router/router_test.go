package router

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vango-dev/nav/pkg/location"
)

// =============================================================================
// Helpers
// =============================================================================

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRouter creates a router on an in-memory location. Run is started
// unless start is false; the caller then starts it with startRouter.
func newTestRouter(t *testing.T, routes []*Route, start bool, opts ...Option) (*Router, *location.Memory) {
	t.Helper()
	loc := location.NewMemory("/")
	opts = append([]Option{WithLocation(loc), WithLogger(quietLogger())}, opts...)
	r, err := New(routes, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(r.Dispose)
	if start {
		startRouter(t, r)
	}
	return r, loc
}

func startRouter(t *testing.T, r *Router) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go r.Run(ctx)
}

func wait(t *testing.T, n *Navigation) (bool, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ok, err := n.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("navigation to %q did not settle", n.URL())
	}
	return ok, err
}

func mustNavigate(t *testing.T, r *Router, u string) {
	t.Helper()
	ok, err := wait(t, r.NavigateByURL(u))
	if err != nil || !ok {
		t.Fatalf("NavigateByURL(%q) = %v, %v, want true, nil", u, ok, err)
	}
}

// recorder collects event names.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func record(r *Router) *recorder {
	rec := &recorder{}
	r.Subscribe(func(e Event) {
		rec.mu.Lock()
		rec.events = append(rec.events, e)
		rec.mu.Unlock()
	})
	return rec
}

func (rec *recorder) names(filter func(Event) bool) []string {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	var out []string
	for _, e := range rec.events {
		if filter == nil || filter(e) {
			out = append(out, EventName(e))
		}
	}
	return out
}

func navigationEvents(e Event) bool {
	switch e.(type) {
	case RouteConfigLoadStart, RouteConfigLoadEnd, ChildActivationStart, ChildActivationEnd, ActivationStart, ActivationEnd:
		return false
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func appRoutes() []*Route {
	return []*Route{
		{Path: "", RedirectTo: "a", PathMatch: PathMatchFull},
		{Path: "a", Component: "A"},
		{Path: "old/:id", RedirectTo: "/team/:id"},
		{Path: "team/:id", Component: "Team", Children: []*Route{
			{Path: "user/:name", Component: "User"},
			{Path: "", Component: "Summary"},
		}},
		{Path: "aux", Component: "Aux", Outlet: "side"},
		{Path: "**", Component: "NotFound"},
	}
}

// =============================================================================
// Tests
// =============================================================================

func TestNavigateRedirectsAndRecognizes(t *testing.T) {
	tests := []struct {
		url      string
		wantURL  string
		wantLeaf any
	}{
		{"/", "/a", "A"},
		{"/a", "/a", "A"},
		{"/old/3", "/team/3", "Summary"},
		{"/team/3/user/bob", "/team/3/user/bob", "User"},
		{"/x/y", "/x/y", "NotFound"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			r, loc := newTestRouter(t, appRoutes(), true)
			mustNavigate(t, r, tt.url)

			if got := r.URL(); got != tt.wantURL {
				t.Errorf("URL() = %q, want %q", got, tt.wantURL)
			}
			if got := loc.Path(); got != tt.wantURL {
				t.Errorf("location = %q, want %q", got, tt.wantURL)
			}
			if got := r.State().Leaf().Component; got != tt.wantLeaf {
				t.Errorf("leaf component = %v, want %v", got, tt.wantLeaf)
			}
		})
	}
}

func TestNavigateNamedOutlet(t *testing.T) {
	r, _ := newTestRouter(t, appRoutes(), true)
	mustNavigate(t, r, "/a(side:aux)")

	children := r.State().Root().Children()
	if len(children) != 2 {
		t.Fatalf("root has %d children, want 2", len(children))
	}
	if children[0].Outlet != "primary" || children[0].Component != "A" {
		t.Errorf("children[0] = %s/%v, want primary/A", children[0].Outlet, children[0].Component)
	}
	if children[1].Outlet != "side" || children[1].Component != "Aux" {
		t.Errorf("children[1] = %s/%v, want side/Aux", children[1].Outlet, children[1].Component)
	}
	if r.Contexts().Context("side").Outlet() == nil {
		t.Error("side outlet was not activated")
	}
}

func TestParamsInheritance(t *testing.T) {
	routes := func() []*Route {
		return []*Route{
			{Path: "org/:org", Children: []*Route{
				{Path: "team/:id", Component: "Team", Data: map[string]any{"title": "team"}, Children: []*Route{
					{Path: "user/:name", Component: "User"},
				}},
			}},
		}
	}

	tests := []struct {
		name     string
		strategy ParamsInheritanceStrategy
		want     map[string]string
	}{
		{"empty only", InheritEmptyOnly, map[string]string{"name": "bob"}},
		{"always", InheritAlways, map[string]string{"org": "o", "id": "3", "name": "bob"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter(t, routes(), true, WithParamsInheritance(tt.strategy))
			mustNavigate(t, r, "/org/o/team/3/user/bob")

			team := r.State().Root().FirstChild().FirstChild()
			if got := team.Snapshot().Params; !equalStringMaps(got, map[string]string{"org": "o", "id": "3"}) {
				t.Errorf("team params = %v, want org and id from componentless parent", got)
			}

			user := r.State().Leaf()
			if got := user.Snapshot().Params; !equalStringMaps(got, tt.want) {
				t.Errorf("user params = %v, want %v", got, tt.want)
			}
			if got := user.Params.Value(); !equalStringMaps(got, tt.want) {
				t.Errorf("user Params.Value() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanActivateRejectionKeepsState(t *testing.T) {
	reg := NewRegistry().CanActivate("deny", func(context.Context, *RouteSnapshot, *StateSnapshot) (bool, error) {
		return false, nil
	})
	routes := []*Route{
		{Path: "a", Component: "A"},
		{Path: "b", Component: "B", CanActivate: []string{"deny"}},
	}
	r, loc := newTestRouter(t, routes, true, WithRegistry(reg))
	mustNavigate(t, r, "/a")
	before := r.State()

	rec := record(r)
	ok, err := wait(t, r.NavigateByURL("/b"))
	if ok || err != nil {
		t.Fatalf("NavigateByURL(/b) = %v, %v, want false, nil", ok, err)
	}
	if r.URL() != "/a" || loc.Path() != "/a" {
		t.Errorf("URL() = %q, location = %q, want /a", r.URL(), loc.Path())
	}
	if r.State() != before {
		t.Error("state changed after rejected navigation")
	}

	want := []string{"NavigationStart", "RoutesRecognized", "GuardsCheckStart", "GuardsCheckEnd", "NavigationCancel"}
	if got := rec.names(navigationEvents); !equalStrings(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestGuardOrder(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	log := func(name string) {
		mu.Lock()
		calls = append(calls, name)
		mu.Unlock()
	}

	reg := NewRegistry().
		CanDeactivate("leaveA", func(_ context.Context, component any, _ *RouteSnapshot, _, _ *StateSnapshot) (bool, error) {
			log("canDeactivate:" + component.(string))
			return true, nil
		}).
		CanActivateChild("parent", func(_ context.Context, child *RouteSnapshot, _ *StateSnapshot) (bool, error) {
			log("canActivateChild:" + child.RouteConfig.Path)
			return true, nil
		}).
		CanActivate("enterB", func(context.Context, *RouteSnapshot, *StateSnapshot) (bool, error) {
			log("canActivate:b")
			return true, nil
		})

	routes := []*Route{
		{Path: "p", Component: "P", CanActivateChild: []string{"parent"}, Children: []*Route{
			{Path: "a", Component: "A", CanDeactivate: []string{"leaveA"}},
			{Path: "b", Component: "B", CanActivate: []string{"enterB"}},
		}},
	}
	r, _ := newTestRouter(t, routes, true, WithRegistry(reg))
	mustNavigate(t, r, "/p/a")

	mu.Lock()
	calls = nil
	mu.Unlock()
	mustNavigate(t, r, "/p/b")

	want := []string{"canDeactivate:A", "canActivateChild:b", "canActivate:b"}
	mu.Lock()
	defer mu.Unlock()
	if !equalStrings(calls, want) {
		t.Errorf("guard calls = %v, want %v", calls, want)
	}
}

func TestSupersededNavigationIsCanceled(t *testing.T) {
	routes := []*Route{
		{Path: "x", Component: "X"},
		{Path: "y", Component: "Y"},
	}
	r, loc := newTestRouter(t, routes, false)
	rec := record(r)

	x := r.NavigateByURL("/x")
	y := r.NavigateByURL("/y")
	startRouter(t, r)

	if ok, err := wait(t, x); ok || err != nil {
		t.Errorf("navigation to /x = %v, %v, want false, nil", ok, err)
	}
	if ok, err := wait(t, y); !ok || err != nil {
		t.Errorf("navigation to /y = %v, %v, want true, nil", ok, err)
	}
	if r.URL() != "/y" || loc.Path() != "/y" {
		t.Errorf("URL() = %q, location = %q, want /y", r.URL(), loc.Path())
	}

	names := rec.names(navigationEvents)
	if len(names) < 2 || names[0] != "NavigationStart" || names[1] != "NavigationCancel" {
		t.Errorf("events = %v, want NavigationStart, NavigationCancel first", names)
	}
	if names[len(names)-1] != "NavigationEnd" {
		t.Errorf("last event = %s, want NavigationEnd", names[len(names)-1])
	}
}

func TestSupersededDuringGuard(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	reg := NewRegistry().CanActivate("slow", func(ctx context.Context, _ *RouteSnapshot, _ *StateSnapshot) (bool, error) {
		close(entered)
		<-release
		return true, nil
	})
	routes := []*Route{
		{Path: "slow", Component: "Slow", CanActivate: []string{"slow"}},
		{Path: "fast", Component: "Fast"},
	}
	r, _ := newTestRouter(t, routes, true, WithRegistry(reg))

	slow := r.NavigateByURL("/slow")
	<-entered
	fast := r.NavigateByURL("/fast")
	close(release)

	if ok, err := wait(t, slow); ok || err != nil {
		t.Errorf("navigation to /slow = %v, %v, want false, nil", ok, err)
	}
	if ok, err := wait(t, fast); !ok || err != nil {
		t.Errorf("navigation to /fast = %v, %v, want true, nil", ok, err)
	}
	if r.URL() != "/fast" {
		t.Errorf("URL() = %q, want /fast", r.URL())
	}
}

func TestGuardErrorFailsNavigation(t *testing.T) {
	boom := errors.New("boom")
	reg := NewRegistry().CanActivate("broken", func(context.Context, *RouteSnapshot, *StateSnapshot) (bool, error) {
		return false, boom
	})
	routes := []*Route{{Path: "a", Component: "A", CanActivate: []string{"broken"}}}
	r, _ := newTestRouter(t, routes, true, WithRegistry(reg))
	rec := record(r)

	ok, err := wait(t, r.NavigateByURL("/a"))
	if ok || !errors.Is(err, boom) {
		t.Fatalf("NavigateByURL(/a) = %v, %v, want false, boom", ok, err)
	}
	var ge *GuardError
	if !errors.As(err, &ge) || ge.Name != "broken" {
		t.Errorf("error = %v, want GuardError for broken", err)
	}
	names := rec.names(navigationEvents)
	if names[len(names)-1] != "NavigationError" {
		t.Errorf("events = %v, want NavigationError last", names)
	}
}

func TestGuardTimeout(t *testing.T) {
	reg := NewRegistry().CanActivate("hang", func(ctx context.Context, _ *RouteSnapshot, _ *StateSnapshot) (bool, error) {
		<-ctx.Done()
		return false, ctx.Err()
	})
	routes := []*Route{{Path: "a", Component: "A", CanActivate: []string{"hang"}}}
	r, _ := newTestRouter(t, routes, true, WithRegistry(reg), WithGuardTimeout(20*time.Millisecond))

	ok, err := wait(t, r.NavigateByURL("/a"))
	if ok || !errors.Is(err, ErrGuardTimeout) {
		t.Errorf("NavigateByURL(/a) = %v, %v, want false, ErrGuardTimeout", ok, err)
	}
}

func TestUnmatchedURLFails(t *testing.T) {
	r, _ := newTestRouter(t, []*Route{{Path: "a", Component: "A"}}, true)

	ok, err := wait(t, r.NavigateByURL("/missing"))
	var nm *NoMatchError
	if ok || !errors.As(err, &nm) {
		t.Fatalf("NavigateByURL(/missing) = %v, %v, want NoMatchError", ok, err)
	}
	if !strings.Contains(nm.Segment, "missing") {
		t.Errorf("Segment = %q, want missing", nm.Segment)
	}
}

func TestErrorHandlerDecidesResult(t *testing.T) {
	r, _ := newTestRouter(t, []*Route{{Path: "a", Component: "A"}}, true,
		WithErrorHandler(func(error) (bool, error) { return false, nil }))

	if ok, err := wait(t, r.NavigateByURL("/missing")); ok || err != nil {
		t.Errorf("NavigateByURL(/missing) = %v, %v, want false, nil", ok, err)
	}
}

func TestResolveData(t *testing.T) {
	var calls int
	reg := NewRegistry().Resolver("user", func(_ context.Context, route *RouteSnapshot, _ *StateSnapshot) (any, error) {
		calls++
		return "user-" + route.Params["id"], nil
	})
	routes := []*Route{
		{Path: "user/:id", Component: "User", Resolve: map[string]string{"user": "user"}, Data: map[string]any{"title": "User"}},
	}
	r, _ := newTestRouter(t, routes, true, WithRegistry(reg))
	mustNavigate(t, r, "/user/7")

	leaf := r.State().Leaf()
	data := leaf.Data.Value()
	if data["user"] != "user-7" || data["title"] != "User" {
		t.Errorf("Data = %v, want user-7 and title", data)
	}

	// Same params: resolvers do not run again.
	mustNavigate(t, r, "/user/7?tab=1")
	if calls != 1 {
		t.Errorf("resolver ran %d times, want 1", calls)
	}
	if r.State().Leaf() != leaf {
		t.Error("route was not reused")
	}
	if got := r.State().Leaf().Data.Value()["user"]; got != "user-7" {
		t.Errorf("reused route data = %v, want user-7", got)
	}

	mustNavigate(t, r, "/user/8")
	if calls != 2 {
		t.Errorf("resolver ran %d times, want 2", calls)
	}
	if got := r.State().Leaf().Data.Value()["user"]; got != "user-8" {
		t.Errorf("Data[user] = %v, want user-8", got)
	}
}

func TestKeepAliveReattach(t *testing.T) {
	strategy := NewKeepAliveStrategy()
	routes := []*Route{
		{Path: "a", Component: "A", Data: map[string]any{KeepAliveKey: true}},
		{Path: "b", Component: "B"},
	}
	r, _ := newTestRouter(t, routes, true, WithReuseStrategy(strategy))

	mustNavigate(t, r, "/a")
	a := r.State().Leaf()

	mustNavigate(t, r, "/b")
	if strategy.Len() != 1 {
		t.Fatalf("stored routes = %d, want 1", strategy.Len())
	}

	mustNavigate(t, r, "/a")
	if strategy.Len() != 0 {
		t.Errorf("stored routes = %d after reattach, want 0", strategy.Len())
	}
	if r.State().Leaf() != a {
		t.Error("reattached route is not the detached one")
	}
	outlet := r.Contexts().Context("primary").Outlet()
	if outlet.ActivatedRoute() != a || outlet.Component() != "A" {
		t.Errorf("outlet shows %v, want reattached A", outlet.Component())
	}
}

func TestLazyLoading(t *testing.T) {
	var mu sync.Mutex
	loads := map[string]int{}
	loader := ConfigLoaderFunc(func(_ context.Context, parent *Registry, route *Route) (*LoadedConfig, error) {
		mu.Lock()
		loads[route.LoadChildren]++
		mu.Unlock()
		return &LoadedConfig{Routes: []*Route{
			{Path: "", Component: "Home"},
			{Path: "x", Component: "X"},
		}}, nil
	})
	reg := NewRegistry().CanLoad("no", func(context.Context, *Route) (bool, error) { return false, nil })
	routes := []*Route{
		{Path: "lazy", LoadChildren: "lazy"},
		{Path: "locked", LoadChildren: "locked", CanLoad: []string{"no"}},
	}
	r, _ := newTestRouter(t, routes, true, WithLoader(loader), WithRegistry(reg))
	rec := record(r)

	mustNavigate(t, r, "/lazy/x")
	mustNavigate(t, r, "/lazy")
	if got := r.State().Leaf().Component; got != "Home" {
		t.Errorf("leaf = %v, want Home", got)
	}

	ok, err := wait(t, r.NavigateByURL("/locked/x"))
	if ok || err != nil {
		t.Errorf("NavigateByURL(/locked/x) = %v, %v, want false, nil", ok, err)
	}

	mu.Lock()
	defer mu.Unlock()
	if loads["lazy"] != 1 || loads["locked"] != 0 {
		t.Errorf("loads = %v, want lazy once and locked never", loads)
	}
	starts := rec.names(func(e Event) bool { _, ok := e.(RouteConfigLoadStart); return ok })
	if len(starts) != 1 {
		t.Errorf("RouteConfigLoadStart emitted %d times, want 1", len(starts))
	}
}

func TestLazyLoadingWithoutLoader(t *testing.T) {
	r, _ := newTestRouter(t, []*Route{{Path: "lazy", LoadChildren: "lazy"}}, true)

	ok, err := wait(t, r.NavigateByURL("/lazy"))
	if ok || !errors.Is(err, ErrNoLoader) {
		t.Errorf("NavigateByURL(/lazy) = %v, %v, want ErrNoLoader", ok, err)
	}
}

func TestPreload(t *testing.T) {
	var mu sync.Mutex
	var loaded []string
	loader := ConfigLoaderFunc(func(_ context.Context, _ *Registry, route *Route) (*LoadedConfig, error) {
		mu.Lock()
		loaded = append(loaded, route.LoadChildren)
		mu.Unlock()
		return &LoadedConfig{Routes: []*Route{{Path: "x", Component: "X"}}}, nil
	})
	routes := []*Route{
		{Path: "a", LoadChildren: "a"},
		{Path: "b", Component: "B", Children: []*Route{{Path: "c", LoadChildren: "c"}}},
		{Path: "guarded", LoadChildren: "guarded", CanLoad: []string{"any"}},
	}
	r, _ := newTestRouter(t, routes, false, WithLoader(loader), WithPreloading(PreloadAll{}))

	if err := r.Preload(context.Background()); err != nil {
		t.Fatalf("Preload() error = %v", err)
	}
	if routes[0].Loaded() == nil || routes[1].Children[0].Loaded() == nil {
		t.Error("lazy routes were not preloaded")
	}
	if routes[2].Loaded() != nil {
		t.Error("route guarded by canLoad was preloaded")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(loaded) != 2 {
		t.Errorf("loader called for %v, want a and c", loaded)
	}
}

func TestNavigationEventsOrder(t *testing.T) {
	r, _ := newTestRouter(t, []*Route{{Path: "a", Component: "A"}}, true)
	rec := record(r)
	mustNavigate(t, r, "/a")

	want := []string{
		"NavigationStart",
		"RoutesRecognized",
		"GuardsCheckStart",
		"ChildActivationStart",
		"ActivationStart",
		"GuardsCheckEnd",
		"ResolveStart",
		"ResolveEnd",
		"ActivationEnd",
		"ChildActivationEnd",
		"NavigationEnd",
	}
	if got := rec.names(nil); !equalStrings(got, want) {
		t.Errorf("events =\n%v\nwant\n%v", got, want)
	}
}

func TestSameURLNavigation(t *testing.T) {
	tests := []struct {
		name       string
		policy     OnSameURLNavigation
		wantEvents int
	}{
		{"ignore", SameURLIgnore, 0},
		{"reload", SameURLReload, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter(t, []*Route{{Path: "a", Component: "A"}}, true, WithOnSameURLNavigation(tt.policy))
			mustNavigate(t, r, "/a")

			rec := record(r)
			mustNavigate(t, r, "/a")
			starts := rec.names(func(e Event) bool { _, ok := e.(NavigationStart); return ok })
			if len(starts) != tt.wantEvents {
				t.Errorf("NavigationStart emitted %d times, want %d", len(starts), tt.wantEvents)
			}
		})
	}
}

func TestPopStateNavigation(t *testing.T) {
	r, loc := newTestRouter(t, []*Route{
		{Path: "a", Component: "A"},
		{Path: "b", Component: "B"},
	}, true)
	if ok, err := wait(t, r.InitialNavigation()); !ok || err != nil {
		t.Fatalf("InitialNavigation() = %v, %v, want true, nil", ok, err)
	}
	mustNavigate(t, r, "/a")
	mustNavigate(t, r, "/b")

	ended := make(chan string, 1)
	r.Subscribe(func(e Event) {
		if end, ok := e.(NavigationEnd); ok {
			ended <- end.URLAfterRedirects
		}
	})
	loc.Back()

	select {
	case u := <-ended:
		if u != "/a" {
			t.Errorf("popstate navigated to %q, want /a", u)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("popstate did not navigate")
	}
	entries, index := loc.History()
	if entries[index] != "/a" {
		t.Errorf("location = %q, want /a", entries[index])
	}
}

func TestInitialNavigation(t *testing.T) {
	loc := location.NewMemory("/old/5")
	r, err := New(appRoutes(), WithLocation(loc), WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(r.Dispose)
	startRouter(t, r)

	if ok, err := wait(t, r.InitialNavigation()); !ok || err != nil {
		t.Fatalf("InitialNavigation() = %v, %v", ok, err)
	}
	entries, _ := loc.History()
	if len(entries) != 1 || entries[0] != "/team/5" {
		t.Errorf("history = %v, want the initial entry replaced with /team/5", entries)
	}
}

func TestCreateURLTree(t *testing.T) {
	r, _ := newTestRouter(t, appRoutes(), true)
	mustNavigate(t, r, "/team/3/user/bob?q=1#frag")
	team := r.State().Root().FirstChild()

	tests := []struct {
		name     string
		commands []any
		opts     []NavigateOption
		want     string
	}{
		{"absolute", []any{"/a"}, nil, "/a"},
		{"query", []any{"/a"}, []NavigateOption{WithQueryParams(url.Values{"p": {"2"}})}, "/a?p=2"},
		{"merge", []any{"/a"}, []NavigateOption{
			WithQueryParams(url.Values{"p": {"2"}}),
			WithQueryParamsHandling(QueryParamsMerge),
		}, "/a?p=2&q=1"},
		{"preserve", []any{"/a"}, []NavigateOption{
			WithQueryParams(url.Values{"p": {"2"}}),
			WithQueryParamsHandling(QueryParamsPreserve),
		}, "/a?q=1"},
		{"fragment", []any{"/a"}, []NavigateOption{WithPreserveFragment()}, "/a#frag"},
		{"relative", []any{"user", "jim"}, []NavigateOption{WithRelativeTo(team)}, "/team/3/user/jim"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := r.CreateURLTree(tt.commands, tt.opts...)
			if err != nil {
				t.Fatalf("CreateURLTree() error = %v", err)
			}
			if got := r.SerializeURL(tree); got != tt.want {
				t.Errorf("CreateURLTree() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsActive(t *testing.T) {
	r, _ := newTestRouter(t, appRoutes(), true)
	mustNavigate(t, r, "/team/3/user/bob")

	tests := []struct {
		url   string
		exact bool
		want  bool
	}{
		{"/team/3/user/bob", true, true},
		{"/team/3", false, true},
		{"/team/3", true, false},
		{"/team/4", false, false},
	}
	for _, tt := range tests {
		if got := r.IsActive(tt.url, tt.exact); got != tt.want {
			t.Errorf("IsActive(%q, %v) = %v, want %v", tt.url, tt.exact, got, tt.want)
		}
	}
}

func TestSkipLocationChangeAndReplace(t *testing.T) {
	r, loc := newTestRouter(t, []*Route{
		{Path: "a", Component: "A"},
		{Path: "b", Component: "B"},
		{Path: "c", Component: "C"},
	}, true)
	mustNavigate(t, r, "/a")

	if ok, _ := wait(t, r.NavigateByURL("/b", WithSkipLocationChange())); !ok {
		t.Fatal("navigation to /b failed")
	}
	if loc.Path() != "/a" || r.URL() != "/b" {
		t.Errorf("location = %q, URL() = %q, want /a and /b", loc.Path(), r.URL())
	}

	if ok, _ := wait(t, r.NavigateByURL("/c", WithReplace())); !ok {
		t.Fatal("navigation to /c failed")
	}
	entries, _ := loc.History()
	if !equalStrings(entries, []string{"/", "/c"}) {
		t.Errorf("history = %v, want [/ /c]", entries)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		routes []*Route
	}{
		{"leading slash", []*Route{{Path: "/a", Component: "A"}}},
		{"redirect with children", []*Route{{Path: "a", RedirectTo: "b", Children: []*Route{{Path: "c", Component: "C"}}}}},
		{"no target", []*Route{{Path: "a"}}},
		{"empty redirect without pathMatch", []*Route{{Path: "", RedirectTo: "a"}}},
		{"invalid child", []*Route{{Path: "a", Component: "A", Children: []*Route{{Path: "b", Component: "B", PathMatch: "exact"}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.routes, WithLogger(quietLogger()))
			var ce *ConfigError
			if !errors.As(err, &ce) || len(ce.Errors) == 0 {
				t.Errorf("New() error = %v, want ConfigError", err)
			}
		})
	}
}

func TestDispose(t *testing.T) {
	r, _ := newTestRouter(t, []*Route{{Path: "a", Component: "A"}}, false)
	queued := r.NavigateByURL("/a")
	r.Dispose()

	if _, err := wait(t, queued); !errors.Is(err, ErrDisposed) {
		t.Errorf("queued navigation error = %v, want ErrDisposed", err)
	}
	if _, err := wait(t, r.NavigateByURL("/a")); !errors.Is(err, ErrDisposed) {
		t.Errorf("navigation after Dispose error = %v, want ErrDisposed", err)
	}
	if err := r.Run(context.Background()); err != nil {
		t.Errorf("Run() after Dispose = %v, want nil", err)
	}
}

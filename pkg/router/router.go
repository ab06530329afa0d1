package router

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sort"
	"sync"

	"dario.cat/mergo"
	"go.uber.org/atomic"

	naverrors "github.com/vango-dev/nav/internal/errors"
	"github.com/vango-dev/nav/pkg/location"
	"github.com/vango-dev/nav/pkg/urltree"
)

// Router turns URL changes into router states. Navigations are queued and
// processed one at a time by Run; a navigation scheduled while another is
// in flight supersedes it at the next suspension point.
//
// Event subscribers run on the goroutine executing the navigation. They may
// schedule navigations but must not wait for them.
type Router struct {
	opts     options
	log      *slog.Logger
	loader   *routeLoader
	contexts *OutletContexts

	navigationID atomic.Int64

	mu               sync.Mutex
	config           []*Route
	currentURLTree   *urltree.Tree
	rawURLTree       *urltree.Tree
	state            *RouterState
	navigated        bool
	lastSuccessfulID int64
	lastNavigation   *ticket
	prevNavigation   *ticket
	pending          []*ticket
	disposed         bool
	unsubscribe      func()

	wake     chan struct{}
	done     chan struct{}
	doneOnce sync.Once

	emitMu  sync.Mutex
	subMu   sync.RWMutex
	subs    map[int]func(Event)
	nextSub int
}

// ticket is a queued navigation request.
type ticket struct {
	id     int64
	raw    *urltree.Tree
	rawURL string
	source location.Source
	extras navigateOptions
	nav    *Navigation
}

// New validates routes and creates a router. Invalid configuration is
// returned as a *ConfigError.
func New(routes []*Route, opts ...Option) (*Router, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if err := ValidateConfig(routes); err != nil {
		return nil, err
	}
	standardizeConfig(routes)

	empty := urltree.Empty()
	r := &Router{
		opts:           o,
		log:            o.logger,
		contexts:       NewOutletContexts(),
		config:         routes,
		currentURLTree: empty,
		rawURLTree:     empty,
		state:          emptyRouterState(empty),
		wake:           make(chan struct{}, 1),
		done:           make(chan struct{}),
		subs:           make(map[int]func(Event)),
	}
	r.loader = &routeLoader{loader: o.loader, emit: r.emit}
	return r, nil
}

// =============================================================================
// Public API
// =============================================================================

// Run processes queued navigations until ctx is done or the router is
// disposed. Navigations still queued when ctx ends settle with ctx.Err().
func (r *Router) Run(ctx context.Context) error {
	r.log.Debug("router started")
	for {
		if t := r.next(); t != nil {
			r.execute(ctx, t)
			continue
		}
		select {
		case <-ctx.Done():
			r.drain(false, ctx.Err())
			return ctx.Err()
		case <-r.done:
			return nil
		case <-r.wake:
		}
	}
}

// NavigateByURL schedules a navigation to u.
func (r *Router) NavigateByURL(u string, opts ...NavigateOption) *Navigation {
	t, err := r.opts.serializer.Parse(u)
	if err != nil {
		return settledNavigation(u, false, err)
	}
	return r.NavigateByTree(t, opts...)
}

// NavigateByTree schedules a navigation to t.
func (r *Router) NavigateByTree(t *urltree.Tree, opts ...NavigateOption) *Navigation {
	return r.scheduleNavigation(t, location.Imperative, applyNavigateOptions(opts))
}

// Navigate applies commands to the current URL and schedules a navigation
// to the result.
func (r *Router) Navigate(commands []any, opts ...NavigateOption) *Navigation {
	o := applyNavigateOptions(opts)
	t, err := r.createURLTree(commands, o)
	if err != nil {
		return settledNavigation("", false, err)
	}
	return r.scheduleNavigation(t, location.Imperative, o)
}

// CreateURLTree applies commands to the current URL, honoring
// WithRelativeTo, WithQueryParams, WithQueryParamsHandling, WithFragment and
// WithPreserveFragment.
func (r *Router) CreateURLTree(commands []any, opts ...NavigateOption) (*urltree.Tree, error) {
	return r.createURLTree(commands, applyNavigateOptions(opts))
}

func (r *Router) createURLTree(commands []any, o navigateOptions) (*urltree.Tree, error) {
	r.mu.Lock()
	current := r.currentURLTree
	root := r.state.Root()
	r.mu.Unlock()

	anchorRoute := o.RelativeTo
	if anchorRoute == nil {
		anchorRoute = root
	}
	snap := anchorRoute.Snapshot()

	fragment := o.Fragment
	if o.PreserveFragment {
		fragment = current.Fragment
	}

	var q url.Values
	switch o.QueryParamsHandling {
	case QueryParamsMerge:
		q = cloneQuery(current.QueryParams)
		if len(o.QueryParams) > 0 {
			if err := mergo.Merge(&q, o.QueryParams, mergo.WithOverride); err != nil {
				return nil, err
			}
		}
	case QueryParamsPreserve:
		q = cloneQuery(current.QueryParams)
	default:
		q = cloneQuery(o.QueryParams)
	}
	for k, vs := range q {
		if len(vs) == 0 {
			delete(q, k)
		}
	}

	t, err := urltree.CreateTree(current, snap.Anchor(), commands, q, fragment)
	if err != nil {
		return nil, naverrors.New(naverrors.CodeInvalidCommands).WithDetail(err.Error()).Wrap(err)
	}
	return t, nil
}

// InitialNavigation subscribes to the location and, unless a navigation was
// already scheduled, navigates to its current URL, replacing the history
// entry.
func (r *Router) InitialNavigation() *Navigation {
	r.setUpLocationChangeListener()
	if r.navigationID.Load() != 0 {
		return settledNavigation(r.URL(), true, nil)
	}

	path := "/"
	if r.opts.location != nil {
		path = r.opts.location.Path()
	}
	return r.scheduleNavigation(r.parseExternal(path), location.Imperative, navigateOptions{ReplaceURL: true})
}

func (r *Router) setUpLocationChangeListener() {
	if r.opts.location == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unsubscribe != nil || r.disposed {
		return
	}
	r.unsubscribe = r.opts.location.Subscribe(func(c location.Change) {
		r.scheduleNavigation(r.parseExternal(c.URL), c.Source, navigateOptions{ReplaceURL: true})
	})
}

// parseExternal parses a URL reported by the location provider, falling
// back to the MalformedURIErrorHandler.
func (r *Router) parseExternal(u string) *urltree.Tree {
	t, err := r.opts.serializer.Parse(u)
	if err != nil {
		r.log.Warn("malformed url from location", "url", u, "error", err)
		return r.opts.malformedURIHandler(err, r.opts.serializer, u)
	}
	return t
}

// IsActive reports whether u is contained in the current URL. With exact
// false, u may be a prefix of the current paths and a subset of its query.
func (r *Router) IsActive(u string, exact bool) bool {
	t, err := r.opts.serializer.Parse(u)
	if err != nil {
		return false
	}
	return r.IsActiveTree(t, exact)
}

// IsActiveTree is IsActive for a parsed tree.
func (r *Router) IsActiveTree(t *urltree.Tree, exact bool) bool {
	r.mu.Lock()
	current := r.currentURLTree
	r.mu.Unlock()
	return urltree.ContainsTree(current, t, exact)
}

// ResetConfig replaces the route table. Navigations already past
// redirects keep the table they started with.
func (r *Router) ResetConfig(routes []*Route) error {
	if err := ValidateConfig(routes); err != nil {
		return err
	}
	standardizeConfig(routes)
	r.mu.Lock()
	r.config = routes
	r.mu.Unlock()
	return nil
}

// Config returns the route table.
func (r *Router) Config() []*Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.config
}

// Dispose stops Run, unsubscribes from the location and settles queued
// navigations with ErrDisposed.
func (r *Router) Dispose() {
	r.mu.Lock()
	r.disposed = true
	unsubscribe := r.unsubscribe
	r.unsubscribe = nil
	r.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	r.drain(false, ErrDisposed)
	r.doneOnce.Do(func() { close(r.done) })
	r.log.Debug("router disposed")
}

// URL returns the current URL after redirects.
func (r *Router) URL() string {
	r.mu.Lock()
	t := r.currentURLTree
	r.mu.Unlock()
	return r.opts.serializer.Serialize(t)
}

// URLTree returns the current URL tree.
func (r *Router) URLTree() *urltree.Tree {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentURLTree
}

// State returns the current router state.
func (r *Router) State() *RouterState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Navigated reports whether a navigation has committed.
func (r *Router) Navigated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.navigated
}

// Contexts returns the root outlet contexts hosts register outlets with.
func (r *Router) Contexts() *OutletContexts {
	return r.contexts
}

// ParseURL parses u with the router's serializer.
func (r *Router) ParseURL(u string) (*urltree.Tree, error) {
	return r.opts.serializer.Parse(u)
}

// SerializeURL serializes t with the router's serializer.
func (r *Router) SerializeURL(t *urltree.Tree) string {
	return r.opts.serializer.Serialize(t)
}

// Subscribe registers fn for router events and returns a function that
// unsubscribes.
func (r *Router) Subscribe(fn func(Event)) func() {
	r.subMu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.subMu.Lock()
			delete(r.subs, id)
			r.subMu.Unlock()
		})
	}
}

func (r *Router) emit(e Event) {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	r.subMu.RLock()
	ids := make([]int, 0, len(r.subs))
	for id := range r.subs {
		ids = append(ids, id)
	}
	r.subMu.RUnlock()
	sort.Ints(ids)

	for _, id := range ids {
		r.subMu.RLock()
		fn, ok := r.subs[id]
		r.subMu.RUnlock()
		if ok {
			fn(e)
		}
	}
}

// =============================================================================
// Scheduling
// =============================================================================

// scheduleNavigation queues a navigation. A location event that duplicates
// one of the two most recent tickets resolves at once as a no-op success.
func (r *Router) scheduleNavigation(raw *urltree.Tree, source location.Source, extras navigateOptions) *Navigation {
	rawURL := r.opts.serializer.Serialize(raw)

	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return settledNavigation(rawURL, false, ErrDisposed)
	}

	if r.duplicatesRecent(rawURL, source) {
		r.mu.Unlock()
		r.log.Debug("navigation coalesced", "url", rawURL, "source", source)
		return settledNavigation(rawURL, true, nil)
	}

	id := r.navigationID.Inc()
	t := &ticket{
		id:     id,
		raw:    raw,
		rawURL: rawURL,
		source: source,
		extras: extras,
		nav:    newNavigation(id, rawURL),
	}
	r.prevNavigation, r.lastNavigation = r.lastNavigation, t
	r.pending = append(r.pending, t)
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
	return t.nav
}

// duplicatesRecent reports whether a navigation from source to rawURL
// repeats a recent ticket: the location echoing the imperative navigation
// just made, or the popstate and hashchange pair one history move fires.
// Callers hold r.mu.
func (r *Router) duplicatesRecent(rawURL string, source location.Source) bool {
	if source == location.Imperative {
		return false
	}
	if last := r.lastNavigation; last != nil && last.rawURL == rawURL && last.source == location.Imperative {
		return true
	}
	for _, t := range []*ticket{r.lastNavigation, r.prevNavigation} {
		if t == nil || t.rawURL != rawURL {
			continue
		}
		if (source == location.HashChange && t.source == location.PopState) ||
			(source == location.PopState && t.source == location.HashChange) {
			return true
		}
	}
	return false
}

func (r *Router) next() *ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed || len(r.pending) == 0 {
		return nil
	}
	t := r.pending[0]
	r.pending[0] = nil
	r.pending = r.pending[1:]
	return t
}

// drain settles every queued navigation.
func (r *Router) drain(ok bool, err error) {
	r.mu.Lock()
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()
	for _, t := range pending {
		t.nav.settle(ok, err)
	}
}

// =============================================================================
// Pipeline
// =============================================================================

func (r *Router) execute(ctx context.Context, t *ticket) {
	r.mu.Lock()
	current := r.currentURLTree
	navigated := r.navigated
	r.mu.Unlock()

	urlTransition := !navigated || r.opts.serializer.Serialize(current) != t.rawURL
	if !urlTransition && r.opts.sameURL != SameURLReload {
		r.log.Debug("same url navigation ignored", "navigation_id", t.id, "url", t.rawURL)
		t.nav.settle(true, nil)
		return
	}

	r.log.Debug("navigation started", "navigation_id", t.id, "url", t.rawURL, "source", t.source)
	r.emit(NavigationStart{RouterEvent: RouterEvent{ID: t.id, URL: t.rawURL}, Trigger: string(t.source)})

	// A superseded ticket never reaches the location; runNavigate cancels it.
	if r.opts.urlUpdate == UpdateEager && !t.extras.SkipLocationChange && r.navigationID.Load() == t.id {
		r.setBrowserURL(t.raw, t.extras.ReplaceURL)
	}

	ok, err := r.runNavigate(ctx, t)
	t.nav.settle(ok, err)
}

func (r *Router) runNavigate(ctx context.Context, t *ticket) (bool, error) {
	ev := RouterEvent{ID: t.id, URL: t.rawURL}

	r.mu.Lock()
	storedState := r.state
	storedURL := r.currentURLTree
	config := r.config
	r.mu.Unlock()

	calls := &suspender{
		timeout: r.opts.guardTimeout,
		stale: func() error {
			if cur := r.navigationID.Load(); cur != t.id {
				return staleNavigation(t.id, cur)
			}
			return nil
		},
	}
	if err := calls.stale(); err != nil {
		r.cancel(ev, cancelReason(err))
		return false, nil
	}

	state, applied, err := r.transition(ctx, t, calls, config, storedState)
	if err == nil && state == nil {
		r.resetURLToCurrentURLTree()
		r.cancel(ev, "a guard rejected the navigation")
		return false, nil
	}
	if err == nil {
		err = r.commit(t, state, applied)
	}
	if err != nil {
		if IsNavigationCanceling(err) || calls.stale() != nil {
			r.mu.Lock()
			r.navigated = true
			r.mu.Unlock()
			r.resetStateAndURL(storedState, storedURL)
			r.cancel(ev, cancelReason(err))
			return false, nil
		}

		r.resetStateAndURL(storedState, storedURL)
		r.log.Error("navigation failed", "navigation_id", t.id, "url", t.rawURL, "error", err)
		r.emit(NavigationError{RouterEvent: ev, Err: err})
		return r.opts.errorHandler(err)
	}

	urlAfterRedirects := r.opts.serializer.Serialize(applied)
	r.log.Debug("navigation ended", "navigation_id", t.id, "url", t.rawURL, "url_after_redirects", urlAfterRedirects)
	r.emit(NavigationEnd{RouterEvent: ev, URLAfterRedirects: urlAfterRedirects})

	if _, none := r.opts.preloading.(NoPreloading); !none {
		go func() {
			if err := r.Preload(ctx); err != nil {
				r.log.Warn("preload failed", "error", err)
			}
		}()
	}
	return true, nil
}

// transition runs the stages of a navigation that do not touch shared
// state. A nil state with a nil error means a guard returned false.
func (r *Router) transition(ctx context.Context, t *ticket, calls *suspender, config []*Route, stored *RouterState) (*RouterState, *urltree.Tree, error) {
	ev := RouterEvent{ID: t.id, URL: t.rawURL}
	always := r.opts.paramsInheritance == InheritAlways

	applied, err := newRedirectResolver(ctx, r.loader, calls, t.raw, config, r.opts.registry).apply()
	if err != nil {
		return nil, nil, err
	}
	appliedURL := r.opts.serializer.Serialize(applied)

	future, err := recognize(config, r.opts.registry, applied, appliedURL, always)
	if err != nil {
		return nil, nil, err
	}
	r.emit(RoutesRecognized{RouterEvent: ev, URLAfterRedirects: appliedURL, State: future})
	if err := calls.stale(); err != nil {
		return nil, nil, err
	}

	checks := planGuards(future, stored.Snapshot, r.contexts)
	runner := &guardRunner{ctx: ctx, calls: calls, emit: r.emit, future: future, current: stored.Snapshot}

	r.emit(GuardsCheckStart{RouterEvent: ev, URLAfterRedirects: appliedURL, State: future})
	shouldActivate, err := runner.checkGuards(checks)
	if err != nil {
		return nil, nil, err
	}
	r.emit(GuardsCheckEnd{RouterEvent: ev, URLAfterRedirects: appliedURL, State: future, ShouldActivate: shouldActivate})
	if err := calls.stale(); err != nil {
		return nil, nil, err
	}
	if !shouldActivate {
		return nil, nil, nil
	}

	if checks.isActivating() {
		r.emit(ResolveStart{RouterEvent: ev, URLAfterRedirects: appliedURL, State: future})
		if err := runner.resolveData(checks, always); err != nil {
			return nil, nil, err
		}
		r.emit(ResolveEnd{RouterEvent: ev, URLAfterRedirects: appliedURL, State: future})
	}
	if err := calls.stale(); err != nil {
		return nil, nil, err
	}

	state, err := createRouterState(r.opts.reuse, future, stored)
	if err != nil {
		return nil, nil, err
	}
	return state, applied, nil
}

// commit publishes state and applied, updates the location and activates
// the outlets.
func (r *Router) commit(t *ticket, state *RouterState, applied *urltree.Tree) error {
	r.mu.Lock()
	if cur := r.navigationID.Load(); cur != t.id {
		r.mu.Unlock()
		return staleNavigation(t.id, cur)
	}
	prev := r.state
	state.bind()
	r.currentURLTree = applied
	r.rawURLTree = applied
	r.state = state
	r.mu.Unlock()

	if r.opts.urlUpdate == UpdateDeferred && !t.extras.SkipLocationChange {
		r.setBrowserURL(applied, t.extras.ReplaceURL)
	}

	act := &activator{
		strategy: r.opts.reuse,
		future:   state,
		curr:     prev,
		emit:     r.emit,
		factory:  r.opts.outletFactory,
	}
	act.activate(r.contexts)

	r.mu.Lock()
	r.navigated = true
	r.lastSuccessfulID = t.id
	r.mu.Unlock()
	return nil
}

func (r *Router) cancel(ev RouterEvent, reason string) {
	r.log.Info("navigation canceled", "navigation_id", ev.ID, "url", ev.URL, "reason", reason)
	r.emit(NavigationCancel{RouterEvent: ev, Reason: reason})
}

func (r *Router) setBrowserURL(t *urltree.Tree, replace bool) {
	loc := r.opts.location
	if loc == nil {
		return
	}
	path := r.opts.serializer.Serialize(t)
	if replace || loc.Path() == path {
		loc.ReplaceState(path)
		return
	}
	loc.Go(path)
}

func (r *Router) resetStateAndURL(state *RouterState, t *urltree.Tree) {
	r.mu.Lock()
	r.state = state
	r.currentURLTree = t
	r.rawURLTree = t
	r.mu.Unlock()
	r.resetURLToCurrentURLTree()
}

// resetURLToCurrentURLTree rewrites the location if it drifted from the
// committed URL.
func (r *Router) resetURLToCurrentURLTree() {
	loc := r.opts.location
	if loc == nil {
		return
	}
	r.mu.Lock()
	raw := r.rawURLTree
	r.mu.Unlock()
	path := r.opts.serializer.Serialize(raw)
	if loc.Path() != path {
		loc.ReplaceState(path)
	}
}

func cancelReason(err error) string {
	var nce *NavigationCancelingError
	if errors.As(err, &nce) {
		return nce.Reason
	}
	return err.Error()
}

func cloneQuery(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, vs := range q {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

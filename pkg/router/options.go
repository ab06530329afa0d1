package router

import (
	"log/slog"
	"net/url"
	"time"

	"github.com/vango-dev/nav/pkg/location"
	"github.com/vango-dev/nav/pkg/urltree"
)

// =============================================================================
// Router Options
// =============================================================================

// ParamsInheritanceStrategy selects how routes inherit parameters and data.
type ParamsInheritanceStrategy string

const (
	// InheritEmptyOnly inherits across empty-path and componentless parents.
	InheritEmptyOnly ParamsInheritanceStrategy = "emptyOnly"
	// InheritAlways inherits from every ancestor.
	InheritAlways ParamsInheritanceStrategy = "always"
)

// URLUpdateStrategy selects when the location is updated.
type URLUpdateStrategy string

const (
	// UpdateDeferred updates the location when the navigation commits.
	UpdateDeferred URLUpdateStrategy = "deferred"
	// UpdateEager updates the location when the navigation starts.
	UpdateEager URLUpdateStrategy = "eager"
)

// OnSameURLNavigation selects what navigating to the current URL does.
type OnSameURLNavigation string

const (
	// SameURLIgnore settles the navigation as a success without running it.
	SameURLIgnore OnSameURLNavigation = "ignore"
	// SameURLReload runs the pipeline again.
	SameURLReload OnSameURLNavigation = "reload"
)

// ErrorHandler decides the result of a navigation that failed with err.
// The default returns false and err.
type ErrorHandler func(err error) (bool, error)

// MalformedURIErrorHandler maps a URL the location provider reported but
// that cannot be parsed to the tree to navigate to instead. The default
// navigates to "/".
type MalformedURIErrorHandler func(err error, serializer urltree.Serializer, rawURL string) *urltree.Tree

// PreloadingStrategy decides which lazily configured routes are loaded in
// the background after a navigation.
type PreloadingStrategy interface {
	ShouldPreload(route *Route) bool
}

// NoPreloading loads lazy routes only when a navigation needs them.
type NoPreloading struct{}

// ShouldPreload implements PreloadingStrategy.
func (NoPreloading) ShouldPreload(*Route) bool { return false }

// PreloadAll loads every lazy route not gated by canLoad.
type PreloadAll struct{}

// ShouldPreload implements PreloadingStrategy.
func (PreloadAll) ShouldPreload(*Route) bool { return true }

// Option configures a Router.
type Option func(*options)

type options struct {
	logger              *slog.Logger
	location            location.Location
	loader              ConfigLoader
	registry            *Registry
	reuse               ReuseStrategy
	serializer          urltree.Serializer
	errorHandler        ErrorHandler
	malformedURIHandler MalformedURIErrorHandler
	guardTimeout        time.Duration
	paramsInheritance   ParamsInheritanceStrategy
	urlUpdate           URLUpdateStrategy
	sameURL             OnSameURLNavigation
	preloading          PreloadingStrategy
	outletFactory       OutletFactory
}

func defaultOptions() options {
	return options{
		logger:              slog.Default().With("component", "router"),
		registry:            NewRegistry(),
		reuse:               DefaultReuseStrategy{},
		serializer:          urltree.DefaultSerializer{},
		errorHandler:        func(err error) (bool, error) { return false, err },
		malformedURIHandler: defaultMalformedURIHandler,
		paramsInheritance:   InheritEmptyOnly,
		urlUpdate:           UpdateDeferred,
		sameURL:             SameURLIgnore,
		preloading:          NoPreloading{},
		outletFactory:       NewHeadlessOutlet,
	}
}

func defaultMalformedURIHandler(_ error, serializer urltree.Serializer, _ string) *urltree.Tree {
	t, err := serializer.Parse("/")
	if err != nil {
		return urltree.Empty()
	}
	return t
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithLocation sets the history provider. Without one the router keeps its
// URL to itself.
func WithLocation(loc location.Location) Option {
	return func(o *options) {
		o.location = loc
	}
}

// WithLoader sets the loader for routes with LoadChildren.
func WithLoader(l ConfigLoader) Option {
	return func(o *options) {
		o.loader = l
	}
}

// WithRegistry sets the root guard and resolver registry.
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithReuseStrategy replaces DefaultReuseStrategy.
func WithReuseStrategy(s ReuseStrategy) Option {
	return func(o *options) {
		if s != nil {
			o.reuse = s
		}
	}
}

// WithSerializer replaces the default URL serializer.
func WithSerializer(s urltree.Serializer) Option {
	return func(o *options) {
		if s != nil {
			o.serializer = s
		}
	}
}

// WithErrorHandler replaces the handler for failed navigations.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) {
		if h != nil {
			o.errorHandler = h
		}
	}
}

// WithMalformedURIErrorHandler replaces the handler for unparsable URLs
// coming from the location provider.
func WithMalformedURIErrorHandler(h MalformedURIErrorHandler) Option {
	return func(o *options) {
		if h != nil {
			o.malformedURIHandler = h
		}
	}
}

// WithGuardTimeout bounds every guard, resolver and lazy load. Zero, the
// default, waits indefinitely.
func WithGuardTimeout(d time.Duration) Option {
	return func(o *options) {
		o.guardTimeout = d
	}
}

// WithParamsInheritance sets the parameter inheritance strategy.
func WithParamsInheritance(s ParamsInheritanceStrategy) Option {
	return func(o *options) {
		o.paramsInheritance = s
	}
}

// WithURLUpdateStrategy sets when the location is updated.
func WithURLUpdateStrategy(s URLUpdateStrategy) Option {
	return func(o *options) {
		o.urlUpdate = s
	}
}

// WithOnSameURLNavigation sets what navigating to the current URL does.
func WithOnSameURLNavigation(s OnSameURLNavigation) Option {
	return func(o *options) {
		o.sameURL = s
	}
}

// WithPreloading sets the preloading strategy.
func WithPreloading(s PreloadingStrategy) Option {
	return func(o *options) {
		if s != nil {
			o.preloading = s
		}
	}
}

// WithOutletFactory sets how outlets no host registered are created. A nil
// factory leaves such routes pending until the host registers an outlet.
func WithOutletFactory(f OutletFactory) Option {
	return func(o *options) {
		o.outletFactory = f
	}
}

// =============================================================================
// Navigation Options
// =============================================================================

// QueryParamsHandling selects how the query of a command navigation is
// formed.
type QueryParamsHandling string

const (
	// QueryParamsReplace uses the given query only. Default.
	QueryParamsReplace QueryParamsHandling = ""
	// QueryParamsMerge merges the given query into the current one.
	QueryParamsMerge QueryParamsHandling = "merge"
	// QueryParamsPreserve keeps the current query and ignores the given one.
	QueryParamsPreserve QueryParamsHandling = "preserve"
)

// NavigateOption is a functional option for a navigation.
type NavigateOption func(*navigateOptions)

// navigateOptions holds navigation configuration.
type navigateOptions struct {
	RelativeTo          *ActivatedRoute
	QueryParams         url.Values
	Fragment            string
	QueryParamsHandling QueryParamsHandling
	PreserveFragment    bool
	SkipLocationChange  bool
	ReplaceURL          bool
}

func applyNavigateOptions(opts []NavigateOption) navigateOptions {
	var o navigateOptions
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&o)
	}
	return o
}

// WithRelativeTo resolves commands relative to route instead of the root.
func WithRelativeTo(route *ActivatedRoute) NavigateOption {
	return func(o *navigateOptions) {
		o.RelativeTo = route
	}
}

// WithQueryParams sets the query of a command navigation.
func WithQueryParams(q url.Values) NavigateOption {
	return func(o *navigateOptions) {
		o.QueryParams = q
	}
}

// WithFragment sets the fragment of a command navigation.
func WithFragment(f string) NavigateOption {
	return func(o *navigateOptions) {
		o.Fragment = f
	}
}

// WithQueryParamsHandling selects merge or preserve semantics for the query.
func WithQueryParamsHandling(h QueryParamsHandling) NavigateOption {
	return func(o *navigateOptions) {
		o.QueryParamsHandling = h
	}
}

// WithPreserveFragment keeps the current fragment.
func WithPreserveFragment() NavigateOption {
	return func(o *navigateOptions) {
		o.PreserveFragment = true
	}
}

// WithSkipLocationChange commits the navigation without touching the
// location.
func WithSkipLocationChange() NavigateOption {
	return func(o *navigateOptions) {
		o.SkipLocationChange = true
	}
}

// WithReplace replaces the current history entry instead of pushing.
func WithReplace() NavigateOption {
	return func(o *navigateOptions) {
		o.ReplaceURL = true
	}
}

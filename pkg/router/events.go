package router

import (
	"fmt"
)

// =============================================================================
// Lifecycle Events
// =============================================================================

// Event is a router lifecycle event. Events of one navigation are delivered
// in order, on the goroutine running the navigation.
type Event interface {
	fmt.Stringer
	isEvent()
}

// RouterEvent carries the fields shared by navigation-scoped events.
type RouterEvent struct {
	// ID is the navigation id.
	ID int64
	// URL is the requested URL, before redirects.
	URL string
}

func (RouterEvent) isEvent() {}

// NavigationStart is emitted when a navigation leaves the queue.
type NavigationStart struct {
	RouterEvent
	// Trigger is what scheduled the navigation.
	Trigger string
}

func (e NavigationStart) String() string {
	return fmt.Sprintf("NavigationStart(id: %d, url: '%s')", e.ID, e.URL)
}

// NavigationEnd is emitted when a navigation commits.
type NavigationEnd struct {
	RouterEvent
	URLAfterRedirects string
}

func (e NavigationEnd) String() string {
	return fmt.Sprintf("NavigationEnd(id: %d, url: '%s', urlAfterRedirects: '%s')", e.ID, e.URL, e.URLAfterRedirects)
}

// NavigationCancel is emitted when a navigation is superseded or a guard
// rejects it.
type NavigationCancel struct {
	RouterEvent
	Reason string
}

func (e NavigationCancel) String() string {
	return fmt.Sprintf("NavigationCancel(id: %d, url: '%s')", e.ID, e.URL)
}

// NavigationError is emitted when a navigation fails unexpectedly.
type NavigationError struct {
	RouterEvent
	Err error
}

func (e NavigationError) String() string {
	return fmt.Sprintf("NavigationError(id: %d, url: '%s', error: %v)", e.ID, e.URL, e.Err)
}

// RoutesRecognized is emitted once the future snapshot has been built.
type RoutesRecognized struct {
	RouterEvent
	URLAfterRedirects string
	State             *StateSnapshot
}

func (e RoutesRecognized) String() string {
	return fmt.Sprintf("RoutesRecognized(id: %d, url: '%s', urlAfterRedirects: '%s', state: %s)", e.ID, e.URL, e.URLAfterRedirects, e.State)
}

// GuardsCheckStart is emitted before any guard runs.
type GuardsCheckStart struct {
	RouterEvent
	URLAfterRedirects string
	State             *StateSnapshot
}

func (e GuardsCheckStart) String() string {
	return fmt.Sprintf("GuardsCheckStart(id: %d, url: '%s', urlAfterRedirects: '%s', state: %s)", e.ID, e.URL, e.URLAfterRedirects, e.State)
}

// GuardsCheckEnd is emitted after the guards have run.
type GuardsCheckEnd struct {
	RouterEvent
	URLAfterRedirects string
	State             *StateSnapshot
	ShouldActivate    bool
}

func (e GuardsCheckEnd) String() string {
	return fmt.Sprintf("GuardsCheckEnd(id: %d, url: '%s', urlAfterRedirects: '%s', state: %s, shouldActivate: %t)", e.ID, e.URL, e.URLAfterRedirects, e.State, e.ShouldActivate)
}

// ResolveStart is emitted before resolvers run. It is only emitted when at
// least one route activates.
type ResolveStart struct {
	RouterEvent
	URLAfterRedirects string
	State             *StateSnapshot
}

func (e ResolveStart) String() string {
	return fmt.Sprintf("ResolveStart(id: %d, url: '%s', urlAfterRedirects: '%s', state: %s)", e.ID, e.URL, e.URLAfterRedirects, e.State)
}

// ResolveEnd is emitted after resolvers have run.
type ResolveEnd struct {
	RouterEvent
	URLAfterRedirects string
	State             *StateSnapshot
}

func (e ResolveEnd) String() string {
	return fmt.Sprintf("ResolveEnd(id: %d, url: '%s', urlAfterRedirects: '%s', state: %s)", e.ID, e.URL, e.URLAfterRedirects, e.State)
}

// RouteConfigLoadStart is emitted before a lazily configured route is loaded.
type RouteConfigLoadStart struct {
	Route *Route
}

func (RouteConfigLoadStart) isEvent() {}

func (e RouteConfigLoadStart) String() string {
	return fmt.Sprintf("RouteConfigLoadStart(path: %s)", e.Route.Path)
}

// RouteConfigLoadEnd is emitted after a lazily configured route is loaded.
type RouteConfigLoadEnd struct {
	Route *Route
}

func (RouteConfigLoadEnd) isEvent() {}

func (e RouteConfigLoadEnd) String() string {
	return fmt.Sprintf("RouteConfigLoadEnd(path: %s)", e.Route.Path)
}

// ChildActivationStart is emitted before the guards of a route's child run.
type ChildActivationStart struct {
	Snapshot *RouteSnapshot
}

func (ChildActivationStart) isEvent() {}

func (e ChildActivationStart) String() string {
	return fmt.Sprintf("ChildActivationStart(path: '%s')", snapshotPath(e.Snapshot))
}

// ChildActivationEnd is emitted after a route's children were activated.
type ChildActivationEnd struct {
	Snapshot *RouteSnapshot
}

func (ChildActivationEnd) isEvent() {}

func (e ChildActivationEnd) String() string {
	return fmt.Sprintf("ChildActivationEnd(path: '%s')", snapshotPath(e.Snapshot))
}

// ActivationStart is emitted before the guards of a route run.
type ActivationStart struct {
	Snapshot *RouteSnapshot
}

func (ActivationStart) isEvent() {}

func (e ActivationStart) String() string {
	return fmt.Sprintf("ActivationStart(path: '%s')", snapshotPath(e.Snapshot))
}

// ActivationEnd is emitted after a route was activated.
type ActivationEnd struct {
	Snapshot *RouteSnapshot
}

func (ActivationEnd) isEvent() {}

func (e ActivationEnd) String() string {
	return fmt.Sprintf("ActivationEnd(path: '%s')", snapshotPath(e.Snapshot))
}

func snapshotPath(s *RouteSnapshot) string {
	if s == nil || s.RouteConfig == nil {
		return ""
	}
	return s.RouteConfig.Path
}

// EventName returns the type name of an event, e.g. "NavigationStart".
func EventName(e Event) string {
	switch e.(type) {
	case NavigationStart:
		return "NavigationStart"
	case NavigationEnd:
		return "NavigationEnd"
	case NavigationCancel:
		return "NavigationCancel"
	case NavigationError:
		return "NavigationError"
	case RoutesRecognized:
		return "RoutesRecognized"
	case GuardsCheckStart:
		return "GuardsCheckStart"
	case GuardsCheckEnd:
		return "GuardsCheckEnd"
	case ResolveStart:
		return "ResolveStart"
	case ResolveEnd:
		return "ResolveEnd"
	case RouteConfigLoadStart:
		return "RouteConfigLoadStart"
	case RouteConfigLoadEnd:
		return "RouteConfigLoadEnd"
	case ChildActivationStart:
		return "ChildActivationStart"
	case ChildActivationEnd:
		return "ChildActivationEnd"
	case ActivationStart:
		return "ActivationStart"
	case ActivationEnd:
		return "ActivationEnd"
	default:
		return fmt.Sprintf("%T", e)
	}
}

package router

import (
	"errors"
	"fmt"
	"strings"

	naverrors "github.com/vango-dev/nav/internal/errors"
)

// Sentinel errors.
var (
	// ErrDisposed is returned for navigations scheduled after Dispose.
	ErrDisposed = errors.New("router: disposed")

	// ErrNoLoader is returned when a route declares LoadChildren but the
	// router has no ConfigLoader.
	ErrNoLoader = errors.New("router: no config loader for lazily loaded routes")

	// ErrGuardTimeout is returned when a guard or resolver exceeds the
	// configured timeout.
	ErrGuardTimeout = errors.New("router: guard or resolver timed out")
)

// NavigationCancelingError marks conditions that cancel a navigation rather
// than fail it: a canLoad guard returning false, or a superseded navigation.
type NavigationCancelingError struct {
	Reason string
}

func (e *NavigationCancelingError) Error() string {
	return "router: navigation canceled: " + e.Reason
}

// IsNavigationCanceling reports whether err cancels rather than fails.
func IsNavigationCanceling(err error) bool {
	var nce *NavigationCancelingError
	return errors.As(err, &nce)
}

func staleNavigation(id, current int64) error {
	return &NavigationCancelingError{
		Reason: fmt.Sprintf("navigation ID %d is not equal to the current navigation id %d", id, current),
	}
}

// NoMatchError is returned when no route matches a part of the URL.
type NoMatchError struct {
	// Segment is the serialized segment group that could not be matched.
	Segment string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("router: cannot match any routes. URL segment: %q", e.Segment)
}

// Unwrap exposes the coded error for CLI formatting.
func (e *NoMatchError) Unwrap() error {
	return naverrors.New(naverrors.CodeNoMatch).WithRoute(e.Segment)
}

// ConfigError reports an invalid route table. It is returned by New,
// ResetConfig and by lazy loads whose table fails validation.
type ConfigError struct {
	Errors []*naverrors.NavError
}

func (e *ConfigError) Error() string {
	if len(e.Errors) == 0 {
		return "router: no configuration errors"
	}
	if len(e.Errors) == 1 {
		return "router: invalid configuration: " + e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("router: %d configuration errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Unwrap returns the individual errors for errors.Is/As support.
func (e *ConfigError) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		out[i] = err
	}
	return out
}

// LoadError wraps a failure of the ConfigLoader.
type LoadError struct {
	Route string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("router: loading children of %q: %v", e.Route, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// GuardError wraps a failure returned by a guard or resolver.
type GuardError struct {
	// Kind is "canActivate", "canActivateChild", "canDeactivate", "canLoad"
	// or "resolve".
	Kind string
	Name string
	Err  error
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("router: %s %q: %v", e.Kind, e.Name, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *GuardError) Unwrap() error {
	return e.Err
}

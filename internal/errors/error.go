package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig     Category = "config"
	CategoryURL        Category = "url"
	CategoryNavigation Category = "navigation"
	CategoryCLI        Category = "cli"
)

// NavError is a structured error with the offending route, suggestions and
// documentation.
type NavError struct {
	// Code is a unique error identifier (e.g., "N101").
	Code string

	// Category is the error type (config, url, navigation, cli).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Route is the full path of the route entry the error refers to, if any.
	Route string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example is a route table snippet showing the correct approach.
	Example string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *NavError) Error() string {
	msg := e.Message
	if e.Route != "" {
		msg = fmt.Sprintf("%s (route %q)", msg, e.Route)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *NavError) Unwrap() error {
	return e.Wrapped
}

// Is matches another *NavError with the same code.
func (e *NavError) Is(target error) bool {
	t, ok := target.(*NavError)
	return ok && t.Code != "" && t.Code == e.Code
}

// WithRoute records the full path of the offending route entry.
func (e *NavError) WithRoute(path string) *NavError {
	e.Route = path
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *NavError) WithSuggestion(s string) *NavError {
	e.Suggestion = s
	return e
}

// WithExample adds a route table example to the error.
func (e *NavError) WithExample(ex string) *NavError {
	e.Example = ex
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *NavError) WithDetail(d string) *NavError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *NavError) Wrap(err error) *NavError {
	e.Wrapped = err
	return e
}

// New creates a NavError from a registered error code.
func New(code string) *NavError {
	template, ok := registry[code]
	if !ok {
		return &NavError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &NavError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
		DocURL:     template.DocURL,
	}
}

// Newf creates a new NavError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *NavError {
	return &NavError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a NavError.
func FromError(err error, code string) *NavError {
	if err == nil {
		return nil
	}
	if ne, ok := err.(*NavError); ok {
		return ne
	}
	return New(code).Wrap(err)
}

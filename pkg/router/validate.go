package router

import (
	"strings"

	naverrors "github.com/vango-dev/nav/internal/errors"
	"github.com/vango-dev/nav/pkg/urltree"
)

// =============================================================================
// Route Configuration Validation
// =============================================================================

// ValidateConfig checks a route table and all its static children. It
// returns nil or a *ConfigError holding every problem found.
func ValidateConfig(routes []*Route) error {
	return validateConfigAt(routes, "")
}

func validateConfigAt(routes []*Route, parent string) error {
	v := &configValidator{}
	v.validate(routes, parent)
	if len(v.errors) > 0 {
		return &ConfigError{Errors: v.errors}
	}
	return nil
}

type configValidator struct {
	errors []*naverrors.NavError
}

func (v *configValidator) validate(routes []*Route, parent string) {
	for _, r := range routes {
		v.validateNode(r, fullPath(parent, r))
	}
}

func (v *configValidator) fail(code, path string) {
	v.errors = append(v.errors, naverrors.New(code).WithRoute(path))
}

func (v *configValidator) validateNode(r *Route, path string) {
	if r == nil {
		v.errors = append(v.errors, naverrors.Newf(naverrors.CategoryConfig, "Encountered undefined route").WithRoute(path))
		return
	}

	hasChildren := r.Children != nil
	hasLazy := r.LoadChildren != ""
	hasRedirect := r.hasRedirect()

	if r.Component == nil && !hasChildren && !hasLazy && r.OutletName() != urltree.Primary {
		v.fail(naverrors.CodeNamedOutletWithoutChildren, path)
	}
	if hasRedirect && hasChildren {
		v.fail(naverrors.CodeRedirectWithChildren, path)
	}
	if hasRedirect && hasLazy {
		v.fail(naverrors.CodeRedirectWithLoadChildren, path)
	}
	if hasChildren && hasLazy {
		v.fail(naverrors.CodeChildrenWithLoadChildren, path)
	}
	if hasRedirect && r.Component != nil {
		v.fail(naverrors.CodeRedirectWithComponent, path)
	}
	if r.Path != "" && r.Matcher != nil {
		v.fail(naverrors.CodePathWithMatcher, path)
	}
	if !hasRedirect && r.Component == nil && !hasChildren && !hasLazy {
		v.fail(naverrors.CodeRouteWithoutTarget, path)
	}
	if strings.HasPrefix(r.Path, "/") {
		v.fail(naverrors.CodeLeadingSlash, path)
	}
	if r.Path == "" && r.Matcher == nil && hasRedirect && r.PathMatch == "" {
		v.fail(naverrors.CodeEmptyRedirectWithoutMatch, path)
	}
	switch r.PathMatch {
	case "", PathMatchPrefix, PathMatchFull:
	default:
		v.fail(naverrors.CodeInvalidPathMatch, path)
	}
	switch r.RunGuardsAndResolvers {
	case "", RunOnParamsChange, RunOnParamsOrQueryParamsChange, RunAlways:
	default:
		v.fail(naverrors.CodeInvalidRunGuards, path)
	}
	if hasDuplicateParam(r.Path) {
		v.fail(naverrors.CodeDuplicateParam, path)
	}

	if hasChildren {
		v.validate(r.Children, path)
	}
}

func hasDuplicateParam(path string) bool {
	seen := map[string]bool{}
	for _, part := range strings.Split(path, "/") {
		if !strings.HasPrefix(part, ":") {
			continue
		}
		if seen[part] {
			return true
		}
		seen[part] = true
	}
	return false
}

package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	DocURL     string
}

// Route configuration codes.
const (
	CodeNamedOutletWithoutChildren = "N101"
	CodeRedirectWithChildren       = "N102"
	CodeRedirectWithLoadChildren   = "N103"
	CodeChildrenWithLoadChildren   = "N104"
	CodeRedirectWithComponent      = "N105"
	CodePathWithMatcher            = "N106"
	CodeRouteWithoutTarget         = "N107"
	CodeDuplicateParam             = "N108"
	CodeLeadingSlash               = "N109"
	CodeEmptyRedirectWithoutMatch  = "N110"
	CodeInvalidPathMatch           = "N111"
	CodeInvalidRunGuards           = "N112"
)

// URL codes.
const (
	CodeMalformedURL         = "N201"
	CodeInvalidCommands      = "N202"
	CodeDuplicateOutlet      = "N203"
	CodeNamedOutletRedirect  = "N204"
	CodeMissingRedirectParam = "N205"
)

// Navigation codes.
const (
	CodeNoMatch          = "N301"
	CodeCanLoadRejected  = "N302"
	CodeUnknownGuard     = "N303"
	CodeUnknownResolver  = "N304"
	CodeGuardTimeout     = "N305"
	CodeLoadFailed       = "N306"
	CodeReattachMismatch = "N307"
	CodeRouterDisposed   = "N308"
)

// Engine configuration and CLI codes.
const (
	CodeConfigNotFound     = "N401"
	CodeConfigInvalid      = "N402"
	CodeConfigInvalidValue = "N403"
	CodeRouteTableInvalid  = "N404"
)

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Route Configuration Errors (N101-N199)
	// ============================================

	CodeNamedOutletWithoutChildren: {
		Category:   CategoryConfig,
		Message:    "Named outlet route without component must have children",
		Detail:     "A componentless route targeting a named outlet has nothing to activate in that outlet.",
		Suggestion: "Add a component or children to the route.",
		DocURL:     "https://nav.vango.dev/errors/N101",
	},
	CodeRedirectWithChildren: {
		Category:   CategoryConfig,
		Message:    "redirectTo and children cannot be used together",
		Detail:     "A redirecting route is replaced before its children could ever match.",
		Suggestion: "Move the children to the redirect target.",
		DocURL:     "https://nav.vango.dev/errors/N102",
	},
	CodeRedirectWithLoadChildren: {
		Category:   CategoryConfig,
		Message:    "redirectTo and loadChildren cannot be used together",
		Suggestion: "Move loadChildren to the redirect target.",
		DocURL:     "https://nav.vango.dev/errors/N103",
	},
	CodeChildrenWithLoadChildren: {
		Category:   CategoryConfig,
		Message:    "children and loadChildren cannot be used together",
		Suggestion: "Declare the children inside the lazily loaded table.",
		DocURL:     "https://nav.vango.dev/errors/N104",
	},
	CodeRedirectWithComponent: {
		Category: CategoryConfig,
		Message:  "redirectTo and component cannot be used together",
		DocURL:   "https://nav.vango.dev/errors/N105",
	},
	CodePathWithMatcher: {
		Category: CategoryConfig,
		Message:  "path and matcher cannot be used together",
		DocURL:   "https://nav.vango.dev/errors/N106",
	},
	CodeRouteWithoutTarget: {
		Category: CategoryConfig,
		Message:  "One of component, redirectTo, children or loadChildren must be provided",
		DocURL:   "https://nav.vango.dev/errors/N107",
	},
	CodeDuplicateParam: {
		Category:   CategoryConfig,
		Message:    "Path declares the same parameter twice",
		Suggestion: "Rename one of the parameters; the later one would silently win.",
		DocURL:     "https://nav.vango.dev/errors/N108",
	},
	CodeLeadingSlash: {
		Category:   CategoryConfig,
		Message:    "Path cannot start with a slash",
		Suggestion: "Drop the leading slash; route paths are relative to their parent.",
		DocURL:     "https://nav.vango.dev/errors/N109",
	},
	CodeEmptyRedirectWithoutMatch: {
		Category:   CategoryConfig,
		Message:    "Empty path redirect must declare pathMatch",
		Detail:     "An empty path is a prefix of every URL, so a prefix redirect on it would always fire.",
		Suggestion: "Set pathMatch to \"full\" to redirect only the empty URL.",
		DocURL:     "https://nav.vango.dev/errors/N110",
	},
	CodeInvalidPathMatch: {
		Category: CategoryConfig,
		Message:  "pathMatch must be \"prefix\" or \"full\"",
		DocURL:   "https://nav.vango.dev/errors/N111",
	},
	CodeInvalidRunGuards: {
		Category: CategoryConfig,
		Message:  "runGuardsAndResolvers must be \"paramsChange\", \"paramsOrQueryParamsChange\" or \"always\"",
		DocURL:   "https://nav.vango.dev/errors/N112",
	},

	// ============================================
	// URL Errors (N201-N299)
	// ============================================

	CodeMalformedURL: {
		Category: CategoryURL,
		Message:  "Malformed URL",
		Detail:   "The URL does not follow the navigation grammar.",
		DocURL:   "https://nav.vango.dev/errors/N201",
	},
	CodeInvalidCommands: {
		Category: CategoryURL,
		Message:  "Invalid navigation commands",
		DocURL:   "https://nav.vango.dev/errors/N202",
	},
	CodeDuplicateOutlet: {
		Category: CategoryURL,
		Message:  "Two segments cannot have the same outlet name",
		DocURL:   "https://nav.vango.dev/errors/N203",
	},
	CodeNamedOutletRedirect: {
		Category: CategoryURL,
		Message:  "Only absolute redirects can have named outlets",
		DocURL:   "https://nav.vango.dev/errors/N204",
	},
	CodeMissingRedirectParam: {
		Category: CategoryURL,
		Message:  "Redirect target references an unknown parameter",
		DocURL:   "https://nav.vango.dev/errors/N205",
	},

	// ============================================
	// Navigation Errors (N301-N399)
	// ============================================

	CodeNoMatch: {
		Category: CategoryNavigation,
		Message:  "Cannot match any routes",
		DocURL:   "https://nav.vango.dev/errors/N301",
	},
	CodeCanLoadRejected: {
		Category: CategoryNavigation,
		Message:  "Cannot load children because a canLoad guard returned false",
		DocURL:   "https://nav.vango.dev/errors/N302",
	},
	CodeUnknownGuard: {
		Category:   CategoryNavigation,
		Message:    "No guard registered under this name",
		Suggestion: "Register the guard on the router registry or the lazily loaded registry.",
		DocURL:     "https://nav.vango.dev/errors/N303",
	},
	CodeUnknownResolver: {
		Category:   CategoryNavigation,
		Message:    "No resolver registered under this name",
		Suggestion: "Register the resolver on the router registry or the lazily loaded registry.",
		DocURL:     "https://nav.vango.dev/errors/N304",
	},
	CodeGuardTimeout: {
		Category: CategoryNavigation,
		Message:  "Guard or resolver timed out",
		DocURL:   "https://nav.vango.dev/errors/N305",
	},
	CodeLoadFailed: {
		Category: CategoryNavigation,
		Message:  "Loading child routes failed",
		DocURL:   "https://nav.vango.dev/errors/N306",
	},
	CodeReattachMismatch: {
		Category: CategoryNavigation,
		Message:  "Cannot reattach a detached route created from a different route",
		DocURL:   "https://nav.vango.dev/errors/N307",
	},
	CodeRouterDisposed: {
		Category: CategoryNavigation,
		Message:  "Router has been disposed",
		DocURL:   "https://nav.vango.dev/errors/N308",
	},

	// ============================================
	// Configuration / CLI Errors (N401-N499)
	// ============================================

	CodeConfigNotFound: {
		Category:   CategoryCLI,
		Message:    "No nav.json found",
		Suggestion: "Create nav.json in the project root or pass --config.",
		DocURL:     "https://nav.vango.dev/errors/N401",
	},
	CodeConfigInvalid: {
		Category:   CategoryCLI,
		Message:    "nav.json could not be parsed",
		Suggestion: "Check that nav.json is valid JSON.",
		DocURL:     "https://nav.vango.dev/errors/N402",
	},
	CodeConfigInvalidValue: {
		Category: CategoryCLI,
		Message:  "Invalid value in nav.json",
		DocURL:   "https://nav.vango.dev/errors/N403",
	},
	CodeRouteTableInvalid: {
		Category:   CategoryCLI,
		Message:    "Route table could not be read",
		Suggestion: "Check the YAML syntax and field names of the route table.",
		DocURL:     "https://nav.vango.dev/errors/N404",
	},
}

// GetAllCodes returns all registered error codes in ascending order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}

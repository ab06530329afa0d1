// Package errors provides structured, actionable errors for the navigation
// engine and its tooling.
//
// Every error carries a code that maps to a registered template:
//   - N1xx: route configuration errors, reported when a route table is
//     loaded or reset
//   - N2xx: URL errors (malformed URLs, invalid navigation commands)
//   - N3xx: navigation errors (no matching route, rejected loads, missing
//     guards)
//   - N4xx: nav.json and CLI errors
//
// # Usage
//
//	err := errors.New(errors.CodeLeadingSlash).
//	    WithRoute("/team/:id")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR N109: Path cannot start with a slash
//	//
//	//   route /team/:id
//	//
//	//   Hint: Drop the leading slash; route paths are relative to their parent.
//	//
//	//   Learn more: https://nav.vango.dev/errors/N109
package errors

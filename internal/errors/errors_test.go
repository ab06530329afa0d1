package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "config error",
			code:    CodeLeadingSlash,
			wantMsg: "Path cannot start with a slash",
			wantCat: CategoryConfig,
		},
		{
			name:    "url error",
			code:    CodeMalformedURL,
			wantMsg: "Malformed URL",
			wantCat: CategoryURL,
		},
		{
			name:    "navigation error",
			code:    CodeNoMatch,
			wantMsg: "Cannot match any routes",
			wantCat: CategoryNavigation,
		},
		{
			name:    "unknown error code",
			code:    "N999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewCopiesSuggestion(t *testing.T) {
	err := New(CodeEmptyRedirectWithoutMatch)
	if !strings.Contains(err.Suggestion, "pathMatch") {
		t.Errorf("Suggestion = %q", err.Suggestion)
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "file %q not found", "routes.yaml")
	if err.Message != `file "routes.yaml" not found` {
		t.Errorf("Message = %q, want %q", err.Message, `file "routes.yaml" not found`)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
}

func TestNavError_Error(t *testing.T) {
	err := New(CodeLeadingSlash)
	if got, want := err.Error(), "N109: Path cannot start with a slash"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err.WithRoute("/team")
	if got, want := err.Error(), `N109: Path cannot start with a slash (route "/team")`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	// Without code
	err2 := &NavError{Message: "test error"}
	if err2.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", err2.Error(), "test error")
	}
}

func TestNavError_Is(t *testing.T) {
	err := New(CodeNoMatch).WithRoute("a/b")
	if !stderrors.Is(err, New(CodeNoMatch)) {
		t.Error("errors with the same code should match")
	}
	if stderrors.Is(err, New(CodeLoadFailed)) {
		t.Error("errors with different codes should not match")
	}
	if stderrors.Is(err, &NavError{}) {
		t.Error("an error without code should not match")
	}
}

func TestNavError_Builders(t *testing.T) {
	err := New(CodeRedirectWithChildren).
		WithRoute("home").
		WithSuggestion("custom").
		WithDetail("detail").
		WithExample("- path: home\n  redirectTo: /start")

	if err.Route != "home" {
		t.Errorf("Route = %q", err.Route)
	}
	if err.Suggestion != "custom" {
		t.Errorf("Suggestion = %q", err.Suggestion)
	}
	if err.Detail != "detail" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if !strings.HasPrefix(err.Example, "- path: home") {
		t.Errorf("Example = %q", err.Example)
	}
}

func TestNavError_Wrap(t *testing.T) {
	inner := New(CodeLoadFailed)
	outer := New(CodeNoMatch).Wrap(inner)

	if outer.Wrapped != inner {
		t.Error("Wrapped error mismatch")
	}
	if outer.Unwrap() != inner {
		t.Error("Unwrap() should return wrapped error")
	}
}

func TestFromError(t *testing.T) {
	// nil error
	if FromError(nil, CodeLoadFailed) != nil {
		t.Error("FromError(nil, ...) should return nil")
	}

	// Already NavError
	ne := New(CodeNoMatch)
	if FromError(ne, CodeLoadFailed) != ne {
		t.Error("FromError should return NavError as-is")
	}

	// Standard error
	stdErr := &testError{msg: "test error"}
	result := FromError(stdErr, CodeLoadFailed)
	if result.Wrapped != stdErr {
		t.Error("Standard error should be wrapped")
	}
	if result.Code != CodeLoadFailed {
		t.Errorf("Code = %q", result.Code)
	}
}

type testError struct {
	msg string
}

func (e *testError) Error() string {
	return e.msg
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New(CodeEmptyRedirectWithoutMatch).
		WithRoute("").
		WithExample("- path: \"\"\n  redirectTo: /home\n  pathMatch: full").
		Wrap(&testError{msg: "root table"})
	err.Route = "(root)"

	formatted := err.Format()

	for _, want := range []string{
		"N110",
		"Empty path redirect must declare pathMatch",
		"route (root)",
		"root table",
		"Hint:",
		"Example:",
		"Learn more:",
	} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Format() should contain %q:\n%s", want, formatted)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	err := New(CodeLeadingSlash).WithRoute("/team")
	want := "N109: Path cannot start with a slash [/team]"
	if got := err.FormatCompact(); got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New(CodeNoMatch).WithRoute("a/b").Wrap(&testError{msg: "segment 'x'"})
	json := err.FormatJSON()

	for _, want := range []string{
		`"code":"N301"`,
		`"category":"navigation"`,
		`"message":"Cannot match any routes"`,
		`"route":"a/b"`,
		`"cause":"segment 'x'"`,
	} {
		if !strings.Contains(json, want) {
			t.Errorf("JSON should contain %s: %s", want, json)
		}
	}
}

func TestGetAllCodes(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) == 0 {
		t.Fatal("GetAllCodes() should return codes")
	}
	if codes[0] != CodeNamedOutletWithoutChildren {
		t.Errorf("codes should be sorted, first = %q", codes[0])
	}

	found := false
	for _, code := range codes {
		if code == CodeNoMatch {
			found = true
			break
		}
	}
	if !found {
		t.Error("N301 should be in the codes list")
	}
}

func TestGetTemplate(t *testing.T) {
	template, ok := GetTemplate(CodeNoMatch)
	if !ok {
		t.Error("N301 should exist")
	}
	if template.Message != "Cannot match any routes" {
		t.Error("Template message mismatch")
	}

	_, ok = GetTemplate("N999")
	if ok {
		t.Error("N999 should not exist")
	}
}

func TestRegister(t *testing.T) {
	Register("N999", ErrorTemplate{
		Category: CategoryNavigation,
		Message:  "Custom test error",
		Detail:   "This is a test error",
		DocURL:   "https://test.dev/N999",
	})

	err := New("N999")
	if err.Message != "Custom test error" {
		t.Errorf("Message = %q, want %q", err.Message, "Custom test error")
	}

	// Cleanup
	delete(registry, "N999")
}

func TestWrapText(t *testing.T) {
	got := wrapText("short text", 100)
	if len(got) != 1 || got[0] != "short text" {
		t.Errorf("wrapText short text: got %v", got)
	}

	got = wrapText("this is a longer text that should be wrapped", 20)
	if len(got) != 3 {
		t.Errorf("wrapText long text: expected 3 lines, got %d: %v", len(got), got)
	}

	got = wrapText("", 10)
	if len(got) != 0 {
		t.Errorf("wrapText empty: expected empty, got %v", got)
	}
}

func TestColorFunctions(t *testing.T) {
	EnableColors()
	if !strings.Contains(red("test"), "\033[31m") {
		t.Error("red should contain ANSI code when colors enabled")
	}

	DisableColors()
	if strings.Contains(red("test"), "\033[") {
		t.Error("red should not contain ANSI code when colors disabled")
	}
	EnableColors()
}

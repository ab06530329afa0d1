package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	naverrors "github.com/vango-dev/nav/internal/errors"
	"github.com/vango-dev/nav/pkg/router"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func hasCode(err error, code string) bool {
	var ne *naverrors.NavError
	return errors.As(err, &ne) && ne.Code == code
}

func TestNew(t *testing.T) {
	cfg := New()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Routes", cfg.Routes, DefaultRoutes},
		{"RoutesDir", cfg.RoutesDir, DefaultRoutesDir},
		{"ParamsInheritanceStrategy", cfg.ParamsInheritanceStrategy, "emptyOnly"},
		{"URLUpdateStrategy", cfg.URLUpdateStrategy, "deferred"},
		{"OnSameURLNavigation", cfg.OnSameURLNavigation, "ignore"},
		{"Preloading", cfg.Preloading, PreloadNone},
		{"InitialNavigation", cfg.InitialNavigation, InitialEnabled},
		{"Inspect.Addr", cfg.Inspect.Addr, DefaultInspectAddr},
		{"Metrics.Namespace", cfg.Metrics.Namespace, DefaultMetricsNamespace},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	if !hasCode(err, naverrors.CodeConfigNotFound) {
		t.Errorf("Load(missing) error = %v, want %s", err, naverrors.CodeConfigNotFound)
	}

	writeConfig(t, tmpDir, `{
  "routes": "app.yaml",
  "paramsInheritanceStrategy": "always",
  "urlUpdateStrategy": "eager",
  "guardTimeout": "250ms",
  "preloading": "all",
  "initialNavigation": "disabled",
  "s3": {"bucket": "tables", "prefix": "v1"},
  "inspect": {"addr": ":9000"}
}
`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Routes != "app.yaml" || cfg.RoutesDir != DefaultRoutesDir {
		t.Errorf("Routes/RoutesDir = %q/%q", cfg.Routes, cfg.RoutesDir)
	}
	if cfg.ParamsInheritanceStrategy != "always" || cfg.URLUpdateStrategy != "eager" {
		t.Errorf("strategies = %q/%q", cfg.ParamsInheritanceStrategy, cfg.URLUpdateStrategy)
	}
	if cfg.OnSameURLNavigation != "ignore" {
		t.Errorf("OnSameURLNavigation = %q, want default", cfg.OnSameURLNavigation)
	}
	if cfg.InitialNavigationEnabled() {
		t.Error("InitialNavigationEnabled() = true, want false")
	}
	if cfg.S3 == nil || cfg.S3.Bucket != "tables" || cfg.S3.Prefix != "v1" {
		t.Errorf("S3 = %+v", cfg.S3)
	}
	if cfg.Inspect.Addr != ":9000" || cfg.Metrics.Namespace != DefaultMetricsNamespace {
		t.Errorf("Inspect/Metrics = %+v/%+v", cfg.Inspect, cfg.Metrics)
	}
	if got := cfg.RoutesPath(); got != filepath.Join(tmpDir, "app.yaml") {
		t.Errorf("RoutesPath() = %q", got)
	}
	if got := cfg.RoutesDirPath(); got != filepath.Join(tmpDir, DefaultRoutesDir) {
		t.Errorf("RoutesDirPath() = %q", got)
	}
	d, err := cfg.GuardTimeoutDuration()
	if err != nil || d != 250*time.Millisecond {
		t.Errorf("GuardTimeoutDuration() = %v, %v", d, err)
	}
}

func TestLoadFile_InvalidJSON(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "not valid json")

	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("Expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), naverrors.CodeConfigInvalid) {
		t.Errorf("Expected %s error, got: %v", naverrors.CodeConfigInvalid, err)
	}
}

func TestLoadFile_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		detail  string
	}{
		{"params inheritance", `{"paramsInheritanceStrategy": "sometimes"}`, "paramsInheritanceStrategy"},
		{"url update", `{"urlUpdateStrategy": "lazy"}`, "urlUpdateStrategy"},
		{"same url", `{"onSameUrlNavigation": "refresh"}`, "onSameUrlNavigation"},
		{"preloading", `{"preloading": "some"}`, "preloading"},
		{"initial navigation", `{"initialNavigation": "later"}`, "initialNavigation"},
		{"guard timeout", `{"guardTimeout": "soon"}`, "guardTimeout"},
		{"negative guard timeout", `{"guardTimeout": "-1s"}`, "guardTimeout"},
		{"s3 without bucket", `{"s3": {"prefix": "x"}}`, "s3.bucket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := LoadFile(path)
			if !hasCode(err, naverrors.CodeConfigInvalidValue) {
				t.Fatalf("LoadFile() error = %v, want %s", err, naverrors.CodeConfigInvalidValue)
			}
			var ne *naverrors.NavError
			errors.As(err, &ne)
			if !strings.Contains(ne.Detail, tt.detail) {
				t.Errorf("Detail = %q, want it to mention %q", ne.Detail, tt.detail)
			}
		})
	}
}

func TestSave(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	cfg := New()
	cfg.Preloading = PreloadAll
	cfg.GuardTimeout = "2s"

	if err := cfg.Save(); err == nil {
		t.Error("Expected error when saving without path")
	}
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}

	loaded, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.Preloading != PreloadAll || loaded.GuardTimeout != "2s" {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.Path() != configPath || loaded.Dir() != tmpDir {
		t.Errorf("Path/Dir = %q/%q", loaded.Path(), loaded.Dir())
	}

	loaded.OnSameURLNavigation = "reload"
	if err := loaded.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	reloaded, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if reloaded.OnSameURLNavigation != "reload" {
		t.Errorf("OnSameURLNavigation = %q, want reload", reloaded.OnSameURLNavigation)
	}
}

func TestRouterOptions(t *testing.T) {
	cfg := New()
	opts, err := cfg.RouterOptions()
	if err != nil {
		t.Fatalf("RouterOptions() error = %v", err)
	}
	if len(opts) != 3 {
		t.Errorf("default options = %d, want 3", len(opts))
	}

	cfg.GuardTimeout = "1s"
	cfg.Preloading = PreloadAll
	opts, err = cfg.RouterOptions()
	if err != nil {
		t.Fatalf("RouterOptions() error = %v", err)
	}
	if len(opts) != 5 {
		t.Errorf("options = %d, want 5", len(opts))
	}
	r, err := router.New([]*router.Route{{Path: "a", Component: "A"}}, opts...)
	if err != nil {
		t.Fatalf("router.New() with config options error = %v", err)
	}
	r.Dispose()

	cfg.URLUpdateStrategy = "never"
	if _, err := cfg.RouterOptions(); err == nil {
		t.Error("RouterOptions() accepted an invalid strategy")
	}
}

func TestFindProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{}`)

	nested := filepath.Join(tmpDir, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	root, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot error: %v", err)
	}
	if root != tmpDir {
		t.Errorf("FindProjectRoot = %q, want %q", root, tmpDir)
	}

	if _, err := FindProjectRoot(t.TempDir()); !hasCode(err, naverrors.CodeConfigNotFound) {
		t.Errorf("FindProjectRoot(empty) error = %v", err)
	}
}

func TestExists(t *testing.T) {
	tmpDir := t.TempDir()
	if Exists(tmpDir) {
		t.Error("Exists should return false for empty dir")
	}
	writeConfig(t, tmpDir, `{}`)
	if !Exists(tmpDir) {
		t.Error("Exists should return true when config exists")
	}
}

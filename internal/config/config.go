package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/vango-dev/nav/internal/errors"
	"github.com/vango-dev/nav/pkg/router"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "nav.json"

	// DefaultRoutes is the default route table path.
	DefaultRoutes = "routes.yaml"

	// DefaultRoutesDir is the default directory for lazily loaded tables.
	DefaultRoutesDir = "routes"

	// DefaultInspectAddr is the default inspector listen address.
	DefaultInspectAddr = "localhost:7070"

	// DefaultMetricsNamespace is the default Prometheus namespace.
	DefaultMetricsNamespace = "nav"
)

// Preloading values.
const (
	PreloadNone = "none"
	PreloadAll  = "all"
)

// InitialNavigation values.
const (
	InitialEnabled  = "enabled"
	InitialDisabled = "disabled"
)

// Config represents the complete nav.json configuration.
type Config struct {
	// Routes is the path to the root route table.
	Routes string `json:"routes,omitempty"`

	// RoutesDir is the directory loadChildren names are resolved in.
	RoutesDir string `json:"routesDir,omitempty"`

	// ParamsInheritanceStrategy is "emptyOnly" or "always".
	ParamsInheritanceStrategy string `json:"paramsInheritanceStrategy,omitempty"`

	// URLUpdateStrategy is "deferred" or "eager".
	URLUpdateStrategy string `json:"urlUpdateStrategy,omitempty"`

	// OnSameURLNavigation is "ignore" or "reload".
	OnSameURLNavigation string `json:"onSameUrlNavigation,omitempty"`

	// GuardTimeout bounds each guard and resolver (e.g., "5s"). Empty means
	// no timeout.
	GuardTimeout string `json:"guardTimeout,omitempty"`

	// Preloading is "none" or "all".
	Preloading string `json:"preloading,omitempty"`

	// InitialNavigation is "enabled" or "disabled".
	InitialNavigation string `json:"initialNavigation,omitempty"`

	// S3 loads lazy route tables from a bucket instead of RoutesDir.
	S3 *S3Config `json:"s3,omitempty"`

	// Inspect contains inspector server configuration.
	Inspect InspectConfig `json:"inspect,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// S3Config locates lazily loaded route tables in a bucket.
type S3Config struct {
	Bucket string `json:"bucket"`
	Prefix string `json:"prefix,omitempty"`
	Region string `json:"region,omitempty"`

	// Endpoint overrides the service endpoint, for S3-compatible stores.
	Endpoint string `json:"endpoint,omitempty"`
}

// InspectConfig contains inspector server settings.
type InspectConfig struct {
	// Addr is the address the inspector listens on.
	Addr string `json:"addr,omitempty"`
}

// MetricsConfig contains metrics settings.
type MetricsConfig struct {
	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from the specified directory.
// It looks for nav.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads and validates configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigNotFound).
				WithDetail("No nav.json found in " + filepath.Dir(path))
		}
		return nil, errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetail("Failed to parse nav.json: " + err.Error()).
			Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryCLI, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

func (c *Config) applyDefaults() {
	if c.Routes == "" {
		c.Routes = DefaultRoutes
	}
	if c.RoutesDir == "" {
		c.RoutesDir = DefaultRoutesDir
	}
	if c.ParamsInheritanceStrategy == "" {
		c.ParamsInheritanceStrategy = string(router.InheritEmptyOnly)
	}
	if c.URLUpdateStrategy == "" {
		c.URLUpdateStrategy = string(router.UpdateDeferred)
	}
	if c.OnSameURLNavigation == "" {
		c.OnSameURLNavigation = string(router.SameURLIgnore)
	}
	if c.Preloading == "" {
		c.Preloading = PreloadNone
	}
	if c.InitialNavigation == "" {
		c.InitialNavigation = InitialEnabled
	}
	if c.Inspect.Addr == "" {
		c.Inspect.Addr = DefaultInspectAddr
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
}

// Validate checks every enumerated value and the guard timeout.
func (c *Config) Validate() error {
	enums := []struct {
		field   string
		value   string
		allowed []string
	}{
		{"paramsInheritanceStrategy", c.ParamsInheritanceStrategy, []string{string(router.InheritEmptyOnly), string(router.InheritAlways)}},
		{"urlUpdateStrategy", c.URLUpdateStrategy, []string{string(router.UpdateDeferred), string(router.UpdateEager)}},
		{"onSameUrlNavigation", c.OnSameURLNavigation, []string{string(router.SameURLIgnore), string(router.SameURLReload)}},
		{"preloading", c.Preloading, []string{PreloadNone, PreloadAll}},
		{"initialNavigation", c.InitialNavigation, []string{InitialEnabled, InitialDisabled}},
	}
	for _, e := range enums {
		if !contains(e.allowed, e.value) {
			return errors.New(errors.CodeConfigInvalidValue).
				WithDetail(e.field + " is " + quote(e.value)).
				WithSuggestion("Use one of: " + joinQuoted(e.allowed))
		}
	}

	if _, err := c.GuardTimeoutDuration(); err != nil {
		return err
	}
	if c.S3 != nil && c.S3.Bucket == "" {
		return errors.New(errors.CodeConfigInvalidValue).
			WithDetail("s3.bucket is required when s3 is set")
	}
	return nil
}

// GuardTimeoutDuration parses GuardTimeout. Zero means no timeout.
func (c *Config) GuardTimeoutDuration() (time.Duration, error) {
	if c.GuardTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.GuardTimeout)
	if err != nil || d < 0 {
		return 0, errors.New(errors.CodeConfigInvalidValue).
			WithDetail("guardTimeout is " + quote(c.GuardTimeout)).
			WithSuggestion("Use a positive Go duration such as \"5s\" or \"250ms\".")
	}
	return d, nil
}

// RouterOptions converts the configuration to router options. Location,
// loader and registry are left to the caller.
func (c *Config) RouterOptions() ([]router.Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	timeout, _ := c.GuardTimeoutDuration()

	opts := []router.Option{
		router.WithParamsInheritance(router.ParamsInheritanceStrategy(c.ParamsInheritanceStrategy)),
		router.WithURLUpdateStrategy(router.URLUpdateStrategy(c.URLUpdateStrategy)),
		router.WithOnSameURLNavigation(router.OnSameURLNavigation(c.OnSameURLNavigation)),
	}
	if timeout > 0 {
		opts = append(opts, router.WithGuardTimeout(timeout))
	}
	if c.Preloading == PreloadAll {
		opts = append(opts, router.WithPreloading(router.PreloadAll{}))
	}
	return opts, nil
}

// InitialNavigationEnabled reports whether the first navigation runs on start.
func (c *Config) InitialNavigationEnabled() bool {
	return c.InitialNavigation != InitialDisabled
}

// RoutesPath returns the absolute path to the root route table.
func (c *Config) RoutesPath() string {
	return c.resolve(c.Routes)
}

// RoutesDirPath returns the absolute path to the lazy table directory.
func (c *Config) RoutesDirPath() string {
	return c.resolve(c.RoutesDir)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing nav.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New(errors.CodeConfigNotFound).
				WithDetail("No nav.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory
// or the nearest parent that has one.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func quote(s string) string {
	return "\"" + s + "\""
}

func joinQuoted(list []string) string {
	out := ""
	for i, s := range list {
		if i > 0 {
			out += ", "
		}
		out += quote(s)
	}
	return out
}

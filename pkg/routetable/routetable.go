// Package routetable reads declarative route tables from YAML and provides
// router.ConfigLoader implementations that fetch lazily loaded tables from
// a file system or an S3 bucket.
//
// A table looks like:
//
//	routes:
//	  - path: ""
//	    redirectTo: home
//	    pathMatch: full
//	  - path: team/:id
//	    component: Team
//	    canActivate: [auth]
//	    resolve: {team: teamResolver}
//	    children:
//	      - path: user/:name
//	        component: User
//	  - path: admin
//	    loadChildren: admin.yaml
//
// Components are names. A ComponentFunc maps them to host values; without
// one the name itself becomes the component.
package routetable

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/nav/pkg/router"
)

// MaxTableSize bounds the size of one encoded table.
const MaxTableSize = 1 << 20

// ErrTableTooLarge is returned for tables over MaxTableSize.
var ErrTableTooLarge = errors.New("routetable: table too large")

// Table is the document form of a route table.
type Table struct {
	Routes []RouteSpec `yaml:"routes"`
}

// RouteSpec is the document form of a router.Route.
type RouteSpec struct {
	Path                  string            `yaml:"path"`
	PathMatch             string            `yaml:"pathMatch,omitempty"`
	Component             string            `yaml:"component,omitempty"`
	RedirectTo            string            `yaml:"redirectTo,omitempty"`
	Outlet                string            `yaml:"outlet,omitempty"`
	Children              []RouteSpec       `yaml:"children,omitempty"`
	LoadChildren          string            `yaml:"loadChildren,omitempty"`
	CanActivate           []string          `yaml:"canActivate,omitempty"`
	CanActivateChild      []string          `yaml:"canActivateChild,omitempty"`
	CanDeactivate         []string          `yaml:"canDeactivate,omitempty"`
	CanLoad               []string          `yaml:"canLoad,omitempty"`
	Resolve               map[string]string `yaml:"resolve,omitempty"`
	Data                  map[string]any    `yaml:"data,omitempty"`
	RunGuardsAndResolvers string            `yaml:"runGuardsAndResolvers,omitempty"`
}

// ComponentFunc maps a component name to the value handed to outlets.
type ComponentFunc func(name string) (any, error)

// Decode reads a table.
func Decode(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxTableSize+1))
	if err != nil {
		return nil, fmt.Errorf("routetable: read: %w", err)
	}
	return Unmarshal(data)
}

// Unmarshal parses an encoded table. Unknown fields are errors.
func Unmarshal(data []byte) (*Table, error) {
	if len(data) > MaxTableSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTableTooLarge, len(data), MaxTableSize)
	}
	var t Table
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("routetable: decode: %w", err)
	}
	return &t, nil
}

// Marshal encodes t.
func Marshal(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return nil, fmt.Errorf("routetable: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Build converts the table to routes and validates them. A nil components
// uses component names as components.
func (t *Table) Build(components ComponentFunc) ([]*router.Route, error) {
	routes, err := buildRoutes(t.Routes, components)
	if err != nil {
		return nil, err
	}
	if err := router.ValidateConfig(routes); err != nil {
		return nil, err
	}
	return routes, nil
}

// Parse unmarshals and builds a table in one step.
func Parse(data []byte, components ComponentFunc) ([]*router.Route, error) {
	t, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return t.Build(components)
}

// FromRoutes converts routes back to their document form. Components that
// are not strings are written with their %v form.
func FromRoutes(routes []*router.Route) *Table {
	return &Table{Routes: specs(routes)}
}

func specs(routes []*router.Route) []RouteSpec {
	if routes == nil {
		return nil
	}
	out := make([]RouteSpec, 0, len(routes))
	for _, r := range routes {
		s := RouteSpec{
			Path:                  r.Path,
			PathMatch:             string(r.PathMatch),
			RedirectTo:            r.RedirectTo,
			Outlet:                r.Outlet,
			Children:              specs(r.Children),
			LoadChildren:          r.LoadChildren,
			CanActivate:           r.CanActivate,
			CanActivateChild:      r.CanActivateChild,
			CanDeactivate:         r.CanDeactivate,
			CanLoad:               r.CanLoad,
			Resolve:               r.Resolve,
			Data:                  r.Data,
			RunGuardsAndResolvers: string(r.RunGuardsAndResolvers),
		}
		switch c := r.Component.(type) {
		case nil:
		case string:
			s.Component = c
		default:
			s.Component = fmt.Sprintf("%v", c)
		}
		out = append(out, s)
	}
	return out
}

func buildRoutes(specs []RouteSpec, components ComponentFunc) ([]*router.Route, error) {
	if specs == nil {
		return nil, nil
	}
	routes := make([]*router.Route, 0, len(specs))
	for _, s := range specs {
		r := &router.Route{
			Path:                  s.Path,
			PathMatch:             router.PathMatch(s.PathMatch),
			RedirectTo:            s.RedirectTo,
			Outlet:                s.Outlet,
			LoadChildren:          s.LoadChildren,
			CanActivate:           s.CanActivate,
			CanActivateChild:      s.CanActivateChild,
			CanDeactivate:         s.CanDeactivate,
			CanLoad:               s.CanLoad,
			Resolve:               s.Resolve,
			Data:                  s.Data,
			RunGuardsAndResolvers: router.RunGuardsAndResolvers(s.RunGuardsAndResolvers),
		}
		if s.Component != "" {
			c, err := component(components, s.Component)
			if err != nil {
				return nil, err
			}
			r.Component = c
		}
		if s.Children != nil {
			children, err := buildRoutes(s.Children, components)
			if err != nil {
				return nil, err
			}
			r.Children = children
		}
		routes = append(routes, r)
	}
	return routes, nil
}

func component(components ComponentFunc, name string) (any, error) {
	if components == nil {
		return name, nil
	}
	c, err := components(name)
	if err != nil {
		return nil, fmt.Errorf("routetable: component %q: %w", name, err)
	}
	return c, nil
}

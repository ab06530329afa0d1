package routetable

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/nav/pkg/router"
)

const appTable = `
routes:
  - path: ""
    redirectTo: home
    pathMatch: full
  - path: home
    component: Home
    data:
      title: Home
  - path: team/:id
    component: Team
    canActivate: [auth]
    resolve:
      team: teamResolver
    children:
      - path: user/:name
        component: User
  - path: admin
    loadChildren: admin.yaml
`

const adminTable = `
routes:
  - path: ""
    component: Dashboard
  - path: users
    component: Users
`

func TestParse(t *testing.T) {
	routes, err := Parse([]byte(appTable), nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(routes) != 4 {
		t.Fatalf("got %d routes, want 4", len(routes))
	}

	redirect := routes[0]
	if redirect.RedirectTo != "home" || redirect.PathMatch != router.PathMatchFull {
		t.Errorf("redirect = %+v", redirect)
	}
	if routes[1].Component != "Home" || routes[1].Data["title"] != "Home" {
		t.Errorf("home = %+v", routes[1])
	}

	team := routes[2]
	if len(team.CanActivate) != 1 || team.CanActivate[0] != "auth" {
		t.Errorf("team.CanActivate = %v", team.CanActivate)
	}
	if team.Resolve["team"] != "teamResolver" {
		t.Errorf("team.Resolve = %v", team.Resolve)
	}
	if len(team.Children) != 1 || team.Children[0].Path != "user/:name" {
		t.Errorf("team.Children = %v", team.Children)
	}
	if routes[3].LoadChildren != "admin.yaml" {
		t.Errorf("admin.LoadChildren = %q", routes[3].LoadChildren)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		table string
		check func(error) bool
	}{
		{
			name:  "unknown field",
			table: "routes:\n  - path: a\n    componnet: A\n",
			check: func(err error) bool { return strings.Contains(err.Error(), "decode") },
		},
		{
			name:  "invalid config",
			table: "routes:\n  - path: /a\n    component: A\n",
			check: func(err error) bool {
				var ce *router.ConfigError
				return errors.As(err, &ce)
			},
		},
		{
			name:  "too large",
			table: "routes: []\n" + strings.Repeat("#", MaxTableSize),
			check: func(err error) bool { return errors.Is(err, ErrTableTooLarge) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.table), nil)
			if err == nil || !tt.check(err) {
				t.Errorf("Parse() error = %v", err)
			}
		})
	}
}

func TestComponentFunc(t *testing.T) {
	type view struct{ name string }
	components := func(name string) (any, error) {
		if name == "Missing" {
			return nil, errors.New("not registered")
		}
		return &view{name: name}, nil
	}

	routes, err := Parse([]byte("routes:\n  - path: a\n    component: A\n"), components)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if v, ok := routes[0].Component.(*view); !ok || v.name != "A" {
		t.Errorf("Component = %#v", routes[0].Component)
	}

	if _, err := Parse([]byte("routes:\n  - path: a\n    component: Missing\n"), components); err == nil {
		t.Error("Parse() with unknown component succeeded")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	routes, err := Parse([]byte(appTable), nil)
	if err != nil {
		t.Fatal(err)
	}
	data, err := Marshal(FromRoutes(routes))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	again, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("Parse(Marshal()) error = %v\n%s", err, data)
	}
	if len(again) != len(routes) || again[2].Children[0].Component != "User" {
		t.Errorf("round trip lost routes:\n%s", data)
	}
}

func TestFSLoader(t *testing.T) {
	fsys := fstest.MapFS{
		"admin.yaml": {Data: []byte(adminTable)},
	}
	loader := NewFSLoader(fsys, nil)
	parent := router.NewRegistry()

	cfg, err := loader.Load(context.Background(), parent, &router.Route{Path: "admin", LoadChildren: "admin.yaml"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Routes) != 2 || cfg.Routes[1].Component != "Users" {
		t.Errorf("Routes = %v", cfg.Routes)
	}
	if cfg.Registry != parent {
		t.Error("Registry is not the parent registry")
	}

	if _, err := loader.Load(context.Background(), parent, &router.Route{Path: "x", LoadChildren: "missing.yaml"}); err == nil {
		t.Error("Load() of missing table succeeded")
	}
}

func TestFSLoaderScope(t *testing.T) {
	fsys := fstest.MapFS{"admin.yaml": {Data: []byte(adminTable)}}
	parent := router.NewRegistry()
	child := parent.Child()

	loader := NewFSLoader(fsys, nil)
	loader.Scope = func(p *router.Registry, _ *router.Route) *router.Registry {
		if p != parent {
			t.Error("Scope got wrong parent")
		}
		return child
	}
	cfg, err := loader.Load(context.Background(), parent, &router.Route{LoadChildren: "admin.yaml"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Registry != child {
		t.Error("Registry is not the scoped registry")
	}
}

type fakeS3 struct {
	objects map[string]string
	keys    []string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := *in.Key
	f.keys = append(f.keys, *in.Bucket+"/"+key)
	body, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestS3Loader(t *testing.T) {
	client := &fakeS3{objects: map[string]string{"routes/admin.yaml": adminTable}}
	loader := NewS3Loader(client, "bucket", "routes/")

	cfg, err := loader.Load(context.Background(), router.NewRegistry(), &router.Route{Path: "admin", LoadChildren: "admin.yaml"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Routes) != 2 {
		t.Errorf("got %d routes, want 2", len(cfg.Routes))
	}
	if len(client.keys) != 1 || client.keys[0] != "bucket/routes/admin.yaml" {
		t.Errorf("fetched %v", client.keys)
	}

	if _, err := loader.Load(context.Background(), nil, &router.Route{LoadChildren: "nope.yaml"}); err == nil {
		t.Error("Load() of missing object succeeded")
	}
}

func TestFSLoaderWithRouter(t *testing.T) {
	routes, err := Parse([]byte(appTable), nil)
	if err != nil {
		t.Fatal(err)
	}
	reg := router.NewRegistry().
		CanActivate("auth", func(context.Context, *router.RouteSnapshot, *router.StateSnapshot) (bool, error) { return true, nil }).
		Resolver("teamResolver", func(context.Context, *router.RouteSnapshot, *router.StateSnapshot) (any, error) { return "t", nil })

	r, err := router.New(routes,
		router.WithRegistry(reg),
		router.WithLoader(NewFSLoader(fstest.MapFS{"admin.yaml": {Data: []byte(adminTable)}}, nil)))
	if err != nil {
		t.Fatalf("router.New() error = %v", err)
	}
	defer r.Dispose()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	ok, err := r.NavigateByURL("/admin/users").Wait(ctx)
	if !ok || err != nil {
		t.Fatalf("NavigateByURL(/admin/users) = %v, %v", ok, err)
	}
	if got := r.State().Leaf().Component; got != "Users" {
		t.Errorf("leaf = %v, want Users", got)
	}
}

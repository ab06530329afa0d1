package routetable

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/nav/pkg/router"
)

// ScopeFunc returns the registry a loaded table's guards are looked up in.
// parent is the registry in scope where the lazy route is declared.
type ScopeFunc func(parent *router.Registry, route *router.Route) *router.Registry

// =============================================================================
// File System Loader
// =============================================================================

// FSLoader loads the table named by Route.LoadChildren from a file system.
type FSLoader struct {
	FS         fs.FS
	Components ComponentFunc
	// Scope is optional; loaded tables share the parent registry by default.
	Scope  ScopeFunc
	Logger *slog.Logger
}

// NewFSLoader creates a loader reading from fsys.
func NewFSLoader(fsys fs.FS, components ComponentFunc) *FSLoader {
	return &FSLoader{FS: fsys, Components: components}
}

// Load implements router.ConfigLoader.
func (l *FSLoader) Load(ctx context.Context, parent *router.Registry, route *router.Route) (*router.LoadedConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := path.Clean(route.LoadChildren)
	data, err := fs.ReadFile(l.FS, name)
	if err != nil {
		return nil, fmt.Errorf("routetable: %s: %w", name, err)
	}
	logger(l.Logger).Debug("route table loaded", "source", "fs", "name", name, "bytes", len(data))
	return loaded(data, l.Components, l.Scope, parent, route)
}

// =============================================================================
// S3 Loader
// =============================================================================

// S3API is the subset of *s3.Client the loader uses.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Loader loads the table named by Route.LoadChildren from an S3 bucket.
// The object key is Prefix joined with the name.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	loader := routetable.NewS3Loader(s3.NewFromConfig(cfg), "my-bucket", "routes/")
//	r, _ := router.New(routes, router.WithLoader(loader))
type S3Loader struct {
	client     S3API
	bucket     string
	prefix     string
	Components ComponentFunc
	Scope      ScopeFunc
	Logger     *slog.Logger
}

// NewS3Loader creates a loader reading from bucket under prefix.
func NewS3Loader(client S3API, bucket, prefix string) *S3Loader {
	return &S3Loader{client: client, bucket: bucket, prefix: prefix}
}

// Load implements router.ConfigLoader.
func (l *S3Loader) Load(ctx context.Context, parent *router.Registry, route *router.Route) (*router.LoadedConfig, error) {
	key := path.Join(l.prefix, route.LoadChildren)
	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("routetable: s3://%s/%s: %w", l.bucket, key, err)
	}
	defer out.Body.Close()

	t, err := Decode(out.Body)
	if err != nil {
		return nil, err
	}
	logger(l.Logger).Debug("route table loaded", "source", "s3", "bucket", l.bucket, "key", key, "routes", len(t.Routes))

	routes, err := buildRoutes(t.Routes, l.Components)
	if err != nil {
		return nil, err
	}
	return &router.LoadedConfig{Routes: routes, Registry: scope(l.Scope, parent, route)}, nil
}

func loaded(data []byte, components ComponentFunc, sf ScopeFunc, parent *router.Registry, route *router.Route) (*router.LoadedConfig, error) {
	t, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	// The router validates loaded tables against the lazy route's path.
	routes, err := buildRoutes(t.Routes, components)
	if err != nil {
		return nil, err
	}
	return &router.LoadedConfig{Routes: routes, Registry: scope(sf, parent, route)}, nil
}

func scope(sf ScopeFunc, parent *router.Registry, route *router.Route) *router.Registry {
	if sf == nil {
		return parent
	}
	if r := sf(parent, route); r != nil {
		return r
	}
	return parent
}

func logger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default().With("component", "routetable")
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/nav/internal/config"
	naverrors "github.com/vango-dev/nav/internal/errors"
	"github.com/vango-dev/nav/pkg/location"
	"github.com/vango-dev/nav/pkg/router"
	"github.com/vango-dev/nav/pkg/routetable"
)

// projectFlags are the flags shared by every command that loads a table.
type projectFlags struct {
	config string
	routes string
	deny   []string
}

// project is a loaded configuration and root route table.
type project struct {
	cfg      *config.Config
	routes   []*router.Route
	registry *router.Registry
	policy   guardPolicy
	loader   router.ConfigLoader
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		var ne *naverrors.NavError
		if errors.As(err, &ne) && ne.Code == naverrors.CodeConfigNotFound {
			// Without nav.json, paths resolve against the working directory.
			return config.New(), nil
		}
		return nil, err
	}
	return cfg, nil
}

func loadProject(f projectFlags) (*project, error) {
	cfg, err := loadConfig(f.config)
	if err != nil {
		return nil, err
	}
	if f.routes != "" {
		cfg.Routes = f.routes
	}

	routes, err := readTable(cfg.RoutesPath())
	if err != nil {
		return nil, err
	}

	p := &project{
		cfg:      cfg,
		routes:   routes,
		registry: router.NewRegistry(),
		policy:   newGuardPolicy(f.deny),
	}
	p.policy.register(p.registry, routes)
	p.loader = p.stubbedLoader(tableLoader(cfg))
	return p, nil
}

func readTable(path string) ([]*router.Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, naverrors.New(naverrors.CodeRouteTableInvalid).
			WithDetail("Cannot read " + path).
			Wrap(err)
	}
	routes, err := routetable.Parse(data, nil)
	if err != nil {
		var ce *router.ConfigError
		if errors.As(err, &ce) {
			return nil, err
		}
		return nil, naverrors.New(naverrors.CodeRouteTableInvalid).
			WithDetail(path + ": " + err.Error()).
			Wrap(err)
	}
	return routes, nil
}

// tableLoader picks the source of lazily loaded tables.
func tableLoader(cfg *config.Config) router.ConfigLoader {
	if cfg.S3 != nil {
		l := routetable.NewS3Loader(newS3Client(cfg.S3), cfg.S3.Bucket, cfg.S3.Prefix)
		l.Scope = childScope
		return l
	}
	l := routetable.NewFSLoader(os.DirFS(cfg.RoutesDirPath()), nil)
	l.Scope = childScope
	return l
}

func childScope(parent *router.Registry, _ *router.Route) *router.Registry {
	return parent.Child()
}

// newS3Client builds a client from the configuration and the standard AWS
// credential environment variables.
func newS3Client(c *config.S3Config) *s3.Client {
	opts := s3.Options{
		Region: c.Region,
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
				SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
				Source:          "environment",
			}, nil
		}),
	}
	if c.Endpoint != "" {
		opts.BaseEndpoint = aws.String(c.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

// stubbedLoader registers policy guards for every table inner loads.
func (p *project) stubbedLoader(inner router.ConfigLoader) router.ConfigLoader {
	return router.ConfigLoaderFunc(func(ctx context.Context, parent *router.Registry, route *router.Route) (*router.LoadedConfig, error) {
		lc, err := inner.Load(ctx, parent, route)
		if err != nil {
			return nil, err
		}
		reg := lc.Registry
		if reg == nil {
			reg = parent
		}
		p.policy.register(reg, lc.Routes)
		return lc, nil
	})
}

// newRouter creates a router for the project on loc.
func (p *project) newRouter(loc location.Location, log *slog.Logger, extra ...router.Option) (*router.Router, error) {
	opts, err := p.cfg.RouterOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		router.WithLocation(loc),
		router.WithRegistry(p.registry),
		router.WithLoader(p.loader),
		router.WithLogger(log),
	)
	opts = append(opts, extra...)
	return router.New(p.routes, opts...)
}

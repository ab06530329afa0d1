package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	naverrors "github.com/vango-dev/nav/internal/errors"
	"github.com/vango-dev/nav/pkg/router"
)

func validateCmd() *cobra.Command {
	var (
		flags projectFlags
		lazy  bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a route table",
		Long: `Validate the route table named by nav.json (or --routes) and
report every configuration error with a suggested fix.

With --lazy, every table named by loadChildren is fetched from the
configured directory or bucket and validated too.

Examples:
  navctl validate
  navctl validate --routes app.yaml --lazy`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), cmd.OutOrStdout(), flags, lazy)
		},
	}

	cmd.Flags().StringVarP(&flags.config, "config", "c", "", "Path to nav.json (default: search upward)")
	cmd.Flags().StringVarP(&flags.routes, "routes", "r", "", "Route table to validate (default from nav.json)")
	cmd.Flags().BoolVar(&lazy, "lazy", false, "Also load and validate lazily loaded tables")

	return cmd
}

func runValidate(ctx context.Context, out io.Writer, flags projectFlags, lazy bool) error {
	p, err := loadProject(flags)
	if err != nil {
		return reportConfigErrors(out, err)
	}
	count := countRoutes(p.routes)

	if lazy {
		n, err := validateLazy(ctx, p, p.registry, p.routes)
		if err != nil {
			return reportConfigErrors(out, err)
		}
		count += n
	}

	fmt.Fprintf(out, "\033[32m✓\033[0m %d routes valid (%s)\n", count, p.cfg.RoutesPath())
	return nil
}

// validateLazy loads every lazy table below routes and returns how many
// routes they declare.
func validateLazy(ctx context.Context, p *project, reg *router.Registry, routes []*router.Route) (int, error) {
	total := 0
	for _, r := range routes {
		if r.LoadChildren != "" {
			lc, err := p.loader.Load(ctx, reg, r)
			if err != nil {
				return 0, fmt.Errorf("loadChildren %q: %w", r.LoadChildren, err)
			}
			if err := router.ValidateConfig(lc.Routes); err != nil {
				return 0, err
			}
			n, err := validateLazy(ctx, p, lc.Registry, lc.Routes)
			if err != nil {
				return 0, err
			}
			total += countRoutes(lc.Routes) + n
		}
		n, err := validateLazy(ctx, p, reg, r.Children)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func countRoutes(routes []*router.Route) int {
	n := len(routes)
	for _, r := range routes {
		n += countRoutes(r.Children)
	}
	return n
}

// reportConfigErrors prints each configuration error in full and returns a
// summary error.
func reportConfigErrors(out io.Writer, err error) error {
	var ce *router.ConfigError
	if !errors.As(err, &ce) {
		return err
	}
	for _, e := range ce.Errors {
		fmt.Fprint(out, e.Format())
	}
	return naverrors.Newf(naverrors.CategoryConfig, "%d configuration error(s)", len(ce.Errors))
}

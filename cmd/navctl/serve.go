package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/nav/pkg/inspect"
	"github.com/vango-dev/nav/pkg/location"
	"github.com/vango-dev/nav/pkg/telemetry"
)

func serveCmd() *cobra.Command {
	var (
		flags   projectFlags
		addr    string
		start   string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a headless router behind the HTTP inspector",
		Long: `Start a headless router for the route table and serve the
inspector: current state, URL parsing, navigation over HTTP, a
WebSocket event stream and Prometheus metrics.

Examples:
  navctl serve
  navctl serve --addr :7070 --start /team/1
  curl -XPOST localhost:7070/navigate -d '{"url": "/team/2"}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags, addr, start, verbose)
		},
	}

	cmd.Flags().StringVarP(&flags.config, "config", "c", "", "Path to nav.json (default: search upward)")
	cmd.Flags().StringVarP(&flags.routes, "routes", "r", "", "Route table (default from nav.json)")
	cmd.Flags().StringSliceVar(&flags.deny, "deny", nil, "Guards that reject")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from nav.json)")
	cmd.Flags().StringVar(&start, "start", "/", "Initial location")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")

	return cmd
}

func runServe(ctx context.Context, flags projectFlags, addr, start string, verbose bool) error {
	p, err := loadProject(flags)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = p.cfg.Inspect.Addr
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	r, err := p.newRouter(location.NewMemory(start), log.With("component", "router"))
	if err != nil {
		return err
	}
	defer r.Dispose()

	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(
		telemetry.WithRegistry(reg),
		telemetry.WithNamespace(p.cfg.Metrics.Namespace),
	)
	defer metrics.Attach(r)()
	defer telemetry.NewTracing().Attach(r)()

	insp := inspect.New(r,
		inspect.WithGatherer(reg),
		inspect.WithLogger(log.With("component", "inspect")),
	)
	defer insp.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go r.Run(ctx)
	if p.cfg.InitialNavigationEnabled() {
		r.InitialNavigation()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           insp,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	success("Inspector listening on http://%s", addr)
	info("routes: %s", p.cfg.RoutesPath())
	info("start:  %s", start)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("inspector: %w", err)
	case <-ctx.Done():
	}

	fmt.Println("\n  Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

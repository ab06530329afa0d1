package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	naverrors "github.com/vango-dev/nav/internal/errors"
	"github.com/vango-dev/nav/pkg/location"
	"github.com/vango-dev/nav/pkg/router"
	"github.com/vango-dev/nav/pkg/urltree"
)

func recognizeCmd() *cobra.Command {
	var (
		flags   projectFlags
		from    string
		events  bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "recognize <url>",
		Short: "Navigate a headless router to a URL and print the result",
		Long: `Run a full navigation to the URL against the route table:
redirects, recognition, guards, resolvers and activation into headless
outlets. Guards allow unless named with --deny; resolvers resolve to
their own name.

Examples:
  navctl recognize /team/3/user/victor
  navctl recognize /admin --deny auth
  navctl recognize /b --from /a --events`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return runRecognize(ctx, cmd.OutOrStdout(), flags, from, args[0], events)
		},
	}

	cmd.Flags().StringVarP(&flags.config, "config", "c", "", "Path to nav.json (default: search upward)")
	cmd.Flags().StringVarP(&flags.routes, "routes", "r", "", "Route table (default from nav.json)")
	cmd.Flags().StringSliceVar(&flags.deny, "deny", nil, "Guards that reject")
	cmd.Flags().StringVar(&from, "from", "", "Navigate here first")
	cmd.Flags().BoolVarP(&events, "events", "e", false, "Print router events")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Give up after this long")

	return cmd
}

func runRecognize(ctx context.Context, out io.Writer, flags projectFlags, from, target string, events bool) error {
	p, err := loadProject(flags)
	if err != nil {
		return err
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r, err := p.newRouter(location.NewMemory("/"), log)
	if err != nil {
		return err
	}
	defer r.Dispose()

	if events {
		defer r.Subscribe(func(e router.Event) {
			fmt.Fprintf(out, "  %s\n", e)
		})()
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	go r.Run(runCtx)

	if from != "" {
		if err := navigate(ctx, r, from); err != nil {
			return fmt.Errorf("--from %s: %w", from, err)
		}
	}
	if err := navigate(ctx, r, target); err != nil {
		return err
	}

	fmt.Fprintf(out, "url: %s\n", r.URL())
	printState(out, r.State())
	return nil
}

// navigate runs one navigation and turns a rejected one into an error.
func navigate(ctx context.Context, r *router.Router, u string) error {
	ok, err := r.NavigateByURL(u).Wait(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return naverrors.Newf(naverrors.CategoryNavigation, "navigation to %s was canceled", u)
	}
	return nil
}

func printState(w io.Writer, st *router.RouterState) {
	for _, c := range st.Root().Children() {
		printRoute(w, c, 0)
	}
}

func printRoute(w io.Writer, a *router.ActivatedRoute, depth int) {
	indent := strings.Repeat("  ", depth)
	s := a.Snapshot()
	if s == nil {
		s = &router.RouteSnapshot{Outlet: a.Outlet}
	}

	path := "(root)"
	if cfg := a.RouteConfig(); cfg != nil {
		path = "'" + cfg.Path + "'"
	}
	line := fmt.Sprintf("%s%s %s url=%q", indent, a.Outlet, path, urltree.NewSegmentGroup(s.URL).String())
	if s.Component != nil {
		line += fmt.Sprintf(" component=%v", s.Component)
	}
	fmt.Fprintln(w, line)

	if len(s.Params) > 0 {
		fmt.Fprintf(w, "%s  params: %s\n", indent, formatMap(s.Params))
	}
	if len(s.Data) > 0 {
		data := make(map[string]string, len(s.Data))
		for k, v := range s.Data {
			data[k] = fmt.Sprintf("%v", v)
		}
		fmt.Fprintf(w, "%s  data: %s\n", indent, formatMap(data))
	}
	for _, c := range a.Children() {
		printRoute(w, c, depth+1)
	}
}

func formatMap(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + m[k]
	}
	return strings.Join(parts, " ")
}

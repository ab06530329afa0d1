package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	naverrors "github.com/vango-dev/nav/internal/errors"
	"github.com/vango-dev/nav/pkg/urltree"
)

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <url>",
		Short: "Parse a URL into its segment tree",
		Long: `Parse a URL with the navigation grammar and print its segment
groups, query parameters and fragment.

Examples:
  navctl parse /team/3/user/victor
  navctl parse '/inbox/33(popup:compose)?debug=true#top'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := urltree.Parse(args[0])
			if err != nil {
				return naverrors.New(naverrors.CodeMalformedURL).
					WithDetail(err.Error()).
					Wrap(err)
			}
			printTree(cmd.OutOrStdout(), t)
			return nil
		},
	}
}

func printTree(w io.Writer, t *urltree.Tree) {
	fmt.Fprintf(w, "serialized: %s\n", urltree.DefaultSerializer{}.Serialize(t))
	printGroup(w, "root", t.Root, 0)

	if len(t.QueryParams) > 0 {
		keys := make([]string, 0, len(t.QueryParams))
		for k := range t.QueryParams {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(w, "query:")
		for _, k := range keys {
			fmt.Fprintf(w, "  %s = %s\n", k, strings.Join(t.QueryParams[k], ", "))
		}
	}
	if t.Fragment != "" {
		fmt.Fprintf(w, "fragment: %s\n", t.Fragment)
	}
}

func printGroup(w io.Writer, outlet string, g *urltree.SegmentGroup, depth int) {
	indent := strings.Repeat("  ", depth)
	segs := make([]string, 0, len(g.Segments()))
	for _, s := range g.Segments() {
		segs = append(segs, s.String())
	}
	fmt.Fprintf(w, "%s%s: [%s]\n", indent, outlet, strings.Join(segs, ", "))
	for _, c := range g.Children() {
		printGroup(w, c.Outlet, c.Group, depth+1)
	}
}

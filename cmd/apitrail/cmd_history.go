package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odvcencio/apitrail/pkg/diff"
	"github.com/odvcencio/apitrail/pkg/discovery"
	"github.com/odvcencio/apitrail/pkg/surface"
)

func newHistoryCmd() *cobra.Command {
	var (
		root   string
		exts   []string
		typeOf string
	)

	cmd := &cobra.Command{
		Use:          "history <group&artifact>",
		Short:        "Print the API history of one component without writing a report",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, err := parseCoordinate(args[0])
			if err != nil {
				return err
			}
			comps, err := discovery.Discover(root, discovery.Options{Extensions: exts})
			if err != nil {
				return err
			}
			paths, ok := comps[coord]
			if !ok {
				return fmt.Errorf("component %s not found under %s", coord, root)
			}

			comp, _, err := (&surface.Aggregator{}).Aggregate(cmd.Context(), coord, paths)
			if err != nil {
				return err
			}
			diffs := diff.DiffComponent(comp)

			out := cmd.OutOrStdout()
			var shown []diff.TypeDiff
			for _, d := range diffs {
				if typeOf != "" && d.Name != typeOf {
					continue
				}
				shown = append(shown, d)
				fmt.Fprint(out, diff.FormatTypeDiff(d))
			}
			if typeOf != "" && len(shown) == 0 {
				return fmt.Errorf("type %s not found in %s", typeOf, coord)
			}
			fmt.Fprintf(out, "%s: %d releases, %s\n", coord, comp.Releases.Len(), diff.Summarize(shown))
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "repository root")
	cmd.Flags().StringSliceVar(&exts, "ext", []string{"jar"}, "archive file extensions")
	cmd.Flags().StringVar(&typeOf, "type", "", "only show this type (internal name, e.g. com/example/Widget)")
	return cmd
}

// parseCoordinate accepts "group&artifact" or "group:artifact".
func parseCoordinate(s string) (discovery.Coordinate, error) {
	sep := "&"
	if !strings.Contains(s, sep) {
		sep = ":"
	}
	group, artifact, ok := strings.Cut(s, sep)
	if !ok || group == "" || artifact == "" {
		return discovery.Coordinate{}, fmt.Errorf("invalid component %q: want group&artifact", s)
	}
	return discovery.Coordinate{Group: group, Artifact: artifact}, nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/apitrail/pkg/version"
)

func newVercmpCmd() *cobra.Command {
	var canonical bool

	cmd := &cobra.Command{
		Use:   "vercmp <label>...",
		Short: "Print release labels in ascending release order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			labels := make([]version.Label, len(args))
			for i, a := range args {
				labels[i] = version.Label(a)
			}
			version.Sort(labels)
			for _, l := range labels {
				if !canonical {
					fmt.Fprintln(cmd.OutOrStdout(), l)
					continue
				}
				v, err := version.Parse(string(l))
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t(invalid)\n", l)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", l, v.Canonical())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&canonical, "canonical", false, "also print each label's canonical form")
	return cmd
}

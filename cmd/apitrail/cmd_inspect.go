package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/apitrail/pkg/surface"
)

func newInspectCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:          "inspect <archive>",
		Short:        "Print the public types and members of one archive",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := surface.ReadArchive(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, m := range a.Modules {
				if !m.Public && !all {
					continue
				}
				if m.Public {
					fmt.Fprintln(out, m.Name)
				} else {
					fmt.Fprintf(out, "%s (not public)\n", m.Name)
				}
				for _, sig := range m.Members.Signatures() {
					e, _ := m.Members.Get(sig)
					if e.Deprecated {
						fmt.Fprintf(out, "  %s %s\n", sig, e)
					} else {
						fmt.Fprintf(out, "  %s\n", sig)
					}
				}
			}
			for _, err := range a.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %v\n", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "also list types that are not public")
	return cmd
}

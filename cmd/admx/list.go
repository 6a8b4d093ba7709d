package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list [session]",
	Aliases: []string{"ls"},
	Short:   "List server sessions, or the dependencies of one session",
	GroupID: "remote",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c := newClient()
		defer c.Close()
		out := cmd.OutOrStdout()

		if len(args) == 0 {
			sessions, err := c.ListSessions(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(out, sessions)
			}
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions.")
				return nil
			}
			return printSessionTable(out, sessions)
		}

		deps, err := c.ListDependencies(ctx, args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(out, deps)
		}
		if len(deps) == 0 {
			fmt.Fprintln(out, "No dependencies.")
			return nil
		}
		return printDependencyTable(out, deps)
	},
}

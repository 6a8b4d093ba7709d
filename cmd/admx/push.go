package main

import (
	"fmt"

	"github.com/alfredjeanlab/admatrix/internal/sheet"
	"github.com/spf13/cobra"
)

var pushCmd = &cobra.Command{
	Use:     "push",
	Short:   "Upload a dependency sheet to a server session",
	GroupID: "remote",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		sessionID, _ := cmd.Flags().GetString("session")

		var (
			s   *sheet.Sheet
			err error
		)
		if file == "-" {
			s, err = sheet.Decode(cmd.InOrStdin())
		} else {
			s, err = sheet.DecodeFile(file)
		}
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		c := newClient()
		defer c.Close()

		if sessionID == "" {
			created, err := c.CreateSession(ctx)
			if err != nil {
				return fmt.Errorf("creating session: %w", err)
			}
			sessionID = created.ID
		}

		for i, row := range s.Rows {
			if _, err := c.AddDependency(ctx, sessionID, row); err != nil {
				return fmt.Errorf("session %s: dependency %d: %w", sessionID, i+1, err)
			}
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"session":      sessionID,
				"dependencies": len(s.Rows),
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), sessionID)
		return nil
	},
}

func init() {
	pushCmd.Flags().StringP("file", "f", "", "dependency sheet (.toml), - for stdin")
	pushCmd.Flags().String("session", "", "append to an existing session instead of creating one")
	_ = pushCmd.MarkFlagRequired("file")
}

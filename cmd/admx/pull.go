package main

import (
	"fmt"
	"os"

	"github.com/alfredjeanlab/admatrix/internal/matrix"
	"github.com/spf13/cobra"
)

var pullCmd = &cobra.Command{
	Use:     "pull <session>",
	Short:   "Download a session's " + matrix.Filename,
	GroupID: "remote",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		c := newClient()
		defer c.Close()

		data, err := c.Matrix(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if output == "-" {
			_, err := cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
		return nil
	},
}

func init() {
	pullCmd.Flags().StringP("output", "o", matrix.Filename, "output path, - for stdout")
}

package main

import (
	"os"

	"github.com/alfredjeanlab/admatrix/internal/client"
	"github.com/alfredjeanlab/admatrix/internal/ui"
	"github.com/spf13/cobra"
)

var (
	serverURL  string
	authToken  string
	jsonOutput bool
	noColor    bool
)

func defaultServer() string {
	if s := os.Getenv("ADMX_SERVER"); s != "" {
		return s
	}
	if u := activeRemoteURL(); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func defaultToken() string {
	if t := os.Getenv("ADMX_TOKEN"); t != "" {
		return t
	}
	return activeRemoteToken()
}

// newClient returns a client for the configured server.
func newClient() client.MatrixClient {
	return client.NewHTTPClient(serverURL, authToken)
}

var rootCmd = &cobra.Command{
	Use:   "admx <command>",
	Short: "Build activity dependency matrices",
	Long: `admx records temporal and existential dependencies between activities
and exports them as a matrix.yaml document.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor || !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer(), "admatrix server URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", defaultToken(), "bearer token for the server")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "local", Title: "Local:"},
		&cobra.Group{ID: "remote", Title: "Remote sessions:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Local
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(buildCmd)

	// Remote sessions
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(watchCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/aretw0/homecare/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Exposes the wizard catalog as a JSON API over HTTP, with one live session per client and Server-Sent Events for lifecycle events.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")

		app, debug, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer app.Close()

		return cli.Serve(contextOf(cmd), app, cli.ServeOptions{
			Port:    port,
			Version: version(),
			Debug:   debug,
			Out:     os.Stdout,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (overrides PORT)")
}

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/homecare"
	"github.com/aretw0/homecare/internal/cli"
	"github.com/aretw0/homecare/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "homecare",
	Short:         "homecare runs the home physiotherapy wizards from the terminal",
	Long:          `homecare drives the assessment, booking, practitioner application, login and contact wizards against the homecare backend, either interactively or as an HTTP service.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("api-url", "", "Backend base URL (overrides HOMECARE_API_URL)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// openApp loads the configuration, applies flag overrides and wires the app.
func openApp(cmd *cobra.Command, quiet bool) (*cli.App, bool, error) {
	cfg := config.Load()
	if url, _ := cmd.Flags().GetString("api-url"); url != "" {
		cfg.APIURL = url
	}
	debug, _ := cmd.Flags().GetBool("debug")

	logger := cli.NewLogger(cfg.LogLevel, debug, quiet)
	app, err := cli.NewApp(contextOf(cmd), cfg, logger)
	if err != nil {
		return nil, debug, err
	}
	return app, debug, nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func version() string {
	return strings.TrimSpace(homecare.Version)
}

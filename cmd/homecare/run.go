package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/homecare/internal/cli"
	"github.com/aretw0/homecare/pkg/flows"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:       "run <flow>",
	Short:     "Run a wizard interactively",
	Long:      `Starts a wizard from the catalog (see "homecare flows ls") and walks through its steps. Type :back, :reset or :quit at any prompt.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: flows.Names(),
	RunE: func(cmd *cobra.Command, args []string) error {
		headless, _ := cmd.Flags().GetBool("headless")
		jsonMode, _ := cmd.Flags().GetBool("json")
		service, _ := cmd.Flags().GetString("service")
		assessment, _ := cmd.Flags().GetString("assessment")
		rawParams, _ := cmd.Flags().GetStringSlice("param")

		params, err := parseParams(rawParams)
		if err != nil {
			return err
		}

		app, debug, err := openApp(cmd, headless || jsonMode)
		if err != nil {
			return err
		}
		defer app.Close()

		return cli.Run(contextOf(cmd), app, cli.RunOptions{
			Flow:       args[0],
			Service:    service,
			Assessment: assessment,
			Params:     params,
			Headless:   headless,
			JSON:       jsonMode,
			Debug:      debug,
			Version:    version(),
			In:         os.Stdin,
			Out:        os.Stdout,
		})
	},
}

func parseParams(raw []string) (map[string]string, error) {
	params := make(map[string]string, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --param %q, want key=value", kv)
		}
		params[k] = v
	}
	return params, nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("headless", false, "Run in headless mode (no banner, no confirmation, strict IO)")
	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	runCmd.Flags().String("service", "", "Service to book (booking flow)")
	runCmd.Flags().String("assessment", "", "Assessment id to link (booking flow)")
	runCmd.Flags().StringSlice("param", nil, "Extra route parameter as key=value (repeatable)")
}

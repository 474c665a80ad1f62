package main

import (
	"fmt"
	"os"

	"github.com/aretw0/homecare/internal/cli"
	"github.com/aretw0/homecare/pkg/flows"
	"github.com/spf13/cobra"
)

var flowsCmd = &cobra.Command{
	Use:   "flows",
	Short: "Inspect the wizard catalog",
}

var flowsListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List the available wizards",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ListFlows(os.Stdout)
	},
}

var flowsShowCmd = &cobra.Command{
	Use:       "show <flow>",
	Short:     "Print the steps and fields of a wizard",
	Args:      cobra.ExactArgs(1),
	ValidArgs: flows.Names(),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		return cli.ShowFlow(args[0], format, os.Stdout)
	},
}

// flowsGraphCmd exports the Mermaid visualization
var flowsGraphCmd = &cobra.Command{
	Use:       "graph <flow>",
	Short:     "Export the wizard as a Mermaid diagram",
	Long:      `Outputs a Mermaid diagram (graph TD) of the wizard steps, their gates and the submission.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: flows.Names(),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.GraphFlow(args[0], os.Stdout)
	},
}

var flowsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every wizard definition for consistency",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.ValidateFlows(os.Stdout); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Println("All flows are valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(flowsCmd)
	flowsCmd.AddCommand(flowsListCmd, flowsShowCmd, flowsGraphCmd, flowsValidateCmd)
	flowsShowCmd.Flags().StringP("format", "o", "yaml", "Output format: yaml or json")
}

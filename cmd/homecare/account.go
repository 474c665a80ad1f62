package main

import (
	"os"

	"github.com/aretw0/homecare/internal/cli"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with a one-time password",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, debug, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer app.Close()

		return cli.Login(contextOf(cmd), app, cli.RunOptions{
			Debug:   debug,
			Version: version(),
			In:      os.Stdin,
			Out:     os.Stdout,
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the logged-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		app, _, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.Logout(contextOf(cmd), app, all, os.Stdout)
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the logged-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		app, _, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.WhoAmI(app, asJSON, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
	logoutCmd.Flags().Bool("all", false, "Also forget every other client stored in the token store")
	whoamiCmd.Flags().Bool("json", false, "Print the user as JSON")
}

package main

import (
	"os"

	"github.com/aretw0/homecare/internal/cli"
	"github.com/spf13/cobra"
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List the bookable services",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		app, _, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.ListServices(contextOf(cmd), app, asJSON, os.Stdout)
	},
}

var bookingsCmd = &cobra.Command{
	Use:   "bookings [id]",
	Short: "List your bookings, or show one by id",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		app, _, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer app.Close()

		var id string
		if len(args) == 1 {
			id = args[0]
		}
		return cli.Bookings(contextOf(cmd), app, id, asJSON, os.Stdout)
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Update the logged-in user's profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		var p cli.ProfileUpdate
		p.Name, _ = cmd.Flags().GetString("name")
		p.Email, _ = cmd.Flags().GetString("email")
		p.Age, _ = cmd.Flags().GetInt("age")
		p.Gender, _ = cmd.Flags().GetString("gender")

		app, _, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.UpdateProfile(contextOf(cmd), app, p, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(servicesCmd, bookingsCmd, profileCmd)
	servicesCmd.Flags().Bool("json", false, "Print the services as JSON")
	bookingsCmd.Flags().Bool("json", false, "Print the bookings as JSON")
	profileCmd.Flags().String("name", "", "New full name")
	profileCmd.Flags().String("email", "", "New email")
	profileCmd.Flags().Int("age", 0, "New age")
	profileCmd.Flags().String("gender", "", "New gender: male, female or other")
}

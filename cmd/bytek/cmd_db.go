package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bytekstore/bytek/config"
	"github.com/bytekstore/bytek/database/seeders"
	"github.com/bytekstore/bytek/pkg/database"
	"github.com/bytekstore/bytek/pkg/migration"
)

// bootDB loads config and opens the database connection.
func bootDB() error {
	if err := config.Load(); err != nil {
		return err
	}
	return database.Connect()
}

// bytek migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()

		n, err := migration.New(database.DB, os.Stdout).Run()
		if err != nil {
			return err
		}
		fmt.Printf("%d migration(s) applied.\n", n)
		return nil
	},
}

// bytek migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Roll back the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()

		n, err := migration.New(database.DB, os.Stdout).Rollback()
		if err != nil {
			return err
		}
		fmt.Printf("%d migration(s) rolled back.\n", n)
		return nil
	},
}

// bytek migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()

		rows, err := migration.New(database.DB, nil).Status()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "RAN\tBATCH\tMIGRATION")
		for _, s := range rows {
			ran, batch := "no", "-"
			if s.Ran {
				ran, batch = "yes", fmt.Sprint(s.Batch)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", ran, batch, s.Name)
		}
		return w.Flush()
	},
}

// bytek seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the admin account and demo catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()

		fmt.Println("Running seeders...")
		return seeders.RunAll(database.DB, os.Stdout)
	},
}

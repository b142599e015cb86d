// Command bytek runs the ByteK storefront API and its maintenance tasks.
//
//	bytek serve                 start the HTTP API and gRPC health endpoint
//	bytek migrate               apply pending migrations
//	bytek seed                  create the admin account and demo catalog
//	bytek queue:work -w 5       process notification mail
//	bytek schedule:run          run the low-stock digest on LOW_STOCK_CRON
//	bytek admin:create          add a back-office account
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/bytekstore/bytek/database/migrations"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "bytek",
	Short:         "ByteK store server and maintenance commands",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)

	rootCmd.AddCommand(queueWorkCmd)
	rootCmd.AddCommand(queueFailedCmd)
	rootCmd.AddCommand(scheduleRunCmd)

	rootCmd.AddCommand(adminCreateCmd)
}

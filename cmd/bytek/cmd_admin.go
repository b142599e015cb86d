package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bytekstore/bytek/app/repositories"
	"github.com/bytekstore/bytek/app/services"
	"github.com/bytekstore/bytek/pkg/database"
)

var (
	adminName     string
	adminEmail    string
	adminPassword string
)

// bytek admin:create
var adminCreateCmd = &cobra.Command{
	Use:   "admin:create",
	Short: "Create a back-office account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if adminEmail == "" || adminPassword == "" {
			return fmt.Errorf("--email and --password are required")
		}
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()

		auth := services.NewAuthService(repositories.NewUserRepository(database.DB))
		user, err := auth.CreateAdmin(context.Background(), adminName, adminEmail, adminPassword)
		if err != nil {
			return err
		}
		fmt.Printf("Admin %s created (id %s).\n", user.Email, user.ID)
		return nil
	},
}

func init() {
	adminCreateCmd.Flags().StringVar(&adminName, "name", "Admin", "Display name")
	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "Login email")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "Password, at least 8 characters")
}

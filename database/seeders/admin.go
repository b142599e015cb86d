package seeders

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/bytekstore/bytek/app/repositories"
	"github.com/bytekstore/bytek/app/services"
	"github.com/bytekstore/bytek/config"
	"github.com/bytekstore/bytek/pkg/logger"
)

func init() {
	Register("admin", SeedAdmin)
}

// SeedAdmin creates the back-office account from ADMIN_EMAIL and
// ADMIN_PASSWORD. Without a password nothing is created.
func SeedAdmin(db *gorm.DB) error {
	password := config.Get("ADMIN_PASSWORD", "")
	if password == "" {
		logger.Warn("seed: ADMIN_PASSWORD not set, skipping admin account")
		return nil
	}

	auth := services.NewAuthService(repositories.NewUserRepository(db))
	_, err := auth.CreateAdmin(context.Background(), config.Get("ADMIN_NAME", "Admin"), config.AdminEmail(), password)
	if errors.Is(err, services.ErrEmailTaken) {
		return nil
	}
	return err
}

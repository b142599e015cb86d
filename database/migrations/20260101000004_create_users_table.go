package migrations

import (
	"gorm.io/gorm"

	"github.com/bytekstore/bytek/app/models"
	"github.com/bytekstore/bytek/pkg/migration"
	"github.com/bytekstore/bytek/pkg/queue"
)

func init() {
	migration.Register("20260101000004_create_users_table", &CreateUsersTable{})
	migration.Register("20260101000005_create_failed_jobs_table", &CreateFailedJobsTable{})
}

type CreateUsersTable struct{}

func (m *CreateUsersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{})
}

func (m *CreateUsersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("users")
}

// CreateFailedJobsTable keeps queue jobs that exhausted their retries.
type CreateFailedJobsTable struct{}

func (m *CreateFailedJobsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&queue.FailedJob{})
}

func (m *CreateFailedJobsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("failed_jobs")
}

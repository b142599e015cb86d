package migrations

import (
	"gorm.io/gorm"

	"github.com/bytekstore/bytek/app/models"
	"github.com/bytekstore/bytek/pkg/migration"
)

func init() {
	migration.Register("20260101000002_create_orders_table", &CreateOrdersTable{})
	migration.Register("20260101000003_create_shipping_rates_table", &CreateShippingRatesTable{})
}

type CreateOrdersTable struct{}

func (m *CreateOrdersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Order{})
}

func (m *CreateOrdersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("orders")
}

type CreateShippingRatesTable struct{}

func (m *CreateShippingRatesTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.ShippingRate{})
}

func (m *CreateShippingRatesTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("shipping_rates")
}

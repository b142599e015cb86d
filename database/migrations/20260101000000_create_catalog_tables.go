package migrations

import (
	"gorm.io/gorm"

	"github.com/bytekstore/bytek/app/models"
	"github.com/bytekstore/bytek/pkg/migration"
)

func init() {
	migration.Register("20260101000000_create_products_table", &CreateProductsTable{})
	migration.Register("20260101000001_create_product_variants_table", &CreateProductVariantsTable{})
}

type CreateProductsTable struct{}

func (m *CreateProductsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Product{})
}

func (m *CreateProductsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("products")
}

// CreateProductVariantsTable holds per (size, color) stock. Variants are
// removed with their product.
type CreateProductVariantsTable struct{}

func (m *CreateProductVariantsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.ProductVariant{})
}

func (m *CreateProductVariantsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("product_variants")
}

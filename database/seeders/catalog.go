package seeders

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bytekstore/bytek/app/models"
	"github.com/bytekstore/bytek/app/repositories"
	"github.com/bytekstore/bytek/app/services"
)

func init() {
	Register("catalog", SeedCatalog)
}

func dzd(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func compareAt(v int64) *decimal.Decimal {
	d := dzd(v)
	return &d
}

var demoCatalog = []services.ProductInput{
	{
		Name:           "Logitech G Pro X Superlight 2",
		Description:    "60 g wireless esports mouse with HERO 2 sensor.",
		Price:          dzd(24500),
		CompareAtPrice: compareAt(27000),
		Category:       models.CategoryMice,
		Colors:         []string{"Black", "White", "Magenta"},
		Rating:         4.9,
		Reviews:        132,
		SKU:            "LOG-GPXS2",
		Tags:           []string{"wireless", "esports"},
		Featured:       true,
		TrackInventory: true,
		Stock:          18,
	},
	{
		Name:           "Razer Viper V3 HyperSpeed",
		Description:    "Lightweight wireless mouse with 280 hour battery.",
		Price:          dzd(13900),
		Category:       models.CategoryMice,
		Rating:         4.6,
		Reviews:        54,
		SKU:            "RZ-VV3HS",
		TrackInventory: true,
		Stock:          10,
	},
	{
		Name:           "Wooting 60HE+",
		Description:    "Analog hall-effect 60% keyboard with rapid trigger.",
		Price:          dzd(39000),
		Category:       models.CategoryKeyboards,
		Sizes:          []string{"ANSI", "ISO"},
		Rating:         4.8,
		Reviews:        77,
		SKU:            "WT-60HEP",
		Tags:           []string{"hall-effect", "rapid-trigger"},
		Featured:       true,
		TrackInventory: true,
		Stock:          6,
	},
	{
		Name:           "Artisan Hien FX XSoft",
		Description:    "Japanese cloth mousepad, balanced glide.",
		Price:          dzd(12000),
		Category:       models.CategoryMousepads,
		Sizes:          []string{"M", "L", "XL"},
		Colors:         []string{"Black", "Red"},
		Rating:         4.9,
		Reviews:        210,
		SKU:            "ART-HIEN",
		Featured:       true,
		TrackInventory: true,
		Stock:          24,
	},
	{
		Name:           "HyperX Cloud III",
		Description:    "Wired gaming headset with 53 mm drivers.",
		Price:          dzd(15500),
		CompareAtPrice: compareAt(17500),
		Category:       models.CategoryHeadsets,
		Rating:         4.5,
		Reviews:        41,
		SKU:            "HX-CL3",
		TrackInventory: true,
		Stock:          9,
	},
	{
		Name:           "Samsung 990 PRO 1TB",
		Description:    "PCIe 4.0 NVMe M.2 SSD.",
		Price:          dzd(21000),
		Category:       models.CategorySSDs,
		Rating:         4.7,
		Reviews:        66,
		SKU:            "SS-990P-1T",
		TrackInventory: true,
		Stock:          12,
	},
	{
		Name:        "AMD Ryzen 7 9800X3D",
		Description: "8 cores, 3D V-Cache. Arriving next shipment.",
		Price:       dzd(98000),
		Category:    models.CategoryCPU,
		Status:      string(models.StatusComingSoon),
		SKU:         "AMD-9800X3D",
		Featured:    true,
	},
}

// SeedCatalog inserts the demo products into an empty catalog.
func SeedCatalog(db *gorm.DB) error {
	ctx := context.Background()
	repo := repositories.NewProductRepository(db)
	n, err := repo.Count(ctx)
	if err != nil || n > 0 {
		return err
	}

	products := services.NewProductService(repo, nil)
	for _, in := range demoCatalog {
		if _, err := products.Create(ctx, in); err != nil {
			return err
		}
	}
	return nil
}

package ports

import (
	"context"

	"github.com/fadedwholesale/wholesale-service/internal/domain/catalog"
)

type CatalogProvider interface {
	GetProducts(ctx context.Context) ([]*catalog.Product, error)
	GetProductByID(ctx context.Context, id string) (*catalog.Product, error)
}

type CatalogRepository interface {
	CatalogProvider

	CreateProduct(ctx context.Context, p *catalog.Product) error
	UpdateStockCeiling(ctx context.Context, productID string, stockCeiling int) error
}

type PresetRepository interface {
	GetPresets(ctx context.Context) ([]*catalog.Preset, error)
	GetPresetByID(ctx context.Context, id string) (*catalog.Preset, error)
	CreatePreset(ctx context.Context, p *catalog.Preset) error
}

package postgres

import (
	"context"
	"database/sql"

	"github.com/fadedwholesale/wholesale-service/internal/domain/catalog"
	domainErrors "github.com/fadedwholesale/wholesale-service/internal/domain/errors"
	"github.com/fadedwholesale/wholesale-service/internal/infrastructure/monitoring"
)

type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(conn *Connection) *CatalogRepository {
	return &CatalogRepository{
		db: conn.GetDB(),
	}
}

func (r *CatalogRepository) GetProducts(ctx context.Context) ([]*catalog.Product, error) {
	query := `
		SELECT id, name, category, unit_price, unit_label, stock_ceiling, created_at
		FROM products
		ORDER BY category, name
	`

	rows, err := monitoring.InstrumentQuery(ctx, r.db, "SELECT", "products", query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*catalog.Product
	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Category, &p.UnitPrice, &p.UnitLabel, &p.StockCeiling, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		products = append(products, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *CatalogRepository) GetProductByID(ctx context.Context, id string) (*catalog.Product, error) {
	query := `
		SELECT id, name, category, unit_price, unit_label, stock_ceiling, created_at
		FROM products
		WHERE id = $1
	`

	var p catalog.Product
	row := monitoring.InstrumentQueryRow(ctx, r.db, "SELECT", "products", query, id)
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.UnitPrice, &p.UnitLabel, &p.StockCeiling, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domainErrors.ErrProductNotFound
		}
		return nil, err
	}

	return &p, nil
}

func (r *CatalogRepository) CreateProduct(ctx context.Context, p *catalog.Product) error {
	query := `
		INSERT INTO products (id, name, category, unit_price, unit_label, stock_ceiling, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := monitoring.InstrumentExec(ctx, r.db, "INSERT", "products", query,
		p.ID, p.Name, p.Category, p.UnitPrice, p.UnitLabel, p.StockCeiling, p.CreatedAt,
	)
	return err
}

func (r *CatalogRepository) UpdateStockCeiling(ctx context.Context, productID string, stockCeiling int) error {
	query := `
		UPDATE products
		SET stock_ceiling = $2
		WHERE id = $1
	`

	result, err := monitoring.InstrumentExec(ctx, r.db, "UPDATE", "products", query, productID, stockCeiling)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domainErrors.ErrProductNotFound
	}

	return nil
}

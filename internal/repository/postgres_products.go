package repository

import (
	"context"
	"database/sql"
	"fmt"

	"invwe-data/internal/domain"

	"github.com/lib/pq"
)

// PostgresProductsRepository 商品库存Repository实现
type PostgresProductsRepository struct {
	db *sql.DB
}

// NewPostgresProductsRepository 创建商品Repository
func NewPostgresProductsRepository(db *sql.DB) *PostgresProductsRepository {
	return &PostgresProductsRepository{db: db}
}

var _ ProductsRepository = (*PostgresProductsRepository)(nil)

// ListProducts 查询门店商品
func (r *PostgresProductsRepository) ListProducts(ctx context.Context, tenantID, storeID string, filter ProductFilters) ([]*domain.Product, error) {
	if tenantID == "" || storeID == "" {
		return nil, fmt.Errorf("tenant_id and store_id are required")
	}

	query := `
		SELECT
			product_id::text,
			tenant_id::text,
			store_id::text,
			COALESCE(sku, '') as sku,
			product_name,
			GREATEST(quantity, 0) as quantity,
			GREATEST(COALESCE(min_stock, 0), 0) as min_stock
		FROM products
		WHERE tenant_id = $1::uuid AND store_id = $2::uuid`
	args := []any{tenantID, storeID}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(` AND (product_name ILIKE $%d OR sku ILIKE $%d)`, len(args), len(args))
	}
	if len(filter.SKUs) > 0 {
		args = append(args, pq.Array(filter.SKUs))
		query += fmt.Sprintf(` AND sku = ANY($%d)`, len(args))
	}
	query += ` ORDER BY product_name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	out := []*domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ProductID,
			&p.TenantID,
			&p.StoreID,
			&p.SKU,
			&p.ProductName,
			&p.Quantity,
			&p.MinStock,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return out, nil
}


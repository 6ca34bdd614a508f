package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"invwe-data/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresStoresRepository 门店Repository实现
type PostgresStoresRepository struct {
	db *sql.DB
}

// NewPostgresStoresRepository 创建门店Repository
func NewPostgresStoresRepository(db *sql.DB) *PostgresStoresRepository {
	return &PostgresStoresRepository{db: db}
}

var _ StoresRepository = (*PostgresStoresRepository)(nil)

func scanStore(row rowScanner) (*domain.Store, error) {
	var s domain.Store
	if err := row.Scan(&s.StoreID, &s.TenantID, &s.StoreName, &s.Address); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetStore 根据store_id获取门店
func (r *PostgresStoresRepository) GetStore(ctx context.Context, storeID string) (*domain.Store, error) {
	if storeID == "" {
		return nil, fmt.Errorf("store_id is required")
	}
	if _, err := uuid.Parse(storeID); err != nil {
		return nil, fmt.Errorf("store %q: %w", storeID, ErrNotFound)
	}

	s, err := scanStore(r.db.QueryRowContext(ctx,
		`SELECT store_id::text, tenant_id::text, store_name, COALESCE(address, '')
		 FROM stores
		 WHERE store_id = $1::uuid`,
		storeID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("store %q: %w", storeID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	return s, nil
}

// ListStoresByTenants 查询多个租户下的门店
func (r *PostgresStoresRepository) ListStoresByTenants(ctx context.Context, tenantIDs []string) ([]*domain.Store, error) {
	out := []*domain.Store{}
	if len(tenantIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT store_id::text, tenant_id::text, store_name, COALESCE(address, '')
		 FROM stores
		 WHERE tenant_id::text = ANY($1)
		 ORDER BY store_name`,
		pq.Array(tenantIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stores: %w", err)
	}
	return out, nil
}

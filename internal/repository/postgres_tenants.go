package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"invwe-data/internal/domain"

	"github.com/google/uuid"
)

// PostgresTenantsRepository 租户Repository实现
type PostgresTenantsRepository struct {
	db *sql.DB
}

// NewPostgresTenantsRepository 创建租户Repository
func NewPostgresTenantsRepository(db *sql.DB) *PostgresTenantsRepository {
	return &PostgresTenantsRepository{db: db}
}

// 确保实现了接口
var _ TenantsRepository = (*PostgresTenantsRepository)(nil)

const tenantColumns = `
			tenant_id::text,
			tenant_name,
			COALESCE(domain, '') as domain,
			COALESCE(email, '') as email,
			COALESCE(phone, '') as phone,
			COALESCE(status, '') as status,
			COALESCE(metadata, '{}'::jsonb) as metadata`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (*domain.Tenant, error) {
	var tenant domain.Tenant
	var status string
	var metadataRaw []byte
	if err := row.Scan(
		&tenant.TenantID,
		&tenant.TenantName,
		&tenant.Domain,
		&tenant.Email,
		&tenant.Phone,
		&status,
		&metadataRaw,
	); err != nil {
		return nil, err
	}
	tenant.Status = domain.TenantStatus(status)
	tenant.Metadata = json.RawMessage(metadataRaw)
	return &tenant, nil
}

// GetTenantByID 根据tenant_id获取租户信息
func (r *PostgresTenantsRepository) GetTenantByID(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}
	// 非法 UUID 不可能命中任何行，直接按不存在处理，避免 $1::uuid 转换报错被当成数据库故障
	if _, err := uuid.Parse(tenantID); err != nil {
		return nil, fmt.Errorf("tenant %q: %w", tenantID, ErrNotFound)
	}

	query := `SELECT` + tenantColumns + `
		FROM tenants
		WHERE tenant_id = $1::uuid
	`
	tenant, err := scanTenant(r.db.QueryRowContext(ctx, query, tenantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tenant %q: %w", tenantID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return tenant, nil
}

// GetTenantByName 根据tenant_name获取租户信息
func (r *PostgresTenantsRepository) GetTenantByName(ctx context.Context, name string) (*domain.Tenant, error) {
	if name == "" {
		return nil, fmt.Errorf("tenant_name is required")
	}

	query := `SELECT` + tenantColumns + `
		FROM tenants
		WHERE tenant_name = $1
	`
	tenant, err := scanTenant(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tenant %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get tenant by name: %w", err)
	}
	return tenant, nil
}

// ListTenants 查询租户列表（支持分页、过滤、搜索）
func (r *PostgresTenantsRepository) ListTenants(ctx context.Context, filter TenantFilters, page, size int) ([]*domain.Tenant, int, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}
	offset := (page - 1) * size

	// 构建WHERE条件
	where := []string{}
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("tenant_name ILIKE $%d", argIdx))
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	// 查询总数
	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM tenants %s`, whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tenants: %w", err)
	}

	query := fmt.Sprintf(`SELECT`+tenantColumns+`
		FROM tenants
		%s
		ORDER BY tenant_name
		LIMIT $%d OFFSET $%d
	`, whereClause, argIdx, argIdx+1)
	args = append(args, size, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	tenants := []*domain.Tenant{}
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, tenant)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate tenants: %w", err)
	}

	return tenants, total, nil
}

// CreateTenant 创建新租户
func (r *PostgresTenantsRepository) CreateTenant(ctx context.Context, tenant *domain.Tenant) (string, error) {
	if tenant == nil {
		return "", fmt.Errorf("tenant is required")
	}
	if tenant.TenantName == "" {
		return "", fmt.Errorf("tenant_name is required")
	}

	status := tenant.Status
	if status == domain.TenantStatusUnset {
		status = domain.TenantStatusActive
	}
	metadataArg := "{}"
	if len(tenant.Metadata) > 0 {
		metadataArg = string(tenant.Metadata)
	}

	var tenantID string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO tenants (tenant_name, domain, email, phone, status, metadata)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5, $6::jsonb)
		 RETURNING tenant_id::text`,
		tenant.TenantName,
		tenant.Domain,
		tenant.Email,
		tenant.Phone,
		string(status),
		metadataArg,
	).Scan(&tenantID)
	if err != nil {
		return "", fmt.Errorf("failed to create tenant: %w", err)
	}

	return tenantID, nil
}

// SetTenantStatus 更新租户状态
func (r *PostgresTenantsRepository) SetTenantStatus(ctx context.Context, tenantID string, status domain.TenantStatus) error {
	if tenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if _, err := uuid.Parse(tenantID); err != nil {
		return fmt.Errorf("tenant %q: %w", tenantID, ErrNotFound)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE tenants SET status = NULLIF($2, '') WHERE tenant_id = $1::uuid`,
		tenantID, string(status),
	)
	if err != nil {
		return fmt.Errorf("failed to set tenant status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("tenant %q: %w", tenantID, ErrNotFound)
	}

	return nil
}

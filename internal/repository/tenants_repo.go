package repository

import (
	"context"
	"errors"

	"invwe-data/internal/domain"
)

// ErrNotFound 记录不存在
// 所有 Repository 在查询不到记录时返回包装了 ErrNotFound 的错误，调用方用 errors.Is 判断；
// 其它错误一律视为数据访问故障
var ErrNotFound = errors.New("record not found")

// TenantsRepository 租户Repository接口
// 按 id 与按名称查询是两个独立操作，不根据入参形态做重载
type TenantsRepository interface {
	// GetTenantByID 根据tenant_id获取租户信息
	GetTenantByID(ctx context.Context, tenantID string) (*domain.Tenant, error)

	// GetTenantByName 根据tenant_name获取租户信息（tenant_name 唯一）
	GetTenantByName(ctx context.Context, name string) (*domain.Tenant, error)

	// ListTenants 查询租户列表（支持分页、状态过滤、名称模糊搜索）
	ListTenants(ctx context.Context, filter TenantFilters, page, size int) ([]*domain.Tenant, int, error)

	// CreateTenant 创建新租户，返回 tenant_id
	CreateTenant(ctx context.Context, tenant *domain.Tenant) (string, error)

	// SetTenantStatus 更新租户状态（active/inactive）
	SetTenantStatus(ctx context.Context, tenantID string, status domain.TenantStatus) error
}

// TenantFilters 租户查询过滤器
type TenantFilters struct {
	Status string // 可选，按status过滤
	Search string // 可选，按tenant_name搜索（模糊匹配）
}

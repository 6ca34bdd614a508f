package repository

import (
	"context"

	"invwe-data/internal/domain"
)

// MembershipsRepository 成员关系Repository接口（只读）
// 成员关系由外部入驻流程写入，本服务只做查询
type MembershipsRepository interface {
	// GetMembership 查询 (user_id, tenant_id) 唯一的成员关系
	GetMembership(ctx context.Context, userID, tenantID string) (*domain.Membership, error)

	// ListMembershipsByUser 查询用户的全部成员关系（用于门店选择页）
	ListMembershipsByUser(ctx context.Context, userID string) ([]*domain.Membership, error)
}

// StoresRepository 门店Repository接口（只读）
type StoresRepository interface {
	// GetStore 根据store_id获取门店
	GetStore(ctx context.Context, storeID string) (*domain.Store, error)

	// ListStoresByTenants 查询多个租户下的门店（按 store_name 排序）
	// 返回结果可能包含 tenant 已不存在的孤儿门店，由调用方过滤
	ListStoresByTenants(ctx context.Context, tenantIDs []string) ([]*domain.Store, error)
}

// ProductsRepository 商品库存Repository接口（只读）
type ProductsRepository interface {
	// ListProducts 查询门店商品（按 product_name 排序）
	ListProducts(ctx context.Context, tenantID, storeID string, filter ProductFilters) ([]*domain.Product, error)
}

// ProductFilters 商品查询过滤器
type ProductFilters struct {
	Search string   // 可选，按 product_name / sku 模糊匹配
	SKUs   []string // 可选，精确匹配 sku
}

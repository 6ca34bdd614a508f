package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"invwe-data/internal/domain"
	"invwe-data/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentTenantLookups 门店选择页并发查询租户的上限
const maxConcurrentTenantLookups = 8

// AccessibleStore 门店选择页条目
type AccessibleStore struct {
	TenantID   string            `json:"tenant_id"`
	TenantName string            `json:"tenant_name"`
	StoreID    string            `json:"store_id"`
	StoreName  string            `json:"store_name"`
	Role       domain.MemberRole `json:"role"`
}

// PendingTenant 等待审批的租户
type PendingTenant struct {
	TenantID   string `json:"tenant_id"`
	TenantName string `json:"tenant_name"`
}

// StoreDirectory 当前用户可进入的门店
type StoreDirectory struct {
	Stores         []AccessibleStore `json:"stores"`
	PendingTenants []PendingTenant   `json:"pending_tenants"`
}

// StoreDirectoryService 门店选择（select_inventory）服务
type StoreDirectoryService struct {
	tenants     repository.TenantsRepository
	memberships repository.MembershipsRepository
	stores      repository.StoresRepository
	logger      *zap.Logger
}

// NewStoreDirectoryService 创建门店选择服务
func NewStoreDirectoryService(
	tenants repository.TenantsRepository,
	memberships repository.MembershipsRepository,
	stores repository.StoresRepository,
	logger *zap.Logger,
) *StoreDirectoryService {
	return &StoreDirectoryService{
		tenants:     tenants,
		memberships: memberships,
		stores:      stores,
		logger:      logger,
	}
}

// ListAccessibleStores 列出用户可进入的门店
// 租户查询并发执行，结果按 tenant_name、store_name 排序；
// 租户不存在或已停用的成员关系、以及租户不存在的孤儿门店都会被过滤掉
func (s *StoreDirectoryService) ListAccessibleStores(ctx context.Context, principal *domain.Principal) (*StoreDirectory, error) {
	if principal == nil || principal.UserID == "" {
		return nil, fmt.Errorf("principal is required")
	}

	memberships, err := s.memberships.ListMembershipsByUser(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	var (
		mu      sync.Mutex
		tenants = make(map[string]*domain.Tenant, len(memberships))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentTenantLookups)
	for _, m := range memberships {
		tenantID := m.TenantID
		g.Go(func() error {
			t, err := s.tenants.GetTenantByID(gctx, tenantID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					s.logger.Warn("membership references missing tenant",
						zap.String("user_id", principal.UserID),
						zap.String("tenant_id", tenantID),
					)
					return nil
				}
				return err
			}
			if !t.Status.IsActive() {
				return nil
			}
			mu.Lock()
			tenants[t.TenantID] = t
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to get tenants: %w", err)
	}

	dir := &StoreDirectory{
		Stores:         []AccessibleStore{},
		PendingTenants: []PendingTenant{},
	}
	roles := make(map[string]domain.MemberRole, len(memberships))
	approvedIDs := make([]string, 0, len(memberships))
	for _, m := range memberships {
		t, ok := tenants[m.TenantID]
		if !ok {
			continue
		}
		if !m.IsApproved() {
			dir.PendingTenants = append(dir.PendingTenants, PendingTenant{TenantID: t.TenantID, TenantName: t.TenantName})
			continue
		}
		roles[m.TenantID] = m.Role
		approvedIDs = append(approvedIDs, m.TenantID)
	}

	stores, err := s.stores.ListStoresByTenants(ctx, approvedIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	for _, st := range stores {
		t, ok := tenants[st.TenantID]
		role, approved := roles[st.TenantID]
		if !ok || !approved {
			continue
		}
		dir.Stores = append(dir.Stores, AccessibleStore{
			TenantID:   t.TenantID,
			TenantName: t.TenantName,
			StoreID:    st.StoreID,
			StoreName:  st.StoreName,
			Role:       role,
		})
	}

	sort.Slice(dir.Stores, func(i, j int) bool {
		a, b := dir.Stores[i], dir.Stores[j]
		if a.TenantName != b.TenantName {
			return a.TenantName < b.TenantName
		}
		if a.StoreName != b.StoreName {
			return a.StoreName < b.StoreName
		}
		return a.StoreID < b.StoreID
	})
	sort.Slice(dir.PendingTenants, func(i, j int) bool {
		return dir.PendingTenants[i].TenantName < dir.PendingTenants[j].TenantName
	})
	return dir, nil
}

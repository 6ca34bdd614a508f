package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"invwe-data/internal/domain"

	"github.com/google/uuid"
)

// MemoryInventoryRepo 内存版成员关系/门店/商品 Repository（DB 未就绪时联测使用）
// Upsert* 仅供开发环境播种数据
type MemoryInventoryRepo struct {
	mu          sync.RWMutex
	memberships map[string]domain.Membership // userID + "/" + tenantID -> Membership
	stores      map[string]domain.Store      // storeID -> Store
	products    map[string]domain.Product    // productID -> Product
}

func NewMemoryInventoryRepo() *MemoryInventoryRepo {
	return &MemoryInventoryRepo{
		memberships: map[string]domain.Membership{},
		stores:      map[string]domain.Store{},
		products:    map[string]domain.Product{},
	}
}

var (
	_ MembershipsRepository = (*MemoryInventoryRepo)(nil)
	_ StoresRepository      = (*MemoryInventoryRepo)(nil)
	_ ProductsRepository    = (*MemoryInventoryRepo)(nil)
)

func membershipKey(userID, tenantID string) string {
	return userID + "/" + tenantID
}

// UpsertMembership 写入成员关系，(user_id, tenant_id) 唯一
func (r *MemoryInventoryRepo) UpsertMembership(m domain.Membership) domain.Membership {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := membershipKey(m.UserID, m.TenantID)
	if old, ok := r.memberships[key]; ok && m.MembershipID == "" {
		m.MembershipID = old.MembershipID
	}
	if m.MembershipID == "" {
		m.MembershipID = uuid.NewString()
	}
	r.memberships[key] = m
	return m
}

// UpsertStore 写入门店
func (r *MemoryInventoryRepo) UpsertStore(s domain.Store) domain.Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.StoreID == "" {
		s.StoreID = uuid.NewString()
	}
	r.stores[s.StoreID] = s
	return s
}

// UpsertProduct 写入商品
func (r *MemoryInventoryRepo) UpsertProduct(p domain.Product) domain.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ProductID == "" {
		p.ProductID = uuid.NewString()
	}
	r.products[p.ProductID] = p
	return p
}

func (r *MemoryInventoryRepo) GetMembership(_ context.Context, userID, tenantID string) (*domain.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.memberships[membershipKey(userID, tenantID)]
	if !ok {
		return nil, fmt.Errorf("membership %s/%s: %w", userID, tenantID, ErrNotFound)
	}
	return &m, nil
}

func (r *MemoryInventoryRepo) ListMembershipsByUser(_ context.Context, userID string) ([]*domain.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*domain.Membership{}
	for _, m := range r.memberships {
		if m.UserID != userID {
			continue
		}
		m := m
		out = append(out, &m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TenantID < out[j].TenantID })
	return out, nil
}

func (r *MemoryInventoryRepo) GetStore(_ context.Context, storeID string) (*domain.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stores[storeID]
	if !ok {
		return nil, fmt.Errorf("store %q: %w", storeID, ErrNotFound)
	}
	return &s, nil
}

func (r *MemoryInventoryRepo) ListStoresByTenants(_ context.Context, tenantIDs []string) ([]*domain.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	want := make(map[string]bool, len(tenantIDs))
	for _, id := range tenantIDs {
		want[id] = true
	}
	out := []*domain.Store{}
	for _, s := range r.stores {
		if !want[s.TenantID] {
			continue
		}
		s := s
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StoreName < out[j].StoreName })
	return out, nil
}

func (r *MemoryInventoryRepo) ListProducts(_ context.Context, tenantID, storeID string, filter ProductFilters) ([]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	skus := make(map[string]bool, len(filter.SKUs))
	for _, sku := range filter.SKUs {
		skus[sku] = true
	}
	search := strings.ToLower(filter.Search)

	out := []*domain.Product{}
	for _, p := range r.products {
		if p.TenantID != tenantID || p.StoreID != storeID {
			continue
		}
		if len(skus) > 0 && !skus[p.SKU] {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.ProductName), search) &&
			!strings.Contains(strings.ToLower(p.SKU), search) {
			continue
		}
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductName < out[j].ProductName })
	return out, nil
}

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

// MemoryTenantsRepo supports tenant lookups when DB is disabled (dev / joint testing).
type MemoryTenantsRepo struct {
	mu      sync.RWMutex
	tenants map[string]domain.Tenant // tenantID -> Tenant
}

func NewMemoryTenantsRepo() *MemoryTenantsRepo {
	return &MemoryTenantsRepo{
		tenants: map[string]domain.Tenant{},
	}
}

var _ TenantsRepository = (*MemoryTenantsRepo)(nil)

func (r *MemoryTenantsRepo) GetTenantByID(_ context.Context, tenantID string) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tenants[tenantID]
	if !ok {
		return nil, fmt.Errorf("tenant %q: %w", tenantID, ErrNotFound)
	}
	return &t, nil
}

func (r *MemoryTenantsRepo) GetTenantByName(_ context.Context, name string) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tenants {
		if t.TenantName == name {
			t := t
			return &t, nil
		}
	}
	return nil, fmt.Errorf("tenant %q: %w", name, ErrNotFound)
}

func (r *MemoryTenantsRepo) ListTenants(_ context.Context, filter TenantFilters, page, size int) ([]*domain.Tenant, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	all := make([]*domain.Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		if filter.Status != "" && string(t.Status) != filter.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.TenantName), search) {
			continue
		}
		t := t
		all = append(all, &t)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].TenantName < all[j].TenantName
	})

	total := len(all)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (r *MemoryTenantsRepo) CreateTenant(_ context.Context, tenant *domain.Tenant) (string, error) {
	if tenant == nil || tenant.TenantName == "" {
		return "", fmt.Errorf("tenant_name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tenants {
		if t.TenantName == tenant.TenantName {
			return "", fmt.Errorf("tenant_name %q already exists", tenant.TenantName)
		}
	}
	t := *tenant
	if t.TenantID == "" {
		t.TenantID = uuid.NewString()
	}
	if t.Status == domain.TenantStatusUnset {
		t.Status = domain.TenantStatusActive
	}
	r.tenants[t.TenantID] = t
	return t.TenantID, nil
}

func (r *MemoryTenantsRepo) SetTenantStatus(_ context.Context, tenantID string, status domain.TenantStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[tenantID]
	if !ok {
		return fmt.Errorf("tenant %q: %w", tenantID, ErrNotFound)
	}
	t.Status = status
	r.tenants[tenantID] = t
	return nil
}

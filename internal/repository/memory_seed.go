package repository

import (
	"context"
	"fmt"

	"invwe-data/internal/domain"
)

// DemoSeed 演示数据中的固定标识
type DemoSeed struct {
	TenantID string
	StoreIDs []string
}

// SeedDemoData DB 未就绪时给内存仓库写入一份演示数据
// 用户：demo-owner（owner）、demo-member（member）、demo-pending（admin，待审批）
func SeedDemoData(ctx context.Context, tenants *MemoryTenantsRepo, inv *MemoryInventoryRepo) (*DemoSeed, error) {
	tenantID, err := tenants.CreateTenant(ctx, &domain.Tenant{
		TenantName: "Ferreteria Demo",
		Domain:     "demo.local",
		Status:     domain.TenantStatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seed tenant: %w", err)
	}

	seed := &DemoSeed{TenantID: tenantID}
	for _, name := range []string{"Bodega Central", "Sucursal Norte"} {
		st := inv.UpsertStore(domain.Store{TenantID: tenantID, StoreName: name})
		seed.StoreIDs = append(seed.StoreIDs, st.StoreID)
	}

	inv.UpsertMembership(domain.Membership{UserID: "demo-owner", TenantID: tenantID, Role: domain.RoleOwner, Approval: domain.ApprovalApproved})
	inv.UpsertMembership(domain.Membership{UserID: "demo-member", TenantID: tenantID, Role: domain.RoleMember, Approval: domain.ApprovalApproved})
	inv.UpsertMembership(domain.Membership{UserID: "demo-pending", TenantID: tenantID, Role: domain.RoleAdmin, Approval: domain.ApprovalPending})

	products := []struct {
		sku      string
		name     string
		qty, min int
	}{
		{"CLV-001", "Clavos 2\"", 4, 200},
		{"MRT-010", "Martillo", 12, 20},
		{"TRN-050", "Tornillos", 180, 100},
		{"CNT-003", "Cinta aislante", 9, 0},
	}
	for _, storeID := range seed.StoreIDs {
		for _, p := range products {
			inv.UpsertProduct(domain.Product{
				TenantID:    tenantID,
				StoreID:     storeID,
				SKU:         p.sku,
				ProductName: p.name,
				Quantity:    p.qty,
				MinStock:    p.min,
			})
		}
	}
	return seed, nil
}

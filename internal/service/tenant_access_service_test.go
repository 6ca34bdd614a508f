package service

import (
	"context"
	"errors"
	"testing"

	"invwe-data/internal/domain"
	"invwe-data/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errDBDown = errors.New("dial tcp 10.0.0.5:5432: connection refused")

// failingTenants 模拟数据库故障
type failingTenants struct {
	repository.TenantsRepository
}

func (failingTenants) GetTenantByID(context.Context, string) (*domain.Tenant, error) {
	return nil, errDBDown
}

func (failingTenants) GetTenantByName(context.Context, string) (*domain.Tenant, error) {
	return nil, errDBDown
}

type failingMemberships struct{}

func (failingMemberships) GetMembership(context.Context, string, string) (*domain.Membership, error) {
	return nil, errDBDown
}

func (failingMemberships) ListMembershipsByUser(context.Context, string) ([]*domain.Membership, error) {
	return nil, errDBDown
}

type failingStores struct{}

func (failingStores) GetStore(context.Context, string) (*domain.Store, error) {
	return nil, errDBDown
}

func (failingStores) ListStoresByTenants(context.Context, []string) ([]*domain.Store, error) {
	return nil, errDBDown
}

type accessFixture struct {
	tenants   *repository.MemoryTenantsRepo
	inventory *repository.MemoryInventoryRepo

	tenantID      string
	otherTenantID string
	storeID       string
	otherStoreID  string
}

func newAccessFixture(t *testing.T) *accessFixture {
	t.Helper()
	ctx := context.Background()
	f := &accessFixture{
		tenants:   repository.NewMemoryTenantsRepo(),
		inventory: repository.NewMemoryInventoryRepo(),
	}

	var err error
	f.tenantID, err = f.tenants.CreateTenant(ctx, &domain.Tenant{TenantName: "Ferreteria Central"})
	require.NoError(t, err)
	f.otherTenantID, err = f.tenants.CreateTenant(ctx, &domain.Tenant{TenantName: "Otra Empresa"})
	require.NoError(t, err)
	_, err = f.tenants.CreateTenant(ctx, &domain.Tenant{TenantName: "Cerrada", Status: domain.TenantStatusInactive})
	require.NoError(t, err)

	f.storeID = f.inventory.UpsertStore(domain.Store{TenantID: f.tenantID, StoreName: "Bodega Norte"}).StoreID
	f.otherStoreID = f.inventory.UpsertStore(domain.Store{TenantID: f.otherTenantID, StoreName: "Bodega Sur"}).StoreID

	f.inventory.UpsertMembership(domain.Membership{UserID: "u-owner", TenantID: f.tenantID, Role: domain.RoleOwner, Approval: domain.ApprovalApproved})
	f.inventory.UpsertMembership(domain.Membership{UserID: "u-member", TenantID: f.tenantID, Role: domain.RoleMember, Approval: domain.ApprovalApproved})
	f.inventory.UpsertMembership(domain.Membership{UserID: "u-guest", TenantID: f.tenantID, Role: domain.RoleGuest, Approval: domain.ApprovalApproved})
	f.inventory.UpsertMembership(domain.Membership{UserID: "u-pending", TenantID: f.tenantID, Role: domain.RoleAdmin, Approval: domain.ApprovalPending})
	return f
}

func (f *accessFixture) service() *TenantAccessService {
	return NewTenantAccessService(f.tenants, f.inventory, f.inventory, nil, zap.NewNop())
}

func TestResolveAccess_NoPrincipalRedirectsToSignIn(t *testing.T) {
	f := newAccessFixture(t)
	svc := NewTenantAccessService(failingTenants{}, failingMemberships{}, failingStores{}, nil, zap.NewNop())

	// 未登录判断先于任何查询，即使数据库不可用也不会走到 Error
	d := svc.ResolveAccess(context.Background(), nil, AccessRequest{TenantID: f.tenantID, StoreID: f.storeID})
	assert.Equal(t, DecisionRedirect, d.Kind)
	assert.Equal(t, RedirectSignIn, d.Redirect)
	assert.Equal(t, ReasonUnauthenticated, d.Reason)

	d = f.service().ResolveAccess(context.Background(), &domain.Principal{}, AccessRequest{TenantID: f.tenantID})
	assert.Equal(t, RedirectSignIn, d.Redirect)
}

func TestResolveAccess_TenantMissing(t *testing.T) {
	f := newAccessFixture(t)
	svc := f.service()
	p := &domain.Principal{UserID: "u-owner"}

	for _, req := range []AccessRequest{
		{TenantID: "00000000-0000-0000-0000-00000000dead"},
		{TenantName: "No Existe"},
		{TenantName: "Cerrada"},
		{},
	} {
		d := svc.ResolveAccess(context.Background(), p, req)
		assert.Equal(t, DecisionRedirect, d.Kind, "%+v", req)
		assert.Equal(t, RedirectSelectInventory, d.Redirect, "%+v", req)
		assert.Equal(t, ReasonNotFound, d.Reason, "%+v", req)
		assert.Equal(t, StateTenantMissing, d.State, "%+v", req)
		assert.Nil(t, d.Tenant)
	}
}

func TestResolveAccess_NoMembership(t *testing.T) {
	f := newAccessFixture(t)
	d := f.service().ResolveAccess(context.Background(), &domain.Principal{UserID: "u-stranger"}, AccessRequest{TenantID: f.tenantID})
	assert.Equal(t, RedirectSelectInventory, d.Redirect)
	assert.Equal(t, StateNoMembership, d.State)
	assert.Equal(t, ReasonForbidden, d.Reason)
}

func TestResolveAccess_PendingApproval(t *testing.T) {
	f := newAccessFixture(t)
	d := f.service().ResolveAccess(context.Background(), &domain.Principal{UserID: "u-pending"}, AccessRequest{TenantID: f.tenantID})
	assert.Equal(t, DecisionRedirect, d.Kind)
	assert.Equal(t, RedirectPendingApproval, d.Redirect)
	assert.Equal(t, StatePendingApproval, d.State)
}

func TestResolveAccess_InsufficientRole(t *testing.T) {
	f := newAccessFixture(t)
	svc := f.service()

	d := svc.ResolveAccess(context.Background(), &domain.Principal{UserID: "u-member"}, AccessRequest{TenantID: f.tenantID, RouteClass: RouteAdmin})
	assert.Equal(t, DecisionRender, d.Kind)
	assert.Equal(t, ViewUnauthorized, d.View)
	assert.Equal(t, StateInsufficientRole, d.State)

	d = svc.ResolveAccess(context.Background(), &domain.Principal{UserID: "u-guest"}, AccessRequest{TenantID: f.tenantID, RouteClass: RouteOperations})
	assert.Equal(t, DecisionRender, d.Kind)

	d = svc.ResolveAccess(context.Background(), &domain.Principal{UserID: "u-guest"}, AccessRequest{TenantID: f.tenantID})
	assert.Equal(t, DecisionAllow, d.Kind)
}

func TestResolveAccess_StoreChecks(t *testing.T) {
	f := newAccessFixture(t)
	svc := f.service()
	p := &domain.Principal{UserID: "u-owner"}

	d := svc.ResolveAccess(context.Background(), p, AccessRequest{TenantID: f.tenantID, StoreID: f.otherStoreID})
	assert.Equal(t, RedirectSelectInventory, d.Redirect)
	assert.Equal(t, ReasonMismatch, d.Reason)
	assert.Equal(t, StateStoreMismatch, d.State)

	d = svc.ResolveAccess(context.Background(), p, AccessRequest{TenantID: f.tenantID, StoreID: "missing-store"})
	assert.Equal(t, RedirectSelectInventory, d.Redirect)
	assert.Equal(t, ReasonNotFound, d.Reason)

	d = svc.ResolveAccess(context.Background(), p, AccessRequest{TenantID: f.tenantID, StoreID: f.storeID, RouteClass: RouteBilling})
	require.True(t, d.Allowed())
	require.NotNil(t, d.Tenant)
	require.NotNil(t, d.Store)
	assert.Equal(t, f.tenantID, d.Tenant.TenantID)
	assert.Equal(t, f.storeID, d.Store.StoreID)
	assert.Equal(t, domain.RoleOwner, d.Membership.Role)
}

func TestResolveAccess_ByNameAndByIDAgree(t *testing.T) {
	f := newAccessFixture(t)
	svc := f.service()
	p := &domain.Principal{UserID: "u-owner"}

	byID := svc.ResolveAccess(context.Background(), p, AccessRequest{TenantID: f.tenantID})
	byName := svc.ResolveAccess(context.Background(), p, AccessRequest{TenantName: "Ferreteria Central"})
	require.True(t, byID.Allowed())
	require.True(t, byName.Allowed())
	assert.Equal(t, byID.Tenant.TenantID, byName.Tenant.TenantID)
	assert.Nil(t, byID.Store)
}

func TestResolveAccess_LookupFailuresBecomeErrorDecision(t *testing.T) {
	f := newAccessFixture(t)
	p := &domain.Principal{UserID: "u-owner"}
	ctx := context.Background()

	cases := map[string]*TenantAccessService{
		"tenant":     NewTenantAccessService(failingTenants{}, f.inventory, f.inventory, nil, zap.NewNop()),
		"membership": NewTenantAccessService(f.tenants, failingMemberships{}, f.inventory, nil, zap.NewNop()),
		"store":      NewTenantAccessService(f.tenants, f.inventory, failingStores{}, nil, zap.NewNop()),
	}
	for name, svc := range cases {
		d := svc.ResolveAccess(ctx, p, AccessRequest{TenantID: f.tenantID, StoreID: f.storeID})
		assert.Equal(t, DecisionError, d.Kind, name)
		assert.Equal(t, ViewError, d.View, name)
		assert.Equal(t, ReasonLookupFailure, d.Reason, name)
		assert.Nil(t, d.Tenant, name)
		assert.Nil(t, d.Store, name)
		assert.Nil(t, d.Membership, name)
	}
}

func TestResolveAccess_Idempotent(t *testing.T) {
	f := newAccessFixture(t)
	svc := f.service()
	p := &domain.Principal{UserID: "u-member"}
	req := AccessRequest{TenantID: f.tenantID, StoreID: f.storeID, RouteClass: RouteOperations}

	a := svc.ResolveAccess(context.Background(), p, req)
	b := svc.ResolveAccess(context.Background(), p, req)
	assert.Equal(t, a, b)
}

func TestRouteClass_Allows(t *testing.T) {
	matrix := map[RouteClass][]domain.MemberRole{
		RouteGeneral:    {domain.RoleOwner, domain.RoleAdmin, domain.RoleMember, domain.RoleGuest},
		RouteOperations: {domain.RoleOwner, domain.RoleAdmin, domain.RoleMember},
		RouteAdmin:      {domain.RoleOwner, domain.RoleAdmin},
		RouteBilling:    {domain.RoleOwner},
	}
	all := []domain.MemberRole{domain.RoleOwner, domain.RoleAdmin, domain.RoleMember, domain.RoleGuest}
	for rc, allowed := range matrix {
		for _, role := range all {
			assert.Equal(t, contains(allowed, role), rc.Allows(role), "%s/%s", rc, role)
		}
		assert.False(t, rc.Allows(domain.MemberRole("superuser")))
	}

	rc, err := ParseRouteClass("")
	require.NoError(t, err)
	assert.Equal(t, RouteGeneral, rc)
	_, err = ParseRouteClass("root")
	assert.Error(t, err)
}

func contains(roles []domain.MemberRole, role domain.MemberRole) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

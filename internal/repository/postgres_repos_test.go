package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"invwe-data/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTenantID = "6f1c2a9e-3b7d-4e2a-9a51-0c3f7d2b8e10"
	testStoreID  = "0b9f3c1a-8e2d-4c6b-a7f5-2d1e9c4b3a20"
)

var tenantCols = []string{"tenant_id", "tenant_name", "domain", "email", "phone", "status", "metadata"}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

func TestPostgresTenants_GetTenantByID(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresTenantsRepository(db)

	mock.ExpectQuery(`FROM tenants\s+WHERE tenant_id = \$1::uuid`).
		WithArgs(testTenantID).
		WillReturnRows(sqlmock.NewRows(tenantCols).
			AddRow(testTenantID, "Ferreteria", "", "info@f.com", "", "active", []byte(`{"plan":"pro"}`)))

	tenant, err := repo.GetTenantByID(context.Background(), testTenantID)
	require.NoError(t, err)
	assert.Equal(t, "Ferreteria", tenant.TenantName)
	assert.Equal(t, domain.TenantStatusActive, tenant.Status)
	assert.JSONEq(t, `{"plan":"pro"}`, string(tenant.Metadata))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTenants_NotFoundAndFailures(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresTenantsRepository(db)
	ctx := context.Background()

	// 非法 UUID 不查库
	_, err := repo.GetTenantByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(`FROM tenants`).WithArgs(testTenantID).WillReturnError(sql.ErrNoRows)
	_, err = repo.GetTenantByID(ctx, testTenantID)
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(`WHERE tenant_name = \$1`).WithArgs("Nadie").WillReturnError(sql.ErrNoRows)
	_, err = repo.GetTenantByName(ctx, "Nadie")
	assert.ErrorIs(t, err, ErrNotFound)

	dbErr := errors.New("connection reset")
	mock.ExpectQuery(`WHERE tenant_name = \$1`).WithArgs("Ferreteria").WillReturnError(dbErr)
	_, err = repo.GetTenantByName(ctx, "Ferreteria")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.ErrorIs(t, err, dbErr)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTenants_ListTenants(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresTenantsRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tenants WHERE status = \$1 AND tenant_name ILIKE \$2`).
		WithArgs("active", "%fer%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`ORDER BY tenant_name\s+LIMIT \$3 OFFSET \$4`).
		WithArgs("active", "%fer%", 2, 2).
		WillReturnRows(sqlmock.NewRows(tenantCols).
			AddRow(testTenantID, "Ferreteria B", "", "", "", "active", []byte(`{}`)))

	items, total, err := repo.ListTenants(context.Background(), TenantFilters{Status: "active", Search: "fer"}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Ferreteria B", items[0].TenantName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTenants_CreateAndSetStatus(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresTenantsRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(`INSERT INTO tenants`).
		WithArgs("Nueva", "", "", "", "active", "{}").
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id"}).AddRow(testTenantID))
	id, err := repo.CreateTenant(ctx, &domain.Tenant{TenantName: "Nueva"})
	require.NoError(t, err)
	assert.Equal(t, testTenantID, id)

	mock.ExpectExec(`UPDATE tenants SET status`).
		WithArgs(testTenantID, "inactive").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetTenantStatus(ctx, testTenantID, domain.TenantStatusInactive))

	mock.ExpectExec(`UPDATE tenants SET status`).
		WithArgs(testTenantID, "active").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.SetTenantStatus(ctx, testTenantID, domain.TenantStatusActive), ErrNotFound)

	_, err = repo.CreateTenant(ctx, &domain.Tenant{})
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

var membershipCols = []string{"membership_id", "user_id", "tenant_id", "role", "approval_status"}

func TestPostgresMemberships_GetMembership(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresMembershipsRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(`FROM memberships\s+WHERE user_id = \$1 AND tenant_id = \$2::uuid`).
		WithArgs("u-1", testTenantID).
		WillReturnRows(sqlmock.NewRows(membershipCols).AddRow("m-1", "u-1", testTenantID, "admin", "pending"))
	m, err := repo.GetMembership(ctx, "u-1", testTenantID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, m.Role)
	assert.False(t, m.IsApproved())

	mock.ExpectQuery(`FROM memberships`).WithArgs("u-2", testTenantID).WillReturnError(sql.ErrNoRows)
	_, err = repo.GetMembership(ctx, "u-2", testTenantID)
	assert.ErrorIs(t, err, ErrNotFound)

	// 库里出现未知角色视为数据故障
	mock.ExpectQuery(`FROM memberships`).
		WithArgs("u-3", testTenantID).
		WillReturnRows(sqlmock.NewRows(membershipCols).AddRow("m-3", "u-3", testTenantID, "superuser", "approved"))
	_, err = repo.GetMembership(ctx, "u-3", testTenantID)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))

	_, err = repo.GetMembership(ctx, "u-1", "bad-id")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMemberships_ListByUser(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresMembershipsRepository(db)

	mock.ExpectQuery(`WHERE user_id = \$1\s+ORDER BY created_at`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(membershipCols).
			AddRow("m-1", "u-1", testTenantID, "owner", "approved").
			AddRow("m-2", "u-1", "other", "guest", "pending"))
	out, err := repo.ListMembershipsByUser(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, domain.RoleOwner, out[0].Role)
	assert.Equal(t, domain.ApprovalPending, out[1].Approval)
	require.NoError(t, mock.ExpectationsWereMet())
}

var storeCols = []string{"store_id", "tenant_id", "store_name", "address"}

func TestPostgresStores(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresStoresRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(`FROM stores\s+WHERE store_id = \$1::uuid`).
		WithArgs(testStoreID).
		WillReturnRows(sqlmock.NewRows(storeCols).AddRow(testStoreID, testTenantID, "Centro", ""))
	s, err := repo.GetStore(ctx, testStoreID)
	require.NoError(t, err)
	assert.Equal(t, testTenantID, s.TenantID)

	_, err = repo.GetStore(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(`WHERE tenant_id::text = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(storeCols).
			AddRow(testStoreID, testTenantID, "Centro", "Av. 1").
			AddRow("s-2", testTenantID, "Norte", ""))
	list, err := repo.ListStoresByTenants(ctx, []string{testTenantID})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// 空列表不查库
	list, err = repo.ListStoresByTenants(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, list)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProducts_ListProducts(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresProductsRepository(db)

	cols := []string{"product_id", "tenant_id", "store_id", "sku", "product_name", "quantity", "min_stock"}
	mock.ExpectQuery(`FROM products\s+WHERE tenant_id = \$1::uuid AND store_id = \$2::uuid AND \(product_name ILIKE \$3 OR sku ILIKE \$3\) AND sku = ANY\(\$4\) ORDER BY product_name`).
		WithArgs(testTenantID, testStoreID, "%cla%", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("p-1", testTenantID, testStoreID, "A-1", "Clavos", 3, 100))

	out, err := repo.ListProducts(context.Background(), testTenantID, testStoreID, ProductFilters{Search: "cla", SKUs: []string{"A-1"}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 3, out[0].Quantity)
	assert.Equal(t, 100, out[0].MinStock)

	_, err = repo.ListProducts(context.Background(), "", testStoreID, ProductFilters{})
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

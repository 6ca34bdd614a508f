package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"invwe-data/internal/domain"

	"github.com/google/uuid"
)

// PostgresMembershipsRepository 成员关系Repository实现
type PostgresMembershipsRepository struct {
	db *sql.DB
}

// NewPostgresMembershipsRepository 创建成员关系Repository
func NewPostgresMembershipsRepository(db *sql.DB) *PostgresMembershipsRepository {
	return &PostgresMembershipsRepository{db: db}
}

var _ MembershipsRepository = (*PostgresMembershipsRepository)(nil)

func scanMembership(row rowScanner) (*domain.Membership, error) {
	var m domain.Membership
	var role, approval string
	if err := row.Scan(&m.MembershipID, &m.UserID, &m.TenantID, &role, &approval); err != nil {
		return nil, err
	}
	r, err := domain.ParseMemberRole(role)
	if err != nil {
		return nil, err
	}
	a, err := domain.ParseApprovalStatus(approval)
	if err != nil {
		return nil, err
	}
	m.Role = r
	m.Approval = a
	return &m, nil
}

// GetMembership 查询成员关系
func (r *PostgresMembershipsRepository) GetMembership(ctx context.Context, userID, tenantID string) (*domain.Membership, error) {
	if userID == "" || tenantID == "" {
		return nil, fmt.Errorf("user_id and tenant_id are required")
	}
	if _, err := uuid.Parse(tenantID); err != nil {
		return nil, fmt.Errorf("membership %s/%s: %w", userID, tenantID, ErrNotFound)
	}

	m, err := scanMembership(r.db.QueryRowContext(ctx,
		`SELECT membership_id::text, user_id, tenant_id::text, role, approval_status
		 FROM memberships
		 WHERE user_id = $1 AND tenant_id = $2::uuid`,
		userID, tenantID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("membership %s/%s: %w", userID, tenantID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// ListMembershipsByUser 查询用户全部成员关系
func (r *PostgresMembershipsRepository) ListMembershipsByUser(ctx context.Context, userID string) ([]*domain.Membership, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT membership_id::text, user_id, tenant_id::text, role, approval_status
		 FROM memberships
		 WHERE user_id = $1
		 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	out := []*domain.Membership{}
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}
	return out, nil
}

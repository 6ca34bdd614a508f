package domain

import "fmt"

// MemberRole 成员在租户内的角色
type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
	RoleGuest  MemberRole = "guest"
)

// ParseMemberRole 校验并转换角色字符串
func ParseMemberRole(s string) (MemberRole, error) {
	switch MemberRole(s) {
	case RoleOwner, RoleAdmin, RoleMember, RoleGuest:
		return MemberRole(s), nil
	default:
		return "", fmt.Errorf("invalid member role %q", s)
	}
}

// ApprovalStatus 成员审批状态
type ApprovalStatus string

const (
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalPending  ApprovalStatus = "pending"
)

// ParseApprovalStatus 校验并转换审批状态
func ParseApprovalStatus(s string) (ApprovalStatus, error) {
	switch ApprovalStatus(s) {
	case ApprovalApproved, ApprovalPending:
		return ApprovalStatus(s), nil
	default:
		return "", fmt.Errorf("invalid approval status %q", s)
	}
}

// Membership 用户与租户的关联（对应 memberships 表）
// (user_id, tenant_id) 唯一
type Membership struct {
	MembershipID string         `db:"membership_id"`
	UserID       string         `db:"user_id"`
	TenantID     string         `db:"tenant_id"`
	Role         MemberRole     `db:"role"`
	Approval     ApprovalStatus `db:"approval_status"`
}

// IsApproved 是否已审批
func (m *Membership) IsApproved() bool {
	return m.Approval == ApprovalApproved
}

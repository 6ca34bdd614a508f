package domain

import (
	"encoding/json"
	"fmt"
)

// TenantStatus 租户状态
// 空字符串表示历史数据未设置状态，按 active 处理
type TenantStatus string

const (
	TenantStatusUnset    TenantStatus = ""
	TenantStatusActive   TenantStatus = "active"
	TenantStatusInactive TenantStatus = "inactive"
)

// ParseTenantStatus 校验并转换状态字符串
func ParseTenantStatus(s string) (TenantStatus, error) {
	switch TenantStatus(s) {
	case TenantStatusUnset, TenantStatusActive, TenantStatusInactive:
		return TenantStatus(s), nil
	default:
		return "", fmt.Errorf("invalid tenant status %q", s)
	}
}

// IsActive 是否可进入成员关系检查
func (s TenantStatus) IsActive() bool {
	switch s {
	case TenantStatusUnset, TenantStatusActive:
		return true
	case TenantStatusInactive:
		return false
	default:
		return false
	}
}

// Tenant 租户领域模型（对应 tenants 表）
type Tenant struct {
	// 主键
	TenantID string `db:"tenant_id"` // UUID, PRIMARY KEY

	// 基本信息
	TenantName string `db:"tenant_name"` // VARCHAR(255), NOT NULL, UNIQUE
	Domain     string `db:"domain"`      // VARCHAR(255), UNIQUE, nullable
	Email      string `db:"email"`       // VARCHAR(255), nullable
	Phone      string `db:"phone"`       // VARCHAR(50), nullable

	// 状态
	Status TenantStatus `db:"status"` // VARCHAR(50), nullable (active/inactive)

	// 扩展配置
	Metadata json.RawMessage `db:"metadata"` // JSONB, nullable
}

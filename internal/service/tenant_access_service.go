package service

import (
	"context"
	"errors"
	"fmt"

	"invwe-data/internal/domain"
	"invwe-data/internal/metrics"
	"invwe-data/internal/repository"

	"go.uber.org/zap"
)

// RouteClass 路由权限等级
type RouteClass string

const (
	RouteGeneral    RouteClass = "general"    // 库存查看等普通页面
	RouteOperations RouteClass = "operations" // 导出、盘点等操作
	RouteAdmin      RouteClass = "admin"      // 租户设置
	RouteBilling    RouteClass = "billing"    // 账单/支付配置
)

// ParseRouteClass 空字符串视为 general
func ParseRouteClass(s string) (RouteClass, error) {
	switch RouteClass(s) {
	case "":
		return RouteGeneral, nil
	case RouteGeneral, RouteOperations, RouteAdmin, RouteBilling:
		return RouteClass(s), nil
	default:
		return "", fmt.Errorf("invalid route class %q", s)
	}
}

// Allows 角色是否具备该路由等级所需权限
func (rc RouteClass) Allows(role domain.MemberRole) bool {
	switch role {
	case domain.RoleOwner:
		return true
	case domain.RoleAdmin:
		return rc != RouteBilling
	case domain.RoleMember:
		return rc == RouteGeneral || rc == RouteOperations
	case domain.RoleGuest:
		return rc == RouteGeneral
	default:
		return false
	}
}

// DecisionKind 访问决策类型
type DecisionKind string

const (
	DecisionAllow    DecisionKind = "allow"
	DecisionRedirect DecisionKind = "redirect"
	DecisionRender   DecisionKind = "render"
	DecisionError    DecisionKind = "error"
)

// RedirectTarget 重定向目标页
type RedirectTarget string

const (
	RedirectSignIn          RedirectTarget = "sign-in"
	RedirectSelectInventory RedirectTarget = "select_inventory"
	RedirectPendingApproval RedirectTarget = "pending-approval"
)

// View 直接渲染的视图
type View string

const (
	ViewUnauthorized View = "unauthorized"
	ViewError        View = "error"
)

// AccessReason 错误分类
type AccessReason string

const (
	ReasonNone            AccessReason = ""
	ReasonUnauthenticated AccessReason = "unauthenticated"
	ReasonNotFound        AccessReason = "not_found"
	ReasonForbidden       AccessReason = "forbidden"
	ReasonMismatch        AccessReason = "mismatch"
	ReasonLookupFailure   AccessReason = "lookup_failure"
)

// ResolutionState 单次解析到达的终态
type ResolutionState string

const (
	StateUnauthenticated  ResolutionState = "unauthenticated"
	StateTenantMissing    ResolutionState = "tenant_missing"
	StateNoMembership     ResolutionState = "no_membership"
	StatePendingApproval  ResolutionState = "pending_approval"
	StateInsufficientRole ResolutionState = "insufficient_role"
	StateStoreMismatch    ResolutionState = "store_mismatch"
	StateAllowed          ResolutionState = "allowed"
	StateError            ResolutionState = "error"
)

// Decision 访问决策
// Allow 时 Tenant/Membership 必有值，Store 仅在请求了门店时有值；其它类型不携带任何查询结果
type Decision struct {
	Kind       DecisionKind
	Redirect   RedirectTarget
	View       View
	Reason     AccessReason
	State      ResolutionState
	Tenant     *domain.Tenant
	Store      *domain.Store
	Membership *domain.Membership
}

// Allowed 是否放行
func (d Decision) Allowed() bool {
	return d.Kind == DecisionAllow
}

func redirect(target RedirectTarget, reason AccessReason, state ResolutionState) Decision {
	return Decision{Kind: DecisionRedirect, Redirect: target, Reason: reason, State: state}
}

// AccessRequest 访问请求
// TenantID 与 TenantName 二选一；同时提供时以 TenantID 为准
type AccessRequest struct {
	TenantID   string
	TenantName string
	StoreID    string
	RouteClass RouteClass
}

// TenantAccessService 多租户访问解析
// 只读：每次调用最多顺序执行三次查询（tenant → membership → store），不重试
type TenantAccessService struct {
	tenants     repository.TenantsRepository
	memberships repository.MembershipsRepository
	stores      repository.StoresRepository
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewTenantAccessService 创建访问解析服务
func NewTenantAccessService(
	tenants repository.TenantsRepository,
	memberships repository.MembershipsRepository,
	stores repository.StoresRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) *TenantAccessService {
	return &TenantAccessService{
		tenants:     tenants,
		memberships: memberships,
		stores:      stores,
		metrics:     m,
		logger:      logger,
	}
}

// FindTenantByID 按 id 查询租户
func (s *TenantAccessService) FindTenantByID(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	return s.tenants.GetTenantByID(ctx, tenantID)
}

// FindTenantByName 按名称查询租户
func (s *TenantAccessService) FindTenantByName(ctx context.Context, name string) (*domain.Tenant, error) {
	return s.tenants.GetTenantByName(ctx, name)
}

// ResolveAccess 判断 principal 能否访问请求的租户/门店路由
func (s *TenantAccessService) ResolveAccess(ctx context.Context, principal *domain.Principal, req AccessRequest) Decision {
	d := s.resolve(ctx, principal, req)
	s.metrics.ObserveDecision(string(d.Kind), string(d.Reason))
	if d.Kind != DecisionAllow && d.Kind != DecisionError {
		s.logger.Debug("tenant access denied",
			zap.String("state", string(d.State)),
			zap.String("tenant_id", req.TenantID),
			zap.String("tenant_name", req.TenantName),
			zap.String("store_id", req.StoreID),
		)
	}
	return d
}

func (s *TenantAccessService) resolve(ctx context.Context, principal *domain.Principal, req AccessRequest) Decision {
	if principal == nil || principal.UserID == "" {
		return redirect(RedirectSignIn, ReasonUnauthenticated, StateUnauthenticated)
	}

	routeClass := req.RouteClass
	if routeClass == "" {
		routeClass = RouteGeneral
	}

	// 1. tenant
	var (
		tenant *domain.Tenant
		err    error
	)
	switch {
	case req.TenantID != "":
		tenant, err = s.FindTenantByID(ctx, req.TenantID)
	case req.TenantName != "":
		tenant, err = s.FindTenantByName(ctx, req.TenantName)
	default:
		return redirect(RedirectSelectInventory, ReasonNotFound, StateTenantMissing)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return redirect(RedirectSelectInventory, ReasonNotFound, StateTenantMissing)
		}
		return s.lookupFailure(principal, req, "tenant", err)
	}
	if !tenant.Status.IsActive() {
		return redirect(RedirectSelectInventory, ReasonNotFound, StateTenantMissing)
	}

	// 2. membership
	membership, err := s.memberships.GetMembership(ctx, principal.UserID, tenant.TenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return redirect(RedirectSelectInventory, ReasonForbidden, StateNoMembership)
		}
		return s.lookupFailure(principal, req, "membership", err)
	}
	if !membership.IsApproved() {
		return redirect(RedirectPendingApproval, ReasonForbidden, StatePendingApproval)
	}
	if !routeClass.Allows(membership.Role) {
		return Decision{
			Kind:   DecisionRender,
			View:   ViewUnauthorized,
			Reason: ReasonForbidden,
			State:  StateInsufficientRole,
		}
	}

	// 3. store
	if req.StoreID == "" {
		return Decision{
			Kind:       DecisionAllow,
			State:      StateAllowed,
			Tenant:     tenant,
			Membership: membership,
		}
	}
	store, err := s.stores.GetStore(ctx, req.StoreID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return redirect(RedirectSelectInventory, ReasonNotFound, StateStoreMismatch)
		}
		return s.lookupFailure(principal, req, "store", err)
	}
	if store.TenantID != tenant.TenantID {
		return redirect(RedirectSelectInventory, ReasonMismatch, StateStoreMismatch)
	}

	return Decision{
		Kind:       DecisionAllow,
		State:      StateAllowed,
		Tenant:     tenant,
		Store:      store,
		Membership: membership,
	}
}

// lookupFailure 数据访问故障：记录原始错误，对外只返回通用错误视图
func (s *TenantAccessService) lookupFailure(principal *domain.Principal, req AccessRequest, lookup string, err error) Decision {
	s.metrics.ObserveLookupError(lookup)
	s.logger.Error("tenant access lookup failed",
		zap.String("lookup", lookup),
		zap.String("user_id", principal.UserID),
		zap.String("tenant_id", req.TenantID),
		zap.String("tenant_name", req.TenantName),
		zap.String("store_id", req.StoreID),
		zap.Error(err),
	)
	return Decision{
		Kind:   DecisionError,
		View:   ViewError,
		Reason: ReasonLookupFailure,
		State:  StateError,
	}
}

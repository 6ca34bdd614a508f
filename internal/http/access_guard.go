package httpapi

import (
	"errors"
	"net/http"

	"invwe-data/internal/auth"
	"invwe-data/internal/domain"
	"invwe-data/internal/service"

	"go.uber.org/zap"
)

// AccessGuard 解析登录用户并执行租户访问决策
type AccessGuard struct {
	Principals auth.PrincipalResolver
	Access     *service.TenantAccessService
	// RedirectPaths 跳转目标对应的前端路径（可选）
	RedirectPaths map[service.RedirectTarget]string
	Logger        *zap.Logger
}

func NewAccessGuard(principals auth.PrincipalResolver, access *service.TenantAccessService, logger *zap.Logger) *AccessGuard {
	return &AccessGuard{Principals: principals, Access: access, Logger: logger}
}

func (g *AccessGuard) redirectPath(target service.RedirectTarget) string {
	if p, ok := g.RedirectPaths[target]; ok {
		return p
	}
	return "/" + string(target)
}

// Principal 凭证无效或身份服务不可用时按未登录处理
func (g *AccessGuard) Principal(r *http.Request) *domain.Principal {
	p, err := g.Principals.Resolve(r.Context(), r)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			g.Logger.Warn("failed to resolve principal",
				zap.Error(err),
				zap.String("request_id", RequestIDFromContext(r.Context())),
			)
		}
		return nil
	}
	return p
}

// RequireOperator 平台管理接口只对 operators 中的用户开放；未登录 401，其余 403
func (g *AccessGuard) RequireOperator(operators []string, next http.HandlerFunc) http.HandlerFunc {
	allowed := make(map[string]bool, len(operators))
	for _, id := range operators {
		if id != "" {
			allowed[id] = true
		}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		p := g.Principal(r)
		if p == nil || p.UserID == "" {
			writeJSON(w, http.StatusUnauthorized, FailRedirect("sign in required", service.RedirectSignIn, g.redirectPath(service.RedirectSignIn)))
			return
		}
		if !allowed[p.UserID] {
			g.Logger.Warn("admin api denied", zap.String("user_id", p.UserID))
			writeJSON(w, http.StatusForbidden, Fail("operator role required"))
			return
		}
		next(w, r)
	}
}

// Authorize 放行时返回 (decision, true)；否则已写好响应，返回 false
func (g *AccessGuard) Authorize(w http.ResponseWriter, r *http.Request, req service.AccessRequest) (service.Decision, bool) {
	d := g.Access.ResolveAccess(r.Context(), g.Principal(r), req)
	if d.Allowed() {
		return d, true
	}
	g.writeDenied(w, d)
	return d, false
}

// decisionHTTPStatus 拒绝决策对应的 HTTP 状态码
func decisionHTTPStatus(d service.Decision) int {
	switch d.Kind {
	case service.DecisionAllow:
		return http.StatusOK
	case service.DecisionRedirect:
		switch d.Redirect {
		case service.RedirectSignIn:
			return http.StatusUnauthorized
		case service.RedirectPendingApproval:
			return http.StatusForbidden
		default:
			return http.StatusNotFound
		}
	case service.DecisionRender:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func decisionMessage(d service.Decision) string {
	switch d.State {
	case service.StateUnauthenticated:
		return "sign in required"
	case service.StateTenantMissing:
		return "tenant not found"
	case service.StateNoMembership:
		return "not a member of this tenant"
	case service.StatePendingApproval:
		return "membership pending approval"
	case service.StateInsufficientRole:
		return "insufficient role"
	case service.StateStoreMismatch:
		return "store not found in this tenant"
	default:
		// 查询故障不向前端透露细节
		return "internal error"
	}
}

func (g *AccessGuard) writeDenied(w http.ResponseWriter, d service.Decision) {
	status := decisionHTTPStatus(d)
	if d.Kind == service.DecisionRedirect {
		writeJSON(w, status, FailRedirect(decisionMessage(d), d.Redirect, g.redirectPath(d.Redirect)))
		return
	}
	writeJSON(w, status, Fail(decisionMessage(d)))
}

// decisionView 决策的 JSON 表示
func (g *AccessGuard) decisionView(d service.Decision) map[string]any {
	out := map[string]any{
		"kind":   d.Kind,
		"state":  d.State,
		"reason": d.Reason,
	}
	if d.Redirect != "" {
		out["redirect"] = d.Redirect
		out["redirect_url"] = g.redirectPath(d.Redirect)
	}
	if d.View != "" {
		out["view"] = d.View
	}
	if d.Tenant != nil {
		out["tenant"] = map[string]any{
			"tenant_id":   d.Tenant.TenantID,
			"tenant_name": d.Tenant.TenantName,
		}
	}
	if d.Store != nil {
		out["store"] = map[string]any{
			"store_id":   d.Store.StoreID,
			"store_name": d.Store.StoreName,
		}
	}
	if d.Membership != nil {
		out["role"] = d.Membership.Role
	}
	return out
}

// AccessHandler GET /inventory/api/v1/access
// 始终返回 200，由前端根据 kind/redirect 跳转
func (g *AccessGuard) AccessHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	rc, err := service.ParseRouteClass(q.Get("route"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}
	d := g.Access.ResolveAccess(r.Context(), g.Principal(r), service.AccessRequest{
		TenantID:   q.Get("tenant_id"),
		TenantName: q.Get("tenant_name"),
		StoreID:    q.Get("store_id"),
		RouteClass: rc,
	})
	writeJSON(w, http.StatusOK, Ok(g.decisionView(d)))
}

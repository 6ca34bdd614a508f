package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口（用于 /metrics 等）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterInventoryRoutes 访问决策 + 门店库存
func (r *Router) RegisterInventoryRoutes(guard *AccessGuard, inv *InventoryHandler) {
	r.Handle("/inventory/api/v1/access", guard.AccessHandler)
	r.Handle("/inventory/api/v1/stores", inv.Stores)
	r.Handle("/inventory/api/v1/stock-status", inv.StockStatus)

	// tenants/{tenant}/stores/{store}/products | products/export | stock-alerts
	r.Handle(tenantsPrefix, inv.ServeTenantScoped)
}

// RegisterAdminTenantRoutes 租户管理（platform-level），仅 operators 可访问
func (r *Router) RegisterAdminTenantRoutes(guard *AccessGuard, operators []string, h *TenantsHandler) {
	gated := guard.RequireOperator(operators, h.ServeHTTP)
	r.Handle(adminTenantsPath, gated)
	r.Handle(adminTenantsPath+"/", gated)
}

// RegisterOpsRoutes /healthz 与 /metrics
// ping 为 nil 时只报告进程存活
func (r *Router) RegisterOpsRoutes(ping func(ctx context.Context) error, metrics http.Handler) {
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				r.logger.Warn("health check failed", zap.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, Fail("unhealthy"))
				return
			}
		}
		writeJSON(w, http.StatusOK, Ok(map[string]any{"status": "ok"}))
	})
	if metrics != nil {
		r.HandleHandler("/metrics", metrics)
	}
}

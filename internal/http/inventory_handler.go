package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"invwe-data/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const tenantsPrefix = "/inventory/api/v1/tenants/"

// InventoryHandler 门店库存相关接口
type InventoryHandler struct {
	Guard     *AccessGuard
	Directory *service.StoreDirectoryService
	Inventory *service.InventoryService
	Logger    *zap.Logger
}

func NewInventoryHandler(
	guard *AccessGuard,
	directory *service.StoreDirectoryService,
	inventory *service.InventoryService,
	logger *zap.Logger,
) *InventoryHandler {
	return &InventoryHandler{Guard: guard, Directory: directory, Inventory: inventory, Logger: logger}
}

// Stores GET /inventory/api/v1/stores
func (h *InventoryHandler) Stores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	p := h.Guard.Principal(r)
	if p == nil {
		writeJSON(w, http.StatusUnauthorized, FailRedirect("sign in required", service.RedirectSignIn, h.Guard.redirectPath(service.RedirectSignIn)))
		return
	}
	dir, err := h.Directory.ListAccessibleStores(r.Context(), p)
	if err != nil {
		h.Logger.Error("failed to list accessible stores", zap.String("user_id", p.UserID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list stores"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(dir))
}

// StockStatus GET /inventory/api/v1/stock-status?quantity=&min_stock=&lang=
// 无需登录，前端徽标用
func (h *InventoryHandler) StockStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	quantity, err := parseNonNegativeInt(q.Get("quantity"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid quantity"))
		return
	}
	minStock, err := parseNonNegativeInt(q.Get("min_stock"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid min_stock"))
		return
	}
	lang := service.ParseLang(q.Get("lang"))

	level, ok := service.ClassifyStock(quantity, minStock)
	if !ok {
		writeJSON(w, http.StatusOK, Ok[any](nil))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"status":         level.Status,
		"label":          level.Status.Label(lang),
		"percentage":     level.Percentage,
		"low_threshold":  level.LowThreshold,
		"high_threshold": level.HighThreshold,
	}))
}

// tenantScope /inventory/api/v1/tenants/{tenant}/stores/{store}/{action...}
// {tenant} 为 UUID 时按 id 查询，否则按租户名称
type tenantScope struct {
	tenantID   string
	tenantName string
	storeID    string
	action     string
}

func parseTenantScope(path string) (tenantScope, bool) {
	rest := strings.TrimPrefix(path, tenantsPrefix)
	parts := strings.SplitN(rest, "/", 4)
	if len(parts) != 4 || parts[0] == "" || parts[1] != "stores" || parts[2] == "" || parts[3] == "" {
		return tenantScope{}, false
	}
	sc := tenantScope{storeID: parts[2], action: parts[3]}
	if _, err := uuid.Parse(parts[0]); err == nil {
		sc.tenantID = parts[0]
	} else {
		sc.tenantName = parts[0]
	}
	return sc, true
}

// ServeTenantScoped 分发门店级接口
func (h *InventoryHandler) ServeTenantScoped(w http.ResponseWriter, r *http.Request) {
	sc, ok := parseTenantScope(r.URL.Path)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var (
		method string
		rc     service.RouteClass
		serve  func(http.ResponseWriter, *http.Request, service.Decision)
	)
	switch sc.action {
	case "products":
		method, rc, serve = http.MethodGet, service.RouteGeneral, h.listProducts
	case "products/export":
		method, rc, serve = http.MethodGet, service.RouteOperations, h.exportProducts
	case "stock-alerts":
		method, rc, serve = http.MethodPost, service.RouteAdmin, h.sendStockAlerts
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	d, allowed := h.Guard.Authorize(w, r, service.AccessRequest{
		TenantID:   sc.tenantID,
		TenantName: sc.tenantName,
		StoreID:    sc.storeID,
		RouteClass: rc,
	})
	if !allowed {
		return
	}
	serve(w, r, d)
}

func parseStatuses(s string) ([]service.StockStatus, error) {
	raw := splitCSV(s)
	out := make([]service.StockStatus, 0, len(raw))
	for _, v := range raw {
		st, err := service.ParseStockStatus(v)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (h *InventoryHandler) inventoryRequest(r *http.Request, d service.Decision) (service.ListInventoryRequest, error) {
	q := r.URL.Query()
	statuses, err := parseStatuses(q.Get("status"))
	if err != nil {
		return service.ListInventoryRequest{}, err
	}
	return service.ListInventoryRequest{
		TenantID: d.Tenant.TenantID,
		StoreID:  d.Store.StoreID,
		Search:   strings.TrimSpace(q.Get("search")),
		SKUs:     splitCSV(q.Get("sku")),
		Statuses: statuses,
		Lang:     service.ParseLang(q.Get("lang")),
	}, nil
}

// listProducts GET .../products?status=low,high&lang=es|en&search=&sku=
func (h *InventoryHandler) listProducts(w http.ResponseWriter, r *http.Request, d service.Decision) {
	req, err := h.inventoryRequest(r, d)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}
	list, err := h.Inventory.ListInventory(r.Context(), req)
	if err != nil {
		h.Logger.Error("failed to list inventory",
			zap.String("tenant_id", req.TenantID),
			zap.String("store_id", req.StoreID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list products"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

// exportProducts GET .../products/export
func (h *InventoryHandler) exportProducts(w http.ResponseWriter, r *http.Request, d service.Decision) {
	req, err := h.inventoryRequest(r, d)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}
	list, err := h.Inventory.ListInventory(r.Context(), req)
	if err != nil {
		h.Logger.Error("failed to list inventory for export", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to export products"))
		return
	}
	data, err := GenerateInventoryExport(d.Store.StoreName, list, req.Lang)
	if err != nil {
		h.Logger.Error("failed to generate inventory export", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to export products"))
		return
	}

	filename := fmt.Sprintf("inventory_%s_%s.xlsx", d.Store.StoreID, time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// sendStockAlerts POST .../stock-alerts
func (h *InventoryHandler) sendStockAlerts(w http.ResponseWriter, r *http.Request, d service.Decision) {
	lang := service.ParseLang(r.URL.Query().Get("lang"))
	sent, err := h.Inventory.ScanStockAlerts(r.Context(), d.Tenant, d.Store, lang)
	if err != nil {
		h.Logger.Error("failed to send stock alerts",
			zap.String("tenant_id", d.Tenant.TenantID),
			zap.String("store_id", d.Store.StoreID),
			zap.Int("sent", sent),
			zap.Error(err),
		)
		writeJSON(w, http.StatusBadGateway, Fail("failed to send stock alerts"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"sent": sent}))
}

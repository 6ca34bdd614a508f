package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"invwe-data/internal/domain"
	"invwe-data/internal/repository"

	"go.uber.org/zap"
)

const adminTenantsPath = "/admin/api/v1/tenants"

// TenantsHandler 平台级租户管理（开发/开通使用）
type TenantsHandler struct {
	Repo   repository.TenantsRepository
	Logger *zap.Logger
}

func NewTenantsHandler(repo repository.TenantsRepository, logger *zap.Logger) *TenantsHandler {
	return &TenantsHandler{Repo: repo, Logger: logger}
}

type tenantPayload struct {
	TenantName string          `json:"tenant_name"`
	Domain     string          `json:"domain"`
	Email      string          `json:"email"`
	Phone      string          `json:"phone"`
	Status     *string         `json:"status"`
	Metadata   json.RawMessage `json:"metadata"`
}

func tenantView(t *domain.Tenant) map[string]any {
	return map[string]any{
		"tenant_id":   t.TenantID,
		"tenant_name": t.TenantName,
		"domain":      t.Domain,
		"email":       t.Email,
		"phone":       t.Phone,
		"status":      t.Status,
		"metadata":    t.Metadata,
	}
}

func (h *TenantsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Repo == nil {
		writeJSON(w, http.StatusOK, Fail("tenants repo is not configured"))
		return
	}

	switch {
	case r.URL.Path == adminTenantsPath:
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return

	case strings.HasPrefix(r.URL.Path, adminTenantsPath+"/"):
		id := strings.TrimPrefix(r.URL.Path, adminTenantsPath+"/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodGet:
			t, err := h.Repo.GetTenantByID(r.Context(), id)
			if err != nil {
				h.writeRepoError(w, err, "failed to get tenant")
				return
			}
			writeJSON(w, http.StatusOK, Ok(tenantView(t)))
		case http.MethodPut:
			h.setStatus(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	w.WriteHeader(http.StatusNotFound)
}

func (h *TenantsHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := parseInt(q.Get("page"), 1)
	size := parseInt(q.Get("size"), 50)
	items, total, err := h.Repo.ListTenants(r.Context(), repository.TenantFilters{
		Status: q.Get("status"),
		Search: strings.TrimSpace(q.Get("search")),
	}, page, size)
	if err != nil {
		h.Logger.Error("failed to list tenants", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to list tenants"))
		return
	}
	out := make([]any, 0, len(items))
	for _, t := range items {
		out = append(out, tenantView(t))
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": out, "total": total}))
}

func (h *TenantsHandler) create(w http.ResponseWriter, r *http.Request) {
	var payload tenantPayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	name := strings.TrimSpace(payload.TenantName)
	if name == "" {
		writeJSON(w, http.StatusOK, Fail("tenant_name is required"))
		return
	}
	status := domain.TenantStatusActive
	if payload.Status != nil {
		st, err := domain.ParseTenantStatus(*payload.Status)
		if err != nil {
			writeJSON(w, http.StatusOK, Fail(err.Error()))
			return
		}
		status = st
	}

	t := &domain.Tenant{
		TenantName: name,
		Domain:     strings.TrimSpace(payload.Domain),
		Email:      strings.TrimSpace(payload.Email),
		Phone:      strings.TrimSpace(payload.Phone),
		Status:     status,
		Metadata:   payload.Metadata,
	}
	id, err := h.Repo.CreateTenant(r.Context(), t)
	if err != nil {
		h.Logger.Error("failed to create tenant", zap.String("tenant_name", name), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to create tenant"))
		return
	}
	t.TenantID = id
	writeJSON(w, http.StatusOK, Ok(tenantView(t)))
}

func (h *TenantsHandler) setStatus(w http.ResponseWriter, r *http.Request, id string) {
	var payload struct {
		Status *string `json:"status"`
	}
	if err := readBodyJSON(r, 1<<20, &payload); err != nil || payload.Status == nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	st, err := domain.ParseTenantStatus(*payload.Status)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	if err := h.Repo.SetTenantStatus(r.Context(), id, st); err != nil {
		h.writeRepoError(w, err, "failed to update tenant status")
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"success": true}))
}

func (h *TenantsHandler) writeRepoError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, repository.ErrNotFound) {
		writeJSON(w, http.StatusOK, Fail("tenant not found"))
		return
	}
	h.Logger.Error(msg, zap.Error(err))
	writeJSON(w, http.StatusOK, Fail(msg))
}

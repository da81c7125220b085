// Package api exposes the change-request workflow over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/poyrazK/dnsaas/internal/core/domain"
	"github.com/poyrazK/dnsaas/internal/core/ports"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APIHandler handles HTTP requests for records, domains, requests and templates.
type APIHandler struct {
	requests  ports.RequestService
	templates ports.TemplateService
	admin     ports.AdminService
	users     ports.UserRepository
	log       *slog.Logger
}

// NewAPIHandler creates and returns a new APIHandler instance.
func NewAPIHandler(requests ports.RequestService, templates ports.TemplateService, admin ports.AdminService,
	users ports.UserRepository, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandler{requests: requests, templates: templates, admin: admin, users: users, log: logger}
}

// userHandler is an authenticated handler.
type userHandler func(w http.ResponseWriter, r *http.Request, user *domain.User)

// RegisterRoutes registers the API routes with the provided ServeMux.
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	// Public Routes
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	auth := AuthMiddleware(h.users)
	handle := func(pattern string, fn userHandler) {
		mux.Handle(pattern, auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
				return
			}
			fn(w, r, user)
		})))
	}

	handle("POST /records", h.CreateRecord)
	handle("GET /records", h.RecordsForIPs)
	handle("PUT /records/{id}", h.UpdateRecord)
	handle("DELETE /records/{id}", h.deleteEntity(domain.KindRecord))
	handle("PUT /auto-txt", h.SyncAutoTXT)

	handle("POST /domains", h.CreateDomain)
	handle("PUT /domains/{id}", h.UpdateDomain)
	handle("DELETE /domains/{id}", h.deleteEntity(domain.KindDomain))
	handle("PUT /domains/{id}/acceptance", h.SetAcceptance)

	for _, kind := range []domain.RequestKind{domain.KindDomainRequest, domain.KindRecordRequest, domain.KindDeleteRequest} {
		base := "/" + string(kind) + "s/{id}"
		handle("GET "+base, h.GetRequest(kind))
		handle("POST "+base+"/accept", h.Transition(kind, true))
		handle("POST "+base+"/reject", h.Transition(kind, false))
	}

	handle("POST /domain-templates", h.CreateDomainTemplate)
	handle("DELETE /domain-templates/{id}", h.DeleteDomainTemplate)
	handle("POST /domain-templates/{id}/record-templates", h.CreateRecordTemplate)
	handle("PUT /record-templates/{id}", h.UpdateRecordTemplate)
	handle("DELETE /record-templates/{id}", h.DeleteRecordTemplate)

	handle("POST /services", h.CreateService)
	handle("POST /services/{id}/owners", h.AddServiceOwner)
	handle("DELETE /services/{id}/owners/{user_id}", h.RemoveServiceOwner)
	handle("POST /authorisations", h.GrantAuthorisation)
	handle("GET /audit-logs", h.ListAuditLogs)
}

// decode reads a JSON body into v and answers 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// HealthCheck handles health check requests.
func (h *APIHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "UP"
	details := make(map[string]string)
	for name, checkErr := range h.admin.HealthCheck(r.Context()) {
		if checkErr != nil {
			status = "DEGRADED"
			details[name] = checkErr.Error()
		} else {
			details[name] = "OK"
		}
	}

	code := http.StatusOK
	if status == "DEGRADED" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{"status": status, "details": details})
}

// Records

func (h *APIHandler) CreateRecord(w http.ResponseWriter, r *http.Request, user *domain.User) {
	var fields domain.RecordFields
	if !decode(w, r, &fields) {
		return
	}
	out, err := h.requests.CreateRecordRequest(r.Context(), user, fields)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOutcome(w, out)
}

func (h *APIHandler) UpdateRecord(w http.ResponseWriter, r *http.Request, user *domain.User) {
	var fields domain.RecordFields
	if !decode(w, r, &fields) {
		return
	}
	out, err := h.requests.UpdateRecordRequest(r.Context(), user, r.PathValue("id"), fields)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOutcome(w, out)
}

func (h *APIHandler) deleteEntity(kind domain.EntityKind) userHandler {
	return func(w http.ResponseWriter, r *http.Request, user *domain.User) {
		out, err := h.requests.DeleteRequest(r.Context(), user, kind, r.PathValue("id"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeOutcome(w, out)
	}
}

// RecordsForIPs answers GET /records?ip=10.0.0.1&ip=10.0.0.2&type=A,PTR.
// Comma separated values are accepted for both parameters.
func (h *APIHandler) RecordsForIPs(w http.ResponseWriter, r *http.Request, _ *domain.User) {
	query := r.URL.Query()
	ips := splitParams(query["ip"])
	if len(ips) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "at least one ip parameter is required", Field: "ip"})
		return
	}
	var types []domain.RecordType
	for _, t := range splitParams(query["type"]) {
		types = append(types, domain.NormalizeType(domain.RecordType(t)))
	}

	records, err := h.admin.RecordsForIPs(r.Context(), ips, types)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []domain.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func splitParams(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (h *APIHandler) SyncAutoTXT(w http.ResponseWriter, r *http.Request, user *domain.User) {
	var entries []domain.AutoTXT
	if !decode(w, r, &entries) {
		return
	}
	records, err := h.admin.SyncAutoTXT(r.Context(), user, entries)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// Domains

func (h *APIHandler) CreateDomain(w http.ResponseWriter, r *http.Request, user *domain.User) {
	var fields domain.DomainFields
	if !decode(w, r, &fields) {
		return
	}
	out, err := h.requests.CreateDomainRequest(r.Context(), user, fields)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOutcome(w, out)
}

func (h *APIHandler) UpdateDomain(w http.ResponseWriter, r *http.Request, user *domain.User) {
	var fields domain.DomainFields
	if !decode(w, r, &fields) {
		return
	}
	out, err := h.requests.UpdateDomainRequest(r.Context(), user, r.PathValue("id"), fields)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOutcome(w, out)
}

type acceptanceBody struct {
	RequireSecAcceptance bool `json:"require_sec_acceptance"`
	RequireSeoAcceptance bool `json:"require_seo_acceptance"`
}

func (h *APIHandler) SetAcceptance(w http.ResponseWriter, r *http.Request, user *domain.User) {
	var body acceptanceBody
	if !decode(w, r, &body) {
		return
	}
	d, err := h.admin.SetAcceptance(r.Context(), user, r.PathValue("id"), body.RequireSecAcceptance, body.RequireSeoAcceptance)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Requests

func (h *APIHandler) GetRequest(kind domain.RequestKind) userHandler {
	return func(w http.ResponseWriter, r *http.Request, _ *domain.User) {
		out, err := h.requests.GetRequest(r.Context(), kind, r.PathValue("id"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// Transition accepts or rejects an OPEN request.
func (h *APIHandler) Transition(kind domain.RequestKind, accept bool) userHandler {
	return func(w http.ResponseWriter, r *http.Request, user *domain.User) {
		transition := h.requests.Reject
		if accept {
			transition = h.requests.Accept
		}
		out, err := transition(r.Context(), user, kind, r.PathValue("id"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// Templates

func (h *APIHandler) CreateDomainTemplate(w http.ResponseWriter, r *http.Request, user *domain.User) {
	tpl := domain.DomainTemplate{IsPublicDomain: true}
	if !decode(w, r, &tpl) {
		return
	}
	if err := h.templates.CreateDomainTemplate(r.Context(), user, &tpl); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

func (h *APIHandler) DeleteDomainTemplate(w http.ResponseWriter, r *http.Request, user *domain.User) {
	if err := h.templates.DeleteDomainTemplate(r.Context(), user, r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) CreateRecordTemplate(w http.ResponseWriter, r *http.Request, user *domain.User) {
	rt := domain.RecordTemplate{Auth: true}
	if !decode(w, r, &rt) {
		return
	}
	rt.DomainTemplateID = r.PathValue("id")
	if err := h.templates.CreateRecordTemplate(r.Context(), user, &rt); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rt)
}

func (h *APIHandler) UpdateRecordTemplate(w http.ResponseWriter, r *http.Request, user *domain.User) {
	var rt domain.RecordTemplate
	if !decode(w, r, &rt) {
		return
	}
	rt.ID = r.PathValue("id")
	if err := h.templates.UpdateRecordTemplate(r.Context(), user, &rt); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func (h *APIHandler) DeleteRecordTemplate(w http.ResponseWriter, r *http.Request, user *domain.User) {
	if err := h.templates.DeleteRecordTemplate(r.Context(), user, r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Ownership

func (h *APIHandler) CreateService(w http.ResponseWriter, r *http.Request, user *domain.User) {
	svc := domain.Service{IsActive: true}
	if !decode(w, r, &svc) {
		return
	}
	if err := h.admin.CreateService(r.Context(), user, &svc); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

func (h *APIHandler) AddServiceOwner(w http.ResponseWriter, r *http.Request, user *domain.User) {
	var owner domain.ServiceOwner
	if !decode(w, r, &owner) {
		return
	}
	owner.ServiceID = r.PathValue("id")
	if err := h.admin.AddServiceOwner(r.Context(), user, &owner); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, owner)
}

func (h *APIHandler) RemoveServiceOwner(w http.ResponseWriter, r *http.Request, user *domain.User) {
	if err := h.admin.RemoveServiceOwner(r.Context(), user, r.PathValue("id"), r.PathValue("user_id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) GrantAuthorisation(w http.ResponseWriter, r *http.Request, user *domain.User) {
	var grant domain.Authorisation
	if !decode(w, r, &grant) {
		return
	}
	if err := h.admin.GrantAuthorisation(r.Context(), user, &grant); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, grant)
}

// ListAuditLogs returns the caller's audit entries, or all of them for superusers.
func (h *APIHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request, user *domain.User) {
	logs, err := h.admin.ListAuditLogs(r.Context(), user)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if logs == nil {
		logs = []domain.AuditLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sentra.dev/internal/audit"
	"sentra.dev/internal/obs"
)

type createAuditRequest struct {
	UserID       string         `json:"user_id"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   *string        `json:"resource_id"`
	Changes      *audit.Changes `json:"changes"`
	IPAddress    *string        `json:"ip_address"`
	UserAgent    *string        `json:"user_agent"`
}

func (a *API) handleAuditCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.queryAudit(w, r)
	case http.MethodPost:
		a.createAudit(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleAuditStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	stats, err := a.recorder.Stats(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) queryAudit(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	f, err := auditFilterFromQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	page, err := a.recorder.Query(r.Context(), f)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *API) createAudit(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var req createAuditRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	entry := &audit.Entry{
		UserID:       req.UserID,
		Action:       audit.Action(req.Action),
		ResourceType: audit.ResourceType(req.ResourceType),
		ResourceID:   req.ResourceID,
		Changes:      req.Changes,
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
	}
	// Explicit create: unlike the lifecycle hook, failures propagate.
	if err := a.recorder.Record(r.Context(), entry); err != nil {
		handleDomainError(w, r, err)
		return
	}
	obs.AuditEntryWritten()
	writeJSON(w, http.StatusCreated, entry)
}

func auditFilterFromQuery(r *http.Request) (audit.Filter, error) {
	q := r.URL.Query()
	f := audit.Filter{
		UserID:       strings.TrimSpace(q.Get("user_id")),
		Action:       audit.Action(strings.TrimSpace(q.Get("action"))),
		ResourceType: audit.ResourceType(strings.TrimSpace(q.Get("resource_type"))),
		Search:       strings.TrimSpace(q.Get("search")),
		SortBy:       strings.TrimSpace(q.Get("sort_by")),
		SortDir:      strings.TrimSpace(q.Get("sort_dir")),
	}

	var err error
	if f.From, err = parseTimeParam(q.Get("from")); err != nil {
		return f, err
	}
	if f.To, err = parseTimeParam(q.Get("to")); err != nil {
		return f, err
	}
	if f.Page, err = parseIntParam(q.Get("page"), "page"); err != nil {
		return f, err
	}
	if f.Limit, err = parseIntParam(q.Get("limit"), "limit"); err != nil {
		return f, err
	}
	return f, nil
}

func parseTimeParam(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseIntParam(raw, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return v, nil
}

package httpapi

import (
	"net/http"
	"strings"

	"sentra.dev/internal/obs"
	"sentra.dev/internal/session"
)

type listSessionsResponse struct {
	Sessions []*session.Session `json:"sessions"`
	Current  string             `json:"current"`
}

type revokeOthersResponse struct {
	Revoked int64 `json:"revoked"`
}

func (a *API) handleSessionsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listSessions(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet)
	}
}

func (a *API) handleSessionResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}

	if path == "revoke" {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.revokeOtherSessions(w, r)
		return
	}

	switch r.Method {
	case http.MethodDelete:
		a.revokeSession(w, r, path)
	default:
		methodNotAllowed(w, r, http.MethodDelete)
	}
}

func (a *API) listSessions(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	sessions, err := a.sessions.ListActive(r.Context(), p.UserID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listSessionsResponse{
		Sessions: sessions,
		Current:  p.SessionID,
	})
}

func (a *API) revokeSession(w http.ResponseWriter, r *http.Request, id string) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	// Scoped to the caller: someone else's session id looks like a miss.
	if err := a.sessions.RevokeOne(r.Context(), p.UserID, id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	obs.SessionsRevoked(1)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) revokeOtherSessions(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	revoked, err := a.sessions.RevokeAllExceptCurrent(r.Context(), p.UserID, p.SessionID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	obs.SessionsRevoked(revoked)
	writeJSON(w, http.StatusOK, revokeOthersResponse{Revoked: revoked})
}

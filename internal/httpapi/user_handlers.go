package httpapi

import (
	"net/http"
	"strings"

	"sentra.dev/internal/access"
)

type changeRoleRequest struct {
	Role string `json:"role"`
}

type changeEmailRequest struct {
	Email string `json:"email"`
}

type setBannedRequest struct {
	Banned bool `json:"banned"`
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/users/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}

	id, attr, hasAttr := strings.Cut(path, "/")
	if id == "" || strings.Contains(attr, "/") {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}

	if !hasAttr {
		switch r.Method {
		case http.MethodDelete:
			a.deleteUser(w, r, id)
		default:
			methodNotAllowed(w, r, http.MethodDelete)
		}
		return
	}

	if r.Method != http.MethodPatch {
		methodNotAllowed(w, r, http.MethodPatch)
		return
	}
	switch attr {
	case "role":
		a.changeRole(w, r, id)
	case "email":
		a.changeEmail(w, r, id)
	case "ban":
		a.setBanned(w, r, id)
	default:
		writeError(w, r, http.StatusNotFound, "not found")
	}
}

func (a *API) changeRole(w http.ResponseWriter, r *http.Request, id string) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req changeRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	role, err := access.ParseRole(req.Role)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := a.users.ChangeRole(r.Context(), p.actor(), id, role)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) changeEmail(w http.ResponseWriter, r *http.Request, id string) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req changeEmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := a.users.ChangeEmail(r.Context(), p.actor(), id, req.Email)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) setBanned(w http.ResponseWriter, r *http.Request, id string) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req setBannedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := a.users.SetBanned(r.Context(), p.actor(), id, req.Banned)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request, id string) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if err := a.users.Delete(r.Context(), p.actor(), id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

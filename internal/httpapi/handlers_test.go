package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"sentra.dev/internal/access"
	"sentra.dev/internal/audit"
	"sentra.dev/internal/user"
)

func TestHealthzPublic(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/healthz", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["service"] != "sentra-api" {
		t.Fatalf("unexpected service %v", body["service"])
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/v1/sessions", "", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestBogusTokenRejected(t *testing.T) {
	env := newTestEnv(t, &user.User{ID: "alice", Role: access.RoleUser})

	rr := env.do(t, http.MethodGet, "/v1/sessions", "not-a-real-token", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestBannedUserRejected(t *testing.T) {
	env := newTestEnv(t, &user.User{ID: "mallory", Role: access.RoleUser, Banned: true})
	token, _ := env.signIn(t, "mallory")

	rr := env.do(t, http.MethodGet, "/v1/sessions", token, "")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestListSessions(t *testing.T) {
	env := newTestEnv(t, &user.User{ID: "alice", Role: access.RoleUser})
	token, current := env.signIn(t, "alice")
	env.signIn(t, "alice")

	rr := env.do(t, http.MethodGet, "/v1/sessions", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body listSessionsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(body.Sessions))
	}
	if body.Current != current {
		t.Fatalf("expected current %s, got %s", current, body.Current)
	}
}

func TestRevokeForeignSessionLooksLikeMiss(t *testing.T) {
	env := newTestEnv(t,
		&user.User{ID: "alice", Role: access.RoleUser},
		&user.User{ID: "bob", Role: access.RoleUser},
	)
	aliceToken, _ := env.signIn(t, "alice")
	_, bobSession := env.signIn(t, "bob")

	rr := env.do(t, http.MethodDelete, "/v1/sessions/"+bobSession, aliceToken, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign session, got %d", rr.Code)
	}

	// Bob's session is untouched.
	if _, err := env.sessions.ListActive(context.Background(), "bob"); err != nil {
		t.Fatalf("list bob: %v", err)
	}
}

func TestRevokeOwnSession(t *testing.T) {
	env := newTestEnv(t, &user.User{ID: "alice", Role: access.RoleUser})
	token, _ := env.signIn(t, "alice")
	_, second := env.signIn(t, "alice")

	rr := env.do(t, http.MethodDelete, "/v1/sessions/"+second, token, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestRevokeOtherSessions(t *testing.T) {
	env := newTestEnv(t, &user.User{ID: "alice", Role: access.RoleUser})
	token, _ := env.signIn(t, "alice")
	env.signIn(t, "alice")
	env.signIn(t, "alice")

	rr := env.do(t, http.MethodPost, "/v1/sessions/revoke", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body revokeOthersResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Revoked != 2 {
		t.Fatalf("expected 2 revoked, got %d", body.Revoked)
	}

	// The current session still works.
	if rr := env.do(t, http.MethodGet, "/v1/sessions", token, ""); rr.Code != http.StatusOK {
		t.Fatalf("current session should survive, got %d", rr.Code)
	}
}

func TestChangeRoleForbiddenOverHTTP(t *testing.T) {
	env := newTestEnv(t,
		&user.User{ID: "alice", Role: access.RoleUser},
		&user.User{ID: "bob", Role: access.RoleAdmin},
	)
	token, _ := env.signIn(t, "alice")

	rr := env.do(t, http.MethodPatch, "/v1/users/bob/role", token, `{"role":"super_admin"}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestChangeRoleOverHTTP(t *testing.T) {
	env := newTestEnv(t,
		&user.User{ID: "carol", Role: access.RoleSuperAdmin},
		&user.User{ID: "bob", Role: access.RoleUser},
	)
	token, _ := env.signIn(t, "carol")

	rr := env.do(t, http.MethodPatch, "/v1/users/bob/role", token, `{"role":"admin"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var updated user.User
	if err := json.Unmarshal(rr.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Role != access.RoleAdmin {
		t.Fatalf("expected admin, got %s", updated.Role)
	}
	if len(env.auditLog.entries) == 0 || env.auditLog.entries[len(env.auditLog.entries)-1].Action != audit.ActionUserRoleChanged {
		t.Fatal("expected role change audit entry")
	}
}

func TestChangeRoleUnknownValue(t *testing.T) {
	env := newTestEnv(t,
		&user.User{ID: "carol", Role: access.RoleSuperAdmin},
		&user.User{ID: "bob", Role: access.RoleUser},
	)
	token, _ := env.signIn(t, "carol")

	rr := env.do(t, http.MethodPatch, "/v1/users/bob/role", token, `{"role":"owner"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestBanOverHTTP(t *testing.T) {
	env := newTestEnv(t,
		&user.User{ID: "admin", Role: access.RoleAdmin},
		&user.User{ID: "mallory", Role: access.RoleUser},
	)
	token, _ := env.signIn(t, "admin")
	malloryToken, _ := env.signIn(t, "mallory")

	rr := env.do(t, http.MethodPatch, "/v1/users/mallory/ban", token, `{"banned":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	// Ban revoked mallory's sessions, so the old token no longer resolves.
	if rr := env.do(t, http.MethodGet, "/v1/sessions", malloryToken, ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after ban, got %d", rr.Code)
	}
}

func TestDeleteUserOverHTTP(t *testing.T) {
	env := newTestEnv(t,
		&user.User{ID: "root", Role: access.RoleSuperAdmin},
		&user.User{ID: "bob", Role: access.RoleUser},
	)
	token, _ := env.signIn(t, "root")

	rr := env.do(t, http.MethodDelete, "/v1/users/bob", token, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}
	if _, ok := env.users.users["bob"]; ok {
		t.Fatal("bob should be deleted")
	}
}

func TestDeleteLastSuperAdminOverHTTP(t *testing.T) {
	env := newTestEnv(t, &user.User{ID: "root", Role: access.RoleSuperAdmin})
	token, _ := env.signIn(t, "root")

	rr := env.do(t, http.MethodDelete, "/v1/users/root", token, "")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestAuditRequiresAdmin(t *testing.T) {
	env := newTestEnv(t, &user.User{ID: "alice", Role: access.RoleUser})
	token, _ := env.signIn(t, "alice")

	for _, path := range []string{"/v1/audit", "/v1/audit/stats"} {
		rr := env.do(t, http.MethodGet, path, token, "")
		if rr.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403, got %d", path, rr.Code)
		}
	}
}

func TestAuditQueryAndStats(t *testing.T) {
	env := newTestEnv(t,
		&user.User{ID: "admin", Role: access.RoleAdmin},
		&user.User{ID: "bob", Role: access.RoleUser},
	)
	token, _ := env.signIn(t, "admin")

	rr := env.do(t, http.MethodPost, "/v1/audit", token,
		`{"user_id":"bob","action":"user.login","resource_type":"user"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/v1/audit?action=user.login", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var page audit.Page
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 1 || len(page.Data) != 1 {
		t.Fatalf("expected one entry, got %d/%d", len(page.Data), page.Total)
	}

	rr = env.do(t, http.MethodGet, "/v1/audit/stats", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var stats audit.Stats
	if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Total != 1 {
		t.Fatalf("expected total 1, got %d", stats.Total)
	}
}

func TestCreateAuditUnknownAction(t *testing.T) {
	env := newTestEnv(t, &user.User{ID: "admin", Role: access.RoleAdmin})
	token, _ := env.signIn(t, "admin")

	rr := env.do(t, http.MethodPost, "/v1/audit", token,
		`{"user_id":"bob","action":"user.exploded","resource_type":"user"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, &user.User{ID: "alice", Role: access.RoleUser})
	token, _ := env.signIn(t, "alice")

	rr := env.do(t, http.MethodPut, "/v1/sessions", token, "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
	if rr.Header().Get("Allow") == "" {
		t.Fatal("expected Allow header")
	}
}

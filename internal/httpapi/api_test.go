package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sentra.dev/internal/access"
	"sentra.dev/internal/audit"
	"sentra.dev/internal/ratelimit"
	"sentra.dev/internal/session"
	"sentra.dev/internal/user"
)

// In-memory backing stores for end-to-end handler tests.

type memSessionStore struct {
	byID map[string]*session.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{byID: make(map[string]*session.Session)}
}

func (m *memSessionStore) Create(_ context.Context, s *session.Session) error {
	cp := *s
	m.byID[s.ID] = &cp
	return nil
}

func (m *memSessionStore) FindByTokenHash(_ context.Context, hash string) (*session.Session, error) {
	for _, s := range m.byID {
		if s.TokenHash == hash {
			cp := *s
			return &cp, nil
		}
	}
	return nil, session.ErrNotFound
}

func (m *memSessionStore) ListActive(_ context.Context, userID string, now time.Time) ([]*session.Session, error) {
	var out []*session.Session
	for _, s := range m.byID {
		if s.UserID == userID && s.ExpiresAt.After(now) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSessionStore) Touch(_ context.Context, id string, updatedAt, expiresAt time.Time) error {
	if s, ok := m.byID[id]; ok {
		s.UpdatedAt = updatedAt
		s.ExpiresAt = expiresAt
	}
	return nil
}

func (m *memSessionStore) DeleteOne(_ context.Context, userID, sessionID string) (int64, error) {
	if s, ok := m.byID[sessionID]; ok && s.UserID == userID {
		delete(m.byID, sessionID)
		return 1, nil
	}
	return 0, nil
}

func (m *memSessionStore) DeleteAllExcept(_ context.Context, userID, keepID string) (int64, error) {
	var n int64
	for id, s := range m.byID {
		if s.UserID == userID && id != keepID {
			delete(m.byID, id)
			n++
		}
	}
	return n, nil
}

func (m *memSessionStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, s := range m.byID {
		if !s.ExpiresAt.After(now) {
			delete(m.byID, id)
			n++
		}
	}
	return n, nil
}

type memUserStore struct {
	users map[string]*user.User
}

func newMemUserStore(users ...*user.User) *memUserStore {
	m := &memUserStore{users: make(map[string]*user.User)}
	for _, u := range users {
		cp := *u
		m.users[u.ID] = &cp
	}
	return m
}

func (m *memUserStore) Find(_ context.Context, id string) (*user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserStore) UpdateRole(_ context.Context, id string, role access.Role) error {
	if u, ok := m.users[id]; ok {
		u.Role = role
	}
	return nil
}

func (m *memUserStore) UpdateEmail(_ context.Context, id, email string) error {
	if u, ok := m.users[id]; ok {
		u.Email = email
	}
	return nil
}

func (m *memUserStore) SetBanned(_ context.Context, id string, banned bool) error {
	if u, ok := m.users[id]; ok {
		u.Banned = banned
	}
	return nil
}

func (m *memUserStore) Delete(_ context.Context, id string) error {
	delete(m.users, id)
	return nil
}

func (m *memUserStore) CountByRole(_ context.Context, role access.Role) (int64, error) {
	var n int64
	for _, u := range m.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

type memAuditStore struct {
	entries []*audit.Entry
}

func (m *memAuditStore) Append(_ context.Context, e *audit.Entry) error {
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memAuditStore) Query(_ context.Context, f audit.Filter) ([]*audit.Entry, int64, error) {
	var out []*audit.Entry
	for _, e := range m.entries {
		if f.UserID != "" && e.UserID != f.UserID {
			continue
		}
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

func (m *memAuditStore) Count(_ context.Context) (int64, error) {
	return int64(len(m.entries)), nil
}

func (m *memAuditStore) CountByAction(_ context.Context) (map[audit.Action]int64, error) {
	res := map[audit.Action]int64{}
	for _, e := range m.entries {
		res[e.Action]++
	}
	return res, nil
}

func (m *memAuditStore) CountByResource(_ context.Context) (map[audit.ResourceType]int64, error) {
	res := map[audit.ResourceType]int64{}
	for _, e := range m.entries {
		res[e.ResourceType]++
	}
	return res, nil
}

func (m *memAuditStore) DailyActivity(_ context.Context, _ time.Time) (map[string]int64, error) {
	return map[string]int64{}, nil
}

type testEnv struct {
	api      *API
	handler  http.Handler
	sessions *session.Manager
	users    *memUserStore
	auditLog *memAuditStore
}

func newTestEnv(t *testing.T, users ...*user.User) *testEnv {
	t.Helper()
	sessionStore := newMemSessionStore()
	userStore := newMemUserStore(users...)
	auditStore := &memAuditStore{}

	sessions := session.NewManager(sessionStore, session.Config{})
	recorder := audit.NewRecorder(auditStore)
	svc := user.NewService(userStore, access.NewPolicy(), sessions, recorder, nil)

	api := New(ReadyProbe{}, "test", Deps{
		Sessions: sessions,
		Users:    svc,
		Recorder: recorder,
		Limiter:  ratelimit.NewResolver(),
	})
	return &testEnv{
		api:      api,
		handler:  api.Handler(),
		sessions: sessions,
		users:    userStore,
		auditLog: auditStore,
	}
}

// signIn creates a session for the user and returns the bearer token.
func (e *testEnv) signIn(t *testing.T, userID string) (string, string) {
	t.Helper()
	res, err := e.sessions.Create(context.Background(), userID, nil, nil)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return res.Token, res.Session.ID
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.10:40000"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

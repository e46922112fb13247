package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"sentra.dev/internal/access"
	"sentra.dev/internal/session"
	"sentra.dev/internal/user"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// Principal is the authenticated caller: the resolved session plus the role
// loaded fresh for this request, so role changes take effect immediately.
type Principal struct {
	UserID    string
	Role      access.Role
	SessionID string
}

type principalKey struct{}

func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

var publicPaths = []string{
	"/healthz",
	"/readyz",
	"/metrics",
	"/v1/info",
	"/",
}

func (a *API) withAuth(next http.Handler) http.Handler {
	if a.sessions == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		sess, err := a.sessions.Resolve(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, session.ErrNotFound):
				writeError(w, r, http.StatusUnauthorized, "invalid or expired session")
			case errors.Is(err, session.ErrUnavailable):
				writeError(w, r, http.StatusServiceUnavailable, "temporarily unavailable")
			default:
				writeError(w, r, http.StatusInternalServerError, "authentication error")
			}
			return
		}

		u, err := a.users.Get(r.Context(), sess.UserID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				// Session outlived its user.
				writeError(w, r, http.StatusUnauthorized, "invalid or expired session")
				return
			}
			writeError(w, r, http.StatusServiceUnavailable, "temporarily unavailable")
			return
		}
		if u.Banned {
			writeError(w, r, http.StatusForbidden, "account is banned")
			return
		}

		p := &Principal{UserID: u.ID, Role: u.Role, SessionID: sess.ID}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
	})
}

func (p *Principal) actor() user.Actor {
	return user.Actor{ID: p.UserID, Role: p.Role}
}

// requirePrincipal is the guard inside handlers; the middleware has already
// populated the context on every non-public route.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (*Principal, bool) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return p, true
}

func requireAdmin(w http.ResponseWriter, r *http.Request) (*Principal, bool) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return nil, false
	}
	if p.Role.Rank() < access.RoleAdmin.Rank() {
		writeError(w, r, http.StatusForbidden, "insufficient permissions")
		return nil, false
	}
	return p, true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

// Package httpapi is the HTTP surface over the session, user and audit
// services. Routing is a plain ServeMux; anything dynamic in the path is
// dispatched by hand in the resource handlers.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"sentra.dev/internal/audit"
	"sentra.dev/internal/obs"
	"sentra.dev/internal/ratelimit"
	"sentra.dev/internal/session"
	"sentra.dev/internal/user"
)

// ReadyProbe pings the backing store for /readyz.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	sessions *session.Manager
	users    *user.Service
	recorder *audit.Recorder
	limiter  *ratelimit.Resolver
	maxBody  int64
}

type Deps struct {
	Sessions *session.Manager
	Users    *user.Service
	Recorder *audit.Recorder
	Limiter  *ratelimit.Resolver
	// MaxBodyBytes caps request bodies; zero means 1 MiB.
	MaxBodyBytes int64
}

func New(rp ReadyProbe, version string, deps Deps) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		sessions:   deps.Sessions,
		users:      deps.Users,
		recorder:   deps.Recorder,
		limiter:    deps.Limiter,
		maxBody:    deps.MaxBodyBytes,
	}
	if a.maxBody <= 0 {
		a.maxBody = 1 << 20
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// session lifecycle
	a.mux.HandleFunc("/v1/sessions", a.handleSessionsCollection)
	a.mux.HandleFunc("/v1/sessions/", a.handleSessionResource)

	// privileged user mutations
	a.mux.HandleFunc("/v1/users/", a.handleUserResource)

	// audit trail
	a.mux.HandleFunc("/v1/audit", a.handleAuditCollection)
	a.mux.HandleFunc("/v1/audit/stats", a.handleAuditStats)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler assembles the middleware chain around the mux. Authentication runs
// before rate limiting so authenticated callers are throttled per user, not
// per IP.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = obs.Instrument(h)
	h = a.rateLimit(h)
	h = a.withAuth(h)
	h = MaxBodyBytes(h, a.maxBody)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return h
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sentra.dev/internal/access"
	"sentra.dev/internal/audit"
	"sentra.dev/internal/config"
	"sentra.dev/internal/httpapi"
	"sentra.dev/internal/obs"
	"sentra.dev/internal/ratelimit"
	"sentra.dev/internal/session"
	"sentra.dev/internal/store/pg"
	"sentra.dev/internal/user"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	var (
		store *pg.Store
		deps  httpapi.Deps
		probe httpapi.ReadyProbe
	)
	if cfg.DatabaseURL != "" {
		store, err = pg.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer store.Close()
		probe = httpapi.ReadyProbe{DB: store.DB()}

		sessions := session.NewManager(store, session.Config{MaxAge: cfg.SessionTTL()})
		recorder := audit.NewRecorder(store)
		users := user.NewService(store, access.NewPolicy(), sessions, recorder, obs.Logger())

		deps = httpapi.Deps{
			Sessions:     sessions,
			Users:        users,
			Recorder:     recorder,
			Limiter:      ratelimit.NewResolver(),
			MaxBodyBytes: cfg.MaxBodyBytes,
		}

		go purgeLoop(sessions, cfg.PurgeInterval())
	}

	api := httpapi.New(probe, version, deps)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting sentra-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}

// purgeLoop sweeps expired session rows. Expired sessions are invisible to
// reads either way; this just keeps the table from growing without bound.
func purgeLoop(sessions *session.Manager, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := sessions.PurgeExpired(ctx)
		cancel()
		if err != nil {
			log.Printf("purge sessions: %v", err)
			continue
		}
		if n > 0 {
			log.Printf("purged %d expired sessions", n)
		}
	}
}

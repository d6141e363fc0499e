// Package web exposes the store and grid engine over HTTP for the browser
// UI. It is thin glue: every operation resolves synchronously from the
// store; the handlers translate between JSON and the core packages.
package web

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"sync"
	"time"

	"sharedcal/internal/config"
	"sharedcal/internal/event"
	"sharedcal/internal/grid"
	appLog "sharedcal/internal/log"
	"sharedcal/internal/store"
)

// Server provides HTTP APIs for events, settings, layout and data transfer.
type Server struct {
	cfg     *config.Config
	store   *store.Store
	engine  *grid.Engine
	factory *event.Factory
	mux     *http.ServeMux

	// In-memory cache for /api/grid responses so repeated renders of the
	// same month skip re-layout. Invalidated by any local write and by
	// cross-context change notifications.
	gridMu    sync.RWMutex
	gridCache *gridCache
}

// gridCache holds one cached layout keyed by its query shape.
type gridCache struct {
	key       string
	layout    grid.Month
	updatedAt time.Time
}

const gridCacheTTL = 30 * time.Second

// NewServer constructs a Server and registers its routes. The store's
// change notifications invalidate the layout cache, so another process
// editing the same data directory is reflected on the next render.
func NewServer(cfg *config.Config, st *store.Store) *Server {
	s := &Server{
		cfg:     cfg,
		store:   st,
		engine:  grid.NewEngine(),
		factory: event.NewFactory(),
		mux:     http.NewServeMux(),
	}
	st.OnChange(func(kind store.ChangeKind) {
		appLog.Info("external change, invalidating layout cache", "kind", string(kind))
		s.invalidateGrid()
	})
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password is treated as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays reachable without credentials.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="SharedCal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer runs the HTTP server until ctx is canceled, then shuts it
// down gracefully.
func StartServer(ctx context.Context, cfg *config.Config, st *store.Store) error {
	s := NewServer(cfg, st)
	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/events", s.handleListEvents)
	s.mux.HandleFunc("POST /api/events", s.handleCreateEvent)
	s.mux.HandleFunc("GET /api/events/{id}", s.handleGetEvent)
	s.mux.HandleFunc("PUT /api/events/{id}", s.handleUpdateEvent)
	s.mux.HandleFunc("DELETE /api/events/{id}", s.handleDeleteEvent)

	s.mux.HandleFunc("GET /api/grid", s.handleGrid)

	s.mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	s.mux.HandleFunc("PUT /api/settings", s.handlePutSettings)

	s.mux.HandleFunc("GET /api/export", s.handleExport)
	s.mux.HandleFunc("POST /api/import", s.handleImport)
	s.mux.HandleFunc("GET /export.ics", s.handleExportICS)

	s.mux.HandleFunc("GET /api/backups", s.handleListBackups)
	s.mux.HandleFunc("POST /api/backups", s.handleCreateBackup)
	s.mux.HandleFunc("POST /api/backups/{id}/restore", s.handleRestoreBackup)

	s.mux.HandleFunc("GET /api/sync-queue", s.handleSyncQueue)
	s.mux.HandleFunc("DELETE /api/sync-queue", s.handleClearSyncQueue)

	s.mux.HandleFunc("GET /api/search", s.handleSearch)
	s.mux.HandleFunc("GET /api/statistics", s.handleStatistics)
	s.mux.HandleFunc("GET /api/suggest", s.handleSuggest)
	s.mux.HandleFunc("GET /api/templates", s.handleTemplates)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) invalidateGrid() {
	s.gridMu.Lock()
	s.gridCache = nil
	s.gridMu.Unlock()
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

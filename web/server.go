// Package web serves a read-only JSON API over the snapshot store: stored
// dates, per-date snapshots, pairwise comparisons and period rollups. It
// exposes the same data contract the report pipeline consumes; nothing
// here writes to the store.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"f0oster/zbxspy/store"
)

// Server handles HTTP requests for the inspection API.
type Server struct {
	store store.Store
	mux   *http.ServeMux
	srv   *http.Server
	log   *slog.Logger
	now   func() time.Time
}

// NewServer builds a server bound to addr, reading from st.
func NewServer(st store.Store, addr string, log *slog.Logger) *Server {
	s := &Server{
		store: st,
		mux:   http.NewServeMux(),
		log:   log,
		now:   time.Now,
	}
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/dates", s.handleDates)
	s.mux.HandleFunc("GET /api/dates/{date}/hosts", s.handleHostsByDate)
	s.mux.HandleFunc("GET /api/compare", s.handleCompare)
	s.mux.HandleFunc("GET /api/period/{days}", s.handlePeriod)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// Start begins listening for HTTP requests and blocks until the server
// stops.
func (s *Server) Start() error {
	s.log.Info("starting web server", "addr", s.srv.Addr)
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler returns the HTTP handler for use with custom servers and tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

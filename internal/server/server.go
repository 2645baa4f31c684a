// Package server runs roster's optional ops listener: Prometheus metrics, a
// health check and a read-only view of the published roster.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/five82/roster/internal/directory"
	"github.com/five82/roster/internal/metrics"
	"github.com/five82/roster/internal/state"
)

// SnapshotSource yields the currently published roster.
type SnapshotSource interface {
	Snapshot() state.Snapshot
}

// Options configure the listener.
type Options struct {
	Addr    string
	Source  SnapshotSource
	Metrics *metrics.Collector
	Logger  logrus.FieldLogger
	// Reload, when set, is exposed as POST /reload.
	Reload  func()
	Version string
}

// Server is the ops HTTP listener.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	source     SnapshotSource
	metrics    *metrics.Collector
	logger     logrus.FieldLogger
	reload     func()
	version    string
	started    time.Time
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Loading   bool      `json:"loading"`
	Users     int       `json:"users"`
	Snapshot  uint64    `json:"snapshot_version"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
	Uptime    string    `json:"uptime"`
}

// New builds the server and its routes. The listener is not opened until
// Start.
func New(opts Options) (*Server, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("server requires a snapshot source")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		source:  opts.Source,
		metrics: opts.Metrics,
		logger:  logger.WithField("component", "server"),
		reload:  opts.Reload,
		version: opts.Version,
		started: time.Now(),
	}

	router := mux.NewRouter()
	s.registerRoutes(router)

	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) registerRoutes(router *mux.Router) {
	router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/users", s.handleUsers).Methods(http.MethodGet)
	router.HandleFunc("/users/{id:[0-9]+}", s.handleUser).Methods(http.MethodGet)
	if s.reload != nil {
		router.HandleFunc("/reload", s.handleReload).Methods(http.MethodPost)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start opens the listener and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	s.listener = ln
	s.logger.WithField("addr", ln.Addr().String()).Info("ops listener started")

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("ops listener stopped")
		}
	}()
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.httpServer.Addr
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown ops listener: %w", err)
	}
	s.logger.Info("ops listener stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	snap := s.source.Snapshot()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Version:   s.version,
		Loading:   snap.Loading(),
		Users:     len(snap.Users),
		Snapshot:  snap.Version,
		UpdatedAt: snap.UpdatedAt,
		Uptime:    time.Since(s.started).Truncate(time.Second).String(),
	})
}

func (s *Server) handleUsers(w http.ResponseWriter, _ *http.Request) {
	users := s.source.Snapshot().Users
	if users == nil {
		users = []directory.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	user, ok := s.source.Snapshot().Find(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleReload(w http.ResponseWriter, _ *http.Request) {
	s.reload()
	s.logger.Info("reload requested")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "reload started"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

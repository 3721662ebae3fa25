// ABOUTME: REST API server exposing users and their aggregated attributes.
// ABOUTME: Routes with gorilla/mux, instruments with Prometheus and shuts down gracefully.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/harperreed/exist/internal/aggregate"
	"github.com/harperreed/exist/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// Server serves the exist REST API.
type Server struct {
	repo    storage.Repository
	logger  *log.Logger
	metrics *Metrics
	router  *mux.Router
}

// NewServer builds a server over repo with its routes registered.
func NewServer(repo storage.Repository, logger *log.Logger) *Server {
	s := &Server{
		repo:    repo,
		logger:  logger,
		metrics: NewMetrics(),
		router:  mux.NewRouter(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Use(s.metrics.Middleware, s.logRequests)

	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	s.router.HandleFunc("/users", s.handleListUsers).Methods(http.MethodGet)
	s.router.HandleFunc("/users/", s.handleListUsers).Methods(http.MethodGet)
	s.router.HandleFunc("/users/{username}", s.handleGetUser).Methods(http.MethodGet)
	s.router.HandleFunc("/users/{username}/", s.handleGetUser).Methods(http.MethodGet)
	s.router.HandleFunc("/users/{username}/attributes", s.handleAttributes).Methods(http.MethodGet)
	s.router.HandleFunc("/users/{username}/score", s.handleScore).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

type userResponse struct {
	Username string `json:"username"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.repo.ListUsers()
	if err != nil {
		s.fail(w, err)
		return
	}
	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, userResponse{Username: u.Username})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.repo.GetUser(mux.Vars(r)["username"])
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{Username: u.Username})
}

func (s *Server) handleAttributes(w http.ResponseWriter, r *http.Request) {
	_, agg, err := storage.LoadDashboard(s.repo, mux.Vars(r)["username"])
	if err != nil {
		s.fail(w, err)
		return
	}
	includeInactive := r.URL.Query().Get("all") == "1"
	writeJSON(w, http.StatusOK, agg.ByGroup(includeInactive))
}

type scoreResponse struct {
	Score      float64                   `json:"score"`
	Attributes []aggregate.AttributeView `json:"attributes"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	_, agg, err := storage.LoadDashboard(s.repo, mux.Vars(r)["username"])
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{
		Score:      agg.Score(),
		Attributes: aggregate.Views(agg.PublicHighPriority()),
	})
}

// fail maps storage errors to status codes.
func (s *Server) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.logger.Error("request failed", "err", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

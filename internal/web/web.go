package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jdhoffa/lookout-g/internal/config"
	appLog "github.com/jdhoffa/lookout-g/internal/log"
	"github.com/jdhoffa/lookout-g/internal/model"
	"github.com/jdhoffa/lookout-g/internal/pipeline"
)

// RefreshFunc runs one cycle on demand.
type RefreshFunc func(ctx context.Context) (*pipeline.Report, error)

// Server exposes the last normalized sequence, health and metrics while
// lookout runs in watch mode.
type Server struct {
	basicAuth *config.BasicAuthConfig
	refresh   RefreshFunc
	mux       *http.ServeMux

	mu      sync.RWMutex
	last    *pipeline.Report
	lastErr error
}

// NewServer constructs a Server. refresh may be nil, which disables
// POST /api/refresh.
func NewServer(basicAuth *config.BasicAuthConfig, refresh RefreshFunc) *Server {
	s := &Server{
		basicAuth: basicAuth,
		refresh:   refresh,
		mux:       http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	if s.basicAuthEnabled() {
		return s.basicAuthMiddleware(s.mux)
	}
	return s.mux
}

// Record stores the outcome of a cycle for /api/events.
func (s *Server) Record(rep *pipeline.Report, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rep != nil && rep.Result != nil {
		s.last = rep
	}
	s.lastErr = err
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+addr, "basic_auth", s.basicAuthEnabled())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) basicAuthEnabled() bool {
	return s.basicAuth != nil && s.basicAuth.Username != "" && s.basicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.basicAuth.Username
	password := s.basicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="lookout", charset="UTF-8"`)
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

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// eventsResponse is the JSON shape of /api/events.
type eventsResponse struct {
	Events      []model.Event `json:"events"`
	Diagnostics []string      `json:"diagnostics,omitempty"`
	Past        int           `json:"past"`
	FromCache   bool          `json:"from_cache"`
	UpdatedAt   time.Time     `json:"updated_at"`
	LastError   string        `json:"last_error,omitempty"`
}

// handleEvents returns the sequence from the last successful cycle.
func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	last, lastErr := s.last, s.lastErr
	s.mu.RUnlock()

	if last == nil {
		msg := "no completed refresh yet"
		if lastErr != nil {
			msg = lastErr.Error()
		}
		writeError(w, http.StatusServiceUnavailable, msg)
		return
	}

	resp := eventsResponse{
		Events:    last.Result.Events,
		Past:      last.Result.Past,
		FromCache: last.FromCache,
		UpdatedAt: last.StartedAt,
	}
	for _, d := range last.Result.Diagnostics {
		resp.Diagnostics = append(resp.Diagnostics, d.String())
	}
	if lastErr != nil {
		resp.LastError = lastErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresh == nil {
		writeError(w, http.StatusNotImplemented, "refresh not available")
		return
	}
	rep, err := s.refresh(r.Context())
	s.Record(rep, err)
	if err != nil {
		appLog.Error("api refresh failed", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.handleEvents(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

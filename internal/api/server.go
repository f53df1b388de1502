// Package api exposes the scraping service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rroethle7474/timehealer-api/internal/cache"
	"github.com/rroethle7474/timehealer-api/internal/config"
	"github.com/rroethle7474/timehealer-api/internal/monitoring"
	"github.com/rroethle7474/timehealer-api/internal/session"
	"github.com/rroethle7474/timehealer-api/pkg/types"
)

// Searcher runs one scraping operation and reports results plus per-query
// error messages.
type Searcher interface {
	PerformOperation(ctx context.Context, op types.OperationType, targetURL string, queries []string, isDefault bool) (types.ResultSet, []string)
}

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Success bool        `json:"Success"`
	Message string      `json:"Message"`
	Data    interface{} `json:"Data"`
	Errors  []string    `json:"Errors"`
}

// SearchRequest is the body accepted by the search and channel endpoints.
type SearchRequest struct {
	URL           string   `json:"url"`
	IsDefault     bool     `json:"isDefault"`
	SearchQueries []string `json:"search_queries"`
}

type Server struct {
	svc      Searcher
	cache    *cache.ResultCache
	monitor  *monitoring.Monitor
	sessions *session.Manager
	cfg      *config.Config
	logger   *logrus.Logger

	ready   atomic.Bool
	httpSrv *http.Server
}

func NewServer(cfg *config.Config, svc Searcher, resultCache *cache.ResultCache, monitor *monitoring.Monitor, sessions *session.Manager, logger *logrus.Logger) *Server {
	s := &Server{
		svc:      svc,
		cache:    resultCache,
		monitor:  monitor,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/SearchResults", s.handleSearch)
	mux.HandleFunc("/ChannelResults", s.handleChannel)
	mux.HandleFunc("/ResetSearchCache", s.handleResetCache)

	s.httpSrv = &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: s.corsMiddleware(s.recoverMiddleware(s.readinessMiddleware(mux))),
	}
	return s
}

// SetReady flips the readiness gate. Until it is set, every endpoint except
// health answers 503 so the platform's warm-up probes don't trigger scrapes.
func (s *Server) SetReady() { s.ready.Store(true) }

func (s *Server) Start() error {
	s.logger.Infof("Server listening on port %s", s.cfg.Server.Port)
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Errorf("Panic serving %s: %v", r.URL.Path, rec)
				writeJSON(w, http.StatusInternalServerError, APIResponse{
					Success: false,
					Message: "Internal server error",
					Errors:  []string{fmt.Sprint(rec)},
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) readinessMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() && r.URL.Path != "/health" {
			writeJSON(w, http.StatusServiceUnavailable, APIResponse{
				Success: false,
				Message: "Service is starting up",
				Errors:  []string{"service not ready"},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, APIResponse{
			Success: false,
			Message: "Not found",
			Errors:  []string{"unknown endpoint: " + r.URL.Path},
		})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "TimeHealer API is running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	env := "local"
	if s.cfg.Hosted {
		env = "hosted"
	}
	data := map[string]interface{}{
		"status":          "ok",
		"time":            time.Now().UTC().Format(time.RFC3339),
		"ready":           s.ready.Load(),
		"environment":     env,
		"active_sessions": s.sessions.ActiveCount(),
		"cache":           s.cache.Stats(),
		"metrics":         s.monitor.HealthStatus(),
	}
	if s.cfg.Hosted {
		data["chrome_version"] = chromeVersion()
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "Healthy",
		Data:    data,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.handleOperation(w, r, types.OperationSearch)
}

func (s *Server) handleChannel(w http.ResponseWriter, r *http.Request) {
	s.handleOperation(w, r, types.OperationChannel)
}

func (s *Server) handleOperation(w http.ResponseWriter, r *http.Request, op types.OperationType) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, APIResponse{
			Success: false,
			Message: "Method not allowed",
			Errors:  []string{"use POST"},
		})
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid request body",
			Errors:  []string{err.Error()},
		})
		return
	}
	if len(req.SearchQueries) == 0 {
		writeJSON(w, http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "No search queries provided",
			Errors:  []string{"search_queries must contain at least one query"},
		})
		return
	}

	s.logger.Infof("Handling %s operation with %d queries", op, len(req.SearchQueries))
	results, errs := s.svc.PerformOperation(r.Context(), op, req.URL, req.SearchQueries, req.IsDefault)

	msg := "Search completed"
	if op == types.OperationChannel {
		msg = "Channel search completed"
	}
	if len(errs) > 0 {
		msg += " with errors"
	}

	// Total failure reports Data as null, not an empty object.
	var data interface{}
	if len(results) > 0 {
		data = results
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: len(results) > 0,
		Message: msg,
		Data:    data,
		Errors:  errs,
	})
}

func (s *Server) handleResetCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, APIResponse{
			Success: false,
			Message: "Method not allowed",
			Errors:  []string{"use POST"},
		})
		return
	}
	s.cache.Clear()
	s.logger.Info("Search cache cleared")
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "Cache has been reset",
	})
}

func writeJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func chromeVersion() string {
	for _, bin := range []string{"google-chrome", "chromium-browser", "chromium"} {
		if out, err := exec.Command(bin, "--version").Output(); err == nil {
			return strings.TrimSpace(string(out))
		}
	}
	return "unknown"
}

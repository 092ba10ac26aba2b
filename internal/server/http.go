// Package server exposes the question-answering pipeline over HTTP. The
// host surface is a command-style boundary: one free-text query per call
// plus an explicit reset, routed per end-user.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// QueryService is the pipeline boundary the server drives.
type QueryService interface {
	Ask(ctx context.Context, userID, query string) (string, error)
	Reset(ctx context.Context, userID string) (bool, error)
}

// HTTPServer serves the ask/reset API.
type HTTPServer struct {
	server  *http.Server
	router  *chi.Mux
	logger  *slog.Logger
	service QueryService
}

// HTTPServerConfig holds configuration for the HTTP server.
type HTTPServerConfig struct {
	Port           int
	Logger         *slog.Logger
	AllowedOrigins []string // CORS allowed origins
	APIKey         string   // shared key for X-API-Key auth; empty disables
}

// NewHTTPServer creates the HTTP server and mounts all routes.
func NewHTTPServer(cfg HTTPServerConfig, service QueryService) *HTTPServer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &HTTPServer{
		logger:  logger,
		service: service,
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLoggingMiddleware(logger))
	router.Use(middleware.Recoverer)
	router.Use(corsMiddleware(cfg.AllowedOrigins))
	router.Use(apiKeyMiddleware(cfg.APIKey))

	router.Get("/healthz", healthCheckHandler())
	router.Post("/v1/ask", s.handleAsk)
	router.Post("/v1/reset", s.handleReset)

	s.router = router
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // LLM answer calls can run long
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Start starts the HTTP server. Each request runs on its own goroutine, so
// one user's in-flight LLM call never stalls another user's query.
func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", "address", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

type askRequest struct {
	User  string `json:"user"`
	Query string `json:"query"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

type resetRequest struct {
	User string `json:"user"`
}

type resetResponse struct {
	Reset   bool   `json:"reset"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *HTTPServer) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.User == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "user is required"})
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query is required"})
		return
	}

	answer, err := s.service.Ask(r.Context(), req.User, req.Query)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, askResponse{Answer: answer})
}

func (s *HTTPServer) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.User == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "user is required"})
		return
	}

	reset, err := s.service.Reset(r.Context(), req.User)
	if err != nil {
		s.logger.Warn("session reset failed", "user", req.User, "error", err)
		writeJSON(w, http.StatusOK, resetResponse{
			Reset:   true,
			Message: "Conversation history cleared, but starting a fresh chat failed. It will be retried on your next question.",
		})
		return
	}

	msg := "Your conversation history has been reset."
	if !reset {
		msg = "You don't have an active conversation to reset."
	}
	writeJSON(w, http.StatusOK, resetResponse{Reset: reset, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// requestLoggingMiddleware logs HTTP requests.
func requestLoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status code
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote_addr", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// corsMiddleware handles CORS headers.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			if len(allowedOrigins) == 0 {
				// If no origins specified, allow all in development
				allowed = true
				origin = "*"
			} else {
				for _, o := range allowedOrigins {
					if o == "*" || o == origin {
						allowed = true
						break
					}
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID, X-API-Key")
				w.Header().Set("Access-Control-Max-Age", "86400")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// healthCheckHandler returns a handler for the /healthz endpoint.
func healthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}

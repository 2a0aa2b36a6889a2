package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aretw0/vibecam"
	"github.com/aretw0/vibecam/pkg/domain"
	"github.com/aretw0/vibecam/pkg/runner"
	"github.com/aretw0/vibecam/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Server exposes a vibecam.Engine over HTTP.
type Server struct {
	Engine   *vibecam.Engine
	Sessions *session.Manager
	Streams  *StreamManager

	metrics   http.Handler
	sanitizer *runner.Sanitizer
	logger    *slog.Logger
	pongWait  time.Duration
}

// Option configures the Server.
type Option func(*Server)

// WithSessions enables session_id on requests and the /api/sessions routes.
func WithSessions(m *session.Manager) Option {
	return func(s *Server) {
		s.Sessions = m
	}
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithSanitizer sets the message sanitizer, e.g. to apply a configured size limit.
func WithSanitizer(san *runner.Sanitizer) Option {
	return func(s *Server) {
		s.sanitizer = san
	}
}

// WithLogger replaces the default JSON logger on stderr.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine *vibecam.Engine, opts ...Option) http.Handler {
	server := &Server{Engine: engine}
	for _, opt := range opts {
		opt(server)
	}
	if server.logger == nil {
		server.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	server.Streams = NewStreamManager(server.logger)

	return enableCORS(server.Routes())
}

// Routes builds the chi router without the CORS wrapper.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/init", s.Init)
		r.Post("/chat", s.Chat)
		r.Post("/generate", s.Generate)
		r.Get("/cameras", s.ListCameras)
		r.Get("/ws", s.ChatSocket)
		r.Get("/sessions", s.ListSessions)
		r.Get("/sessions/{id}", s.GetSession)
		r.Delete("/sessions/{id}", s.DeleteSession)
	})
	r.Get("/events", s.SubscribeEvents)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/metrics", s.GetMetrics)

	// Swagger UI
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		spec, err := rawSpec()
		if err != nil {
			http.Error(w, "Failed to load spec", http.StatusInternalServerError)
			s.logger.Error("Failed to load OpenAPI spec", "err", err)
			return
		}
		w.Write(spec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Vibe Cam API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// InitRequest optionally names the session to (re)start.
type InitRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// InitResponse carries the fresh document.
type InitResponse struct {
	SessionID string         `json:"session_id,omitempty"`
	Schema    *domain.Object `json:"schema"`
}

// ChatBody is the body of POST /api/chat and of every WebSocket frame.
type ChatBody struct {
	SessionID string `json:"session_id,omitempty"`
	vibecam.ChatRequest
}

// ChatResult adds the session id to the engine's response.
type ChatResult struct {
	SessionID string `json:"session_id,omitempty"`
	*vibecam.ChatResponse
}

// GenerateBody is the body of POST /api/generate.
type GenerateBody struct {
	SessionID string `json:"session_id,omitempty"`
	vibecam.GenerateRequest
}

// Init handles the POST /api/init request.
// With sessions enabled it also starts (or resets) a stored session.
func (s *Server) Init(w http.ResponseWriter, r *http.Request) {
	var body InitRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			s.logger.Warn("Init: Invalid request body", "err", err)
			return
		}
	}

	resp := InitResponse{Schema: s.Engine.Init()}
	if s.Sessions != nil {
		if body.SessionID == "" {
			body.SessionID = uuid.NewString()
		}
		before, after, err := s.Sessions.Update(r.Context(), body.SessionID, func(sess *domain.Session) error {
			sess.Document = resp.Schema.Clone()
			sess.Status = domain.StatusCollecting
			return nil
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("Init error: %v", err))
			s.logger.Error("Init failed", "err", err)
			return
		}
		s.Streams.Publish(before, after)
		resp.SessionID = body.SessionID
	}

	writeJSON(w, s.logger, resp)
}

// Chat handles the POST /api/chat request.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var body ChatBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		s.logger.Warn("Chat: Invalid request body", "err", err)
		return
	}

	result, err := s.chat(r.Context(), body)
	if err != nil {
		status := statusFor(err)
		writeError(w, status, err.Error())
		if status >= http.StatusInternalServerError {
			s.logger.Error("Chat failed", "err", err)
		} else {
			s.logger.Warn("Chat: Input rejected", "err", err, "size", len(body.Message))
		}
		return
	}
	writeJSON(w, s.logger, result)
}

// chat runs a turn, through the session when one is named and no document is supplied.
func (s *Server) chat(ctx context.Context, body ChatBody) (*ChatResult, error) {
	clean, err := s.sanitizer.Clean(body.Message)
	if err != nil {
		return nil, err
	}
	body.Message = clean

	if s.Sessions == nil || body.SessionID == "" {
		resp, err := s.Engine.Chat(ctx, body.ChatRequest)
		if err != nil {
			return nil, err
		}
		return &ChatResult{SessionID: body.SessionID, ChatResponse: resp}, nil
	}

	var resp *vibecam.ChatResponse
	before, after, err := s.Sessions.Update(ctx, body.SessionID, func(sess *domain.Session) error {
		req := body.ChatRequest
		if req.Schema == nil {
			req.Schema = sess.Document
		}
		var err error
		resp, err = s.Engine.Chat(ctx, req)
		if err != nil {
			return err
		}
		sess.Document = resp.Schema
		sess.Status = resp.Status
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Streams.Publish(before, after)
	return &ChatResult{SessionID: body.SessionID, ChatResponse: resp}, nil
}

// Generate handles the POST /api/generate request.
func (s *Server) Generate(w http.ResponseWriter, r *http.Request) {
	var body GenerateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		s.logger.Warn("Generate: Invalid request body", "err", err)
		return
	}

	if body.Schema == nil && body.SessionID != "" && s.Sessions != nil {
		sess, err := s.Sessions.Load(r.Context(), body.SessionID)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		body.Schema = sess.Document
	}

	resp, err := s.Engine.Generate(r.Context(), body.GenerateRequest)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		writeError(w, status, fmt.Sprintf("Generate error: %v", err))
		s.logger.Error("Generate failed", "err", err)
		return
	}
	writeJSON(w, s.logger, resp)
}

// ListCameras handles the GET /api/cameras request.
func (s *Server) ListCameras(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, s.Engine.Catalog())
}

// ListSessions handles the GET /api/sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	if s.Sessions == nil {
		writeError(w, http.StatusNotImplemented, "Sessions are not enabled")
		return
	}
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("List error: %v", err))
		s.logger.Error("List sessions failed", "err", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, s.logger, ids)
}

// GetSession handles the GET /api/sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	if s.Sessions == nil {
		writeError(w, http.StatusNotImplemented, "Sessions are not enabled")
		return
	}
	sess, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, s.logger, sess)
}

// DeleteSession handles the DELETE /api/sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if s.Sessions == nil {
		writeError(w, http.StatusNotImplemented, "Sessions are not enabled")
		return
	}
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	writeJSON(w, s.logger, map[string]string{
		"app":         "vibecam-http",
		"version":     strings.TrimSpace(vibecam.Version),
		"api_version": apiVersion,
	})
}

// GetMetrics handles the GET /metrics request.
func (s *Server) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		http.NotFound(w, r)
		return
	}
	s.metrics.ServeHTTP(w, r)
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to Session Updates", "session_id", sessionID)
	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		watchList = strings.Split(watch, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !matchesWatch(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// -- Helpers --

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrMissingSchema),
		errors.Is(err, runner.ErrInputTooLarge),
		errors.Is(err, runner.ErrInvalidUTF8):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

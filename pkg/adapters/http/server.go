// Package http exposes the wizard catalog and live sessions over HTTP.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aretw0/homecare/internal/logging"
	"github.com/aretw0/homecare/pkg/flows"
	"github.com/aretw0/homecare/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Opener builds a live flow; flows.Open is the default.
type Opener func(ctx context.Context, name string, deps flows.Deps) (flows.Flow, error)

// Config wires the server.
type Config struct {
	Sessions *session.Manager
	// Deps is the template every new session starts from.
	Deps     flows.Deps
	Open     Opener
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
	Version  string
}

// Server serves the REST surface over a session manager.
type Server struct {
	sessions *session.Manager
	deps     flows.Deps
	open     Opener
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	version  string
	Streams  *StreamManager
}

// NewServer fills defaults and returns a server ready to mount.
func NewServer(cfg Config) *Server {
	s := &Server{
		sessions: cfg.Sessions,
		deps:     cfg.Deps,
		open:     cfg.Open,
		gatherer: cfg.Gatherer,
		logger:   cfg.Logger,
		version:  cfg.Version,
		Streams:  NewStreamManager(),
	}
	if s.sessions == nil {
		s.sessions = session.NewManager()
	}
	if s.open == nil {
		s.open = flows.Open
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.version == "" {
		s.version = "dev"
	}
	s.Streams.logger = s.logger
	return s
}

// NewHandler creates a new HTTP handler for cfg.
func NewHandler(cfg Config) http.Handler {
	return NewServer(cfg).Handler()
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/flows", func(r chi.Router) {
		r.Get("/", s.ListFlows)
		r.Get("/{flow}", s.GetFlow)
		r.Post("/{flow}/sessions", s.CreateSession)
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Get("/events", s.SubscribeEvents)
			r.Put("/answers/{key}", s.SetAnswer)
			r.Post("/files/{key}", s.UploadFiles)
			r.Delete("/files/{key}/{index}", s.RemoveFile)
			r.Post("/next", s.Next)
			r.Post("/back", s.Back)
			r.Post("/reset", s.Reset)
			r.Post("/actions/{action}", s.Action)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":     "homecare-http",
		"version": s.version,
		"flows":   flows.Names(),
	})
}

type flowSummary struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Steps int    `json:"steps"`
}

// ListFlows handles GET /flows.
func (s *Server) ListFlows(w http.ResponseWriter, r *http.Request) {
	out := make([]flowSummary, 0, len(flows.Names()))
	for _, name := range flows.Names() {
		def, err := flows.Definition(name)
		if err != nil {
			s.writeError(w, err)
			return
		}
		out = append(out, flowSummary{Name: def.Name, Title: def.Title, Steps: len(def.Steps)})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// GetFlow handles GET /flows/{flow}.
func (s *Server) GetFlow(w http.ResponseWriter, r *http.Request) {
	def, err := flows.Definition(chi.URLParam(r, "flow"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, def)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "error", err)
	}
}

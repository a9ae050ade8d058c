package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docscope/internal/config"
	"github.com/dgallion1/docscope/internal/pipeline"
	"github.com/dgallion1/docscope/internal/query"
	"github.com/dgallion1/docscope/internal/stats"
	"github.com/dgallion1/docscope/internal/store"
)

// Server is the HTTP API server for docscope.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	store        store.Store
	engine       *query.Engine
	latency      map[string]*stats.Latency
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. latency maps a
// component name ("classifier", "encoder") to its recorder; entries may be
// nil.
func NewServer(orch *pipeline.Orchestrator, engine *query.Engine, latency map[string]*stats.Latency, log *slog.Logger, cfg config.Config) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		orchestrator: orch,
		store:        orch.Store(),
		engine:       engine,
		latency:      latency,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Post("/api/ingest/batch", s.handleBatchIngest)

		r.Get("/api/documents", s.handleListDocuments)
		r.Delete("/api/documents/{name}", s.handleDeleteDocument)
		r.Get("/api/documents/{name}/outline", s.handleOutline)
		r.Get("/api/documents/{name}/sections", s.handleSections)
		r.Get("/api/documents/{name}/headings", s.handleHeadings)

		r.Post("/api/persona-query", s.handlePersonaQuery)
		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"newspulse/internal/ports"
	"newspulse/internal/usecase"
)

// Server exposes the ingestion trigger and the read-only article API.
type Server struct {
	store             ports.ArticleStore
	ingestor          *usecase.Ingestor
	summarizerEnabled bool
	ingestSecret      string
	logger            *slog.Logger
}

// Deps carries everything the HTTP layer needs.
type Deps struct {
	Store             ports.ArticleStore
	Ingestor          *usecase.Ingestor
	SummarizerEnabled bool
	IngestSecret      string
	Logger            *slog.Logger
}

// New builds the server; a nil store disables the query endpoints with a
// "not configured" response instead of failing startup.
func New(deps Deps) *Server {
	return &Server{
		store:             deps.Store,
		ingestor:          deps.Ingestor,
		summarizerEnabled: deps.SummarizerEnabled,
		ingestSecret:      deps.IngestSecret,
		logger:            deps.Logger,
	}
}

// Routes assembles the chi router with standard middleware.
func (s *Server) Routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(middleware.Recoverer)
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Logger)

	mux.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthcheck", s.healthcheckHandler)
		r.Get("/status", s.statusHandler)
		r.Get("/articles", s.articlesHandler)
		r.Get("/search", s.searchHandler)
		r.Post("/ingest", s.ingestHandler)
	})

	return mux
}

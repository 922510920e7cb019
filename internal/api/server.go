// Package api exposes the chat assistant, the extraction tool and async
// extraction runs over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/profilex/internal/chat"
	"github.com/dgallion1/profilex/internal/config"
	"github.com/dgallion1/profilex/internal/llm"
	"github.com/dgallion1/profilex/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const maxBodyBytes = 1 << 20

// Server is the HTTP API server for profilex.
type Server struct {
	router chi.Router
	chat   *chat.Service
	tools  *chat.Executor
	jobs   *pipeline.JobManager
	stats  *llm.CallStats
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(cfg config.Config, chatSvc *chat.Service, tools *chat.Executor, jobs *pipeline.JobManager, stats *llm.CallStats, log *slog.Logger) *Server {
	s := &Server{
		chat:  chatSvc,
		tools: tools,
		jobs:  jobs,
		stats: stats,
		log:   log,
		cfg:   cfg,
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
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/chat", s.handleChat)
		r.Post("/api/tools/"+chat.ToolName, s.handleTool)

		r.Post("/api/runs", s.handleSubmitRun)
		r.Get("/api/runs/{jobID}", s.handleRunStatus)
		r.Post("/api/runs/{jobID}/challenge", s.handleResolveChallenge)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "healthy",
		"provider":           s.cfg.ModelProvider,
		"model":              s.cfg.ModelName(),
		"api_key_configured": s.cfg.ModelAPIKey() != "",
	})
}

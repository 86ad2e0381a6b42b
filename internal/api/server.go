package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dgallion1/studyplan/internal/config"
	"github.com/dgallion1/studyplan/internal/parser"
	"github.com/dgallion1/studyplan/internal/plan"
	"github.com/dgallion1/studyplan/internal/planstore"
	"github.com/dgallion1/studyplan/internal/reminder"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Server is the HTTP API server for the study planner.
type Server struct {
	router     chi.Router
	generator  *plan.Generator
	plans      *planstore.Store
	scheduler  *reminder.Scheduler
	parserOpts parser.Options
	validate   *validator.Validate
	planSchema *jsonschema.Schema
	log        *slog.Logger
	cfg        config.Config
	now        func() time.Time
}

// NewServer creates and configures the HTTP server. scheduler may be nil,
// in which case uploads never schedule reminders.
func NewServer(gen *plan.Generator, plans *planstore.Store, sched *reminder.Scheduler, log *slog.Logger, cfg config.Config) *Server {
	opts := parser.DefaultOptions()
	opts.MaxPDFPages = cfg.MaxPDFPages
	opts.FallbackPdftotext = cfg.PDFFallbackPdftotext
	if cfg.OCRCommand != "" {
		opts.OCRCommand = cfg.OCRCommand
	}

	s := &Server{
		generator:  gen,
		plans:      plans,
		scheduler:  sched,
		parserOpts: opts,
		validate:   validator.New(),
		planSchema: mustCompilePlanSchema(),
		log:        log,
		cfg:        cfg,
		now:        time.Now,
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
	r.Get("/download/{planID}", s.handleDownload)

	r.Group(func(r chi.Router) {
		if s.cfg.PlannerAPIKey != "" {
			r.Use(AuthMiddleware(s.cfg.PlannerAPIKey, s.log))
		}

		r.Post("/api/upload", s.handleUpload)
		r.Post("/api/chat", s.handleChat)
		r.Get("/api/plans/{planID}", s.handleGetPlan)
		r.Delete("/api/plans/{planID}", s.handleDeletePlan)
		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

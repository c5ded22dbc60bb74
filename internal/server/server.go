package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wardenhq/warden/internal/constraint"
	"github.com/wardenhq/warden/internal/memory"
	"github.com/wardenhq/warden/internal/otel"
	"github.com/wardenhq/warden/internal/policy"
)

const defaultTimeout = 30 * time.Second

// Facts is the slice of the graph client the HTTP handlers use directly:
// mirroring freshly declared constraints and answering explain queries.
// Action and violation writes go through the engine's fact store.
type Facts interface {
	UpsertConstraint(ctx context.Context, userID string, con constraint.Constraint) error
	ExplainViolations(ctx context.Context, userID, actionID string) ([]policy.Explanation, error)
}

// Server holds all dependencies for the HTTP API.
type Server struct {
	router      *chi.Mux
	engine      *policy.Engine
	store       memory.Store
	facts       Facts
	userID      string
	apiKeys     []string
	corsOrigins []string
	memoryMode  string
	graphURI    string
	namespace   string
	startTime   time.Time
}

// Option configures the Server.
type Option func(*Server)

// WithAPIKeys enables request authentication. With no keys configured every
// request is accepted.
func WithAPIKeys(keys []string) Option {
	return func(s *Server) { s.apiKeys = keys }
}

// WithCORSOrigins sets allowed CORS origins (e.g. ["*"] for any).
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithHealthDetail sets the component detail reported by /health?detail=true.
func WithHealthDetail(memoryMode, graphURI, namespace string) Option {
	return func(s *Server) {
		s.memoryMode = memoryMode
		s.graphURI = graphURI
		s.namespace = namespace
	}
}

// NewServer builds a Server with the required dependencies and optional Option(s).
func NewServer(engine *policy.Engine, store memory.Store, facts Facts, userID string, opts ...Option) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		engine:      engine,
		store:       store,
		facts:       facts,
		userID:      userID,
		corsOrigins: []string{"*"},
		startTime:   time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the configured http.Handler (chi router with all middleware and routes).
func (s *Server) Routes() http.Handler {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(otel.Middleware())
	r.Use(CORSMiddleware(s.corsOrigins))

	// Unauthenticated
	r.Get("/health", s.handleHealth)

	// Authenticated API group
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.apiKeys))
		r.Use(middleware.Timeout(defaultTimeout))

		r.Post("/v1/constraints", s.handleDeclareConstraint)
		r.Get("/v1/constraints", s.handleListConstraints)
		r.Post("/v1/actions", s.handleEvaluateAction)
		r.Get("/v1/actions/{id}/explain", s.handleExplain)
	})

	return r
}

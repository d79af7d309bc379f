package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/citylens/citylens/internal/api"
	"github.com/citylens/citylens/internal/cache"
	"github.com/citylens/citylens/internal/config"
	"github.com/citylens/citylens/internal/logx"
	"github.com/citylens/citylens/internal/neighborhoods"
	"github.com/citylens/citylens/internal/pipeline"
	"github.com/citylens/citylens/internal/scenarios"
)

// Server holds all the components for the analysis service.
type Server struct {
	cfg           config.Config
	httpServer    *http.Server
	router        *mux.Router
	store         *neighborhoods.Store
	scenarioStore *scenarios.Store
	resultCache   *cache.Cache
	pipeline      *pipeline.Pipeline
}

// New creates a new Server with all components initialized. Optional
// components (scenario store, cache) log a warning and stay nil when
// unavailable.
func New(cfg config.Config) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		router: mux.NewRouter(),
	}

	s.store = neighborhoods.NewStore(cfg.DataDir)
	s.pipeline = pipeline.New(s.store, cfg.ProviderRetries)

	scenarioStore, err := scenarios.NewStore(cfg.DataDir)
	if err != nil {
		logx.Warn().Err(err).Msg("scenario store not available")
	} else {
		s.scenarioStore = scenarioStore
	}

	if cfg.RedisURL != "" {
		resultCache, err := cache.New(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			logx.Warn().Err(err).Msg("result cache not available")
		} else {
			s.resultCache = resultCache
			logx.Info().Msg("result cache enabled")
		}
	}

	s.setupRoutes()
	return s, nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Use(requestLogger)

	apiRouter := s.router.PathPrefix("/api/v1").Subrouter()
	handler := api.NewHandler(s.pipeline, s.store, s.scenarioStore, s.resultCache, s.cfg)
	handler.RegisterRoutes(apiRouter)
}

// Start begins listening for HTTP connections.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logx.Info().Int("port", s.cfg.Port).Msg("server listening")
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.resultCache.Close()
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the handler tree, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		logx.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

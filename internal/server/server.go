// FilePath: internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/itsatony/occupeye-cache/api"
	"github.com/itsatony/occupeye-cache/api/resources"
	"github.com/itsatony/occupeye-cache/internal/cacheservice"
	"github.com/itsatony/occupeye-cache/internal/config"
	"github.com/itsatony/occupeye-cache/internal/database"
	"github.com/itsatony/occupeye-cache/internal/errors"
	"github.com/itsatony/occupeye-cache/internal/monitoring"
	"github.com/itsatony/occupeye-cache/internal/notify"
	"github.com/itsatony/occupeye-cache/internal/repository/rediscache"
	"github.com/itsatony/occupeye-cache/internal/token"
	"github.com/itsatony/occupeye-cache/internal/upstream"
	nuts "github.com/vaudience/go-nuts"
)

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	db         database.DB
	cache      *cacheservice.CacheService
	tokens     *token.Manager
	notifier   *notify.Notifier
	monitoring *monitoring.Service
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config: cfg,
		srv:    srv,
	}
}

// Start begins listening for requests
func (s *Server) Start() error {
	db, err := database.NewRedisDB(s.config.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer db.Close()

	if err := s.initialize(db); err != nil {
		return err
	}
	s.srv.Handler = s.handler()

	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// initialize wires repositories, the upstream client and the cache service
// on top of db.
func (s *Server) initialize(db database.DB) error {
	s.db = db
	s.monitoring = monitoring.NewService()
	s.notifier = notify.New()
	if err := s.setupEventHandlers(); err != nil {
		return fmt.Errorf("failed to register event handlers: %w", err)
	}

	ttl := s.config.Cache
	transport := upstream.NewTransport(s.config.Upstream)
	auth := upstream.NewAuthenticator(transport, s.config.Upstream.Username, s.config.Upstream.Password)
	s.tokens = token.NewManager(
		rediscache.NewTokenRepository(db),
		auth,
		token.WithRefreshHook(func(time.Time) { s.notifier.Emit(notify.TokenRefreshed, "") }),
	)
	client := upstream.NewClient(transport, s.config.Upstream.DeploymentName, s.tokens)

	s.cache = cacheservice.New(
		rediscache.NewSurveyRepository(db, ttl),
		rediscache.NewSensorRepository(db, ttl),
		rediscache.NewImageRepository(db, ttl),
		client,
		s.notifier,
	)
	if err := s.cache.Validate(); err != nil {
		return fmt.Errorf("invalid cache service: %w", err)
	}

	nuts.L.Infof("[Server] Serving deployment %s from %s", s.config.Upstream.DeploymentName, s.config.Upstream.BaseURL)
	return nil
}

// handler builds the routed handler with access logging and panic recovery.
func (s *Server) handler() http.Handler {
	res := resources.NewResources(s.cache)
	res.SetHealthCheck(s.handleHealth())
	if s.config.Monitoring.MetricsEnabled {
		res.SetMetrics(s.monitoring.Handler().ServeHTTP)
	} else {
		res.SetMetrics(resources.NotFound)
	}

	router := api.NewRouter(res)
	recovery := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))
	return recovery(handlers.CombinedLoggingHandler(os.Stdout, router))
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// handleHealth reports the version and whether the cache answers
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := s.db.Ping(ctx); err != nil {
			nuts.L.Warnf("[Server] Health check failed: %v", errors.NewCacheError("cache unreachable", err))
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"degraded","version":"` + nuts.GetVersion() + `"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","version":"` + nuts.GetVersion() + `"}`))
	}
}

// setupEventHandlers forwards every refresh event to monitoring
func (s *Server) setupEventHandlers() error {
	for _, event := range notify.Events {
		err := s.notifier.OnRefresh(event, "monitoring", func(id string) {
			nuts.L.Debugf("[Server] %s %s", event, id)
			s.monitoring.RecordEvent(event, map[string]string{"id": id})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

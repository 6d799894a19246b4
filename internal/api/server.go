// Package api exposes the telemetry hub over HTTP: ingest submissions,
// status lookups, and analytics queries. All request validation lives here;
// the core packages trust what they are handed.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"gridpulse.dev/telemetry/internal/analytics"
	"gridpulse.dev/telemetry/internal/telemetry"
	"gridpulse.dev/telemetry/pkg/metrics"
)

// Server is the HTTP API server.
type Server struct {
	logger  *slog.Logger
	ingest  *telemetry.Service
	engine  *analytics.Engine
	router  *mux.Router
	metrics *metrics.APIMetrics // Optional metrics
	httpSrv *http.Server
	port    int
}

// ServerConfig holds the configuration for the API Server.
type ServerConfig struct {
	Logger  *slog.Logger
	Ingest  *telemetry.Service
	Engine  *analytics.Engine
	Metrics *metrics.APIMetrics
	Port    int
}

// NewServer creates a new API Server and configures its routes.
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.Ingest == nil {
		return nil, errors.New("ingestion service cannot be nil")
	}

	if cfg.Engine == nil {
		return nil, errors.New("analytics engine cannot be nil")
	}

	if cfg.Port <= 0 {
		return nil, errors.New("port must be positive")
	}

	s := &Server{
		logger:  cfg.Logger,
		ingest:  cfg.Ingest,
		engine:  cfg.Engine,
		metrics: cfg.Metrics,
		router:  mux.NewRouter(),
		port:    cfg.Port,
	}
	s.setupRoutes()
	return s, nil
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/v1").Subrouter()

	// Ingestion
	v1.HandleFunc("/ingest/meter", s.handleIngestMeter).Methods(http.MethodPost)
	v1.HandleFunc("/ingest/meter/batch", s.handleIngestMeterBatch).Methods(http.MethodPost)
	v1.HandleFunc("/ingest/vehicle", s.handleIngestVehicle).Methods(http.MethodPost)
	v1.HandleFunc("/ingest/vehicle/batch", s.handleIngestVehicleBatch).Methods(http.MethodPost)

	// Status
	v1.HandleFunc("/status/meter/{meterId}", s.handleMeterStatus).Methods(http.MethodGet)
	v1.HandleFunc("/status/vehicle/{vehicleId}", s.handleVehicleStatus).Methods(http.MethodGet)

	// Analytics
	v1.HandleFunc("/analytics/performance/{vehicleId}", s.handlePerformance).Methods(http.MethodGet)
	v1.HandleFunc("/analytics/fleet/inefficient", s.handleFleetInefficient).Methods(http.MethodGet)

	s.router.Use(s.loggingMiddleware)
	s.router.Use(jsonMiddleware)
}

// Router returns the configured router, mainly for tests.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Run starts the HTTP server and blocks until the context is canceled, then
// drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP API server", "addr", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("shutting down HTTP API server")
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown error: %w", err)
	}
	return nil
}

// loggingMiddleware records request outcome, duration, and metrics.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := routeTemplate(r)

		if s.metrics != nil {
			s.metrics.HTTPRequestsInFlight.WithLabelValues(r.Method, path).Inc()
			defer s.metrics.HTTPRequestsInFlight.WithLabelValues(r.Method, path).Dec()
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		if s.metrics != nil {
			s.metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
			s.metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration.Seconds())
		}

		s.logger.Debug("handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", duration.Milliseconds(),
		)
	})
}

// jsonMiddleware sets the response content type for all API routes.
func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// routeTemplate returns the mux route template for metric labels, so label
// cardinality stays bounded by the route table rather than by request paths.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unknown"
}

// statusRecorder captures the response status code for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Package app wires the telemetry hub together: database, queue collectors,
// ingestion service, analytics engine, and the HTTP API.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/gorm"

	"gridpulse.dev/telemetry/internal/analytics"
	"gridpulse.dev/telemetry/internal/api"
	"gridpulse.dev/telemetry/internal/collector"
	"gridpulse.dev/telemetry/internal/telemetry"
	"gridpulse.dev/telemetry/pkg/metrics"
	"gridpulse.dev/telemetry/pkg/mq"
)

const metricsNamespace = "gridpulse"

// Server is the long-running telemetry hub process.
type Server struct {
	logger     *slog.Logger
	db         *gorm.DB
	collectors []*collector.Consumer
	config     *ServerConfig
}

// ServerConfig holds the configuration for the Server.
type ServerConfig struct {
	Logger *slog.Logger

	// Database configuration
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBPort     int

	// RabbitMQ configuration
	RabbitMQURL      string
	MeterQueueName   string
	VehicleQueueName string

	// HTTP configuration
	HTTPPort int
}

// NewServer creates a new Server instance.
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.RabbitMQURL == "" {
		return nil, errors.New("rabbitmq URL cannot be empty")
	}

	if cfg.MeterQueueName == "" {
		return nil, errors.New("meter queue name cannot be empty")
	}

	if cfg.VehicleQueueName == "" {
		return nil, errors.New("vehicle queue name cannot be empty")
	}

	if cfg.DBHost == "" {
		return nil, errors.New("database host cannot be empty")
	}

	if cfg.DBPort <= 0 {
		return nil, errors.New("database port must be positive")
	}

	if cfg.DBUser == "" {
		return nil, errors.New("database user cannot be empty")
	}

	if cfg.DBName == "" {
		return nil, errors.New("database name cannot be empty")
	}

	if cfg.HTTPPort <= 0 {
		return nil, errors.New("HTTP port must be positive")
	}

	return &Server{
		logger: cfg.Logger,
		config: cfg,
	}, nil
}

// Run starts the telemetry hub and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting telemetry hub")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Initialize database
	dbCfg := &telemetry.DBConfig{
		Host:     s.config.DBHost,
		Port:     s.config.DBPort,
		User:     s.config.DBUser,
		Password: s.config.DBPassword,
		DBName:   s.config.DBName,
		SSLMode:  s.config.DBSSLMode,
		Logger:   s.logger,
	}

	db, err := telemetry.NewDB(dbCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	s.db = db

	s.logger.Info("database initialized successfully")

	// Metrics collectors share the package-level registry.
	ingestionMetrics := metrics.NewIngestionMetrics(metricsNamespace)
	apiMetrics := metrics.NewAPIMetrics(metricsNamespace)
	mqMetrics := metrics.NewMQMetrics(metricsNamespace)

	ingest, err := telemetry.NewService(&telemetry.ServiceConfig{
		Logger:  s.logger,
		DB:      s.db,
		Metrics: ingestionMetrics,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize ingestion service: %w", err)
	}

	engine, err := analytics.NewEngine(&analytics.EngineConfig{
		Logger:  s.logger,
		DB:      s.db,
		Metrics: ingestionMetrics,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize analytics engine: %w", err)
	}

	// Queue collectors feed the same ingestion service as the HTTP API.
	if err := s.startCollectors(ctx, ingest, mqMetrics); err != nil {
		return err
	}

	apiServer, err := api.NewServer(&api.ServerConfig{
		Logger:  s.logger,
		Ingest:  ingest,
		Engine:  engine,
		Metrics: apiMetrics,
		Port:    s.config.HTTPPort,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize API server: %w", err)
	}

	apiErr := make(chan error, 1)
	go func() {
		apiErr <- apiServer.Run(ctx)
	}()

	s.logger.Info("telemetry hub started successfully")

	select {
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
		<-apiErr
	case <-ctx.Done():
		s.logger.Info("context canceled")
		<-apiErr
	case err := <-apiErr:
		if err != nil {
			s.logger.Error("API server error", "error", err)
			cancel()
			if shutdownErr := s.Shutdown(); shutdownErr != nil {
				s.logger.Error("shutdown after API failure also failed", "error", shutdownErr)
			}
			return err
		}
	}

	return s.Shutdown()
}

func (s *Server) startCollectors(ctx context.Context, ingest *telemetry.Service, mqMetrics *metrics.MQMetrics) error {
	configs := []*collector.Config{
		{
			Logger:      s.logger.With(slog.String("component", "meter-collector")),
			RabbitMQURL: s.config.RabbitMQURL,
			QueueName:   s.config.MeterQueueName,
			Handler:     collector.MeterHandler(s.logger, ingest),
		},
		{
			Logger:      s.logger.With(slog.String("component", "vehicle-collector")),
			RabbitMQURL: s.config.RabbitMQURL,
			QueueName:   s.config.VehicleQueueName,
			Handler:     collector.VehicleHandler(s.logger, ingest),
		},
	}

	for _, cfg := range configs {
		client := mq.New(cfg.QueueName, cfg.RabbitMQURL, cfg.Logger)
		client.SetMetrics(mqMetrics)
		cfg.Client = client

		c, err := collector.NewConsumer(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize collector for %s: %w", cfg.QueueName, err)
		}

		if err := c.Start(ctx); err != nil {
			return fmt.Errorf("failed to start collector for %s: %w", cfg.QueueName, err)
		}

		s.collectors = append(s.collectors, c)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.logger.Info("shutting down telemetry hub")

	var shutdownErr error

	for _, c := range s.collectors {
		if err := c.Stop(); err != nil {
			s.logger.Error("failed to stop collector", "error", err)
			if shutdownErr != nil {
				shutdownErr = fmt.Errorf("%w; collector shutdown error: %w", shutdownErr, err)
			} else {
				shutdownErr = fmt.Errorf("collector shutdown error: %w", err)
			}
		}
	}

	if s.db != nil {
		s.logger.Info("closing database connection")
		if err := telemetry.CloseDB(s.db, s.logger); err != nil {
			s.logger.Error("failed to close database", "error", err)
			if shutdownErr != nil {
				shutdownErr = fmt.Errorf("%w; database close error: %w", shutdownErr, err)
			} else {
				shutdownErr = fmt.Errorf("database close error: %w", err)
			}
		}
	}

	if shutdownErr != nil {
		s.logger.Error("telemetry hub shutdown completed with errors", "error", shutdownErr)
		return shutdownErr
	}

	s.logger.Info("telemetry hub shutdown completed successfully")
	return nil
}

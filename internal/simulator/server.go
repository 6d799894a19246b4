package simulator

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"gridpulse.dev/telemetry/pkg/metrics"
	"gridpulse.dev/telemetry/pkg/mq"
)

// ServerConfig holds the configuration for the simulator server.
type ServerConfig struct {
	// Logger is the structured logger
	Logger *slog.Logger
	// RabbitMQURL is the connection string for RabbitMQ
	RabbitMQURL string
	// VehicleQueueName is the queue vehicle readings are published to
	VehicleQueueName string
	// MeterQueueName is the queue meter readings are published to
	MeterQueueName string
	// Interval is the time between reading emissions per worker
	Interval time.Duration
	// WorkerCount is the number of concurrent publishing workers
	WorkerCount int
	// FleetSize is the number of vehicle/meter pairs per worker
	FleetSize int
	// Metrics is the optional Prometheus metrics collector
	Metrics *metrics.SimulatorMetrics
	// MQMetrics is the optional Prometheus metrics collector for MQ operations
	MQMetrics *metrics.MQMetrics
}

// Server manages multiple simulation workers, each publishing readings for
// its own slice of the fleet.
type Server struct {
	logger         *slog.Logger
	config         *ServerConfig
	producers      []*Producer
	vehicleClients []*mq.Client
	meterClients   []*mq.Client
	wg             sync.WaitGroup
	metrics        *metrics.SimulatorMetrics
}

var (
	errInvalidWorkerCount = errors.New("worker count must be greater than 0")
	errInvalidFleetSize   = errors.New("fleet size must be greater than 0")
	errInvalidInterval    = errors.New("interval must be greater than 0")
	errLoggerRequired     = errors.New("logger is required")
)

// NewServer creates a new simulator server with the given configuration.
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg.WorkerCount <= 0 {
		return nil, errInvalidWorkerCount
	}

	if cfg.FleetSize <= 0 {
		return nil, errInvalidFleetSize
	}

	if cfg.Interval <= 0 {
		return nil, errInvalidInterval
	}

	if cfg.Logger == nil {
		return nil, errLoggerRequired
	}

	s := &Server{
		config:         cfg,
		producers:      make([]*Producer, 0, cfg.WorkerCount),
		vehicleClients: make([]*mq.Client, 0, cfg.WorkerCount),
		meterClients:   make([]*mq.Client, 0, cfg.WorkerCount),
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
	}

	for i := 0; i < cfg.WorkerCount; i++ {
		vehicleClient := mq.New(cfg.VehicleQueueName, cfg.RabbitMQURL, cfg.Logger.With(
			slog.String("component", "vehicle-mq-client"),
			slog.Int("worker_id", i),
		))

		if cfg.MQMetrics != nil {
			vehicleClient.SetMetrics(cfg.MQMetrics)
		}

		meterClient := mq.New(cfg.MeterQueueName, cfg.RabbitMQURL, cfg.Logger.With(
			slog.String("component", "meter-mq-client"),
			slog.Int("worker_id", i),
		))

		if cfg.MQMetrics != nil {
			meterClient.SetMetrics(cfg.MQMetrics)
		}

		producer, err := NewProducer(vehicleClient, meterClient, cfg.FleetSize, cfg.Interval)
		if err != nil {
			return nil, err
		}

		if cfg.Metrics != nil {
			producer.SetMetrics(cfg.Metrics)
		}

		s.vehicleClients = append(s.vehicleClients, vehicleClient)
		s.meterClients = append(s.meterClients, meterClient)
		s.producers = append(s.producers, producer)

		s.logger.Info("created simulation worker",
			"worker_id", i,
			"vehicle_queue", cfg.VehicleQueueName,
			"meter_queue", cfg.MeterQueueName,
			"fleet_size", len(producer.Assets),
		)
	}

	return s, nil
}

// Run starts all workers and blocks until a shutdown signal is received.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	for i, producer := range s.producers {
		s.wg.Add(1)
		go s.runWorker(ctx, i, producer)
	}

	s.logger.Info("simulator started",
		"worker_count", len(s.producers),
		"interval", s.config.Interval,
	)

	select {
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
	case <-ctx.Done():
		s.logger.Info("context canceled, shutting down")
	}

	s.logger.Info("waiting for workers to shut down...")
	s.wg.Wait()

	s.logger.Info("closing MQ clients...")
	s.closeClients()

	s.logger.Info("simulator stopped")
	return nil
}

// runWorker emits readings for one producer at the configured interval.
func (s *Server) runWorker(ctx context.Context, id int, producer *Producer) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	workerLogger := s.logger.With(slog.Int("worker_id", id))
	workerLogger.Info("worker started")

	for {
		select {
		case <-ctx.Done():
			workerLogger.Info("worker shutting down")
			return

		case <-ticker.C:
			if err := producer.EmitReadings(ctx); err != nil {
				workerLogger.Error("failed to emit readings",
					"error", err,
				)
				// Continue on error - don't stop the worker
				continue
			}

			workerLogger.Debug("readings emitted")
		}
	}
}

// closeClients closes all MQ clients gracefully.
func (s *Server) closeClients() {
	var wg sync.WaitGroup

	closeClient := func(id int, kind string, c *mq.Client) {
		defer wg.Done()

		if err := c.Close(); err != nil {
			s.logger.Error("failed to close MQ client",
				"worker_id", id,
				"kind", kind,
				"error", err,
			)
			return
		}

		s.logger.Info("MQ client closed", "worker_id", id, "kind", kind)
	}

	for i, client := range s.vehicleClients {
		wg.Add(1)
		go closeClient(i, "vehicle", client)
	}

	for i, client := range s.meterClients {
		wg.Add(1)
		go closeClient(i, "meter", client)
	}

	wg.Wait()
}

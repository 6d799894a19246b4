package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gridpulse.dev/telemetry/internal/simulator"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the fleet simulator",
	Long: `Run the fleet simulator that:
- Generates synthetic vehicle and meter readings for a simulated fleet
- Publishes vehicle readings to the vehicle queue
- Publishes correlated meter readings to the meter queue
- Supports multiple concurrent workers`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	// Simulator-specific flags
	simulateCmd.Flags().String("rabbitmq-url", "amqp://localhost:5672", "RabbitMQ URL")
	simulateCmd.Flags().String("meter-queue", "meter-readings", "RabbitMQ queue name for meter readings")
	simulateCmd.Flags().String("vehicle-queue", "vehicle-readings", "RabbitMQ queue name for vehicle readings")
	simulateCmd.Flags().Int("worker-count", 3, "Number of concurrent workers")
	simulateCmd.Flags().Int("fleet-size", 10, "Number of vehicle/meter pairs per worker")
	simulateCmd.Flags().Duration("interval", 5*time.Second, "Interval between reading emissions")

	// Bind flags to viper
	_ = viper.BindPFlag("simulator.rabbitmq.url", simulateCmd.Flags().Lookup("rabbitmq-url"))
	_ = viper.BindPFlag("simulator.rabbitmq.meter_queue", simulateCmd.Flags().Lookup("meter-queue"))
	_ = viper.BindPFlag("simulator.rabbitmq.vehicle_queue", simulateCmd.Flags().Lookup("vehicle-queue"))
	_ = viper.BindPFlag("simulator.worker_count", simulateCmd.Flags().Lookup("worker-count"))
	_ = viper.BindPFlag("simulator.fleet_size", simulateCmd.Flags().Lookup("fleet-size"))
	_ = viper.BindPFlag("simulator.interval", simulateCmd.Flags().Lookup("interval"))
}

func runSimulate(_ *cobra.Command, _ []string) error {
	logger := GetLogger()
	logger.Info("starting fleet simulator")

	// Create simulator configuration from viper
	config := &simulator.ServerConfig{
		Logger:           logger,
		RabbitMQURL:      viper.GetString("simulator.rabbitmq.url"),
		MeterQueueName:   viper.GetString("simulator.rabbitmq.meter_queue"),
		VehicleQueueName: viper.GetString("simulator.rabbitmq.vehicle_queue"),
		WorkerCount:      viper.GetInt("simulator.worker_count"),
		FleetSize:        viper.GetInt("simulator.fleet_size"),
		Interval:         viper.GetDuration("simulator.interval"),
	}

	// Create and run server
	server, err := simulator.NewServer(config)
	if err != nil {
		logger.Error("failed to create simulator server", "error", err)
		return err
	}

	logger.Info("simulator configuration",
		"rabbitmq_url", config.RabbitMQURL,
		"meter_queue", config.MeterQueueName,
		"vehicle_queue", config.VehicleQueueName,
		"worker_count", config.WorkerCount,
		"fleet_size", config.FleetSize,
		"interval", config.Interval,
	)

	if err := server.Run(context.Background()); err != nil {
		logger.Error("simulator error", "error", err)
		return err
	}

	logger.Info("simulator stopped")
	return nil
}

package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gridpulse.dev/telemetry/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the telemetry hub",
	Long: `Run the telemetry hub that:
- Consumes meter and vehicle readings from RabbitMQ
- Persists readings to PostgreSQL
- Serves the ingestion, status, and analytics HTTP API`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Serve-specific flags
	serveCmd.Flags().String("db-host", "localhost", "PostgreSQL host")
	serveCmd.Flags().Int("db-port", 5432, "PostgreSQL port")
	serveCmd.Flags().String("db-user", "postgres", "PostgreSQL user")
	serveCmd.Flags().String("db-password", "", "PostgreSQL password")
	serveCmd.Flags().String("db-name", "gridpulse", "PostgreSQL database name")
	serveCmd.Flags().String("db-sslmode", "disable", "PostgreSQL SSL mode")
	serveCmd.Flags().String("rabbitmq-url", "amqp://localhost:5672", "RabbitMQ URL")
	serveCmd.Flags().String("meter-queue", "meter-readings", "RabbitMQ queue name for meter readings")
	serveCmd.Flags().String("vehicle-queue", "vehicle-readings", "RabbitMQ queue name for vehicle readings")
	serveCmd.Flags().Int("http-port", 8080, "HTTP API server port")

	// Bind flags to viper
	_ = viper.BindPFlag("server.db.host", serveCmd.Flags().Lookup("db-host"))
	_ = viper.BindPFlag("server.db.port", serveCmd.Flags().Lookup("db-port"))
	_ = viper.BindPFlag("server.db.user", serveCmd.Flags().Lookup("db-user"))
	_ = viper.BindPFlag("server.db.password", serveCmd.Flags().Lookup("db-password"))
	_ = viper.BindPFlag("server.db.name", serveCmd.Flags().Lookup("db-name"))
	_ = viper.BindPFlag("server.db.sslmode", serveCmd.Flags().Lookup("db-sslmode"))
	_ = viper.BindPFlag("server.rabbitmq.url", serveCmd.Flags().Lookup("rabbitmq-url"))
	_ = viper.BindPFlag("server.rabbitmq.meter_queue", serveCmd.Flags().Lookup("meter-queue"))
	_ = viper.BindPFlag("server.rabbitmq.vehicle_queue", serveCmd.Flags().Lookup("vehicle-queue"))
	_ = viper.BindPFlag("server.http.port", serveCmd.Flags().Lookup("http-port"))
}

func runServe(_ *cobra.Command, _ []string) error {
	logger := GetLogger()
	logger.Info("starting telemetry hub service")

	// Create server configuration from viper
	config := &app.ServerConfig{
		Logger:           logger,
		DBHost:           viper.GetString("server.db.host"),
		DBPort:           viper.GetInt("server.db.port"),
		DBUser:           viper.GetString("server.db.user"),
		DBPassword:       viper.GetString("server.db.password"),
		DBName:           viper.GetString("server.db.name"),
		DBSSLMode:        viper.GetString("server.db.sslmode"),
		RabbitMQURL:      viper.GetString("server.rabbitmq.url"),
		MeterQueueName:   viper.GetString("server.rabbitmq.meter_queue"),
		VehicleQueueName: viper.GetString("server.rabbitmq.vehicle_queue"),
		HTTPPort:         viper.GetInt("server.http.port"),
	}

	// Create and run server
	server, err := app.NewServer(config)
	if err != nil {
		logger.Error("failed to create telemetry hub server", "error", err)
		return err
	}

	logger.Info("telemetry hub configuration",
		"db_host", config.DBHost,
		"db_port", config.DBPort,
		"db_name", config.DBName,
		"rabbitmq_url", config.RabbitMQURL,
		"meter_queue", config.MeterQueueName,
		"vehicle_queue", config.VehicleQueueName,
		"http_port", config.HTTPPort,
	)

	if err := server.Run(context.Background()); err != nil {
		logger.Error("telemetry hub error", "error", err)
		return err
	}

	logger.Info("telemetry hub stopped")
	return nil
}

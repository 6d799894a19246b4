package app_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gridpulse.dev/telemetry/internal/app"
)

var _ = Describe("Telemetry Hub Server", func() {
	validConfig := func() *app.ServerConfig {
		return &app.ServerConfig{
			Logger:           newTestLogger(),
			DBHost:           "localhost",
			DBPort:           5432,
			DBUser:           "postgres",
			DBPassword:       "secret",
			DBName:           "gridpulse",
			DBSSLMode:        "disable",
			RabbitMQURL:      "amqp://localhost:5672",
			MeterQueueName:   "meter-readings",
			VehicleQueueName: "vehicle-readings",
			HTTPPort:         8080,
		}
	}

	Describe("NewServer", func() {
		It("should accept a complete configuration", func() {
			server, err := app.NewServer(validConfig())
			Expect(err).NotTo(HaveOccurred())
			Expect(server).NotTo(BeNil())
		})

		It("should return error when config is nil", func() {
			server, err := app.NewServer(nil)
			Expect(err).To(HaveOccurred())
			Expect(server).To(BeNil())
		})

		DescribeTable("rejecting incomplete configurations",
			func(mutate func(*app.ServerConfig), fragment string) {
				cfg := validConfig()
				mutate(cfg)

				server, err := app.NewServer(cfg)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring(fragment))
				Expect(server).To(BeNil())
			},
			Entry("missing logger", func(c *app.ServerConfig) { c.Logger = nil }, "logger"),
			Entry("missing rabbitmq URL", func(c *app.ServerConfig) { c.RabbitMQURL = "" }, "rabbitmq"),
			Entry("missing meter queue", func(c *app.ServerConfig) { c.MeterQueueName = "" }, "meter queue"),
			Entry("missing vehicle queue", func(c *app.ServerConfig) { c.VehicleQueueName = "" }, "vehicle queue"),
			Entry("missing database host", func(c *app.ServerConfig) { c.DBHost = "" }, "database host"),
			Entry("bad database port", func(c *app.ServerConfig) { c.DBPort = 0 }, "database port"),
			Entry("missing database user", func(c *app.ServerConfig) { c.DBUser = "" }, "database user"),
			Entry("missing database name", func(c *app.ServerConfig) { c.DBName = "" }, "database name"),
			Entry("bad HTTP port", func(c *app.ServerConfig) { c.HTTPPort = -1 }, "HTTP port"),
		)
	})
})

package simulator_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gridpulse.dev/telemetry/internal/simulator"
)

var _ = Describe("Simulator Server", func() {
	validConfig := func() *simulator.ServerConfig {
		return &simulator.ServerConfig{
			Logger:           newTestLogger(),
			RabbitMQURL:      "amqp://localhost:5672",
			VehicleQueueName: "vehicle-readings",
			MeterQueueName:   "meter-readings",
			Interval:         time.Second,
			WorkerCount:      2,
			FleetSize:        3,
		}
	}

	Describe("NewServer", func() {
		It("should create workers with their own fleets", func() {
			server, err := simulator.NewServer(validConfig())
			Expect(err).NotTo(HaveOccurred())
			Expect(server).NotTo(BeNil())
		})

		It("should return error for a non-positive worker count", func() {
			cfg := validConfig()
			cfg.WorkerCount = 0
			server, err := simulator.NewServer(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("worker count"))
			Expect(server).To(BeNil())
		})

		It("should return error for a non-positive fleet size", func() {
			cfg := validConfig()
			cfg.FleetSize = -1
			server, err := simulator.NewServer(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("fleet size"))
			Expect(server).To(BeNil())
		})

		It("should return error for a non-positive interval", func() {
			cfg := validConfig()
			cfg.Interval = 0
			server, err := simulator.NewServer(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("interval"))
			Expect(server).To(BeNil())
		})

		It("should return error when logger is missing", func() {
			cfg := validConfig()
			cfg.Logger = nil
			server, err := simulator.NewServer(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("logger"))
			Expect(server).To(BeNil())
		})
	})
})

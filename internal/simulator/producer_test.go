package simulator_test

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gridpulse.dev/telemetry/internal/collector"
	"gridpulse.dev/telemetry/internal/simulator"
	"gridpulse.dev/telemetry/pkg/mq/mock"
)

var _ = Describe("Producer", func() {
	var (
		vehicleClient *mock.Client
		meterClient   *mock.Client
	)

	BeforeEach(func() {
		vehicleClient = mock.NewClient()
		meterClient = mock.NewClient()
	})

	Describe("NewProducer", func() {
		It("should build one generator per fleet slot", func() {
			producer, err := simulator.NewProducer(vehicleClient, meterClient, 5, time.Second)
			Expect(err).NotTo(HaveOccurred())
			Expect(producer.Assets).To(HaveLen(5))
		})

		It("should return error when a client is nil", func() {
			producer, err := simulator.NewProducer(nil, meterClient, 5, time.Second)
			Expect(err).To(HaveOccurred())
			Expect(producer).To(BeNil())
		})

		It("should return error for a non-positive fleet size", func() {
			producer, err := simulator.NewProducer(vehicleClient, meterClient, 0, time.Second)
			Expect(err).To(HaveOccurred())
			Expect(producer).To(BeNil())
		})
	})

	Describe("EmitReadings", func() {
		It("should publish a correlated vehicle and meter envelope pair", func() {
			producer, err := simulator.NewProducer(vehicleClient, meterClient, 1, time.Second)
			Expect(err).NotTo(HaveOccurred())

			Expect(producer.EmitReadings(context.Background())).To(Succeed())

			Expect(vehicleClient.Pushed).To(HaveLen(1))
			Expect(meterClient.Pushed).To(HaveLen(1))

			var vm collector.VehicleMessage
			Expect(json.Unmarshal(vehicleClient.Pushed[0], &vm)).To(Succeed())
			var mm collector.MeterMessage
			Expect(json.Unmarshal(meterClient.Pushed[0], &mm)).To(Succeed())

			asset := producer.Assets[0]
			Expect(vm.VehicleID).To(Equal(asset.VehicleID))
			Expect(mm.MeterID).To(Equal(asset.MeterID))
			Expect(mm.KwhConsumedAc).To(BeNumerically(">", vm.KwhDeliveredDc))

			_, err = time.Parse(time.RFC3339, vm.Timestamp)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should stop after a failed vehicle publish", func() {
			vehicleClient.PushError = errors.New("broker gone")

			producer, err := simulator.NewProducer(vehicleClient, meterClient, 1, time.Second)
			Expect(err).NotTo(HaveOccurred())

			Expect(producer.EmitReadings(context.Background())).NotTo(Succeed())
			Expect(meterClient.Pushed).To(BeEmpty())
		})
	})
})

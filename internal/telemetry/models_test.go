package telemetry_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gridpulse.dev/telemetry/internal/telemetry"
)

var _ = Describe("Models", func() {
	Describe("table names", func() {
		It("should map each model onto its table", func() {
			Expect(telemetry.MeterHistory{}.TableName()).To(Equal("meter_telemetry_history"))
			Expect(telemetry.MeterStatus{}.TableName()).To(Equal("meter_status"))
			Expect(telemetry.VehicleHistory{}.TableName()).To(Equal("vehicle_telemetry_history"))
			Expect(telemetry.VehicleStatus{}.TableName()).To(Equal("vehicle_status"))
		})
	})

	Describe("VehicleReading.IsCharging", func() {
		DescribeTable("deriving the charging flag",
			func(soc float64, expected bool) {
				reading := telemetry.VehicleReading{Soc: soc}
				Expect(reading.IsCharging()).To(Equal(expected))
			},
			Entry("well above the threshold", 80.0, true),
			Entry("just above the threshold", 20.01, true),
			Entry("exactly at the threshold", 20.0, false),
			Entry("below the threshold", 15.0, false),
			Entry("empty battery", 0.0, false),
		)
	})
})

package generator_test

import (
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gridpulse.dev/telemetry/pkg/generator"
)

var _ = Describe("Fleet Generator", func() {
	Describe("NewAsset", func() {
		It("should pair the vehicle and meter ids on a shared suffix", func() {
			asset := generator.NewAsset()
			Expect(asset).NotTo(BeNil())

			Expect(asset.VehicleID).To(HavePrefix("VEH-"))
			Expect(asset.MeterID).To(HavePrefix("METER-"))

			vehSuffix := strings.TrimPrefix(asset.VehicleID, "VEH-")
			meterSuffix := strings.TrimPrefix(asset.MeterID, "METER-")
			Expect(vehSuffix).To(Equal(meterSuffix))
			Expect(vehSuffix).To(HaveLen(4))
		})

		It("should populate plausible vehicle attributes", func() {
			asset := generator.NewAsset()
			Expect(asset).NotTo(BeNil())

			Expect(asset.Make).NotTo(BeEmpty())
			Expect(asset.Model).NotTo(BeEmpty())
			Expect(asset.BatteryCapacityKwh).To(BeNumerically(">=", 40))
			Expect(asset.BatteryCapacityKwh).To(BeNumerically("<=", 100))
		})
	})

	Describe("ReadingGenerator", func() {
		var gen *generator.ReadingGenerator

		BeforeEach(func() {
			asset := generator.NewAsset()
			Expect(asset).NotTo(BeNil())
			gen = generator.NewReadingGenerator(asset)
		})

		It("should emit correlated vehicle and meter points", func() {
			now := time.Now().UTC()
			vp, mp := gen.Next(now, 5*time.Second)

			Expect(vp.VehicleID).To(HavePrefix("VEH-"))
			Expect(mp.MeterID).To(HavePrefix("METER-"))
			Expect(vp.Timestamp).To(Equal(now))
			Expect(mp.Timestamp).To(Equal(now))
		})

		It("should consume more AC than it delivers as DC", func() {
			now := time.Now().UTC()
			for range 50 {
				vp, mp := gen.Next(now, 5*time.Second)
				Expect(mp.KwhConsumedAc).To(BeNumerically(">", vp.KwhDeliveredDc))
				Expect(vp.KwhDeliveredDc).To(BeNumerically(">", 0))
				now = now.Add(5 * time.Second)
			}
		})

		It("should keep the state of charge within bounds across a session", func() {
			now := time.Now().UTC()
			for range 500 {
				vp, _ := gen.Next(now, time.Minute)
				Expect(vp.Soc).To(BeNumerically(">", 0))
				Expect(vp.Soc).To(BeNumerically("<=", 100))
				now = now.Add(time.Minute)
			}
		})
	})
})

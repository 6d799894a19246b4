package analytics_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"gridpulse.dev/telemetry/internal/analytics"
	"gridpulse.dev/telemetry/internal/telemetry"
)

var _ = Describe("Analytics Engine", func() {
	var (
		ctx    context.Context
		db     *gorm.DB
		engine *analytics.Engine
	)

	BeforeEach(func() {
		ctx = context.Background()
		db = newTestDB()

		var err error
		engine, err = analytics.NewEngine(&analytics.EngineConfig{
			Logger: newTestLogger(),
			DB:     db,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewEngine", func() {
		It("should return error when config is nil", func() {
			e, err := analytics.NewEngine(nil)
			Expect(err).To(HaveOccurred())
			Expect(e).To(BeNil())
		})

		It("should return error when logger is nil", func() {
			e, err := analytics.NewEngine(&analytics.EngineConfig{DB: db})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("logger"))
			Expect(e).To(BeNil())
		})

		It("should return error when database is nil", func() {
			e, err := analytics.NewEngine(&analytics.EngineConfig{Logger: newTestLogger()})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("database"))
			Expect(e).To(BeNil())
		})
	})

	Describe("VehiclePerformance", func() {
		It("should return ErrNotFound when the vehicle has no data in the window", func() {
			report, err := engine.VehiclePerformance(ctx, "VEH-1001", 24)
			Expect(errors.Is(err, telemetry.ErrNotFound)).To(BeTrue())
			Expect(report).To(BeNil())
		})

		It("should ignore history older than the lookback window", func() {
			seedVehicle(db, "VEH-1001", 10, 25, 48*time.Hour)

			report, err := engine.VehiclePerformance(ctx, "VEH-1001", 24)
			Expect(errors.Is(err, telemetry.ErrNotFound)).To(BeTrue())
			Expect(report).To(BeNil())
		})

		It("should classify a ratio at the warning threshold as healthy", func() {
			seedVehicle(db, "VEH-1001", 85, 25, time.Hour)
			seedMeter(db, "METER-1001", 100, time.Hour)

			report, err := engine.VehiclePerformance(ctx, "VEH-1001", 24)
			Expect(err).NotTo(HaveOccurred())

			Expect(report.VehicleID).To(Equal("VEH-1001"))
			Expect(report.Period).To(Equal("24h"))
			Expect(report.TotalEnergyConsumedAc).To(Equal(100.0))
			Expect(report.TotalEnergyDeliveredDc).To(Equal(85.0))
			Expect(report.EfficiencyRatio).To(Equal(0.85))
			Expect(report.EfficiencyPercentage).To(Equal(85.0))
			Expect(report.PowerLoss).To(Equal(15.0))
			Expect(report.DataPoints).To(Equal(int64(1)))
			Expect(report.Status).To(Equal(analytics.HealthHealthy))
		})

		It("should classify a ratio at the critical threshold as warning", func() {
			seedVehicle(db, "VEH-1001", 75, 25, time.Hour)
			seedMeter(db, "METER-1001", 100, time.Hour)

			report, err := engine.VehiclePerformance(ctx, "VEH-1001", 24)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.EfficiencyRatio).To(Equal(0.75))
			Expect(report.Status).To(Equal(analytics.HealthWarning))
		})

		It("should classify a ratio below the critical threshold as critical", func() {
			seedVehicle(db, "VEH-1001", 70, 25, time.Hour)
			seedMeter(db, "METER-1001", 100, time.Hour)

			report, err := engine.VehiclePerformance(ctx, "VEH-1001", 24)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.EfficiencyRatio).To(Equal(0.70))
			Expect(report.Status).To(Equal(analytics.HealthCritical))
		})

		It("should degrade to zero AC consumption when the meter has no data", func() {
			seedVehicle(db, "VEH-1001", 10, 25, time.Hour)

			report, err := engine.VehiclePerformance(ctx, "VEH-1001", 24)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.TotalEnergyConsumedAc).To(BeZero())
			Expect(report.EfficiencyRatio).To(BeZero())
			Expect(report.PowerLoss).To(Equal(-10.0))
			Expect(report.Status).To(Equal(analytics.HealthCritical))
		})

		It("should sum readings and average temperatures across the window", func() {
			seedVehicle(db, "VEH-1001", 40, 24, time.Hour)
			seedVehicle(db, "VEH-1001", 45, 26, 2*time.Hour)
			seedMeter(db, "METER-1001", 50, time.Hour)
			seedMeter(db, "METER-1001", 50, 2*time.Hour)

			report, err := engine.VehiclePerformance(ctx, "VEH-1001", 24)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.TotalEnergyDeliveredDc).To(Equal(85.0))
			Expect(report.TotalEnergyConsumedAc).To(Equal(100.0))
			Expect(report.AverageBatteryTemp).To(Equal(25.0))
			Expect(report.DataPoints).To(Equal(int64(2)))
		})

		It("should round the derived metrics for presentation", func() {
			seedVehicle(db, "VEH-1001", 1, 25.006, time.Hour)
			seedMeter(db, "METER-1001", 3, time.Hour)

			report, err := engine.VehiclePerformance(ctx, "VEH-1001", 24)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.EfficiencyRatio).To(Equal(0.3333))
			Expect(report.EfficiencyPercentage).To(Equal(33.33))
			Expect(report.PowerLoss).To(Equal(2.0))
			Expect(report.AverageBatteryTemp).To(Equal(25.01))
		})

		It("should fall back to the default window for non-positive hours", func() {
			seedVehicle(db, "VEH-1001", 85, 25, time.Hour)
			seedMeter(db, "METER-1001", 100, time.Hour)

			report, err := engine.VehiclePerformance(ctx, "VEH-1001", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Period).To(Equal("24h"))
		})

		Context("with a custom correlator", func() {
			It("should use it to resolve the meter", func() {
				custom, err := analytics.NewEngine(&analytics.EngineConfig{
					Logger: newTestLogger(),
					DB:     db,
					Correlator: func(string) string {
						return "METER-CUSTOM"
					},
				})
				Expect(err).NotTo(HaveOccurred())

				seedVehicle(db, "VEH-1001", 85, 25, time.Hour)
				seedMeter(db, "METER-CUSTOM", 100, time.Hour)

				report, err := custom.VehiclePerformance(ctx, "VEH-1001", 24)
				Expect(err).NotTo(HaveOccurred())
				Expect(report.TotalEnergyConsumedAc).To(Equal(100.0))
			})
		})

		Context("with a vehicle id the default correlator cannot map", func() {
			It("should report zero AC and critical status", func() {
				seedVehicle(db, "TRUCK-7", 50, 25, time.Hour)

				report, err := engine.VehiclePerformance(ctx, "TRUCK-7", 24)
				Expect(err).NotTo(HaveOccurred())
				Expect(report.TotalEnergyConsumedAc).To(BeZero())
				Expect(report.Status).To(Equal(analytics.HealthCritical))
			})
		})
	})

	Describe("FleetPerformance", func() {
		It("should skip vehicles whose computation fails", func() {
			seedVehicle(db, "VEH-1001", 85, 25, time.Hour)
			seedMeter(db, "METER-1001", 100, time.Hour)

			reports := engine.FleetPerformance(ctx, []string{"VEH-1001", "VEH-MISSING"}, 24)
			Expect(reports).To(HaveLen(1))
			Expect(reports[0].VehicleID).To(Equal("VEH-1001"))
		})
	})

	Describe("LowEfficiencyVehicles", func() {
		It("should return only vehicles strictly below the threshold", func() {
			seedVehicle(db, "VEH-GOOD", 90, 25, time.Hour)
			seedMeter(db, "METER-GOOD", 100, time.Hour)

			seedVehicle(db, "VEH-BAD", 60, 25, time.Hour)
			seedMeter(db, "METER-BAD", 100, time.Hour)

			vehicles, err := engine.LowEfficiencyVehicles(ctx, analytics.WarningThreshold, 24)
			Expect(err).NotTo(HaveOccurred())
			Expect(vehicles).To(Equal([]string{"VEH-BAD"}))
		})

		It("should exclude vehicles exactly at the threshold", func() {
			seedVehicle(db, "VEH-EDGE", 85, 25, time.Hour)
			seedMeter(db, "METER-EDGE", 100, time.Hour)

			vehicles, err := engine.LowEfficiencyVehicles(ctx, 0.85, 24)
			Expect(err).NotTo(HaveOccurred())
			Expect(vehicles).To(BeEmpty())
		})

		It("should return an empty slice when no vehicle reported in the window", func() {
			seedVehicle(db, "VEH-OLD", 10, 25, 48*time.Hour)

			vehicles, err := engine.LowEfficiencyVehicles(ctx, 0.85, 24)
			Expect(err).NotTo(HaveOccurred())
			Expect(vehicles).To(BeEmpty())
		})

		It("should include unmapped vehicles, which score a zero ratio", func() {
			seedVehicle(db, "TRUCK-7", 50, 25, time.Hour)

			vehicles, err := engine.LowEfficiencyVehicles(ctx, 0.85, 24)
			Expect(err).NotTo(HaveOccurred())
			Expect(vehicles).To(Equal([]string{"TRUCK-7"}))
		})
	})
})

// Package analytics computes window-scoped charging efficiency metrics by
// joining vehicle and meter telemetry histories. Every computation is
// stateless: the lookback window is anchored at the time of the call.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gorm.io/gorm"

	"gridpulse.dev/telemetry/internal/telemetry"
	"gridpulse.dev/telemetry/pkg/metrics"
)

// HealthStatus classifies a vehicle's charging efficiency.
type HealthStatus string

// Health classifications, ordered from best to worst.
const (
	HealthHealthy  HealthStatus = "HEALTHY"
	HealthWarning  HealthStatus = "WARNING"
	HealthCritical HealthStatus = "CRITICAL"
)

// Efficiency classification thresholds. A ratio at exactly a threshold falls
// into the better class: 0.85 is HEALTHY, 0.75 is WARNING.
const (
	WarningThreshold  = 0.85
	CriticalThreshold = 0.75
)

// DefaultWindowHours is the lookback window applied when the caller does not
// supply one.
const DefaultWindowHours = 24

// PerformanceReport is the result of a window-scoped efficiency computation
// for one vehicle.
type PerformanceReport struct {
	VehicleID              string       `json:"vehicleId"`
	Period                 string       `json:"period"`
	TotalEnergyConsumedAc  float64      `json:"totalEnergyConsumedAc"`
	TotalEnergyDeliveredDc float64      `json:"totalEnergyDeliveredDc"`
	EfficiencyRatio        float64      `json:"efficiencyRatio"`
	EfficiencyPercentage   float64      `json:"efficiencyPercentage"`
	AverageBatteryTemp     float64      `json:"averageBatteryTemp"`
	DataPoints             int64        `json:"dataPoints"`
	PowerLoss              float64      `json:"powerLoss"`
	Status                 HealthStatus `json:"status"`
}

// Engine computes efficiency analytics over the telemetry history tables.
type Engine struct {
	logger    *slog.Logger
	db        *gorm.DB
	correlate MeterCorrelator
	metrics   *metrics.IngestionMetrics // Optional metrics
}

// EngineConfig holds the configuration for the analytics Engine.
type EngineConfig struct {
	Logger *slog.Logger
	DB     *gorm.DB
	// Correlator maps vehicle ids to meter ids. DefaultCorrelator is used
	// when nil.
	Correlator MeterCorrelator
	Metrics    *metrics.IngestionMetrics
}

// NewEngine creates a new analytics Engine.
func NewEngine(cfg *EngineConfig) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("engine config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.DB == nil {
		return nil, errors.New("database cannot be nil")
	}

	correlate := cfg.Correlator
	if correlate == nil {
		correlate = DefaultCorrelator
	}

	return &Engine{
		logger:    cfg.Logger,
		db:        cfg.DB,
		correlate: correlate,
		metrics:   cfg.Metrics,
	}, nil
}

// vehicleAggregate is the scan target for the vehicle history aggregation.
type vehicleAggregate struct {
	TotalDc    float64
	AvgTemp    float64
	DataPoints int64
}

// meterAggregate is the scan target for the meter history aggregation.
type meterAggregate struct {
	TotalAc    float64
	DataPoints int64
}

// VehiclePerformance aggregates a vehicle's DC delivery and its correlated
// meter's AC consumption over the lookback window and derives the efficiency
// metrics. Returns telemetry.ErrNotFound when the vehicle has no history
// rows in the window; missing meter data is treated as zero AC consumption
// rather than an error.
func (e *Engine) VehiclePerformance(ctx context.Context, vehicleID string, hours int) (*PerformanceReport, error) {
	start := time.Now()

	if hours <= 0 {
		hours = DefaultWindowHours
	}
	window := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	var veh vehicleAggregate
	err := e.db.WithContext(ctx).Model(&telemetry.VehicleHistory{}).
		Select("COALESCE(SUM(kwh_delivered_dc), 0) AS total_dc, COALESCE(AVG(battery_temp), 0) AS avg_temp, COUNT(*) AS data_points").
		Where("vehicle_id = ? AND timestamp >= ?", vehicleID, window).
		Scan(&veh).Error
	if err != nil {
		e.observe("performance", "error", start)
		e.logger.Error("failed to aggregate vehicle history",
			"vehicle_id", vehicleID,
			"error", err,
		)
		return nil, telemetry.NewPersistenceError("vehicle history aggregation", err)
	}

	if veh.DataPoints == 0 {
		e.observe("performance", "not_found", start)
		return nil, fmt.Errorf("no telemetry data for vehicle %s in the last %dh: %w",
			vehicleID, hours, telemetry.ErrNotFound)
	}

	meterID := e.correlate(vehicleID)

	var met meterAggregate
	err = e.db.WithContext(ctx).Model(&telemetry.MeterHistory{}).
		Select("COALESCE(SUM(kwh_consumed_ac), 0) AS total_ac, COUNT(*) AS data_points").
		Where("meter_id = ? AND timestamp >= ?", meterID, window).
		Scan(&met).Error
	if err != nil {
		e.observe("performance", "error", start)
		e.logger.Error("failed to aggregate meter history",
			"meter_id", meterID,
			"error", err,
		)
		return nil, telemetry.NewPersistenceError("meter history aggregation", err)
	}

	// A vehicle without meter coverage reports zero AC consumption, which
	// yields a zero ratio and a CRITICAL classification.
	ratio := 0.0
	if met.TotalAc > 0 {
		ratio = veh.TotalDc / met.TotalAc
	}
	powerLoss := met.TotalAc - veh.TotalDc

	status := HealthHealthy
	switch {
	case ratio < CriticalThreshold:
		status = HealthCritical
	case ratio < WarningThreshold:
		status = HealthWarning
	}

	report := &PerformanceReport{
		VehicleID:              vehicleID,
		Period:                 fmt.Sprintf("%dh", hours),
		TotalEnergyConsumedAc:  round(met.TotalAc, 4),
		TotalEnergyDeliveredDc: round(veh.TotalDc, 4),
		EfficiencyRatio:        round(ratio, 4),
		EfficiencyPercentage:   round(ratio*100, 2),
		AverageBatteryTemp:     round(veh.AvgTemp, 2),
		DataPoints:             veh.DataPoints,
		PowerLoss:              round(powerLoss, 4),
		Status:                 status,
	}

	e.observe("performance", "success", start)
	e.logger.Debug("computed vehicle performance",
		"vehicle_id", vehicleID,
		"meter_id", meterID,
		"data_points", veh.DataPoints,
		"efficiency_ratio", report.EfficiencyRatio,
		"status", string(status),
	)
	return report, nil
}

// FleetPerformance computes reports for a set of vehicles. Vehicles whose
// computation fails are logged and skipped so partial data availability
// never sinks the whole fleet query.
func (e *Engine) FleetPerformance(ctx context.Context, vehicleIDs []string, hours int) []*PerformanceReport {
	reports := make([]*PerformanceReport, 0, len(vehicleIDs))
	for _, id := range vehicleIDs {
		report, err := e.VehiclePerformance(ctx, id, hours)
		if err != nil {
			e.logger.Warn("skipping vehicle in fleet report",
				"vehicle_id", id,
				"error", err,
			)
			continue
		}
		reports = append(reports, report)
	}
	return reports
}

// LowEfficiencyVehicles returns, in discovery order, the ids of vehicles
// with history in the window whose efficiency ratio is strictly below the
// threshold. Vehicles whose computation fails for any reason are silently
// excluded: fleet scanning tolerates partial data availability.
func (e *Engine) LowEfficiencyVehicles(ctx context.Context, threshold float64, hours int) ([]string, error) {
	start := time.Now()

	if hours <= 0 {
		hours = DefaultWindowHours
	}
	window := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	var vehicleIDs []string
	err := e.db.WithContext(ctx).Model(&telemetry.VehicleHistory{}).
		Distinct().
		Where("timestamp >= ?", window).
		Pluck("vehicle_id", &vehicleIDs).Error
	if err != nil {
		e.observe("fleet_low_efficiency", "error", start)
		e.logger.Error("failed to discover vehicles in window", "error", err)
		return nil, telemetry.NewPersistenceError("vehicle discovery", err)
	}

	inefficient := make([]string, 0)
	for _, id := range vehicleIDs {
		report, err := e.VehiclePerformance(ctx, id, hours)
		if err != nil {
			e.logger.Warn("excluding vehicle from fleet scan",
				"vehicle_id", id,
				"error", err,
			)
			continue
		}
		if report.EfficiencyRatio < threshold {
			inefficient = append(inefficient, id)
		}
	}

	e.observe("fleet_low_efficiency", "success", start)
	e.logger.Info("fleet low-efficiency scan completed",
		"candidates", len(vehicleIDs),
		"matches", len(inefficient),
		"threshold", threshold,
	)
	return inefficient, nil
}

// round rounds v to the given number of decimal places for presentation
// stability. All derivations above happen at full precision first.
func round(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}

func (e *Engine) observe(operation, outcome string, start time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.AnalyticsRequests.WithLabelValues(operation, outcome).Inc()
	e.metrics.AnalyticsDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gridpulse.dev/telemetry/pkg/metrics"
)

// Service coordinates telemetry ingestion. Each submission performs a
// history append and a status upsert inside a single transaction, so either
// both writes land or neither does.
type Service struct {
	logger  *slog.Logger
	db      *gorm.DB
	metrics *metrics.IngestionMetrics // Optional metrics
}

// ServiceConfig holds the configuration for the ingestion Service.
type ServiceConfig struct {
	Logger  *slog.Logger
	DB      *gorm.DB
	Metrics *metrics.IngestionMetrics
}

// NewService creates a new ingestion Service.
func NewService(cfg *ServiceConfig) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("service config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.DB == nil {
		return nil, errors.New("database cannot be nil")
	}

	return &Service{
		logger:  cfg.Logger,
		db:      cfg.DB,
		metrics: cfg.Metrics,
	}, nil
}

// IngestMeter persists a single meter reading: one immutable history row and
// an upsert of the meter's status row, atomically.
func (s *Service) IngestMeter(ctx context.Context, reading MeterReading) error {
	start := time.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		hist := &MeterHistory{
			MeterID:       reading.MeterID,
			KwhConsumedAc: reading.KwhConsumedAc,
			Voltage:       reading.Voltage,
			Timestamp:     reading.Timestamp,
		}
		if err := tx.Create(hist).Error; err != nil {
			return fmt.Errorf("failed to append meter history: %w", err)
		}

		return upsertMeterStatus(tx, reading)
	})

	duration := time.Since(start)
	s.observeIngest("meter", "single", duration, err)

	if err != nil {
		s.logger.Error("failed to ingest meter telemetry",
			"meter_id", reading.MeterID,
			"error", err,
		)
		return NewPersistenceError("meter ingest", err)
	}

	s.logger.Debug("ingested meter telemetry",
		"meter_id", reading.MeterID,
		"duration_ms", duration.Milliseconds(),
	)
	return nil
}

// IngestVehicle persists a single vehicle reading, deriving the charging
// flag from the reading's state of charge.
func (s *Service) IngestVehicle(ctx context.Context, reading VehicleReading) error {
	start := time.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		hist := &VehicleHistory{
			VehicleID:      reading.VehicleID,
			Soc:            reading.Soc,
			KwhDeliveredDc: reading.KwhDeliveredDc,
			BatteryTemp:    reading.BatteryTemp,
			Timestamp:      reading.Timestamp,
		}
		if err := tx.Create(hist).Error; err != nil {
			return fmt.Errorf("failed to append vehicle history: %w", err)
		}

		return upsertVehicleStatus(tx, reading)
	})

	duration := time.Since(start)
	s.observeIngest("vehicle", "single", duration, err)

	if err != nil {
		s.logger.Error("failed to ingest vehicle telemetry",
			"vehicle_id", reading.VehicleID,
			"error", err,
		)
		return NewPersistenceError("vehicle ingest", err)
	}

	s.logger.Debug("ingested vehicle telemetry",
		"vehicle_id", reading.VehicleID,
		"duration_ms", duration.Milliseconds(),
	)
	return nil
}

// IngestMeterBatch persists a batch of meter readings in one transaction:
// a single bulk history insert followed by one status upsert per reading in
// submission order. The whole batch commits or rolls back together.
//
// When a batch carries several readings for the same meter, the last one in
// submission order wins the status row, even if an earlier entry carries a
// later timestamp. Chronological reordering within a batch is deliberately
// not performed.
func (s *Service) IngestMeterBatch(ctx context.Context, readings []MeterReading) (int, error) {
	if len(readings) == 0 {
		return 0, nil
	}

	start := time.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows := make([]MeterHistory, len(readings))
		for i, r := range readings {
			rows[i] = MeterHistory{
				MeterID:       r.MeterID,
				KwhConsumedAc: r.KwhConsumedAc,
				Voltage:       r.Voltage,
				Timestamp:     r.Timestamp,
			}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to append meter history batch: %w", err)
		}

		for _, r := range readings {
			if err := upsertMeterStatus(tx, r); err != nil {
				return err
			}
		}
		return nil
	})

	duration := time.Since(start)
	s.observeIngest("meter", "batch", duration, err)

	if err != nil {
		s.logger.Error("failed to batch ingest meter telemetry",
			"count", len(readings),
			"error", err,
		)
		return 0, NewPersistenceError("meter batch ingest", err)
	}

	if s.metrics != nil {
		s.metrics.BatchSize.WithLabelValues("meter").Observe(float64(len(readings)))
	}
	s.logger.Info("batch ingested meter telemetry",
		"count", len(readings),
		"duration_ms", duration.Milliseconds(),
	)
	return len(readings), nil
}

// IngestVehicleBatch persists a batch of vehicle readings in one transaction
// with the same semantics as IngestMeterBatch.
func (s *Service) IngestVehicleBatch(ctx context.Context, readings []VehicleReading) (int, error) {
	if len(readings) == 0 {
		return 0, nil
	}

	start := time.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows := make([]VehicleHistory, len(readings))
		for i, r := range readings {
			rows[i] = VehicleHistory{
				VehicleID:      r.VehicleID,
				Soc:            r.Soc,
				KwhDeliveredDc: r.KwhDeliveredDc,
				BatteryTemp:    r.BatteryTemp,
				Timestamp:      r.Timestamp,
			}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to append vehicle history batch: %w", err)
		}

		for _, r := range readings {
			if err := upsertVehicleStatus(tx, r); err != nil {
				return err
			}
		}
		return nil
	})

	duration := time.Since(start)
	s.observeIngest("vehicle", "batch", duration, err)

	if err != nil {
		s.logger.Error("failed to batch ingest vehicle telemetry",
			"count", len(readings),
			"error", err,
		)
		return 0, NewPersistenceError("vehicle batch ingest", err)
	}

	if s.metrics != nil {
		s.metrics.BatchSize.WithLabelValues("vehicle").Observe(float64(len(readings)))
	}
	s.logger.Info("batch ingested vehicle telemetry",
		"count", len(readings),
		"duration_ms", duration.Milliseconds(),
	)
	return len(readings), nil
}

// GetMeterStatus returns the current status row for a meter, or ErrNotFound
// if the meter has never reported.
func (s *Service) GetMeterStatus(ctx context.Context, meterID string) (*MeterStatus, error) {
	var status MeterStatus
	err := s.db.WithContext(ctx).First(&status, "meter_id = ?", meterID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.observeLookup("meter", "not_found")
			return nil, fmt.Errorf("meter %s: %w", meterID, ErrNotFound)
		}
		s.observeLookup("meter", "error")
		return nil, NewPersistenceError("meter status lookup", err)
	}

	s.observeLookup("meter", "success")
	return &status, nil
}

// GetVehicleStatus returns the current status row for a vehicle, or
// ErrNotFound if the vehicle has never reported.
func (s *Service) GetVehicleStatus(ctx context.Context, vehicleID string) (*VehicleStatus, error) {
	var status VehicleStatus
	err := s.db.WithContext(ctx).First(&status, "vehicle_id = ?", vehicleID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.observeLookup("vehicle", "not_found")
			return nil, fmt.Errorf("vehicle %s: %w", vehicleID, ErrNotFound)
		}
		s.observeLookup("vehicle", "error")
		return nil, NewPersistenceError("vehicle status lookup", err)
	}

	s.observeLookup("vehicle", "success")
	return &status, nil
}

// upsertMeterStatus inserts or overwrites the meter's status row keyed by
// meter id. Must run inside the same transaction as the history append.
func upsertMeterStatus(tx *gorm.DB, r MeterReading) error {
	status := &MeterStatus{
		MeterID:       r.MeterID,
		KwhConsumedAc: r.KwhConsumedAc,
		Voltage:       r.Voltage,
		LastUpdated:   r.Timestamp,
	}

	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "meter_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"kwh_consumed_ac", "voltage", "last_updated", "updated_at",
		}),
	}).Create(status).Error
	if err != nil {
		return fmt.Errorf("failed to upsert meter status: %w", err)
	}
	return nil
}

// upsertVehicleStatus inserts or overwrites the vehicle's status row keyed
// by vehicle id, recomputing the derived charging flag.
func upsertVehicleStatus(tx *gorm.DB, r VehicleReading) error {
	status := &VehicleStatus{
		VehicleID:      r.VehicleID,
		Soc:            r.Soc,
		KwhDeliveredDc: r.KwhDeliveredDc,
		BatteryTemp:    r.BatteryTemp,
		IsCharging:     r.IsCharging(),
		LastUpdated:    r.Timestamp,
	}

	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "vehicle_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"soc", "kwh_delivered_dc", "battery_temp", "is_charging", "last_updated", "updated_at",
		}),
	}).Create(status).Error
	if err != nil {
		return fmt.Errorf("failed to upsert vehicle status: %w", err)
	}
	return nil
}

func (s *Service) observeIngest(kind, mode string, duration time.Duration, err error) {
	if s.metrics == nil {
		return
	}

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.metrics.ReadingsIngested.WithLabelValues(kind, outcome).Inc()
	s.metrics.IngestDuration.WithLabelValues(kind, mode).Observe(duration.Seconds())
}

func (s *Service) observeLookup(kind, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.StatusLookups.WithLabelValues(kind, outcome).Inc()
}

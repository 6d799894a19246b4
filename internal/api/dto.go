package api

import (
	"errors"
	"fmt"
	"time"

	"gridpulse.dev/telemetry/internal/telemetry"
)

// Field range limits enforced on ingest submissions. The ingestion core
// trusts its callers, so all range checking happens here at the edge.
const (
	maxVoltage     = 500.0
	maxSoc         = 100.0
	minBatteryTemp = -40.0
	maxBatteryTemp = 80.0
)

// MeterTelemetryRequest is a single meter reading submission.
type MeterTelemetryRequest struct {
	MeterID       string  `json:"meterId"`
	KwhConsumedAc float64 `json:"kwhConsumedAc"`
	Voltage       float64 `json:"voltage"`
	Timestamp     string  `json:"timestamp"` // RFC3339
}

// ToReading validates the submission and converts it to a core reading.
func (r *MeterTelemetryRequest) ToReading() (telemetry.MeterReading, error) {
	if r.MeterID == "" {
		return telemetry.MeterReading{}, errors.New("meterId is required")
	}
	if r.KwhConsumedAc < 0 {
		return telemetry.MeterReading{}, errors.New("kwhConsumedAc must be >= 0")
	}
	if r.Voltage < 0 || r.Voltage > maxVoltage {
		return telemetry.MeterReading{}, fmt.Errorf("voltage must be between 0 and %g", maxVoltage)
	}

	ts, err := time.Parse(time.RFC3339, r.Timestamp)
	if err != nil {
		return telemetry.MeterReading{}, fmt.Errorf("timestamp must be RFC3339: %w", err)
	}

	return telemetry.MeterReading{
		MeterID:       r.MeterID,
		KwhConsumedAc: r.KwhConsumedAc,
		Voltage:       r.Voltage,
		Timestamp:     ts.UTC(),
	}, nil
}

// VehicleTelemetryRequest is a single vehicle reading submission.
type VehicleTelemetryRequest struct {
	VehicleID      string  `json:"vehicleId"`
	Soc            float64 `json:"soc"`
	KwhDeliveredDc float64 `json:"kwhDeliveredDc"`
	BatteryTemp    float64 `json:"batteryTemp"`
	Timestamp      string  `json:"timestamp"` // RFC3339
}

// ToReading validates the submission and converts it to a core reading.
func (r *VehicleTelemetryRequest) ToReading() (telemetry.VehicleReading, error) {
	if r.VehicleID == "" {
		return telemetry.VehicleReading{}, errors.New("vehicleId is required")
	}
	if r.Soc < 0 || r.Soc > maxSoc {
		return telemetry.VehicleReading{}, fmt.Errorf("soc must be between 0 and %g", maxSoc)
	}
	if r.KwhDeliveredDc < 0 {
		return telemetry.VehicleReading{}, errors.New("kwhDeliveredDc must be >= 0")
	}
	if r.BatteryTemp < minBatteryTemp || r.BatteryTemp > maxBatteryTemp {
		return telemetry.VehicleReading{}, fmt.Errorf("batteryTemp must be between %g and %g",
			minBatteryTemp, maxBatteryTemp)
	}

	ts, err := time.Parse(time.RFC3339, r.Timestamp)
	if err != nil {
		return telemetry.VehicleReading{}, fmt.Errorf("timestamp must be RFC3339: %w", err)
	}

	return telemetry.VehicleReading{
		VehicleID:      r.VehicleID,
		Soc:            r.Soc,
		KwhDeliveredDc: r.KwhDeliveredDc,
		BatteryTemp:    r.BatteryTemp,
		Timestamp:      ts.UTC(),
	}, nil
}

// BatchMeterTelemetryRequest is an ordered batch of meter readings.
type BatchMeterTelemetryRequest struct {
	Readings []MeterTelemetryRequest `json:"readings"`
}

// ToReadings validates every entry and converts the batch, preserving
// submission order.
func (b *BatchMeterTelemetryRequest) ToReadings() ([]telemetry.MeterReading, error) {
	if len(b.Readings) == 0 {
		return nil, errors.New("readings must contain at least one entry")
	}

	readings := make([]telemetry.MeterReading, len(b.Readings))
	for i := range b.Readings {
		r, err := b.Readings[i].ToReading()
		if err != nil {
			return nil, fmt.Errorf("readings[%d]: %w", i, err)
		}
		readings[i] = r
	}
	return readings, nil
}

// BatchVehicleTelemetryRequest is an ordered batch of vehicle readings.
type BatchVehicleTelemetryRequest struct {
	Readings []VehicleTelemetryRequest `json:"readings"`
}

// ToReadings validates every entry and converts the batch, preserving
// submission order.
func (b *BatchVehicleTelemetryRequest) ToReadings() ([]telemetry.VehicleReading, error) {
	if len(b.Readings) == 0 {
		return nil, errors.New("readings must contain at least one entry")
	}

	readings := make([]telemetry.VehicleReading, len(b.Readings))
	for i := range b.Readings {
		r, err := b.Readings[i].ToReading()
		if err != nil {
			return nil, fmt.Errorf("readings[%d]: %w", i, err)
		}
		readings[i] = r
	}
	return readings, nil
}

// MeterStatusResponse is the public shape of a meter's current state.
type MeterStatusResponse struct {
	MeterID       string    `json:"meterId"`
	KwhConsumedAc float64   `json:"kwhConsumedAc"`
	Voltage       float64   `json:"voltage"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

func newMeterStatusResponse(s *telemetry.MeterStatus) *MeterStatusResponse {
	return &MeterStatusResponse{
		MeterID:       s.MeterID,
		KwhConsumedAc: s.KwhConsumedAc,
		Voltage:       s.Voltage,
		LastUpdated:   s.LastUpdated,
	}
}

// VehicleStatusResponse is the public shape of a vehicle's current state.
type VehicleStatusResponse struct {
	VehicleID      string    `json:"vehicleId"`
	Soc            float64   `json:"soc"`
	KwhDeliveredDc float64   `json:"kwhDeliveredDc"`
	BatteryTemp    float64   `json:"batteryTemp"`
	IsCharging     bool      `json:"isCharging"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

func newVehicleStatusResponse(s *telemetry.VehicleStatus) *VehicleStatusResponse {
	return &VehicleStatusResponse{
		VehicleID:      s.VehicleID,
		Soc:            s.Soc,
		KwhDeliveredDc: s.KwhDeliveredDc,
		BatteryTemp:    s.BatteryTemp,
		IsCharging:     s.IsCharging,
		LastUpdated:    s.LastUpdated,
	}
}

// IngestResponse acknowledges a successful ingest submission.
type IngestResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count,omitempty"`
}

// FleetInefficiencyResponse lists the vehicles below an efficiency threshold.
type FleetInefficiencyResponse struct {
	Vehicles  []string `json:"vehicles"`
	Threshold float64  `json:"threshold"`
	Period    string   `json:"period"`
}

package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gridpulse.dev/telemetry/internal/telemetry"
)

// MeterMessage is the JSON envelope for meter readings on the wire.
type MeterMessage struct {
	MeterID       string  `json:"meterId"`
	KwhConsumedAc float64 `json:"kwhConsumedAc"`
	Voltage       float64 `json:"voltage"`
	Timestamp     string  `json:"timestamp"` // RFC3339
}

// VehicleMessage is the JSON envelope for vehicle readings on the wire.
type VehicleMessage struct {
	VehicleID      string  `json:"vehicleId"`
	Soc            float64 `json:"soc"`
	KwhDeliveredDc float64 `json:"kwhDeliveredDc"`
	BatteryTemp    float64 `json:"batteryTemp"`
	Timestamp      string  `json:"timestamp"` // RFC3339
}

// MeterHandler returns a Handler that decodes meter envelopes and ingests
// them. Decode failures are marked malformed; store failures propagate so
// the delivery is redelivered.
func MeterHandler(logger *slog.Logger, ingest *telemetry.Service) Handler {
	return func(ctx context.Context, body []byte) error {
		var msg MeterMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return &MalformedPayloadError{Err: err}
		}

		reading, err := msg.toReading()
		if err != nil {
			return &MalformedPayloadError{Err: err}
		}

		logger.Debug("received meter reading",
			"meter_id", reading.MeterID,
			"timestamp", reading.Timestamp,
		)
		return ingest.IngestMeter(ctx, reading)
	}
}

// VehicleHandler returns a Handler that decodes vehicle envelopes and
// ingests them.
func VehicleHandler(logger *slog.Logger, ingest *telemetry.Service) Handler {
	return func(ctx context.Context, body []byte) error {
		var msg VehicleMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return &MalformedPayloadError{Err: err}
		}

		reading, err := msg.toReading()
		if err != nil {
			return &MalformedPayloadError{Err: err}
		}

		logger.Debug("received vehicle reading",
			"vehicle_id", reading.VehicleID,
			"timestamp", reading.Timestamp,
		)
		return ingest.IngestVehicle(ctx, reading)
	}
}

func (m MeterMessage) toReading() (telemetry.MeterReading, error) {
	if m.MeterID == "" {
		return telemetry.MeterReading{}, errors.New("meterId is required")
	}

	ts, err := time.Parse(time.RFC3339, m.Timestamp)
	if err != nil {
		return telemetry.MeterReading{}, fmt.Errorf("invalid timestamp: %w", err)
	}

	return telemetry.MeterReading{
		MeterID:       m.MeterID,
		KwhConsumedAc: m.KwhConsumedAc,
		Voltage:       m.Voltage,
		Timestamp:     ts.UTC(),
	}, nil
}

func (m VehicleMessage) toReading() (telemetry.VehicleReading, error) {
	if m.VehicleID == "" {
		return telemetry.VehicleReading{}, errors.New("vehicleId is required")
	}

	ts, err := time.Parse(time.RFC3339, m.Timestamp)
	if err != nil {
		return telemetry.VehicleReading{}, fmt.Errorf("invalid timestamp: %w", err)
	}

	return telemetry.VehicleReading{
		VehicleID:      m.VehicleID,
		Soc:            m.Soc,
		KwhDeliveredDc: m.KwhDeliveredDc,
		BatteryTemp:    m.BatteryTemp,
		Timestamp:      ts.UTC(),
	}, nil
}

// Package simulator generates a synthetic EV fleet and publishes correlated
// vehicle and meter readings to the ingestion queues.
package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"gridpulse.dev/telemetry/internal/collector"
	"gridpulse.dev/telemetry/pkg/generator"
	"gridpulse.dev/telemetry/pkg/metrics"
	"gridpulse.dev/telemetry/pkg/mq"
)

// Producer owns a simulated fleet and publishes reading pairs to the
// vehicle and meter queues.
type Producer struct {
	VehicleClient mq.ClientInterface
	MeterClient   mq.ClientInterface
	Assets        []*generator.Asset
	generators    []*generator.ReadingGenerator
	interval      time.Duration
	metrics       *metrics.SimulatorMetrics // Optional metrics
}

// NewProducer creates a producer with fleetSize vehicle/meter pairs.
func NewProducer(vehicleClient, meterClient mq.ClientInterface, fleetSize int, interval time.Duration) (*Producer, error) {
	if vehicleClient == nil || meterClient == nil {
		return nil, errors.New("mq clients cannot be nil")
	}

	if fleetSize <= 0 {
		return nil, errors.New("fleet size must be positive")
	}

	assets := make([]*generator.Asset, 0, fleetSize)
	gens := make([]*generator.ReadingGenerator, 0, fleetSize)
	for range fleetSize {
		asset := generator.NewAsset()
		if asset == nil {
			return nil, errors.New("failed to generate fleet asset")
		}
		assets = append(assets, asset)
		gens = append(gens, generator.NewReadingGenerator(asset))
	}

	return &Producer{
		VehicleClient: vehicleClient,
		MeterClient:   meterClient,
		Assets:        assets,
		generators:    gens,
		interval:      interval,
	}, nil
}

// SetMetrics sets the metrics collector for this producer.
func (p *Producer) SetMetrics(m *metrics.SimulatorMetrics) {
	p.metrics = m
	if m != nil {
		m.FleetSize.Set(float64(len(p.Assets)))
	}
}

// EmitReadings advances one random asset's charging session and publishes
// the resulting vehicle and meter readings.
// Note: uses math/rand for asset selection, acceptable for simulation data.
func (p *Producer) EmitReadings(ctx context.Context) error {
	gen := p.generators[rand.Intn(len(p.generators))] // #nosec G404 - simulation

	now := time.Now().UTC()
	vp, mp := gen.Next(now, p.interval)

	if err := p.publishVehicle(ctx, vp); err != nil {
		return err
	}
	return p.publishMeter(ctx, mp)
}

func (p *Producer) publishVehicle(ctx context.Context, vp generator.VehiclePoint) error {
	var timer *prometheus.Timer
	if p.metrics != nil {
		timer = prometheus.NewTimer(p.metrics.GenerationDuration.WithLabelValues("vehicle"))
		defer timer.ObserveDuration()
	}

	msg := collector.VehicleMessage{
		VehicleID:      vp.VehicleID,
		Soc:            vp.Soc,
		KwhDeliveredDc: vp.KwhDeliveredDc,
		BatteryTemp:    vp.BatteryTemp,
		Timestamp:      vp.Timestamp.Format(time.RFC3339),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		p.observeFailure("vehicle", "marshal_error")
		return err
	}

	if err := p.VehicleClient.Push(ctx, body); err != nil {
		p.observeFailure("vehicle", "push_error")
		return err
	}

	if p.metrics != nil {
		p.metrics.ReadingsGenerated.WithLabelValues("vehicle").Inc()
	}
	return nil
}

func (p *Producer) publishMeter(ctx context.Context, mp generator.MeterPoint) error {
	var timer *prometheus.Timer
	if p.metrics != nil {
		timer = prometheus.NewTimer(p.metrics.GenerationDuration.WithLabelValues("meter"))
		defer timer.ObserveDuration()
	}

	msg := collector.MeterMessage{
		MeterID:       mp.MeterID,
		KwhConsumedAc: mp.KwhConsumedAc,
		Voltage:       mp.Voltage,
		Timestamp:     mp.Timestamp.Format(time.RFC3339),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		p.observeFailure("meter", "marshal_error")
		return err
	}

	if err := p.MeterClient.Push(ctx, body); err != nil {
		p.observeFailure("meter", "push_error")
		return err
	}

	if p.metrics != nil {
		p.metrics.ReadingsGenerated.WithLabelValues("meter").Inc()
	}
	return nil
}

func (p *Producer) observeFailure(kind, reason string) {
	if p.metrics != nil {
		p.metrics.GenerationFailures.WithLabelValues(kind, reason).Inc()
	}
}

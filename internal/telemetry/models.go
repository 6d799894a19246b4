// Package telemetry provides the data model and transactional ingestion
// pipeline for meter and vehicle telemetry. Every reading is appended to an
// immutable history table and mirrored into a single "current state" row per
// device inside one transaction.
package telemetry

import (
	"time"
)

// MeterHistory is an immutable, append-only meter reading. Rows are created
// once and never updated or deleted.
type MeterHistory struct {
	Timestamp     time.Time `gorm:"index:idx_meter_timestamp;index:idx_meter_ts;not null" json:"timestamp"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
	MeterID       string    `gorm:"size:100;index:idx_meter_timestamp;not null" json:"meterId"`
	KwhConsumedAc float64   `gorm:"not null" json:"kwhConsumedAc"`
	Voltage       float64   `gorm:"not null" json:"voltage"`
	ID            uint      `gorm:"primaryKey" json:"id"`
}

// TableName specifies the table name for MeterHistory.
func (MeterHistory) TableName() string {
	return "meter_telemetry_history"
}

// MeterStatus is the single mutable "latest known state" row per meter,
// keyed by meter id and overwritten on every ingested reading.
type MeterStatus struct {
	MeterID       string    `gorm:"primaryKey;size:100" json:"meterId"`
	KwhConsumedAc float64   `gorm:"not null" json:"kwhConsumedAc"`
	Voltage       float64   `gorm:"not null" json:"voltage"`
	LastUpdated   time.Time `gorm:"index:idx_meter_last_updated;not null" json:"lastUpdated"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName specifies the table name for MeterStatus.
func (MeterStatus) TableName() string {
	return "meter_status"
}

// VehicleHistory is an immutable, append-only vehicle reading.
type VehicleHistory struct {
	Timestamp      time.Time `gorm:"index:idx_vehicle_timestamp;index:idx_vehicle_ts;not null" json:"timestamp"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
	VehicleID      string    `gorm:"size:100;index:idx_vehicle_timestamp;not null" json:"vehicleId"`
	Soc            float64   `gorm:"not null" json:"soc"`
	KwhDeliveredDc float64   `gorm:"not null" json:"kwhDeliveredDc"`
	BatteryTemp    float64   `gorm:"not null" json:"batteryTemp"`
	ID             uint      `gorm:"primaryKey" json:"id"`
}

// TableName specifies the table name for VehicleHistory.
func (VehicleHistory) TableName() string {
	return "vehicle_telemetry_history"
}

// VehicleStatus is the single mutable "latest known state" row per vehicle.
// IsCharging is derived on ingestion, not reported by the vehicle.
type VehicleStatus struct {
	VehicleID      string    `gorm:"primaryKey;size:100" json:"vehicleId"`
	Soc            float64   `gorm:"index:idx_vehicle_soc;not null" json:"soc"`
	KwhDeliveredDc float64   `gorm:"not null" json:"kwhDeliveredDc"`
	BatteryTemp    float64   `gorm:"not null" json:"batteryTemp"`
	IsCharging     bool      `gorm:"not null;default:false" json:"isCharging"`
	LastUpdated    time.Time `gorm:"index:idx_vehicle_last_updated;not null" json:"lastUpdated"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName specifies the table name for VehicleStatus.
func (VehicleStatus) TableName() string {
	return "vehicle_status"
}

// MeterReading is a validated meter telemetry submission. Timestamp is the
// caller-supplied time the reading was taken, not the time of ingestion.
type MeterReading struct {
	MeterID       string
	KwhConsumedAc float64
	Voltage       float64
	Timestamp     time.Time
}

// VehicleReading is a validated vehicle telemetry submission.
type VehicleReading struct {
	VehicleID      string
	Soc            float64
	KwhDeliveredDc float64
	BatteryTemp    float64
	Timestamp      time.Time
}

// chargingSocThreshold is the state-of-charge above which a vehicle is
// flagged as charging. This is a heuristic stand-in for a true
// charging-state signal from the vehicle.
const chargingSocThreshold = 20.0

// IsCharging reports the derived charging flag for this reading.
// The comparison is strictly greater-than: a SoC of exactly 20 is not charging.
func (r VehicleReading) IsCharging() bool {
	return r.Soc > chargingSocThreshold
}

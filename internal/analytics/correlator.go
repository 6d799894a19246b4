package analytics

import "strings"

// MeterCorrelator maps a vehicle id to the id of the grid meter feeding its
// charger. The mapping is injectable because deployments pair vehicles and
// meters differently; the engine only requires that the function is total.
type MeterCorrelator func(vehicleID string) string

// DefaultCorrelator derives the meter id by substituting the VEH prefix with
// METER (VEH-001 -> METER-001). This is a naming-convention placeholder, not
// a verified mapping: an id without a VEH segment passes through unchanged
// and simply aggregates to zero AC consumption downstream.
func DefaultCorrelator(vehicleID string) string {
	return strings.Replace(vehicleID, "VEH", "METER", 1)
}

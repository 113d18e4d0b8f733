// Package trace provides decision-trace recording for dispatch analysis.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// Deferral reasons.
const (
	ReasonNoWarehouse = "no-warehouse" // no warehouse covers every demand line
	ReasonNoVehicle   = "no-vehicle"   // stock found, but no eligible vehicle at that warehouse
)

// DispatchRecord captures a single successful assignment.
type DispatchRecord struct {
	OrderID     int
	Clock       int64
	VIP         bool
	Score       float64
	WarehouseID int
	VehicleID   int
	ETA         int64
}

// DeferralRecord captures an order left in its queue during an assignment pass.
type DeferralRecord struct {
	OrderID int
	Clock   int64
	VIP     bool
	Reason  string
}

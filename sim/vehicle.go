package sim

import "fmt"

// VehicleType is informational; it does not affect matching.
type VehicleType string

const (
	VehicleStandard     VehicleType = "standard"
	VehicleRefrigerated VehicleType = "refrigerated"
)

// VehicleStatus represents the lifecycle state of a vehicle.
type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "available"
	VehicleOutbound    VehicleStatus = "outbound"
	VehicleReturning   VehicleStatus = "returning"
	VehicleMaintenance VehicleStatus = "maintenance"
)

// Vehicle is a delivery vehicle homed at one warehouse.
//
// Two cycles, never interleaved:
//
//	Available --dispatch--> Outbound --arrive--> Returning --home--> Available
//	Available --maintenance--> Maintenance --elapsed--> Available
//
// AvailableAt is the tick at which the current leg (or maintenance window) ends.
type Vehicle struct {
	ID          VehicleID     `json:"id"`
	Type        VehicleType   `json:"type"`
	Speed       int           `json:"speed"`
	Capacity    int           `json:"capacity"`
	Home        WarehouseID   `json:"home"`
	Status      VehicleStatus `json:"status"`
	AvailableAt int64         `json:"available_at"`
	Destination NodeID        `json:"destination"`
	Orders      []OrderID     `json:"orders"`
	Load        int           `json:"load"` // sum of carried order quantities
}

// NewVehicle creates an Available vehicle at its home warehouse.
func NewVehicle(id VehicleID, typ VehicleType, speed, capacity int, home WarehouseID) *Vehicle {
	if typ == "" {
		typ = VehicleStandard
	}
	return &Vehicle{
		ID:          id,
		Type:        typ,
		Speed:       speed,
		Capacity:    capacity,
		Home:        home,
		Status:      VehicleAvailable,
		Destination: NoID,
	}
}

// CanCarry reports whether quantity more units fit within capacity.
func (v *Vehicle) CanCarry(quantity int) bool {
	return v.Load+quantity <= v.Capacity
}

// IsAvailable reports whether the vehicle can be dispatched.
func (v *Vehicle) IsAvailable() bool {
	return v.Status == VehicleAvailable
}

func (v *Vehicle) dispatch(order OrderID, quantity int, dest NodeID, eta int64) bool {
	if v.Status != VehicleAvailable || !v.CanCarry(quantity) {
		return false
	}
	v.Status = VehicleOutbound
	v.Destination = dest
	v.Orders = append(v.Orders, order)
	v.Load += quantity
	v.AvailableAt = eta
	return true
}

// arrive unloads the vehicle at its destination and starts the return leg.
// Returns the orders that were on board.
func (v *Vehicle) arrive(homeAt int64) []OrderID {
	if v.Status != VehicleOutbound {
		return nil
	}
	carried := v.Orders
	v.Orders = nil
	v.Load = 0
	v.Status = VehicleReturning
	v.AvailableAt = homeAt
	return carried
}

func (v *Vehicle) startMaintenance(until int64) bool {
	if v.Status != VehicleAvailable {
		return false
	}
	v.Status = VehicleMaintenance
	v.AvailableAt = until
	return true
}

func (v *Vehicle) release() bool {
	if v.Status != VehicleReturning && v.Status != VehicleMaintenance {
		return false
	}
	v.Status = VehicleAvailable
	return true
}

func (v *Vehicle) clone() Vehicle {
	c := *v
	c.Orders = append([]OrderID(nil), v.Orders...)
	return c
}

func (v Vehicle) String() string {
	return fmt.Sprintf("Vehicle: (ID: %d, Status: %s, Home: %d, AvailableAt: %d, Load: %d/%d)",
		v.ID, v.Status, v.Home, v.AvailableAt, v.Load, v.Capacity)
}

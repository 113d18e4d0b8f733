package sim

import "fmt"

// EventKind tags the closed set of external events.
type EventKind string

const (
	KindOrderArrival EventKind = "order_arrival"
	KindRestock      EventKind = "restock"
	KindCancel       EventKind = "cancel"
	KindMaintenance  EventKind = "maintenance"
	KindReroute      EventKind = "reroute"
)

// Event is an external perturbation scheduled at a tick.
// The set of implementations is closed: only the five types in this file satisfy it,
// and Simulator.applyEvent switches over all of them.
// Events are immutable once scheduled and consumed exactly once.
type Event interface {
	Timestamp() int64
	Kind() EventKind
	String() string
	sealed()
}

// OrderArrivalEvent creates a Waiting order and enqueues it by priority class.
type OrderArrivalEvent struct {
	Time        int64
	OrderID     OrderID
	Destination NodeID
	DueBy       int64 // 0 = no deadline
	VIP         bool
	Demand      []LineItem
	Value       float64 // 0 = total quantity
}

// RestockEvent additively increases a warehouse's inventory.
type RestockEvent struct {
	Time        int64
	WarehouseID WarehouseID
	Items       []LineItem
}

// CancelEvent cancels an order if it is still Waiting.
type CancelEvent struct {
	Time    int64
	OrderID OrderID
}

// MaintenanceEvent takes an Available vehicle out of service for Duration ticks.
type MaintenanceEvent struct {
	Time      int64
	VehicleID VehicleID
	Duration  int64
}

// RerouteEvent changes the travel time of the unordered node pair (NodeA, NodeB).
// Vehicles already en route keep their ETA.
type RerouteEvent struct {
	Time       int64
	NodeA      NodeID
	NodeB      NodeID
	TravelTime int64
}

func (e *OrderArrivalEvent) Timestamp() int64 { return e.Time }
func (e *RestockEvent) Timestamp() int64      { return e.Time }
func (e *CancelEvent) Timestamp() int64       { return e.Time }
func (e *MaintenanceEvent) Timestamp() int64  { return e.Time }
func (e *RerouteEvent) Timestamp() int64      { return e.Time }

func (e *OrderArrivalEvent) Kind() EventKind { return KindOrderArrival }
func (e *RestockEvent) Kind() EventKind      { return KindRestock }
func (e *CancelEvent) Kind() EventKind       { return KindCancel }
func (e *MaintenanceEvent) Kind() EventKind  { return KindMaintenance }
func (e *RerouteEvent) Kind() EventKind      { return KindReroute }

func (*OrderArrivalEvent) sealed() {}
func (*RestockEvent) sealed()      {}
func (*CancelEvent) sealed()       {}
func (*MaintenanceEvent) sealed()  {}
func (*RerouteEvent) sealed()      {}

func (e *OrderArrivalEvent) String() string {
	vip := ""
	if e.VIP {
		vip = " [VIP]"
	}
	return fmt.Sprintf("Order #%d arrived%s to dest %d", e.OrderID, vip, e.Destination)
}

func (e *RestockEvent) String() string {
	return fmt.Sprintf("Restock at Warehouse #%d (%d items)", e.WarehouseID, len(e.Items))
}

func (e *CancelEvent) String() string {
	return fmt.Sprintf("Order #%d canceled", e.OrderID)
}

func (e *MaintenanceEvent) String() string {
	return fmt.Sprintf("Vehicle #%d maintenance for %d timesteps", e.VehicleID, e.Duration)
}

func (e *RerouteEvent) String() string {
	return fmt.Sprintf("Route %d-%d updated to %d timesteps", e.NodeA, e.NodeB, e.TravelTime)
}

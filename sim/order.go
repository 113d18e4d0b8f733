// Defines the Order record that models a single customer order in the simulation.
// Tracks request/deadline times, demand lines, assignment and the three lifecycle timestamps.

package sim

import (
	"fmt"
)

// OrderID identifies an order. Order ids are supplied by the scenario, not generated.
type OrderID int

// VehicleID identifies a vehicle.
type VehicleID int

// WarehouseID identifies a warehouse.
type WarehouseID int

// NodeID identifies a node of the travel-time matrix. Nodes are numbered from 1.
type NodeID int

// ItemID identifies a stock-keeping unit.
type ItemID int

const (
	// NoID marks an unset entity reference (assigned warehouse/vehicle).
	NoID = -1
	// Unset marks a lifecycle timestamp that has not been reached yet.
	Unset int64 = -1
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderWaiting   OrderStatus = "waiting"
	OrderAssigned  OrderStatus = "assigned"
	OrderInTransit OrderStatus = "in_transit"
	OrderDelivered OrderStatus = "delivered"
	OrderCanceled  OrderStatus = "canceled"
	// OrderPartiallyFulfilled is never produced: stock is deducted all-or-nothing.
	OrderPartiallyFulfilled OrderStatus = "partially_fulfilled"
)

// PriorityClass selects the waiting queue an order joins.
type PriorityClass string

const (
	PriorityVIP      PriorityClass = "vip"
	PriorityStandard PriorityClass = "standard"
)

// LineItem is a (item, quantity) pair, used for order demand, restocks and inventories.
type LineItem struct {
	Item     ItemID `json:"item"`
	Quantity int    `json:"quantity"`
}

// Order models a single order's lifecycle in the simulation.
//
// State machine:
//
//	Waiting --dispatch--> InTransit --deliver--> Delivered
//	Waiting --cancel----> Canceled
//
// Any other transition attempt is a no-op. Each of AssignTime, DispatchTime and
// FinishTime is written exactly once, by its transition.
type Order struct {
	ID          OrderID       `json:"id"`
	RequestTime int64         `json:"request_time"`
	DueBy       int64         `json:"due_by"` // 0 = no deadline
	Destination NodeID        `json:"destination"`
	Priority    PriorityClass `json:"priority"`
	Status      OrderStatus   `json:"status"`
	Value       float64       `json:"value"`
	Demand      []LineItem    `json:"demand"`

	AssignedWarehouse WarehouseID `json:"assigned_warehouse"`
	AssignedVehicle   VehicleID   `json:"assigned_vehicle"`

	AssignTime   int64 `json:"assign_time"`
	DispatchTime int64 `json:"dispatch_time"`
	FinishTime   int64 `json:"finish_time"`
}

// NewOrder creates a Waiting order. A zero value defaults to the order's total quantity.
func NewOrder(id OrderID, requestTime, dueBy int64, dest NodeID, vip bool, value float64, demand []LineItem) *Order {
	priority := PriorityStandard
	if vip {
		priority = PriorityVIP
	}
	o := &Order{
		ID:                id,
		RequestTime:       requestTime,
		DueBy:             dueBy,
		Destination:       dest,
		Priority:          priority,
		Status:            OrderWaiting,
		Value:             value,
		Demand:            append([]LineItem(nil), demand...),
		AssignedWarehouse: NoID,
		AssignedVehicle:   NoID,
		AssignTime:        Unset,
		DispatchTime:      Unset,
		FinishTime:        Unset,
	}
	if o.Value == 0 {
		o.Value = float64(o.TotalQuantity())
	}
	return o
}

// TotalQuantity returns the sum of all demand quantities.
func (o *Order) TotalQuantity() int {
	total := 0
	for _, line := range o.Demand {
		total += line.Quantity
	}
	return total
}

// IsVIP reports whether the order belongs to the VIP queue.
func (o *Order) IsVIP() bool {
	return o.Priority == PriorityVIP
}

// IsTerminal reports whether the order reached Delivered or Canceled.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderDelivered || o.Status == OrderCanceled
}

// WaitTime is the time spent waiting for assignment. Only meaningful once assigned.
func (o *Order) WaitTime() int64 {
	return o.AssignTime - o.RequestTime
}

// TransitTime is the time between dispatch and delivery. Only meaningful once delivered.
func (o *Order) TransitTime() int64 {
	return o.FinishTime - o.DispatchTime
}

// OnTime reports whether a delivered order met its deadline.
// Orders without a deadline are always on time.
func (o *Order) OnTime() bool {
	return o.DueBy == 0 || o.FinishTime <= o.DueBy
}

func (o *Order) dispatch(w WarehouseID, v VehicleID, now int64) bool {
	if o.Status != OrderWaiting {
		return false
	}
	o.Status = OrderInTransit
	o.AssignedWarehouse = w
	o.AssignedVehicle = v
	o.AssignTime = now
	o.DispatchTime = now
	return true
}

func (o *Order) deliver(now int64) bool {
	if o.Status != OrderInTransit {
		return false
	}
	o.Status = OrderDelivered
	o.FinishTime = now
	return true
}

func (o *Order) cancel() bool {
	if o.Status != OrderWaiting {
		return false
	}
	o.Status = OrderCanceled
	return true
}

func (o *Order) clone() Order {
	c := *o
	c.Demand = append([]LineItem(nil), o.Demand...)
	return c
}

// This method returns a human-readable string representation of an Order.
func (o Order) String() string {
	return fmt.Sprintf("Order: (ID: %d, Status: %s, Priority: %s, Destination: %d, RequestTime: %d)",
		o.ID, o.Status, o.Priority, o.Destination, o.RequestTime)
}

// validateDemand checks that demand lines have unique item ids and positive quantities.
func validateDemand(demand []LineItem) error {
	if len(demand) == 0 {
		return fmt.Errorf("demand must not be empty")
	}
	seen := make(map[ItemID]bool, len(demand))
	for _, line := range demand {
		if seen[line.Item] {
			return fmt.Errorf("duplicate item %d in demand", line.Item)
		}
		seen[line.Item] = true
		if line.Quantity <= 0 {
			return fmt.Errorf("item %d: quantity must be positive, got %d", line.Item, line.Quantity)
		}
	}
	return nil
}

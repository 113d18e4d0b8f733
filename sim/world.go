package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWorld wraps every load-time validation failure.
	ErrInvalidWorld = errors.New("invalid world")
	// ErrUnknownEntity is reported when an event or reference names an id that does not exist.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrDuplicateOrder is reported when an order id is used twice.
	ErrDuplicateOrder = errors.New("duplicate order id")
)

// VehicleSpec describes a vehicle at load time.
type VehicleSpec struct {
	ID       VehicleID   `yaml:"id"`
	Type     VehicleType `yaml:"type"`
	Speed    int         `yaml:"speed"`
	Capacity int         `yaml:"capacity"`
	Home     WarehouseID `yaml:"home"`
}

// WarehouseSpec describes a warehouse and its initial inventory at load time.
type WarehouseSpec struct {
	ID        WarehouseID `yaml:"id"`
	Node      NodeID      `yaml:"node"`
	Inventory []LineItem  `yaml:"inventory"`
}

// World is everything a Simulator needs to start: the network, the fleet, the
// warehouses and the external events. Events may be listed in any order.
type World struct {
	// Items is the number of distinct item ids (1..Items). 0 disables the range check.
	Items      int
	Matrix     [][]int64
	Vehicles   []VehicleSpec
	Warehouses []WarehouseSpec
	Events     []Event
}

// Validate reports every problem found in the world, joined into one error wrapped with
// ErrInvalidWorld. A nil return means NewSimulator will accept the world.
func (w *World) Validate() error {
	var errs []error
	add := func(err error) { errs = append(errs, err) }

	nodes := len(w.Matrix)
	if nodes == 0 {
		add(errors.New("travel-time matrix must not be empty"))
	}
	if _, err := NewTravelTimeMatrix(w.Matrix); err != nil && nodes > 0 {
		add(err)
	}
	for i := 0; i < nodes; i++ {
		if len(w.Matrix[i]) > i && w.Matrix[i][i] != 0 {
			add(fmt.Errorf("travel time (%d,%d) must be 0, got %d", i+1, i+1, w.Matrix[i][i]))
		}
	}
	hasNode := func(n NodeID) bool { return n >= 1 && int(n) <= nodes }

	warehouses := make(map[WarehouseID]bool, len(w.Warehouses))
	if len(w.Warehouses) == 0 {
		add(errors.New("at least one warehouse is required"))
	}
	for _, spec := range w.Warehouses {
		if warehouses[spec.ID] {
			add(fmt.Errorf("warehouse %d: duplicate id", spec.ID))
		}
		warehouses[spec.ID] = true
		if !hasNode(spec.Node) {
			add(fmt.Errorf("warehouse %d: node %d outside matrix (1..%d)", spec.ID, spec.Node, nodes))
		}
		seen := make(map[ItemID]bool, len(spec.Inventory))
		for _, line := range spec.Inventory {
			if seen[line.Item] {
				add(fmt.Errorf("warehouse %d: duplicate item %d in inventory", spec.ID, line.Item))
			}
			seen[line.Item] = true
			if line.Quantity < 0 {
				add(fmt.Errorf("warehouse %d item %d: quantity must be non-negative, got %d", spec.ID, line.Item, line.Quantity))
			}
			if err := w.checkItem(line.Item); err != nil {
				add(fmt.Errorf("warehouse %d: %w", spec.ID, err))
			}
		}
	}

	vehicles := make(map[VehicleID]bool, len(w.Vehicles))
	for _, spec := range w.Vehicles {
		if vehicles[spec.ID] {
			add(fmt.Errorf("vehicle %d: duplicate id", spec.ID))
		}
		vehicles[spec.ID] = true
		if spec.Speed <= 0 {
			add(fmt.Errorf("vehicle %d: speed must be positive, got %d", spec.ID, spec.Speed))
		}
		if spec.Capacity <= 0 {
			add(fmt.Errorf("vehicle %d: capacity must be positive, got %d", spec.ID, spec.Capacity))
		}
		if spec.Type != "" && spec.Type != VehicleStandard && spec.Type != VehicleRefrigerated {
			add(fmt.Errorf("vehicle %d: unknown type %q", spec.ID, spec.Type))
		}
		if !warehouses[spec.Home] {
			add(fmt.Errorf("vehicle %d: home warehouse %d: %w", spec.ID, spec.Home, ErrUnknownEntity))
		}
	}

	orders := make(map[OrderID]bool)
	for _, ev := range w.Events {
		if a, ok := ev.(*OrderArrivalEvent); ok && a != nil {
			if orders[a.OrderID] {
				add(fmt.Errorf("order %d: %w", a.OrderID, ErrDuplicateOrder))
			}
			orders[a.OrderID] = true
		}
	}

	for i, ev := range w.Events {
		if ev == nil {
			add(fmt.Errorf("event %d: nil event", i))
			continue
		}
		if ev.Timestamp() < 0 {
			add(fmt.Errorf("event %d (%s): time must be non-negative, got %d", i, ev.Kind(), ev.Timestamp()))
		}
		switch e := ev.(type) {
		case *OrderArrivalEvent:
			if !hasNode(e.Destination) {
				add(fmt.Errorf("event %d: order %d destination node %d: %w", i, e.OrderID, e.Destination, ErrUnknownEntity))
			}
			if e.DueBy < 0 {
				add(fmt.Errorf("event %d: order %d due-by must be non-negative, got %d", i, e.OrderID, e.DueBy))
			}
			if e.Value < 0 {
				add(fmt.Errorf("event %d: order %d value must be non-negative, got %g", i, e.OrderID, e.Value))
			}
			if err := validateDemand(e.Demand); err != nil {
				add(fmt.Errorf("event %d: order %d: %w", i, e.OrderID, err))
			}
			for _, line := range e.Demand {
				if err := w.checkItem(line.Item); err != nil {
					add(fmt.Errorf("event %d: order %d: %w", i, e.OrderID, err))
				}
			}
		case *RestockEvent:
			if !warehouses[e.WarehouseID] {
				add(fmt.Errorf("event %d: restock warehouse %d: %w", i, e.WarehouseID, ErrUnknownEntity))
			}
			for _, line := range e.Items {
				if line.Quantity < 0 {
					add(fmt.Errorf("event %d: restock item %d: quantity must be non-negative, got %d", i, line.Item, line.Quantity))
				}
				if err := w.checkItem(line.Item); err != nil {
					add(fmt.Errorf("event %d: restock: %w", i, err))
				}
			}
		case *CancelEvent:
			if !orders[e.OrderID] {
				add(fmt.Errorf("event %d: cancel order %d: %w", i, e.OrderID, ErrUnknownEntity))
			}
		case *MaintenanceEvent:
			if !vehicles[e.VehicleID] {
				add(fmt.Errorf("event %d: maintenance vehicle %d: %w", i, e.VehicleID, ErrUnknownEntity))
			}
			if e.Duration < 0 {
				add(fmt.Errorf("event %d: maintenance duration must be non-negative, got %d", i, e.Duration))
			}
		case *RerouteEvent:
			if !hasNode(e.NodeA) || !hasNode(e.NodeB) {
				add(fmt.Errorf("event %d: reroute %d-%d: %w", i, e.NodeA, e.NodeB, ErrUnknownEntity))
			} else if e.NodeA == e.NodeB {
				add(fmt.Errorf("event %d: reroute must join two distinct nodes, got %d-%d", i, e.NodeA, e.NodeB))
			}
			if e.TravelTime < 0 {
				add(fmt.Errorf("event %d: reroute time must be non-negative, got %d", i, e.TravelTime))
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidWorld, errors.Join(errs...))
}

func (w *World) checkItem(item ItemID) error {
	if item < 1 || (w.Items > 0 && int(item) > w.Items) {
		if w.Items > 0 {
			return fmt.Errorf("item %d outside 1..%d: %w", item, w.Items, ErrUnknownEntity)
		}
		return fmt.Errorf("item %d: ids start at 1: %w", item, ErrUnknownEntity)
	}
	return nil
}

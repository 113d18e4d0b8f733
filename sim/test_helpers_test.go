package sim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// twoNodeWorld is one warehouse (id 1, node 1, item 1 ×stock) and one vehicle
// (id 1, speed 1, capacity 10, home 1) with travel time 3 between nodes 1 and 2.
func twoNodeWorld(stock int, events ...Event) *World {
	return &World{
		Items:      1,
		Matrix:     [][]int64{{0, 3}, {3, 0}},
		Vehicles:   []VehicleSpec{{ID: 1, Type: VehicleStandard, Speed: 1, Capacity: 10, Home: 1}},
		Warehouses: []WarehouseSpec{{ID: 1, Node: 1, Inventory: []LineItem{{Item: 1, Quantity: stock}}}},
		Events:     events,
	}
}

func arrival(t, id int64, dest NodeID, vip bool, qty int) *OrderArrivalEvent {
	return &OrderArrivalEvent{
		Time:        t,
		OrderID:     OrderID(id),
		Destination: dest,
		VIP:         vip,
		Demand:      []LineItem{{Item: 1, Quantity: qty}},
	}
}

func mustSimulator(t *testing.T, w *World, opts ...Option) *Simulator {
	t.Helper()
	s, err := NewSimulator(w, opts...)
	require.NoError(t, err)
	return s
}

// stepUntil steps until the clock reaches tick or the run finishes, returning every result.
func stepUntil(s *Simulator, tick int64) []StepResult {
	var out []StepResult
	for !s.Finished() && s.Clock() <= tick {
		out = append(out, s.Step())
	}
	return out
}

func mustOrder(t *testing.T, s *Simulator, id OrderID) Order {
	t.Helper()
	o, ok := s.Order(id)
	require.True(t, ok, "order %d not found", id)
	return o
}

// checkInvariants asserts the properties that must hold between any two steps.
func checkInvariants(t *testing.T, s *Simulator) {
	t.Helper()
	for _, w := range s.Warehouses() {
		for item, qty := range w.Inventory {
			require.GreaterOrEqual(t, qty, 0, "warehouse %d item %d negative", w.ID, item)
		}
	}
	orders := make(map[OrderID]Order)
	for _, o := range s.Orders() {
		orders[o.ID] = o
	}
	for _, v := range s.Vehicles() {
		load := 0
		for _, id := range v.Orders {
			o := orders[id]
			load += o.TotalQuantity()
		}
		require.LessOrEqual(t, load, v.Capacity, "vehicle %d over capacity", v.ID)
		require.Equal(t, load, v.Load, "vehicle %d load out of sync", v.ID)
	}
}

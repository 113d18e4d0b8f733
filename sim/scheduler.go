package sim

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/dispatchsim/dispatchsim/sim/trace"
)

// arenas are the id-indexed entity stores owned by a Simulator.
// Entities never point at each other; every cross-reference is an id resolved here.
type arenas struct {
	orders       map[OrderID]*Order
	vehicles     map[VehicleID]*Vehicle
	warehouses   map[WarehouseID]*Warehouse
	vehicleIDs   []VehicleID   // ascending
	warehouseIDs []WarehouseID // ascending
	travel       *TravelTimeMatrix
}

// Assignment is a dispatch made during an assignment pass.
type Assignment struct {
	OrderID     OrderID     `json:"order_id"`
	WarehouseID WarehouseID `json:"warehouse_id"`
	VehicleID   VehicleID   `json:"vehicle_id"`
	ETA         int64       `json:"eta"`
}

// Scheduler owns the VIP and standard waiting queues and matches waiting orders to a
// warehouse and vehicle. It is the only writer of inventory and vehicle state.
type Scheduler struct {
	vip      *WaitQueue
	standard *WaitQueue
	priority PriorityPolicy
	state    *arenas
	trace    *trace.SimulationTrace // nil when tracing is disabled
}

func newScheduler(state *arenas, priority PriorityPolicy, st *trace.SimulationTrace) *Scheduler {
	if priority == nil {
		priority = DefaultPriority()
	}
	return &Scheduler{
		vip:      &WaitQueue{},
		standard: &WaitQueue{},
		priority: priority,
		state:    state,
		trace:    st,
	}
}

// Enqueue appends a waiting order to the queue of its priority class.
func (s *Scheduler) Enqueue(o *Order) {
	if o.IsVIP() {
		s.vip.Enqueue(o.ID)
	} else {
		s.standard.Enqueue(o.ID)
	}
}

// RemoveFromQueues drops id from both queues. Idempotent.
func (s *Scheduler) RemoveFromQueues(id OrderID) {
	s.vip.Remove(id)
	s.standard.Remove(id)
}

// HasWaitingOrders reports whether either queue is non-empty.
func (s *Scheduler) HasWaitingOrders() bool {
	return s.vip.Len() > 0 || s.standard.Len() > 0
}

// VIPQueue returns the VIP queue contents in their current order.
func (s *Scheduler) VIPQueue() []OrderID { return s.vip.Items() }

// StandardQueue returns the standard queue contents in arrival order.
func (s *Scheduler) StandardQueue() []OrderID { return s.standard.Items() }

// AttemptAssignments tries every waiting order once: the VIP queue sorted by score
// (descending, stable), then the standard queue in arrival order. An order that cannot
// be matched stays queued and does not block the orders behind it.
func (s *Scheduler) AttemptAssignments(clock int64) []Assignment {
	scores := make(map[OrderID]float64, s.vip.Len())
	for _, id := range s.vip.queue {
		if o, ok := s.state.orders[id]; ok {
			scores[id] = s.priority.Compute(o, clock)
		}
	}
	s.vip.Reorder(func(ids []OrderID) {
		sort.SliceStable(ids, func(i, j int) bool {
			return scores[ids[i]] > scores[ids[j]]
		})
	})

	var assignments []Assignment
	assignments = s.drain(s.vip, clock, assignments)
	assignments = s.drain(s.standard, clock, assignments)
	return assignments
}

func (s *Scheduler) drain(q *WaitQueue, clock int64, out []Assignment) []Assignment {
	q.Filter(func(id OrderID) bool {
		o, ok := s.state.orders[id]
		if !ok || o.Status != OrderWaiting {
			return false
		}
		a, reason := s.tryAssign(o, clock)
		if reason != "" {
			logrus.Debugf("[tick %07d] order %d deferred: %s", clock, id, reason)
			if s.trace != nil {
				s.trace.RecordDeferral(trace.DeferralRecord{
					OrderID: int(id), Clock: clock, VIP: o.IsVIP(), Reason: reason,
				})
			}
			return true
		}
		out = append(out, a)
		return false
	})
	return out
}

func (s *Scheduler) tryAssign(o *Order, clock int64) (Assignment, string) {
	w := s.selectWarehouse(o)
	if w == nil {
		return Assignment{}, trace.ReasonNoWarehouse
	}
	qty := o.TotalQuantity()
	v := s.selectVehicle(w.ID, qty)
	if v == nil {
		return Assignment{}, trace.ReasonNoVehicle
	}

	if err := w.Deduct(o.Demand); err != nil {
		// selectWarehouse only returns warehouses covering the demand
		panic(fmt.Sprintf("tryAssign: %v", err))
	}
	eta := clock + TravelTicks(s.state.travel.Time(w.Node, o.Destination), v.Speed)
	o.dispatch(w.ID, v.ID, clock)
	v.dispatch(o.ID, qty, o.Destination, eta)

	if s.trace != nil {
		s.trace.RecordDispatch(trace.DispatchRecord{
			OrderID:     int(o.ID),
			Clock:       clock,
			VIP:         o.IsVIP(),
			Score:       s.priority.Compute(o, clock),
			WarehouseID: int(w.ID),
			VehicleID:   int(v.ID),
			ETA:         eta,
		})
	}
	return Assignment{OrderID: o.ID, WarehouseID: w.ID, VehicleID: v.ID, ETA: eta}, ""
}

// selectWarehouse returns the warehouse covering every demand line with the smallest
// travel time to the destination; ties go to the lowest id.
func (s *Scheduler) selectWarehouse(o *Order) *Warehouse {
	var best *Warehouse
	var bestTime int64
	for _, id := range s.state.warehouseIDs {
		w := s.state.warehouses[id]
		if !w.CanFulfill(o.Demand) {
			continue
		}
		t := s.state.travel.Time(w.Node, o.Destination)
		if best == nil || t < bestTime {
			best, bestTime = w, t
		}
	}
	return best
}

// selectVehicle returns the lowest-id Available vehicle homed at warehouse that can
// carry quantity.
func (s *Scheduler) selectVehicle(warehouse WarehouseID, quantity int) *Vehicle {
	for _, id := range s.state.vehicleIDs {
		v := s.state.vehicles[id]
		if v.Home == warehouse && v.IsAvailable() && v.CanCarry(quantity) {
			return v
		}
	}
	return nil
}

// ProcessArrivalsAndReturns completes every vehicle leg that ends at or before clock.
// Outbound vehicles deliver their orders and start the return trip (same matrix
// distance, destination → home node); Returning and Maintenance vehicles become
// Available. Returns the delivered order ids in vehicle-id order.
func (s *Scheduler) ProcessArrivalsAndReturns(clock int64) []OrderID {
	var delivered []OrderID
	for _, id := range s.state.vehicleIDs {
		v := s.state.vehicles[id]
		if v.AvailableAt > clock {
			continue
		}
		switch v.Status {
		case VehicleOutbound:
			home := s.state.warehouses[v.Home]
			back := TravelTicks(s.state.travel.Time(v.Destination, home.Node), v.Speed)
			for _, oid := range v.arrive(clock + back) {
				if s.state.orders[oid].deliver(clock) {
					delivered = append(delivered, oid)
				}
			}
			logrus.Debugf("[tick %07d] vehicle %d arrived at node %d, home at %d", clock, v.ID, v.Destination, v.AvailableAt)
		case VehicleReturning, VehicleMaintenance:
			v.release()
			logrus.Debugf("[tick %07d] vehicle %d available", clock, v.ID)
		}
	}
	return delivered
}

// sim/simulator.go
package sim

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/dispatchsim/dispatchsim/sim/trace"
)

// ErrTickLimit is returned by Run when the tick budget runs out before the simulation finishes.
var ErrTickLimit = errors.New("tick limit reached before simulation finished")

// StepResult is everything that happened during one Step.
type StepResult struct {
	// Time is the tick that was processed.
	Time          int64          `json:"time"`
	Notifications []Notification `json:"notifications"`
	Assignments   []Assignment   `json:"assignments"`
	Delivered     []OrderID      `json:"delivered"`
	Finished      bool           `json:"finished"`
}

// OrderRequest is an order pushed in by a command instead of an OrderArrival event.
type OrderRequest struct {
	ID          OrderID    `json:"id"`
	Destination NodeID     `json:"destination"`
	DueBy       int64      `json:"due_by"`
	VIP         bool       `json:"vip"`
	Demand      []LineItem `json:"demand"`
	Value       float64    `json:"value"`
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithSink registers a notification sink. Sinks are called in registration order.
func WithSink(s Sink) Option {
	return func(sim *Simulator) { sim.sinks = append(sim.sinks, s) }
}

// WithFastForward lets the clock jump over idle ticks when both waiting queues are empty.
// Outcomes are identical with and without it.
func WithFastForward() Option {
	return func(sim *Simulator) { sim.fastForward = true }
}

// WithTrace records dispatch and deferral decisions at the given level.
func WithTrace(cfg trace.TraceConfig) Option {
	return func(sim *Simulator) {
		if cfg.Enabled() {
			sim.trace = trace.NewSimulationTrace(cfg)
		}
	}
}

// WithPriorityPolicy replaces the VIP scoring policy.
func WithPriorityPolicy(p PriorityPolicy) Option {
	return func(sim *Simulator) { sim.priority = p }
}

// Simulator is the core object that holds simulation time, the entity arenas, the
// event queue and the scheduler. It is not safe for concurrent use; wrappers must
// serialize calls.
type Simulator struct {
	clock     int64
	finished  bool
	state     *arenas
	events    *EventQueue
	scheduler *Scheduler

	// knownOrders holds every order id that exists or is still scheduled to arrive.
	knownOrders map[OrderID]bool
	// notifications emitted by commands between steps, flushed into the next StepResult
	pending []Notification

	sinks       []Sink
	fastForward bool
	priority    PriorityPolicy
	trace       *trace.SimulationTrace
}

// NewSimulator validates world and builds a simulator at tick 0. On error nothing is built.
func NewSimulator(world *World, opts ...Option) (*Simulator, error) {
	if world == nil {
		return nil, fmt.Errorf("%w: nil world", ErrInvalidWorld)
	}
	if err := world.Validate(); err != nil {
		return nil, err
	}
	travel, err := NewTravelTimeMatrix(world.Matrix)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorld, err)
	}

	state := &arenas{
		orders:     make(map[OrderID]*Order),
		vehicles:   make(map[VehicleID]*Vehicle, len(world.Vehicles)),
		warehouses: make(map[WarehouseID]*Warehouse, len(world.Warehouses)),
		travel:     travel,
	}
	for _, spec := range world.Warehouses {
		state.warehouses[spec.ID] = NewWarehouse(spec.ID, spec.Node, spec.Inventory)
		state.warehouseIDs = append(state.warehouseIDs, spec.ID)
	}
	for _, spec := range world.Vehicles {
		state.vehicles[spec.ID] = NewVehicle(spec.ID, spec.Type, spec.Speed, spec.Capacity, spec.Home)
		state.vehicleIDs = append(state.vehicleIDs, spec.ID)
	}
	sort.Slice(state.warehouseIDs, func(i, j int) bool { return state.warehouseIDs[i] < state.warehouseIDs[j] })
	sort.Slice(state.vehicleIDs, func(i, j int) bool { return state.vehicleIDs[i] < state.vehicleIDs[j] })

	sim := &Simulator{
		state:       state,
		events:      NewEventQueue(),
		knownOrders: make(map[OrderID]bool),
	}
	for _, opt := range opts {
		opt(sim)
	}
	sim.scheduler = newScheduler(state, sim.priority, sim.trace)

	for _, ev := range world.Events {
		if a, ok := ev.(*OrderArrivalEvent); ok {
			sim.knownOrders[a.OrderID] = true
		}
		sim.events.Schedule(ev)
	}
	logrus.Infof("[tick %07d] Simulator ready: %d warehouses, %d vehicles, %d nodes, %d events",
		sim.clock, len(state.warehouses), len(state.vehicles), travel.Nodes(), sim.events.Len())
	return sim, nil
}

// Step processes the current tick: due events, then vehicle arrivals and returns, then
// assignments. It then either latches Finished or advances the clock. Once finished,
// Step is a no-op until a command adds work.
func (s *Simulator) Step() StepResult {
	now := s.clock
	res := StepResult{Time: now, Notifications: s.pending}
	s.pending = nil
	if s.finished {
		res.Finished = true
		return res
	}

	for _, ev := range s.events.PopAllDue(now) {
		logrus.Debugf("[tick %07d] Executing %s", now, ev)
		s.applyEvent(ev, &res)
	}

	res.Delivered = s.scheduler.ProcessArrivalsAndReturns(now)
	for _, id := range res.Delivered {
		n := newNotification(NotifyOrderDelivered, now)
		n.OrderID = id
		n.VehicleID = s.state.orders[id].AssignedVehicle
		n.WarehouseID = s.state.orders[id].AssignedWarehouse
		s.emit(&res, n)
		s.logMessage(&res, now, fmt.Sprintf("T=%d: Order #%d delivered", now, id))
	}

	res.Assignments = s.scheduler.AttemptAssignments(now)
	for _, a := range res.Assignments {
		n := newNotification(NotifyVehicleDispatched, now)
		n.OrderID, n.VehicleID, n.WarehouseID = a.OrderID, a.VehicleID, a.WarehouseID
		s.emit(&res, n)
		s.logMessage(&res, now, fmt.Sprintf("T=%d: Order #%d dispatched via Vehicle #%d from Warehouse #%d",
			now, a.OrderID, a.VehicleID, a.WarehouseID))
	}

	if s.isFinished() {
		s.finished = true
		res.Finished = true
		s.emit(&res, newNotification(NotifySimulationFinished, now))
		s.logMessage(&res, now, "Simulation completed!")
		logrus.Infof("[tick %07d] Simulation ended", now)
		return res
	}

	s.clock = s.nextTick(now)
	s.emit(&res, newNotification(NotifyTimeAdvanced, s.clock))
	return res
}

// Run steps until the simulation finishes, ctx is done, or maxTicks steps have run
// (0 means no limit).
func (s *Simulator) Run(ctx context.Context, maxTicks int64) error {
	return s.RunFunc(ctx, maxTicks, nil)
}

// RunFunc is Run with fn, when non-nil, called after every step.
func (s *Simulator) RunFunc(ctx context.Context, maxTicks int64, fn func(StepResult)) error {
	for steps := int64(0); !s.finished; steps++ {
		if maxTicks > 0 && steps >= maxTicks {
			return fmt.Errorf("%w (clock %d, %d steps)", ErrTickLimit, s.clock, steps)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		res := s.Step()
		if fn != nil {
			fn(res)
		}
	}
	return nil
}

func (s *Simulator) applyEvent(ev Event, res *StepResult) {
	now := s.clock
	switch e := ev.(type) {
	case *OrderArrivalEvent:
		s.arrive(res, NewOrder(e.OrderID, now, e.DueBy, e.Destination, e.VIP, e.Value, e.Demand))
	case *RestockEvent:
		s.state.warehouses[e.WarehouseID].Restock(e.Items)
		n := newNotification(NotifyInventoryRestocked, now)
		n.WarehouseID = e.WarehouseID
		s.emit(res, n)
		s.logMessage(res, now, fmt.Sprintf("T=%d: %s", now, e))
	case *CancelEvent:
		s.cancel(res, e.OrderID)
	case *MaintenanceEvent:
		v := s.state.vehicles[e.VehicleID]
		if !v.startMaintenance(now + e.Duration) {
			logrus.Debugf("[tick %07d] maintenance ignored: vehicle %d is %s", now, v.ID, v.Status)
			return
		}
		s.logMessage(res, now, fmt.Sprintf("T=%d: %s", now, e))
	case *RerouteEvent:
		s.state.travel.Set(e.NodeA, e.NodeB, e.TravelTime)
		s.logMessage(res, now, fmt.Sprintf("T=%d: %s", now, e))
	default:
		panic(fmt.Sprintf("applyEvent: unknown event type %T", ev))
	}
}

func (s *Simulator) arrive(res *StepResult, o *Order) {
	s.state.orders[o.ID] = o
	s.knownOrders[o.ID] = true
	s.scheduler.Enqueue(o)
	n := newNotification(NotifyOrderArrived, o.RequestTime)
	n.OrderID = o.ID
	s.emit(res, n)
	vip := ""
	if o.IsVIP() {
		vip = " [VIP]"
	}
	s.logMessage(res, o.RequestTime, fmt.Sprintf("T=%d: Order #%d arrived%s", o.RequestTime, o.ID, vip))
}

func (s *Simulator) cancel(res *StepResult, id OrderID) bool {
	o, ok := s.state.orders[id]
	if !ok || !o.cancel() {
		logrus.Debugf("[tick %07d] cancel ignored: order %d is not waiting", s.clock, id)
		return false
	}
	s.scheduler.RemoveFromQueues(id)
	n := newNotification(NotifyOrderCanceled, s.clock)
	n.OrderID = id
	s.emit(res, n)
	s.logMessage(res, s.clock, fmt.Sprintf("T=%d: Order #%d canceled", s.clock, id))
	return true
}

// AddOrder creates a Waiting order at the current tick, exactly as an OrderArrival
// event would. It clears the finished latch so the next Step processes it.
func (s *Simulator) AddOrder(req OrderRequest) error {
	if s.knownOrders[req.ID] {
		return fmt.Errorf("order %d: %w", req.ID, ErrDuplicateOrder)
	}
	if !s.state.travel.HasNode(req.Destination) {
		return fmt.Errorf("%w: order %d destination node %d: %w", ErrInvalidWorld, req.ID, req.Destination, ErrUnknownEntity)
	}
	if req.DueBy < 0 || req.Value < 0 {
		return fmt.Errorf("%w: order %d: due-by and value must be non-negative", ErrInvalidWorld, req.ID)
	}
	if err := validateDemand(req.Demand); err != nil {
		return fmt.Errorf("%w: order %d: %w", ErrInvalidWorld, req.ID, err)
	}
	s.finished = false
	s.arrive(nil, NewOrder(req.ID, s.clock, req.DueBy, req.Destination, req.VIP, req.Value, req.Demand))
	return nil
}

// CancelOrder cancels a Waiting order at the current tick. It reports whether the
// order was canceled; any other status is left untouched.
func (s *Simulator) CancelOrder(id OrderID) bool {
	return s.cancel(nil, id)
}

// emit records n in res (or in the pending buffer when called from a command) and
// forwards it to every sink.
func (s *Simulator) emit(res *StepResult, n Notification) {
	if res != nil {
		res.Notifications = append(res.Notifications, n)
	} else {
		s.pending = append(s.pending, n)
	}
	for _, sink := range s.sinks {
		sink.Notify(n)
	}
}

func (s *Simulator) logMessage(res *StepResult, now int64, msg string) {
	n := newNotification(NotifyLogMessage, now)
	n.Message = msg
	s.emit(res, n)
}

// isFinished: no pending events, both queues empty, every vehicle Available.
func (s *Simulator) isFinished() bool {
	if s.events.Len() > 0 || s.scheduler.HasWaitingOrders() {
		return false
	}
	for _, id := range s.state.vehicleIDs {
		if !s.state.vehicles[id].IsAvailable() {
			return false
		}
	}
	return true
}

// nextTick returns now+1, or with fast-forward and no waiting orders, the next tick at
// which an event is due or a vehicle leg ends.
func (s *Simulator) nextTick(now int64) int64 {
	next := now + 1
	if !s.fastForward || s.scheduler.HasWaitingOrders() {
		return next
	}
	target, found := s.events.PeekNextTime()
	for _, id := range s.state.vehicleIDs {
		v := s.state.vehicles[id]
		if v.IsAvailable() {
			continue
		}
		if !found || v.AvailableAt < target {
			target, found = v.AvailableAt, true
		}
	}
	if found && target > next {
		return target
	}
	return next
}

// Clock returns the current tick.
func (s *Simulator) Clock() int64 { return s.clock }

// Finished reports whether the last Step found nothing left to do.
func (s *Simulator) Finished() bool { return s.finished }

// Order returns a copy of one order.
func (s *Simulator) Order(id OrderID) (Order, bool) {
	o, ok := s.state.orders[id]
	if !ok {
		return Order{}, false
	}
	return o.clone(), true
}

// Orders returns copies of every order, sorted by id.
func (s *Simulator) Orders() []Order {
	out := make([]Order, 0, len(s.state.orders))
	for _, o := range s.state.orders {
		out = append(out, o.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Vehicles returns copies of every vehicle, sorted by id.
func (s *Simulator) Vehicles() []Vehicle {
	out := make([]Vehicle, 0, len(s.state.vehicleIDs))
	for _, id := range s.state.vehicleIDs {
		out = append(out, s.state.vehicles[id].clone())
	}
	return out
}

// Warehouses returns copies of every warehouse, sorted by id.
func (s *Simulator) Warehouses() []Warehouse {
	out := make([]Warehouse, 0, len(s.state.warehouseIDs))
	for _, id := range s.state.warehouseIDs {
		out = append(out, s.state.warehouses[id].clone())
	}
	return out
}

// VIPQueue returns the waiting VIP order ids in their last-sorted order.
func (s *Simulator) VIPQueue() []OrderID { return s.scheduler.VIPQueue() }

// StandardQueue returns the waiting standard order ids in arrival order.
func (s *Simulator) StandardQueue() []OrderID { return s.scheduler.StandardQueue() }

// PendingEvents returns the events not yet applied, in application order.
func (s *Simulator) PendingEvents() []Event { return s.events.Pending() }

// TravelTime returns the current matrix entry for (a,b).
func (s *Simulator) TravelTime(a, b NodeID) (int64, bool) {
	if !s.state.travel.HasNode(a) || !s.state.travel.HasNode(b) {
		return 0, false
	}
	return s.state.travel.Time(a, b), true
}

// Nodes returns the number of nodes in the travel-time matrix.
func (s *Simulator) Nodes() int { return s.state.travel.Nodes() }

// Trace returns the decision trace, or nil when tracing is disabled.
func (s *Simulator) Trace() *trace.SimulationTrace { return s.trace }

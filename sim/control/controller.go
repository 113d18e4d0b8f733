// Package control drives a Simulator interactively: an HTTP API for stepping, inspecting
// and commanding a run, and a cron-paced auto-player.
package control

import (
	"sync"

	"github.com/dispatchsim/dispatchsim/sim"
)

// Controller serializes every call into one Simulator. The HTTP handlers and the
// auto-player both go through it.
type Controller struct {
	mu  sync.Mutex
	sim *sim.Simulator
}

// NewController takes ownership of s. Callers must not use s directly afterwards.
func NewController(s *sim.Simulator) *Controller {
	return &Controller{sim: s}
}

// State is a point-in-time summary of the run.
type State struct {
	Clock         int64          `json:"clock"`
	Finished      bool           `json:"finished"`
	Nodes         int            `json:"nodes"`
	VIPQueue      []sim.OrderID  `json:"vip_queue"`
	StandardQueue []sim.OrderID  `json:"standard_queue"`
	PendingEvents int            `json:"pending_events"`
	Statistics    sim.Statistics `json:"statistics"`
}

// EventView is the JSON form of a pending event.
type EventView struct {
	Time        int64         `json:"time"`
	Kind        sim.EventKind `json:"kind"`
	Description string        `json:"description"`
}

// Step advances the simulation by one step.
func (c *Controller) Step() sim.StepResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sim.Step()
}

// AddOrder injects an order at the current tick.
func (c *Controller) AddOrder(req sim.OrderRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sim.AddOrder(req)
}

// CancelOrder cancels a waiting order.
func (c *Controller) CancelOrder(id sim.OrderID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sim.CancelOrder(id)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Clock:         c.sim.Clock(),
		Finished:      c.sim.Finished(),
		Nodes:         c.sim.Nodes(),
		VIPQueue:      nonNil(c.sim.VIPQueue()),
		StandardQueue: nonNil(c.sim.StandardQueue()),
		PendingEvents: len(c.sim.PendingEvents()),
		Statistics:    c.sim.Statistics(),
	}
}

func (c *Controller) Orders() []sim.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sim.Orders()
}

func (c *Controller) Order(id sim.OrderID) (sim.Order, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sim.Order(id)
}

func (c *Controller) Vehicles() []sim.Vehicle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sim.Vehicles()
}

func (c *Controller) Warehouses() []sim.Warehouse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sim.Warehouses()
}

func (c *Controller) Events() []EventView {
	c.mu.Lock()
	defer c.mu.Unlock()
	pending := c.sim.PendingEvents()
	out := make([]EventView, len(pending))
	for i, ev := range pending {
		out[i] = EventView{Time: ev.Timestamp(), Kind: ev.Kind(), Description: ev.String()}
	}
	return out
}

func nonNil(ids []sim.OrderID) []sim.OrderID {
	if ids == nil {
		return []sim.OrderID{}
	}
	return ids
}

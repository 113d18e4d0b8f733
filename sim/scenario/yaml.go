package scenario

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dispatchsim/dispatchsim/sim"
)

// Document is the YAML scenario layout. Unlike the text layout, warehouses name their
// node explicitly and orders may carry a value.
type Document struct {
	Items      int            `yaml:"items"`
	Matrix     [][]int64      `yaml:"matrix"`
	Vehicles   []VehicleDoc   `yaml:"vehicles"`
	Warehouses []WarehouseDoc `yaml:"warehouses"`
	Events     []EventDoc     `yaml:"events"`
}

// VehicleDoc is one vehicle entry.
type VehicleDoc struct {
	ID       int    `yaml:"id"`
	Type     string `yaml:"type"` // standard (default) | refrigerated
	Speed    int    `yaml:"speed"`
	Capacity int    `yaml:"capacity"`
	Home     int    `yaml:"home"`
}

// WarehouseDoc is one warehouse entry. Node defaults to the warehouse id.
type WarehouseDoc struct {
	ID        int       `yaml:"id"`
	Node      int       `yaml:"node"`
	Inventory []LineDoc `yaml:"inventory"`
}

// LineDoc is an (item, quantity) pair.
type LineDoc struct {
	Item     int `yaml:"item"`
	Quantity int `yaml:"quantity"`
}

// EventDoc is one event entry; which fields apply depends on Kind.
type EventDoc struct {
	Kind string `yaml:"kind"` // order_arrival | restock | cancel | maintenance | reroute
	Time int64  `yaml:"time"`

	Order       int       `yaml:"order,omitempty"`
	Destination int       `yaml:"destination,omitempty"`
	DueBy       int64     `yaml:"due_by,omitempty"`
	Priority    string    `yaml:"priority,omitempty"` // vip | standard
	Value       float64   `yaml:"value,omitempty"`
	Demand      []LineDoc `yaml:"demand,omitempty"`

	Warehouse int       `yaml:"warehouse,omitempty"`
	Items     []LineDoc `yaml:"items,omitempty"`

	Vehicle  int   `yaml:"vehicle,omitempty"`
	Duration int64 `yaml:"duration,omitempty"`

	NodeA      int   `yaml:"node_a,omitempty"`
	NodeB      int   `yaml:"node_b,omitempty"`
	TravelTime int64 `yaml:"travel_time,omitempty"`
}

// ParseYAML decodes a YAML scenario. Unknown keys are rejected.
// The returned world is not yet validated.
func ParseYAML(r io.Reader) (*sim.World, error) {
	var doc Document
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing scenario: empty document")
		}
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return doc.World()
}

// World converts the document into a sim.World.
func (d *Document) World() (*sim.World, error) {
	world := &sim.World{Items: d.Items, Matrix: d.Matrix}
	for _, v := range d.Vehicles {
		typ := sim.VehicleType(strings.ToLower(v.Type))
		if typ == "" {
			typ = sim.VehicleStandard
		}
		world.Vehicles = append(world.Vehicles, sim.VehicleSpec{
			ID:       sim.VehicleID(v.ID),
			Type:     typ,
			Speed:    v.Speed,
			Capacity: v.Capacity,
			Home:     sim.WarehouseID(v.Home),
		})
	}
	for _, w := range d.Warehouses {
		node := w.Node
		if node == 0 {
			node = w.ID
		}
		world.Warehouses = append(world.Warehouses, sim.WarehouseSpec{
			ID:        sim.WarehouseID(w.ID),
			Node:      sim.NodeID(node),
			Inventory: lineItems(w.Inventory),
		})
	}
	for i, e := range d.Events {
		ev, err := e.event()
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		world.Events = append(world.Events, ev)
	}
	return world, nil
}

func (e *EventDoc) event() (sim.Event, error) {
	switch sim.EventKind(e.Kind) {
	case sim.KindOrderArrival:
		vip, err := parsePriority(e.Priority)
		if err != nil {
			return nil, err
		}
		return &sim.OrderArrivalEvent{
			Time:        e.Time,
			OrderID:     sim.OrderID(e.Order),
			Destination: sim.NodeID(e.Destination),
			DueBy:       e.DueBy,
			VIP:         vip,
			Demand:      lineItems(e.Demand),
			Value:       e.Value,
		}, nil
	case sim.KindRestock:
		return &sim.RestockEvent{Time: e.Time, WarehouseID: sim.WarehouseID(e.Warehouse), Items: lineItems(e.Items)}, nil
	case sim.KindCancel:
		return &sim.CancelEvent{Time: e.Time, OrderID: sim.OrderID(e.Order)}, nil
	case sim.KindMaintenance:
		return &sim.MaintenanceEvent{Time: e.Time, VehicleID: sim.VehicleID(e.Vehicle), Duration: e.Duration}, nil
	case sim.KindReroute:
		return &sim.RerouteEvent{Time: e.Time, NodeA: sim.NodeID(e.NodeA), NodeB: sim.NodeID(e.NodeB), TravelTime: e.TravelTime}, nil
	}
	return nil, fmt.Errorf("unknown event kind %q", e.Kind)
}

func lineItems(docs []LineDoc) []sim.LineItem {
	if len(docs) == 0 {
		return nil
	}
	out := make([]sim.LineItem, len(docs))
	for i, l := range docs {
		out[i] = sim.LineItem{Item: sim.ItemID(l.Item), Quantity: l.Quantity}
	}
	return out
}

// FromWorld converts a world back into a YAML document.
func FromWorld(w *sim.World) *Document {
	doc := &Document{Items: w.Items, Matrix: w.Matrix}
	for _, v := range w.Vehicles {
		doc.Vehicles = append(doc.Vehicles, VehicleDoc{
			ID: int(v.ID), Type: string(v.Type), Speed: v.Speed, Capacity: v.Capacity, Home: int(v.Home),
		})
	}
	for _, wh := range w.Warehouses {
		doc.Warehouses = append(doc.Warehouses, WarehouseDoc{ID: int(wh.ID), Node: int(wh.Node), Inventory: lineDocs(wh.Inventory)})
	}
	for _, ev := range w.Events {
		e := EventDoc{Kind: string(ev.Kind()), Time: ev.Timestamp()}
		switch x := ev.(type) {
		case *sim.OrderArrivalEvent:
			e.Order, e.Destination, e.DueBy, e.Value = int(x.OrderID), int(x.Destination), x.DueBy, x.Value
			e.Priority = string(sim.PriorityStandard)
			if x.VIP {
				e.Priority = string(sim.PriorityVIP)
			}
			e.Demand = lineDocs(x.Demand)
		case *sim.RestockEvent:
			e.Warehouse, e.Items = int(x.WarehouseID), lineDocs(x.Items)
		case *sim.CancelEvent:
			e.Order = int(x.OrderID)
		case *sim.MaintenanceEvent:
			e.Vehicle, e.Duration = int(x.VehicleID), x.Duration
		case *sim.RerouteEvent:
			e.NodeA, e.NodeB, e.TravelTime = int(x.NodeA), int(x.NodeB), x.TravelTime
		}
		doc.Events = append(doc.Events, e)
	}
	return doc
}

func lineDocs(items []sim.LineItem) []LineDoc {
	out := make([]LineDoc, len(items))
	for i, l := range items {
		out[i] = LineDoc{Item: int(l.Item), Quantity: l.Quantity}
	}
	return out
}

// WriteYAML encodes w as a YAML scenario.
func WriteYAML(out io.Writer, w *sim.World) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(FromWorld(w)); err != nil {
		return fmt.Errorf("encoding scenario: %w", err)
	}
	return enc.Close()
}

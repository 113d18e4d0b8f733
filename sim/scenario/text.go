package scenario

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dispatchsim/dispatchsim/sim"
)

// lineReader yields the whitespace-separated fields of each non-blank line, tracking
// line numbers for error messages. Lines starting with '#' are comments.
type lineReader struct {
	sc   *bufio.Scanner
	line int
}

func (lr *lineReader) next(what string) ([]string, error) {
	for lr.sc.Scan() {
		lr.line++
		text := strings.TrimSpace(lr.sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		return strings.Fields(text), nil
	}
	if err := lr.sc.Err(); err != nil {
		return nil, fmt.Errorf("line %d: reading %s: %w", lr.line, what, err)
	}
	return nil, fmt.Errorf("line %d: unexpected end of input, expected %s", lr.line, what)
}

// ints reads the next line and parses exactly n integers from it.
func (lr *lineReader) ints(n int, what string) ([]int64, error) {
	fields, err := lr.next(what)
	if err != nil {
		return nil, err
	}
	if len(fields) != n {
		return nil, fmt.Errorf("line %d: %s: want %d values, got %d", lr.line, what, n, len(fields))
	}
	return lr.parse(fields, what)
}

func (lr *lineReader) parse(fields []string, what string) ([]int64, error) {
	out := make([]int64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: malformed number %q", lr.line, what, f)
		}
		out[i] = v
	}
	return out, nil
}

// ParseText reads a scenario in the plain-text layout:
//
//	W N V                          warehouses (= nodes), item kinds, vehicles
//	W rows of W travel times
//	V lines: id type speed capacity refrigerated(0|1) home
//	W blocks: id, then a line of N quantities for items 1..N
//	E                              event count
//	E events, one of:
//	  R ts order dest dueBy VIP|Standard K   followed by K "item qty" lines
//	  S ts warehouse K                       followed by K "item qty" lines
//	  C ts order
//	  M ts vehicle duration
//	  U ts nodeA nodeB time
//
// Warehouse i sits on node i. The returned world is not yet validated.
func ParseText(r io.Reader) (*sim.World, error) {
	lr := &lineReader{sc: bufio.NewScanner(r)}

	header, err := lr.ints(3, "header (warehouses items vehicles)")
	if err != nil {
		return nil, err
	}
	nw, ni, nv := int(header[0]), int(header[1]), int(header[2])
	if nw <= 0 || ni < 0 || nv < 0 {
		return nil, fmt.Errorf("line %d: header: need at least one warehouse and non-negative counts, got %d %d %d", lr.line, nw, ni, nv)
	}

	world := &sim.World{Items: ni}
	for i := 1; i <= nw; i++ {
		row, err := lr.ints(nw, fmt.Sprintf("travel-time row %d", i))
		if err != nil {
			return nil, err
		}
		world.Matrix = append(world.Matrix, row)
	}

	for i := 0; i < nv; i++ {
		v, err := parseVehicle(lr)
		if err != nil {
			return nil, err
		}
		world.Vehicles = append(world.Vehicles, v)
	}

	for i := 0; i < nw; i++ {
		id, err := lr.ints(1, "warehouse id")
		if err != nil {
			return nil, err
		}
		spec := sim.WarehouseSpec{ID: sim.WarehouseID(id[0]), Node: sim.NodeID(id[0])}
		if ni > 0 {
			qty, err := lr.ints(ni, fmt.Sprintf("warehouse %d inventory", id[0]))
			if err != nil {
				return nil, err
			}
			for item, q := range qty {
				spec.Inventory = append(spec.Inventory, sim.LineItem{Item: sim.ItemID(item + 1), Quantity: int(q)})
			}
		}
		world.Warehouses = append(world.Warehouses, spec)
	}

	count, err := lr.ints(1, "event count")
	if err != nil {
		return nil, err
	}
	if count[0] < 0 {
		return nil, fmt.Errorf("line %d: event count must be non-negative, got %d", lr.line, count[0])
	}
	for i := int64(0); i < count[0]; i++ {
		ev, err := parseEvent(lr)
		if err != nil {
			return nil, err
		}
		world.Events = append(world.Events, ev)
	}

	if fields, err := lr.next("end of input"); err == nil {
		return nil, fmt.Errorf("line %d: unexpected trailing content %q", lr.line, strings.Join(fields, " "))
	} else if lr.sc.Err() != nil {
		return nil, err
	}
	return world, nil
}

func parseVehicle(lr *lineReader) (sim.VehicleSpec, error) {
	fields, err := lr.next("vehicle")
	if err != nil {
		return sim.VehicleSpec{}, err
	}
	if len(fields) != 6 {
		return sim.VehicleSpec{}, fmt.Errorf("line %d: vehicle: want 6 values (id type speed capacity refrigerated home), got %d", lr.line, len(fields))
	}
	nums, err := lr.parse([]string{fields[0], fields[2], fields[3], fields[4], fields[5]}, "vehicle")
	if err != nil {
		return sim.VehicleSpec{}, err
	}
	typ := sim.VehicleStandard
	if strings.EqualFold(fields[1], string(sim.VehicleRefrigerated)) || nums[3] == 1 {
		typ = sim.VehicleRefrigerated
	}
	return sim.VehicleSpec{
		ID:       sim.VehicleID(nums[0]),
		Type:     typ,
		Speed:    int(nums[1]),
		Capacity: int(nums[2]),
		Home:     sim.WarehouseID(nums[4]),
	}, nil
}

func parseEvent(lr *lineReader) (sim.Event, error) {
	fields, err := lr.next("event")
	if err != nil {
		return nil, err
	}
	tag := fields[0]
	arity := map[string]int{"R": 7, "S": 4, "C": 3, "M": 4, "U": 5}
	want, ok := arity[tag]
	if !ok {
		return nil, fmt.Errorf("line %d: unknown event type %q (want R, S, C, M or U)", lr.line, tag)
	}
	if len(fields) != want {
		return nil, fmt.Errorf("line %d: %s event: want %d fields, got %d", lr.line, tag, want, len(fields))
	}

	if tag == "R" {
		nums, err := lr.parse([]string{fields[1], fields[2], fields[3], fields[4], fields[6]}, "order arrival")
		if err != nil {
			return nil, err
		}
		vip, err := parsePriority(fields[5])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lr.line, err)
		}
		demand, err := parseLines(lr, nums[4], fmt.Sprintf("order %d demand", nums[1]))
		if err != nil {
			return nil, err
		}
		return &sim.OrderArrivalEvent{
			Time:        nums[0],
			OrderID:     sim.OrderID(nums[1]),
			Destination: sim.NodeID(nums[2]),
			DueBy:       nums[3],
			VIP:         vip,
			Demand:      demand,
		}, nil
	}

	nums, err := lr.parse(fields[1:], tag+" event")
	if err != nil {
		return nil, err
	}
	switch tag {
	case "S":
		items, err := parseLines(lr, nums[2], fmt.Sprintf("warehouse %d restock", nums[1]))
		if err != nil {
			return nil, err
		}
		return &sim.RestockEvent{Time: nums[0], WarehouseID: sim.WarehouseID(nums[1]), Items: items}, nil
	case "C":
		return &sim.CancelEvent{Time: nums[0], OrderID: sim.OrderID(nums[1])}, nil
	case "M":
		return &sim.MaintenanceEvent{Time: nums[0], VehicleID: sim.VehicleID(nums[1]), Duration: nums[2]}, nil
	default: // "U"
		return &sim.RerouteEvent{Time: nums[0], NodeA: sim.NodeID(nums[1]), NodeB: sim.NodeID(nums[2]), TravelTime: nums[3]}, nil
	}
}

// parseLines reads k "item quantity" lines.
func parseLines(lr *lineReader, k int64, what string) ([]sim.LineItem, error) {
	if k < 0 {
		return nil, fmt.Errorf("line %d: %s: line count must be non-negative, got %d", lr.line, what, k)
	}
	lines := make([]sim.LineItem, 0, k)
	for j := int64(0); j < k; j++ {
		pair, err := lr.ints(2, what)
		if err != nil {
			return nil, err
		}
		lines = append(lines, sim.LineItem{Item: sim.ItemID(pair[0]), Quantity: int(pair[1])})
	}
	return lines, nil
}

func parsePriority(s string) (bool, error) {
	switch {
	case strings.EqualFold(s, "vip"):
		return true, nil
	case strings.EqualFold(s, "standard"), s == "":
		return false, nil
	}
	return false, fmt.Errorf("unknown priority class %q (want VIP or Standard)", s)
}

package sim

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInsufficientStock is returned when a warehouse cannot cover a demand in full.
var ErrInsufficientStock = errors.New("insufficient stock")

// Warehouse holds per-item inventory at a node. Quantities never go negative and
// an order's demand is deducted all-or-nothing.
type Warehouse struct {
	ID        WarehouseID    `json:"id"`
	Node      NodeID         `json:"node"`
	Inventory map[ItemID]int `json:"inventory"`
}

// NewWarehouse creates a warehouse with the given initial inventory.
func NewWarehouse(id WarehouseID, node NodeID, initial []LineItem) *Warehouse {
	w := &Warehouse{ID: id, Node: node, Inventory: make(map[ItemID]int, len(initial))}
	for _, line := range initial {
		w.Inventory[line.Item] = line.Quantity
	}
	return w
}

// Stock returns the quantity on hand for item (0 if never stocked).
func (w *Warehouse) Stock(item ItemID) int {
	return w.Inventory[item]
}

// CanFulfill reports whether every demand line is covered.
func (w *Warehouse) CanFulfill(demand []LineItem) bool {
	for _, line := range demand {
		if w.Inventory[line.Item] < line.Quantity {
			return false
		}
	}
	return true
}

// Deduct removes the whole demand, or nothing at all.
func (w *Warehouse) Deduct(demand []LineItem) error {
	for _, line := range demand {
		if have := w.Inventory[line.Item]; have < line.Quantity {
			return fmt.Errorf("warehouse %d item %d: have %d, need %d: %w",
				w.ID, line.Item, have, line.Quantity, ErrInsufficientStock)
		}
	}
	for _, line := range demand {
		w.Inventory[line.Item] -= line.Quantity
	}
	return nil
}

// Restock adds quantities to the inventory. Existing stock is never overwritten.
func (w *Warehouse) Restock(items []LineItem) {
	for _, line := range items {
		if line.Quantity <= 0 {
			continue
		}
		w.Inventory[line.Item] += line.Quantity
	}
}

// Items returns the inventory as line items sorted by item id.
func (w *Warehouse) Items() []LineItem {
	items := make([]LineItem, 0, len(w.Inventory))
	for item, qty := range w.Inventory {
		items = append(items, LineItem{Item: item, Quantity: qty})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Item < items[j].Item })
	return items
}

func (w *Warehouse) clone() Warehouse {
	c := *w
	c.Inventory = make(map[ItemID]int, len(w.Inventory))
	for item, qty := range w.Inventory {
		c.Inventory[item] = qty
	}
	return c
}

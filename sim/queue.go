// Implements the WaitQueue, which holds the ids of orders waiting for a warehouse and vehicle.
// Orders are enqueued on arrival

package sim

import (
	"fmt"
	"strings"
)

// WaitQueue is an ordered list of waiting order ids.
// The standard queue keeps arrival order; the VIP queue is reordered by score before
// every assignment pass.
type WaitQueue struct {
	queue []OrderID
}

// Enqueue adds an order to the back of the queue.
func (wq *WaitQueue) Enqueue(id OrderID) {
	wq.queue = append(wq.queue, id)
}

func (wq *WaitQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, id := range wq.queue {
		sb.WriteString(fmt.Sprint(id))
		if i < len(wq.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Len returns the number of waiting orders.
func (wq *WaitQueue) Len() int {
	return len(wq.queue)
}

// Items returns a copy of the queue contents.
func (wq *WaitQueue) Items() []OrderID {
	return append([]OrderID(nil), wq.queue...)
}

// Remove deletes id from the queue. Removing an absent id is a no-op.
func (wq *WaitQueue) Remove(id OrderID) bool {
	removed := false
	wq.Filter(func(other OrderID) bool {
		if other == id {
			removed = true
			return false
		}
		return true
	})
	return removed
}

// Filter keeps, in order, the ids for which keep returns true.
// keep is called exactly once per id, front to back.
func (wq *WaitQueue) Filter(keep func(OrderID) bool) {
	if keep == nil {
		panic("Filter: keep must not be nil")
	}
	kept := wq.queue[:0]
	for _, id := range wq.queue {
		if keep(id) {
			kept = append(kept, id)
		}
	}
	clear(wq.queue[len(kept):])
	wq.queue = kept
}

// Reorder applies fn to the queue contents, allowing in-place reordering.
// fn MUST NOT change the slice length (no append/delete).
func (wq *WaitQueue) Reorder(fn func([]OrderID)) {
	if fn == nil {
		panic("Reorder: fn must not be nil")
	}
	n := len(wq.queue)
	fn(wq.queue)
	if len(wq.queue) != n {
		panic(fmt.Sprintf("Reorder: fn changed queue length from %d to %d", n, len(wq.queue)))
	}
}

package sim

import (
	"container/heap"
	"sort"
)

// queuedEvent pairs an event with its insertion sequence number.
type queuedEvent struct {
	ev  Event
	seq uint64
}

// eventHeap implements heap.Interface.
// Ordering: timestamp → insertion sequence.
type eventHeap []queuedEvent

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].ev.Timestamp() != h[j].ev.Timestamp() {
		return h[i].ev.Timestamp() < h[j].ev.Timestamp()
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(queuedEvent))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[0 : n-1]
	return item
}

// EventQueue is a time-ordered buffer of pending events.
// Events with the same timestamp are returned in insertion order, which keeps
// replays deterministic.
type EventQueue struct {
	events  eventHeap
	nextSeq uint64
}

// NewEventQueue creates an empty EventQueue.
func NewEventQueue() *EventQueue {
	q := &EventQueue{events: make(eventHeap, 0)}
	heap.Init(&q.events)
	return q
}

// Schedule inserts an event.
func (q *EventQueue) Schedule(ev Event) {
	if ev == nil {
		panic("Schedule: ev must not be nil")
	}
	heap.Push(&q.events, queuedEvent{ev: ev, seq: q.nextSeq})
	q.nextSeq++
}

// PopAllDue removes and returns every event due at or before now, in queue order.
// With the driver advancing one tick at a time (or jumping exactly to PeekNextTime)
// this is precisely the set of events stamped now.
func (q *EventQueue) PopAllDue(now int64) []Event {
	var due []Event
	for q.events.Len() > 0 && q.events[0].ev.Timestamp() <= now {
		due = append(due, heap.Pop(&q.events).(queuedEvent).ev)
	}
	return due
}

// PeekNextTime returns the earliest pending timestamp, or false if the queue is empty.
func (q *EventQueue) PeekNextTime() (int64, bool) {
	if q.events.Len() == 0 {
		return 0, false
	}
	return q.events[0].ev.Timestamp(), true
}

// Len returns the number of pending events.
func (q *EventQueue) Len() int {
	return q.events.Len()
}

// Pending returns the pending events in the order they will be applied.
func (q *EventQueue) Pending() []Event {
	sorted := append(eventHeap(nil), q.events...)
	sort.Slice(sorted, func(i, j int) bool { return sorted.Less(i, j) })
	out := make([]Event, len(sorted))
	for i, qe := range sorted {
		out[i] = qe.ev
	}
	return out
}

package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueue_PopAllDue_OrdersByTimeThenInsertion(t *testing.T) {
	// GIVEN events scheduled out of time order, two of them sharing t=5
	q := NewEventQueue()
	q.Schedule(&CancelEvent{Time: 9, OrderID: 1})
	q.Schedule(&RestockEvent{Time: 5, WarehouseID: 2})
	q.Schedule(&CancelEvent{Time: 5, OrderID: 3})
	q.Schedule(&RerouteEvent{Time: 1, NodeA: 1, NodeB: 2, TravelTime: 4})

	// WHEN draining tick by tick
	// THEN nothing is due before its time, and equal timestamps keep insertion order
	assert.Empty(t, q.PopAllDue(0))

	at1 := q.PopAllDue(1)
	require.Len(t, at1, 1)
	assert.Equal(t, KindReroute, at1[0].Kind())

	at5 := q.PopAllDue(5)
	require.Len(t, at5, 2)
	assert.Equal(t, KindRestock, at5[0].Kind())
	assert.Equal(t, KindCancel, at5[1].Kind())

	next, ok := q.PeekNextTime()
	require.True(t, ok)
	assert.Equal(t, int64(9), next)
	assert.Equal(t, 1, q.Len())
}

func TestEventQueue_PopAllDue_DrainsOverdueEvents(t *testing.T) {
	// GIVEN an event stamped before the current tick
	q := NewEventQueue()
	q.Schedule(&CancelEvent{Time: 2, OrderID: 1})

	// WHEN popping at a later tick
	due := q.PopAllDue(4)

	// THEN it is still returned rather than stalling the queue
	require.Len(t, due, 1)
	assert.Equal(t, 0, q.Len())
}

func TestEventQueue_ManyEqualTimestamps_StayStable(t *testing.T) {
	q := NewEventQueue()
	for i := 0; i < 50; i++ {
		q.Schedule(&CancelEvent{Time: 3, OrderID: OrderID(i)})
	}
	due := q.PopAllDue(3)
	require.Len(t, due, 50)
	for i, ev := range due {
		assert.Equal(t, OrderID(i), ev.(*CancelEvent).OrderID, "position %d", i)
	}
}

func TestEventQueue_PeekNextTime_Empty(t *testing.T) {
	_, ok := NewEventQueue().PeekNextTime()
	assert.False(t, ok)
}

func TestEventQueue_Pending_DoesNotConsume(t *testing.T) {
	// GIVEN two pending events
	q := NewEventQueue()
	q.Schedule(&CancelEvent{Time: 4, OrderID: 1})
	q.Schedule(&CancelEvent{Time: 2, OrderID: 2})

	// WHEN Pending is read
	pending := q.Pending()

	// THEN they come back in application order and the queue is untouched
	require.Len(t, pending, 2)
	assert.Equal(t, int64(2), pending[0].Timestamp())
	assert.Equal(t, int64(4), pending[1].Timestamp())
	assert.Equal(t, 2, q.Len())
}

func TestEventQueue_Schedule_Nil_Panics(t *testing.T) {
	assert.Panics(t, func() { NewEventQueue().Schedule(nil) })
}

func TestEvent_String_DescribesEvent(t *testing.T) {
	tests := []struct {
		ev   Event
		want string
	}{
		{&OrderArrivalEvent{OrderID: 100, Destination: 2, VIP: true}, "Order #100 arrived [VIP] to dest 2"},
		{&RestockEvent{WarehouseID: 1, Items: []LineItem{{1, 5}, {2, 3}}}, "Restock at Warehouse #1 (2 items)"},
		{&CancelEvent{OrderID: 7}, "Order #7 canceled"},
		{&MaintenanceEvent{VehicleID: 3, Duration: 4}, "Vehicle #3 maintenance for 4 timesteps"},
		{&RerouteEvent{NodeA: 1, NodeB: 2, TravelTime: 9}, "Route 1-2 updated to 9 timesteps"},
	}
	for _, tt := range tests {
		t.Run(string(tt.ev.Kind()), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ev.String())
		})
	}
}

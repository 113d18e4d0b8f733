package export

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatchsim/dispatchsim/sim"
)

func TestKafkaSink_PublishesEnvelope(t *testing.T) {
	// GIVEN a sink over a mock producer expecting one message
	producer := mocks.NewSyncProducer(t, nil)
	var got KafkaMessage
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		return json.Unmarshal(val, &got)
	})
	sink := NewKafkaSink(producer, "dispatch.notifications", "run-42")

	// WHEN a delivered notification is emitted
	sink.Notify(sim.Notification{
		Kind: sim.NotifyOrderDelivered, Time: 6, OrderID: 100,
		VehicleID: sim.NoID, WarehouseID: sim.NoID, Message: "T=6: Order #100 delivered",
	})

	// THEN the record carries the run id and the notification unchanged
	require.NoError(t, sink.Err())
	assert.Equal(t, 1, sink.Sent())
	assert.Equal(t, "run-42", got.RunID)
	assert.Equal(t, sim.NotifyOrderDelivered, got.Notification.Kind)
	assert.Equal(t, sim.OrderID(100), got.Notification.OrderID)
	assert.Equal(t, sim.VehicleID(sim.NoID), got.Notification.VehicleID)
	require.NoError(t, sink.Close())
}

func TestKafkaSink_FailureIsRecordedNotFatal(t *testing.T) {
	// GIVEN a producer that fails the first send and accepts the second
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(errors.New("broker down"))
	producer.ExpectSendMessageAndSucceed()
	sink := NewKafkaSink(producer, "t", "run")

	// WHEN two notifications are emitted
	sink.Notify(sim.Notification{Kind: sim.NotifyTimeAdvanced, Time: 1})
	sink.Notify(sim.Notification{Kind: sim.NotifyTimeAdvanced, Time: 2})

	// THEN only the second counts as sent and the first error is kept
	assert.Equal(t, 1, sink.Sent())
	err := sink.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Contains(t, err.Error(), "1 notification(s)")
	require.NoError(t, sink.Close())
}

func TestKafkaSink_DrivenBySimulator(t *testing.T) {
	// GIVEN a one-order world and a producer accepting any number of messages
	world := &sim.World{
		Items:      1,
		Matrix:     [][]int64{{0, 2}, {2, 0}},
		Vehicles:   []sim.VehicleSpec{{ID: 1, Speed: 1, Capacity: 5, Home: 1}},
		Warehouses: []sim.WarehouseSpec{{ID: 1, Node: 1, Inventory: []sim.LineItem{{Item: 1, Quantity: 5}}}},
		Events: []sim.Event{&sim.OrderArrivalEvent{Time: 0, OrderID: 1, Destination: 2, DueBy: 10,
			Demand: []sim.LineItem{{Item: 1, Quantity: 1}}}},
	}
	producer := mocks.NewSyncProducer(t, nil)
	for i := 0; i < 64; i++ {
		producer.ExpectSendMessageAndSucceed()
	}
	sink := NewKafkaSink(producer, "t", "run")
	var emitted int
	counter := sim.SinkFunc(func(sim.Notification) { emitted++ })

	s, err := sim.NewSimulator(world, sim.WithSink(sink), sim.WithSink(counter))
	require.NoError(t, err)

	// WHEN the run completes
	require.NoError(t, s.Run(t.Context(), 100))

	// THEN every emitted notification was published
	require.NoError(t, sink.Err())
	assert.Equal(t, emitted, sink.Sent())
	assert.Positive(t, emitted)
}

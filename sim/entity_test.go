package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVehicle_DeliveryCycle(t *testing.T) {
	// GIVEN an available vehicle
	v := NewVehicle(1, "", 1, 10, 1)
	assert.Equal(t, VehicleStandard, v.Type)
	require.True(t, v.IsAvailable())

	// WHEN it is dispatched, arrives and is released
	require.True(t, v.dispatch(100, 4, 2, 3))
	assert.Equal(t, VehicleOutbound, v.Status)
	assert.Equal(t, 4, v.Load)
	assert.False(t, v.startMaintenance(10), "outbound vehicle cannot enter maintenance")
	assert.False(t, v.release(), "outbound vehicle is not released before arriving")

	carried := v.arrive(6)
	assert.Equal(t, []OrderID{100}, carried)
	assert.Equal(t, VehicleReturning, v.Status)
	assert.Equal(t, int64(6), v.AvailableAt)
	assert.Zero(t, v.Load)
	assert.Empty(t, v.Orders)

	// THEN release brings it back to Available
	require.True(t, v.release())
	assert.True(t, v.IsAvailable())
}

func TestVehicle_Dispatch_RespectsCapacity(t *testing.T) {
	v := NewVehicle(1, VehicleRefrigerated, 2, 5, 1)
	assert.True(t, v.CanCarry(5))
	assert.False(t, v.CanCarry(6))
	assert.False(t, v.dispatch(1, 6, 2, 1))
	assert.True(t, v.IsAvailable())
}

func TestVehicle_MaintenanceCycle(t *testing.T) {
	v := NewVehicle(1, VehicleStandard, 1, 5, 1)
	require.True(t, v.startMaintenance(7))
	assert.Equal(t, VehicleMaintenance, v.Status)
	assert.False(t, v.dispatch(1, 1, 2, 3), "vehicle in maintenance cannot be dispatched")
	assert.Nil(t, v.arrive(9))
	require.True(t, v.release())
	assert.True(t, v.IsAvailable())
}

func TestWarehouse_Deduct_AllOrNothing(t *testing.T) {
	// GIVEN a warehouse with item 1 ×5 and item 2 ×1
	w := NewWarehouse(1, 1, []LineItem{{1, 5}, {2, 1}})

	// WHEN a demand exceeds stock on one line
	err := w.Deduct([]LineItem{{1, 3}, {2, 2}})

	// THEN nothing is deducted and the error wraps ErrInsufficientStock
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.Equal(t, 5, w.Stock(1))
	assert.Equal(t, 1, w.Stock(2))

	// WHEN the demand fits
	require.NoError(t, w.Deduct([]LineItem{{1, 5}, {2, 1}}))

	// THEN stock goes to zero, never negative
	assert.Zero(t, w.Stock(1))
	assert.Zero(t, w.Stock(2))
	assert.False(t, w.CanFulfill([]LineItem{{1, 1}}))
}

func TestWarehouse_Restock_IsAdditive(t *testing.T) {
	w := NewWarehouse(1, 1, []LineItem{{1, 2}})
	w.Restock([]LineItem{{1, 3}, {4, 1}, {5, 0}})
	assert.Equal(t, 5, w.Stock(1))
	assert.Equal(t, 1, w.Stock(4))
	assert.Equal(t, []LineItem{{1, 5}, {4, 1}}, w.Items())
}

func TestWarehouse_Clone_IsDeep(t *testing.T) {
	w := NewWarehouse(1, 1, []LineItem{{1, 2}})
	c := w.clone()
	c.Inventory[1] = 99
	assert.Equal(t, 2, w.Stock(1))
}

func TestNewTravelTimeMatrix_Validation(t *testing.T) {
	tests := []struct {
		name string
		rows [][]int64
	}{
		{"empty", nil},
		{"ragged", [][]int64{{0, 1}, {1}}},
		{"negative", [][]int64{{0, -1}, {-1, 0}}},
		{"asymmetric", [][]int64{{0, 1}, {2, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTravelTimeMatrix(tt.rows)
			assert.Error(t, err)
		})
	}
}

func TestTravelTimeMatrix_Set_IsSymmetric(t *testing.T) {
	m, err := NewTravelTimeMatrix([][]int64{{0, 3, 4}, {3, 0, 5}, {4, 5, 0}})
	require.NoError(t, err)
	m.Set(3, 1, 9)
	assert.Equal(t, int64(9), m.Time(1, 3))
	assert.Equal(t, int64(9), m.Time(3, 1))
	assert.True(t, m.HasNode(3))
	assert.False(t, m.HasNode(4))
	assert.False(t, m.HasNode(0))
}

func TestTravelTicks_CeilWithMinimumOne(t *testing.T) {
	tests := []struct {
		distance int64
		speed    int
		want     int64
	}{
		{0, 1, 1},
		{0, 5, 1},
		{3, 1, 3},
		{3, 2, 2},
		{4, 2, 2},
		{5, 2, 3},
		{1, 10, 1},
		{math.MaxInt64, 1, math.MaxInt64},
		{math.MaxInt64, 2, math.MaxInt64/2 + 1},
		{math.MaxInt64 - 1, 2, math.MaxInt64 / 2},
	}
	for _, tt := range tests {
		if got := TravelTicks(tt.distance, tt.speed); got != tt.want {
			t.Errorf("TravelTicks(%d, %d) = %d, want %d", tt.distance, tt.speed, got, tt.want)
		}
	}
}

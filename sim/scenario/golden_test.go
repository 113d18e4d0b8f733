package scenario

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatchsim/dispatchsim/sim"
	"github.com/dispatchsim/dispatchsim/sim/internal/testutil"
)

// TestGoldenScenarios runs every golden scenario with and without fast-forward; both
// modes must reproduce the recorded outcome exactly.
func TestGoldenScenarios(t *testing.T) {
	dataset := testutil.LoadGoldenDataset(t)
	require.NotEmpty(t, dataset.Tests)

	const relTol = 1e-9
	for _, tc := range dataset.Tests {
		for _, ff := range []bool{false, true} {
			name := tc.Name
			if ff {
				name += "/fast-forward"
			}
			t.Run(name, func(t *testing.T) {
				// GIVEN the scenario file
				w, err := Load(tc.ScenarioPath(t))
				require.NoError(t, err)
				var opts []sim.Option
				if ff {
					opts = append(opts, sim.WithFastForward())
				}
				s, err := sim.NewSimulator(w, opts...)
				require.NoError(t, err)

				// WHEN it runs to completion
				require.NoError(t, s.Run(context.Background(), 10_000))

				// THEN the clock, delivery order and statistics match the recording
				assert.Equal(t, tc.FinalClock, s.Clock(), "final clock")
				var ids []int
				var finish []int64
				for _, r := range s.DeliveredRecords() {
					ids = append(ids, int(r.OrderID))
					finish = append(finish, r.FinishTime)
				}
				assert.Equal(t, tc.Delivered, ids, "delivery order")
				assert.Equal(t, tc.FinishTimes, finish, "finish times")

				got, want := s.Statistics(), tc.Statistics
				assert.Equal(t, want.TotalOrders, got.TotalOrders, "total_orders")
				assert.Equal(t, want.VIPOrders, got.VIPOrders, "vip_orders")
				assert.Equal(t, want.StandardOrders, got.StandardOrders, "standard_orders")
				assert.Equal(t, want.Delivered, got.Delivered, "delivered")
				assert.Equal(t, want.Canceled, got.Canceled, "canceled")
				testutil.AssertFloat64Equal(t, "total_value", want.TotalValue, got.TotalValue, relTol)
				testutil.AssertFloat64Equal(t, "avg_wait_time", want.AvgWaitTime, got.AvgWaitTime, relTol)
				testutil.AssertFloat64Equal(t, "avg_transit_time", want.AvgTransitTime, got.AvgTransitTime, relTol)
				testutil.AssertFloat64Equal(t, "on_time_rate", want.OnTimeRate, got.OnTimeRate, relTol)
			})
		}
	}
}

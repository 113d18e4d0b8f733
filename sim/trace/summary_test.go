package trace

import "testing"

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.TotalDispatches != 0 || summary.TotalDeferrals != 0 {
		t.Errorf("expected 0 dispatches and deferrals, got %d and %d", summary.TotalDispatches, summary.TotalDeferrals)
	}
	if summary.UniqueWarehouses != 0 {
		t.Errorf("expected 0 unique warehouses, got %d", summary.UniqueWarehouses)
	}
	if summary.MeanDispatchLeadTicks != 0 {
		t.Error("expected 0 mean lead time")
	}
	if len(summary.WarehouseDistribution) != 0 {
		t.Error("expected empty warehouse distribution")
	}
}

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary == nil {
		t.Fatal("Summarize(nil) must return a non-nil summary")
	}
	if summary.TotalDispatches != 0 {
		t.Errorf("expected 0 dispatches, got %d", summary.TotalDispatches)
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with dispatches from two warehouses and repeated deferrals
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})
	st.RecordDispatch(DispatchRecord{OrderID: 1, Clock: 0, WarehouseID: 1, ETA: 3, VIP: true})
	st.RecordDispatch(DispatchRecord{OrderID: 2, Clock: 2, WarehouseID: 2, ETA: 3})
	st.RecordDispatch(DispatchRecord{OrderID: 3, Clock: 4, WarehouseID: 1, ETA: 6})
	st.RecordDeferral(DeferralRecord{OrderID: 4, Clock: 0, Reason: ReasonNoWarehouse})
	st.RecordDeferral(DeferralRecord{OrderID: 4, Clock: 1, Reason: ReasonNoWarehouse})
	st.RecordDeferral(DeferralRecord{OrderID: 5, Clock: 1, Reason: ReasonNoVehicle})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts match
	if summary.TotalDispatches != 3 {
		t.Errorf("expected 3 dispatches, got %d", summary.TotalDispatches)
	}
	if summary.VIPDispatches != 1 {
		t.Errorf("expected 1 VIP dispatch, got %d", summary.VIPDispatches)
	}
	if summary.UniqueWarehouses != 2 {
		t.Errorf("expected 2 unique warehouses, got %d", summary.UniqueWarehouses)
	}
	if summary.WarehouseDistribution[1] != 2 {
		t.Errorf("expected warehouse 1 to dispatch 2 orders, got %d", summary.WarehouseDistribution[1])
	}
	if summary.DeferralsByReason[ReasonNoWarehouse] != 2 || summary.DeferralsByReason[ReasonNoVehicle] != 1 {
		t.Errorf("unexpected deferral breakdown: %v", summary.DeferralsByReason)
	}
	if summary.MaxDeferralsPerOrder != 2 {
		t.Errorf("expected max 2 deferrals per order, got %d", summary.MaxDeferralsPerOrder)
	}
	// lead times: 3, 1, 2 → mean 2
	if summary.MeanDispatchLeadTicks != 2.0 {
		t.Errorf("expected mean lead 2.0, got %f", summary.MeanDispatchLeadTicks)
	}
}

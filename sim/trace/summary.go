package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDispatches       int
	VIPDispatches         int
	TotalDeferrals        int
	DeferralsByReason     map[string]int
	MaxDeferralsPerOrder  int
	UniqueWarehouses      int
	WarehouseDistribution map[int]int // warehouse ID → dispatched orders
	MeanDispatchLeadTicks float64     // mean (ETA - dispatch clock)
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		DeferralsByReason:     make(map[string]int),
		WarehouseDistribution: make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalDispatches = len(st.Dispatches)
	if len(st.Dispatches) > 0 {
		var lead int64
		for _, d := range st.Dispatches {
			summary.WarehouseDistribution[d.WarehouseID]++
			if d.VIP {
				summary.VIPDispatches++
			}
			lead += d.ETA - d.Clock
		}
		summary.MeanDispatchLeadTicks = float64(lead) / float64(len(st.Dispatches))
	}

	summary.TotalDeferrals = len(st.Deferrals)
	perOrder := make(map[int]int)
	for _, d := range st.Deferrals {
		summary.DeferralsByReason[d.Reason]++
		perOrder[d.OrderID]++
		if perOrder[d.OrderID] > summary.MaxDeferralsPerOrder {
			summary.MaxDeferralsPerOrder = perOrder[d.OrderID]
		}
	}

	summary.UniqueWarehouses = len(summary.WarehouseDistribution)

	return summary
}

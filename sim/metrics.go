// Aggregates per-order outcomes into run-level statistics and the delivered-order table.

package sim

import "sort"

// Statistics summarizes a run. Averages and the on-time rate cover delivered orders only.
type Statistics struct {
	TotalOrders    int     `json:"total_orders"`
	VIPOrders      int     `json:"vip_orders"`
	StandardOrders int     `json:"standard_orders"`
	Delivered      int     `json:"delivered"`
	Canceled       int     `json:"canceled"`
	TotalValue     float64 `json:"total_value"` // delivered orders only
	AvgWaitTime    float64 `json:"avg_wait_time"`
	AvgTransitTime float64 `json:"avg_transit_time"`
	OnTimeRate     float64 `json:"on_time_rate"` // percentage, 0..100
}

// DeliveryRecord is one row of the delivered-order table.
type DeliveryRecord struct {
	FinishTime  int64       `json:"finish_time"`
	OrderID     OrderID     `json:"order_id"`
	RequestTime int64       `json:"request_time"`
	WaitTime    int64       `json:"wait_time"`
	TransitTime int64       `json:"transit_time"`
	WarehouseID WarehouseID `json:"warehouse_id"`
	VehicleID   VehicleID   `json:"vehicle_id"`
	Fulfilled   bool        `json:"fulfilled"`
	Value       float64     `json:"value"`
	VIP         bool        `json:"vip"`
	OnTime      bool        `json:"on_time"`
}

// ComputeStatistics aggregates a set of orders.
func ComputeStatistics(orders []Order) Statistics {
	var st Statistics
	var totalWait, totalTransit int64
	onTime := 0
	for i := range orders {
		o := &orders[i]
		st.TotalOrders++
		if o.IsVIP() {
			st.VIPOrders++
		} else {
			st.StandardOrders++
		}
		switch o.Status {
		case OrderDelivered:
			st.Delivered++
			st.TotalValue += o.Value
			totalWait += o.WaitTime()
			totalTransit += o.TransitTime()
			if o.OnTime() {
				onTime++
			}
		case OrderCanceled:
			st.Canceled++
		}
	}
	if st.Delivered > 0 {
		st.AvgWaitTime = float64(totalWait) / float64(st.Delivered)
		st.AvgTransitTime = float64(totalTransit) / float64(st.Delivered)
		st.OnTimeRate = 100.0 * float64(onTime) / float64(st.Delivered)
	}
	return st
}

// DeliveredRecords returns one record per delivered order, sorted by finish time then order id.
func DeliveredRecords(orders []Order) []DeliveryRecord {
	var records []DeliveryRecord
	for i := range orders {
		o := &orders[i]
		if o.Status != OrderDelivered {
			continue
		}
		records = append(records, DeliveryRecord{
			FinishTime:  o.FinishTime,
			OrderID:     o.ID,
			RequestTime: o.RequestTime,
			WaitTime:    o.WaitTime(),
			TransitTime: o.TransitTime(),
			WarehouseID: o.AssignedWarehouse,
			VehicleID:   o.AssignedVehicle,
			Fulfilled:   true,
			Value:       o.Value,
			VIP:         o.IsVIP(),
			OnTime:      o.OnTime(),
		})
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].FinishTime != records[j].FinishTime {
			return records[i].FinishTime < records[j].FinishTime
		}
		return records[i].OrderID < records[j].OrderID
	})
	return records
}

// Statistics aggregates every order seen so far.
func (s *Simulator) Statistics() Statistics {
	return ComputeStatistics(s.Orders())
}

// DeliveredRecords returns the delivered-order table for the run so far.
func (s *Simulator) DeliveredRecords() []DeliveryRecord {
	return DeliveredRecords(s.Orders())
}

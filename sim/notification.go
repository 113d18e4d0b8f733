package sim

import "github.com/sirupsen/logrus"

// NotificationKind tags an outbound notification.
type NotificationKind string

const (
	NotifyOrderArrived       NotificationKind = "order_arrived"
	NotifyOrderDelivered     NotificationKind = "order_delivered"
	NotifyOrderCanceled      NotificationKind = "order_canceled"
	NotifyVehicleDispatched  NotificationKind = "vehicle_dispatched"
	NotifyInventoryRestocked NotificationKind = "inventory_restocked"
	NotifyTimeAdvanced       NotificationKind = "time_advanced"
	NotifySimulationFinished NotificationKind = "simulation_finished"
	NotifyLogMessage         NotificationKind = "log_message"
)

// Notification is one outbound record produced while stepping. Id fields not relevant
// to the kind are NoID.
type Notification struct {
	Kind        NotificationKind `json:"kind"`
	Time        int64            `json:"time"`
	OrderID     OrderID          `json:"order_id"`
	VehicleID   VehicleID        `json:"vehicle_id"`
	WarehouseID WarehouseID      `json:"warehouse_id"`
	Message     string           `json:"message,omitempty"`
}

func newNotification(kind NotificationKind, now int64) Notification {
	return Notification{Kind: kind, Time: now, OrderID: NoID, VehicleID: NoID, WarehouseID: NoID}
}

// Sink receives notifications synchronously, in emission order, from the goroutine
// calling Step (or a command). Implementations must not call back into the Simulator.
type Sink interface {
	Notify(n Notification)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Notification)

func (f SinkFunc) Notify(n Notification) { f(n) }

// LogSink writes log-message notifications at info level and everything else at debug.
type LogSink struct{}

func (LogSink) Notify(n Notification) {
	if n.Kind == NotifyLogMessage {
		logrus.Info(n.Message)
		return
	}
	entry := logrus.WithFields(logrus.Fields{"kind": n.Kind, "tick": n.Time})
	if n.OrderID != NoID {
		entry = entry.WithField("order", n.OrderID)
	}
	if n.VehicleID != NoID {
		entry = entry.WithField("vehicle", n.VehicleID)
	}
	if n.WarehouseID != NoID {
		entry = entry.WithField("warehouse", n.WarehouseID)
	}
	entry.Debug(n.Message)
}

// Package sim provides the core discrete-time logistics simulation engine.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - order.go, vehicle.go, warehouse.go: entity records and their state machines
//   - event.go, event_queue.go: the closed set of external events and their deterministic ordering
//   - scheduler.go: waiting-order queues, warehouse/vehicle matching, arrivals and returns
//   - simulator.go: the per-tick pipeline (events → arrivals/returns → assignments)
//
// # Architecture
//
// Orders, vehicles and warehouses never hold pointers to each other. They refer to one
// another by integer id, resolved through the id-indexed maps owned by the Simulator.
// The Scheduler is the only writer of inventory and vehicle state within a tick.
//
// Sub-packages:
//   - sim/scenario/: load a World from the plain-text or YAML scenario formats
//   - sim/report/: render delivered orders and statistics (text, csv, json, parquet)
//   - sim/export/: Kafka notification sink, Postgres results export, S3 report upload
//   - sim/control/: HTTP control server and periodic auto-play around Step
//   - sim/trace/: dispatch decision trace recording
//
// # Determinism
//
// A Simulator is single-threaded. Identical Worlds produce identical assignments and
// finish times: events with equal timestamps keep insertion order, warehouses and
// vehicles are always scanned in ascending id order, and the VIP queue is sorted stably.
// Callers that share a Simulator across goroutines must serialize every call.
package sim

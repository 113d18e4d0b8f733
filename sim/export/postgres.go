package export

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/dispatchsim/dispatchsim/sim"
)

// TxBeginner is the part of *pgxpool.Pool the exporter needs.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Run identifies one simulation run and carries its outcome.
type Run struct {
	ID         string
	Scenario   string
	StartedAt  time.Time
	FinalClock int64
	Finished   bool
	Stats      sim.Statistics
}

const createRunsTable = `
CREATE TABLE IF NOT EXISTS dispatch_runs (
    run_id           TEXT PRIMARY KEY,
    scenario         TEXT NOT NULL,
    started_at       TIMESTAMPTZ NOT NULL,
    final_clock      BIGINT NOT NULL,
    finished         BOOLEAN NOT NULL,
    total_orders     INTEGER NOT NULL,
    vip_orders       INTEGER NOT NULL,
    standard_orders  INTEGER NOT NULL,
    delivered        INTEGER NOT NULL,
    canceled         INTEGER NOT NULL,
    total_value      DOUBLE PRECISION NOT NULL,
    avg_wait_time    DOUBLE PRECISION NOT NULL,
    avg_transit_time DOUBLE PRECISION NOT NULL,
    on_time_rate     DOUBLE PRECISION NOT NULL
)`

const createDeliveriesTable = `
CREATE TABLE IF NOT EXISTS dispatch_deliveries (
    run_id       TEXT NOT NULL REFERENCES dispatch_runs (run_id) ON DELETE CASCADE,
    order_id     INTEGER NOT NULL,
    finish_time  BIGINT NOT NULL,
    request_time BIGINT NOT NULL,
    wait_time    BIGINT NOT NULL,
    transit_time BIGINT NOT NULL,
    warehouse_id INTEGER NOT NULL,
    vehicle_id   INTEGER NOT NULL,
    value        DOUBLE PRECISION NOT NULL,
    vip          BOOLEAN NOT NULL,
    on_time      BOOLEAN NOT NULL,
    PRIMARY KEY (run_id, order_id)
)`

const insertRun = `
INSERT INTO dispatch_runs (
    run_id, scenario, started_at, final_clock, finished,
    total_orders, vip_orders, standard_orders, delivered, canceled,
    total_value, avg_wait_time, avg_transit_time, on_time_rate
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
)`

var deliveryColumns = []string{
	"run_id", "order_id", "finish_time", "request_time", "wait_time", "transit_time",
	"warehouse_id", "vehicle_id", "value", "vip", "on_time",
}

// PostgresExporter stores run summaries and delivery rows.
type PostgresExporter struct {
	db    TxBeginner
	close func()
}

// NewPostgresExporter writes through db. The caller keeps ownership of db.
func NewPostgresExporter(db TxBeginner) *PostgresExporter {
	return &PostgresExporter{db: db}
}

// ConnectPostgres opens a connection pool for url and returns an exporter owning it.
func ConnectPostgres(ctx context.Context, url string) (*PostgresExporter, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return &PostgresExporter{db: pool, close: pool.Close}, nil
}

// Export creates the tables if needed, then inserts the run and its deliveries in one
// transaction. Nothing is written if any step fails.
func (e *PostgresExporter) Export(ctx context.Context, run Run, records []sim.DeliveryRecord) error {
	tx, err := e.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after Commit

	for _, ddl := range []string{createRunsTable, createDeliveriesTable} {
		if _, err := tx.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	st := run.Stats
	if _, err := tx.Exec(ctx, insertRun,
		run.ID, run.Scenario, run.StartedAt, run.FinalClock, run.Finished,
		st.TotalOrders, st.VIPOrders, st.StandardOrders, st.Delivered, st.Canceled,
		st.TotalValue, st.AvgWaitTime, st.AvgTransitTime, st.OnTimeRate,
	); err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"dispatch_deliveries"},
		deliveryColumns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			r := records[i]
			return []any{
				run.ID, int(r.OrderID), r.FinishTime, r.RequestTime, r.WaitTime, r.TransitTime,
				int(r.WarehouseID), int(r.VehicleID), r.Value, r.VIP, r.OnTime,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copying deliveries: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing run %s: %w", run.ID, err)
	}
	logrus.Infof("exported run %s to postgres: %d deliveries", run.ID, n)
	return nil
}

// Close releases the pool opened by ConnectPostgres.
func (e *PostgresExporter) Close() {
	if e.close != nil {
		e.close()
	}
}

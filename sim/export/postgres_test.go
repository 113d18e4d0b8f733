package export

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatchsim/dispatchsim/sim"
)

// fakeTx records statements and copied rows. Methods the exporter does not use
// fall through to the nil embedded interface and panic.
type fakeTx struct {
	pgx.Tx

	execs      []string
	execArgs   [][]any
	copyTable  pgx.Identifier
	copyCols   []string
	copied     [][]any
	failOn     string
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if f.failOn != "" && strings.Contains(sql, f.failOn) {
		return pgconn.CommandTag{}, errors.New("exec failed")
	}
	f.execs = append(f.execs, sql)
	f.execArgs = append(f.execArgs, args)
	return pgconn.NewCommandTag("OK"), nil
}

func (f *fakeTx) CopyFrom(_ context.Context, table pgx.Identifier, cols []string, src pgx.CopyFromSource) (int64, error) {
	f.copyTable = table
	f.copyCols = cols
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			return 0, err
		}
		f.copied = append(f.copied, vals)
	}
	return int64(len(f.copied)), src.Err()
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	if !f.committed {
		f.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	tx  *fakeTx
	err error
}

func (d *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.tx, nil
}

func sampleRun() Run {
	return Run{
		ID:         "run-7",
		Scenario:   "scenario_a.txt",
		StartedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		FinalClock: 6,
		Finished:   true,
		Stats:      sim.Statistics{TotalOrders: 1, StandardOrders: 1, Delivered: 1, TotalValue: 5, AvgTransitTime: 3, OnTimeRate: 100},
	}
}

func TestPostgresExporter_Export(t *testing.T) {
	// GIVEN a transaction that accepts everything
	tx := &fakeTx{}
	exp := NewPostgresExporter(&fakeDB{tx: tx})
	records := []sim.DeliveryRecord{
		{FinishTime: 3, OrderID: 100, TransitTime: 3, WarehouseID: 1, VehicleID: 1, Fulfilled: true, Value: 5, OnTime: true},
	}

	// WHEN a run is exported
	require.NoError(t, exp.Export(context.Background(), sampleRun(), records))

	// THEN the schema is created, the run inserted, deliveries copied and the tx committed
	require.Len(t, tx.execs, 3)
	assert.Contains(t, tx.execs[0], "dispatch_runs")
	assert.Contains(t, tx.execs[1], "dispatch_deliveries")
	assert.Contains(t, tx.execs[2], "INSERT INTO dispatch_runs")
	assert.Equal(t, "run-7", tx.execArgs[2][0])
	assert.Len(t, tx.execArgs[2], 14)

	assert.Equal(t, pgx.Identifier{"dispatch_deliveries"}, tx.copyTable)
	assert.Equal(t, deliveryColumns, tx.copyCols)
	require.Len(t, tx.copied, 1)
	assert.Equal(t, []any{"run-7", 100, int64(3), int64(0), int64(0), int64(3), 1, 1, 5.0, false, true}, tx.copied[0])

	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestPostgresExporter_FailedInsertRollsBack(t *testing.T) {
	tx := &fakeTx{failOn: "INSERT INTO dispatch_runs"}
	exp := NewPostgresExporter(&fakeDB{tx: tx})

	err := exp.Export(context.Background(), sampleRun(), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "run-7")
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
	assert.Nil(t, tx.copied)
}

func TestPostgresExporter_BeginError(t *testing.T) {
	exp := NewPostgresExporter(&fakeDB{err: errors.New("no connection")})
	err := exp.Export(context.Background(), sampleRun(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no connection")
	exp.Close() // no pool owned: must not panic
}

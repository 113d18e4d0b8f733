package report

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/dispatchsim/dispatchsim/sim"
)

// ParquetRow is the on-disk schema of a delivery row.
type ParquetRow struct {
	FinishTime  int64   `parquet:"name=finish_time,type=INT64"`
	OrderID     int64   `parquet:"name=order_id,type=INT64"`
	RequestTime int64   `parquet:"name=request_time,type=INT64"`
	WaitTime    int64   `parquet:"name=wait_time,type=INT64"`
	TransitTime int64   `parquet:"name=transit_time,type=INT64"`
	WarehouseID int64   `parquet:"name=warehouse_id,type=INT64"`
	VehicleID   int64   `parquet:"name=vehicle_id,type=INT64"`
	Fulfilled   bool    `parquet:"name=fulfilled,type=BOOLEAN"`
	Value       float64 `parquet:"name=value,type=DOUBLE"`
	VIP         bool    `parquet:"name=vip,type=BOOLEAN"`
	OnTime      bool    `parquet:"name=on_time,type=BOOLEAN"`
	RunID       string  `parquet:"name=run_id,type=BYTE_ARRAY,convertedtype=UTF8"`
}

func toParquetRow(runID string, r sim.DeliveryRecord) ParquetRow {
	return ParquetRow{
		FinishTime:  r.FinishTime,
		OrderID:     int64(r.OrderID),
		RequestTime: r.RequestTime,
		WaitTime:    r.WaitTime,
		TransitTime: r.TransitTime,
		WarehouseID: int64(r.WarehouseID),
		VehicleID:   int64(r.VehicleID),
		Fulfilled:   r.Fulfilled,
		Value:       r.Value,
		VIP:         r.VIP,
		OnTime:      r.OnTime,
		RunID:       runID,
	}
}

// WriteParquetFile writes records to a snappy-compressed parquet file at path.
func WriteParquetFile(path, runID string, records []sim.DeliveryRecord) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create local file writer: %w", err)
	}
	pw, err := writer.NewParquetWriter(fw, new(ParquetRow), 1)
	if err != nil {
		fw.Close()
		return fmt.Errorf("failed to create ParquetWriter: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, r := range records {
		if err := pw.Write(toParquetRow(runID, r)); err != nil {
			fw.Close()
			return fmt.Errorf("failed to write row for order %d: %w", r.OrderID, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return fw.Close()
}

// ReadParquetFile reads back every row written by WriteParquetFile.
func ReadParquetFile(path string) ([]ParquetRow, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(ParquetRow), 1)
	if err != nil {
		return nil, fmt.Errorf("failed to create ParquetReader: %w", err)
	}
	defer pr.ReadStop()

	rows := make([]ParquetRow, int(pr.GetNumRows()))
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return rows, nil
}

// Package report renders the delivered-order table and run statistics.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dispatchsim/dispatchsim/sim"
)

// Format names an output layout.
type Format string

const (
	FormatText    Format = "text"
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
)

var validFormats = map[Format]bool{FormatText: true, FormatCSV: true, FormatJSON: true, FormatParquet: true}

// ParseFormat accepts a format name case-insensitively; empty means text.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatText, nil
	}
	f := Format(strings.ToLower(s))
	if !validFormats[f] {
		return "", fmt.Errorf("unknown report format %q; valid: text, csv, json, parquet", s)
	}
	return f, nil
}

// Extension returns the file extension (without dot) for f.
func (f Format) Extension() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// ContentType returns the MIME type used when uploading a report in format f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	}
	return "text/plain; charset=utf-8"
}

// Write renders records and stats to w. Parquet needs a seekable file; use WriteParquetFile.
func Write(w io.Writer, format Format, records []sim.DeliveryRecord, stats sim.Statistics) error {
	switch format {
	case FormatText, "":
		return writeText(w, records, stats)
	case FormatCSV:
		return writeCSV(w, records)
	case FormatJSON:
		return writeJSON(w, records, stats)
	case FormatParquet:
		return fmt.Errorf("parquet reports must be written with WriteParquetFile")
	}
	return fmt.Errorf("unknown report format %q", format)
}

// num prints a float the way the plain-text report always has: up to six significant
// digits, no trailing zeros.
func num(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// writeText emits one line per delivery
//
//	finish order request wait transit warehouse vehicle Yes value
//
// then a blank line and the statistics block.
func writeText(w io.Writer, records []sim.DeliveryRecord, stats sim.Statistics) error {
	var sb strings.Builder
	for _, r := range records {
		fmt.Fprintf(&sb, "%d %d %d %d %d %d %d %s %s\n",
			r.FinishTime, r.OrderID, r.RequestTime, r.WaitTime, r.TransitTime,
			r.WarehouseID, r.VehicleID, yesNo(r.Fulfilled), num(r.Value))
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Total Orders: %d\n", stats.TotalOrders)
	fmt.Fprintf(&sb, "VIP Orders: %d\n", stats.VIPOrders)
	fmt.Fprintf(&sb, "Standard Orders: %d\n", stats.StandardOrders)
	fmt.Fprintf(&sb, "Delivered: %d\n", stats.Delivered)
	fmt.Fprintf(&sb, "Canceled: %d\n", stats.Canceled)
	fmt.Fprintf(&sb, "Total Value: %s\n", num(stats.TotalValue))
	fmt.Fprintf(&sb, "Avg Wait Time: %s\n", num(stats.AvgWaitTime))
	fmt.Fprintf(&sb, "Avg Transit Time: %s\n", num(stats.AvgTransitTime))
	fmt.Fprintf(&sb, "On-Time Rate: %s%%\n", num(stats.OnTimeRate))
	_, err := io.WriteString(w, sb.String())
	return err
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

var csvHeader = []string{
	"finish_time", "order_id", "request_time", "wait_time", "transit_time",
	"warehouse_id", "vehicle_id", "fulfilled", "value", "vip", "on_time",
}

// writeCSV emits the delivery table only; statistics are derivable from it.
func writeCSV(w io.Writer, records []sim.DeliveryRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			strconv.FormatInt(r.FinishTime, 10),
			strconv.Itoa(int(r.OrderID)),
			strconv.FormatInt(r.RequestTime, 10),
			strconv.FormatInt(r.WaitTime, 10),
			strconv.FormatInt(r.TransitTime, 10),
			strconv.Itoa(int(r.WarehouseID)),
			strconv.Itoa(int(r.VehicleID)),
			strconv.FormatBool(r.Fulfilled),
			strconv.FormatFloat(r.Value, 'f', -1, 64),
			strconv.FormatBool(r.VIP),
			strconv.FormatBool(r.OnTime),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Document is the JSON report layout.
type Document struct {
	Deliveries []sim.DeliveryRecord `json:"deliveries"`
	Statistics sim.Statistics       `json:"statistics"`
}

func writeJSON(w io.Writer, records []sim.DeliveryRecord, stats sim.Statistics) error {
	if records == nil {
		records = []sim.DeliveryRecord{}
	}
	data, err := json.MarshalIndent(Document{Deliveries: records, Statistics: stats}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

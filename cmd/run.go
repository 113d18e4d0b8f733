package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dispatchsim/dispatchsim/sim"
	"github.com/dispatchsim/dispatchsim/sim/export"
	"github.com/dispatchsim/dispatchsim/sim/report"
	"github.com/dispatchsim/dispatchsim/sim/scenario"
	"github.com/dispatchsim/dispatchsim/sim/trace"
)

// Exporter constructors, replaced in tests.
var (
	newKafkaProducer = export.NewKafkaProducer
	newS3Client      = func(ctx context.Context, region string) (export.PutObjectAPI, error) {
		return export.NewS3Client(ctx, region)
	}
	connectPostgres = export.ConnectPostgres
)

// RunResult is what a completed run command produced.
type RunResult struct {
	RunID      string
	Clock      int64
	Finished   bool
	Statistics sim.Statistics
	Records    []sim.DeliveryRecord
	ReportURI  string // s3:// location, empty when not uploaded
}

// runCmd executes a scenario using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario to completion and write the delivery report",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd, cfgFile)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		if _, err := runScenario(cmd.Context(), cfg, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("Run failed: %v", err)
		}
	},
}

func init() {
	addScenarioFlag(runCmd)
	runCmd.Flags().String("report", "", "Report output path (default: stdout; required for parquet)")
	runCmd.Flags().String("format", "text", "Report format (text, csv, json, parquet)")
	runCmd.Flags().Int64("max-ticks", 0, "Abort after this many steps (0 = unbounded)")
	runCmd.Flags().Bool("fast-forward", false, "Skip idle ticks while both waiting queues are empty")
	runCmd.Flags().String("trace", "none", "Decision trace level (none, decisions)")
	runCmd.Flags().Bool("progress", false, "Show a progress spinner on stderr")
	runCmd.Flags().String("run-id", "", "Run identifier used by exporters (default: random UUID)")

	runCmd.Flags().StringSlice("kafka-brokers", nil, "Kafka brokers receiving every notification")
	runCmd.Flags().String("kafka-topic", "dispatchsim.notifications", "Kafka topic for notifications")
	runCmd.Flags().String("postgres-url", "", "Postgres connection URL for run results")
	runCmd.Flags().String("s3-bucket", "", "S3 bucket receiving the rendered report")
	runCmd.Flags().String("s3-prefix", "dispatchsim", "S3 key prefix")
	runCmd.Flags().String("s3-region", "us-east-1", "S3 region")
	runCmd.Flags().Duration("export-timeout", 30*time.Second, "Timeout for each post-run export")
}

// runScenario loads, runs and reports one scenario. The text, csv and json reports go
// to out when no --report path is given.
func runScenario(ctx context.Context, cfg *RunConfig, out io.Writer) (*RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	if format == report.FormatParquet && cfg.Report == "" {
		return nil, fmt.Errorf("parquet reports need --report")
	}
	if !trace.IsValidTraceLevel(cfg.Trace) {
		return nil, fmt.Errorf("unknown trace level %q", cfg.Trace)
	}

	world, err := scenario.Load(cfg.Scenario)
	if err != nil {
		return nil, err
	}

	runID := cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	startedAt := time.Now()

	opts := []sim.Option{
		sim.WithSink(sim.LogSink{}),
		sim.WithTrace(trace.TraceConfig{Level: trace.TraceLevel(cfg.Trace)}),
	}
	if cfg.FastForward {
		opts = append(opts, sim.WithFastForward())
	}
	var kafka *export.KafkaSink
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := newKafkaProducer(cfg.KafkaBrokers)
		if err != nil {
			return nil, err
		}
		kafka = export.NewKafkaSink(producer, cfg.KafkaTopic, runID)
		defer kafka.Close()
		opts = append(opts, sim.WithSink(kafka))
	}

	s, err := sim.NewSimulator(world, opts...)
	if err != nil {
		return nil, err
	}

	logrus.Infof("Starting run %s: scenario=%s, %d vehicles, %d warehouses, %d events",
		runID, cfg.Scenario, len(world.Vehicles), len(world.Warehouses), len(world.Events))
	if err := drive(ctx, s, cfg.MaxTicks, progressWriter(cfg.Progress)); err != nil {
		return nil, err
	}
	if kafka != nil {
		if err := kafka.Err(); err != nil {
			logrus.Warnf("run %s: %v", runID, err)
		}
	}

	res := &RunResult{
		RunID:      runID,
		Clock:      s.Clock(),
		Finished:   s.Finished(),
		Statistics: s.Statistics(),
		Records:    s.DeliveredRecords(),
	}
	if st := s.Trace(); st != nil {
		logTraceSummary(trace.Summarize(st))
	}

	body, err := writeReport(cfg, format, runID, res, out)
	if err != nil {
		return nil, err
	}

	if cfg.S3Bucket != "" {
		uctx, cancel := context.WithTimeout(ctx, cfg.ExportTimeout)
		defer cancel()
		client, err := newS3Client(uctx, cfg.S3Region)
		if err != nil {
			return nil, err
		}
		res.ReportURI, err = export.NewS3Uploader(client, cfg.S3Bucket, cfg.S3Prefix).Upload(uctx, runID, format, body)
		if err != nil {
			return nil, err
		}
	}

	if cfg.PostgresURL != "" {
		pctx, cancel := context.WithTimeout(ctx, cfg.ExportTimeout)
		defer cancel()
		pg, err := connectPostgres(pctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		defer pg.Close()
		run := export.Run{
			ID:         runID,
			Scenario:   cfg.Scenario,
			StartedAt:  startedAt,
			FinalClock: res.Clock,
			Finished:   res.Finished,
			Stats:      res.Statistics,
		}
		if err := pg.Export(pctx, run, res.Records); err != nil {
			return nil, err
		}
	}

	logrus.Infof("Run %s complete in %s.", runID, time.Since(startedAt))
	return res, nil
}

// drive steps s to completion, updating a spinner with the simulation clock.
func drive(ctx context.Context, s *sim.Simulator, maxTicks int64, progress io.Writer) error {
	bar := progressbar.NewOptions64(-1,
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("simulating"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	defer bar.Finish()

	return s.RunFunc(ctx, maxTicks, func(sim.StepResult) {
		_ = bar.Set64(s.Clock())
	})
}

func progressWriter(show bool) io.Writer {
	if show {
		return os.Stderr
	}
	return io.Discard
}

// writeReport renders the report to cfg.Report (or out) and returns the rendered bytes
// for upload.
func writeReport(cfg *RunConfig, format report.Format, runID string, res *RunResult, out io.Writer) ([]byte, error) {
	if format == report.FormatParquet {
		if err := report.WriteParquetFile(cfg.Report, runID, res.Records); err != nil {
			return nil, err
		}
		return os.ReadFile(cfg.Report)
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, format, res.Records, res.Statistics); err != nil {
		return nil, err
	}
	if cfg.Report == "" {
		_, err := out.Write(buf.Bytes())
		return buf.Bytes(), err
	}
	if err := os.WriteFile(cfg.Report, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}
	logrus.Infof("Report written to %s", cfg.Report)
	return buf.Bytes(), nil
}

func logTraceSummary(sum *trace.TraceSummary) {
	logrus.Infof("Trace: %d dispatches (%d VIP), %d deferrals, max %d per order, mean lead %.2f ticks",
		sum.TotalDispatches, sum.VIPDispatches, sum.TotalDeferrals, sum.MaxDeferralsPerOrder, sum.MeanDispatchLeadTicks)
	for _, reason := range slices.Sorted(maps.Keys(sum.DeferralsByReason)) {
		logrus.Infof("Trace: deferred %d time(s) for %s", sum.DeferralsByReason[reason], reason)
	}
	for _, wid := range slices.Sorted(maps.Keys(sum.WarehouseDistribution)) {
		logrus.Infof("Trace: warehouse %d dispatched %d order(s)", wid, sum.WarehouseDistribution[wid])
	}
}

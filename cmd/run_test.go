package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatchsim/dispatchsim/sim"
	"github.com/dispatchsim/dispatchsim/sim/export"
	"github.com/dispatchsim/dispatchsim/sim/report"
	"github.com/dispatchsim/dispatchsim/sim/trace"
)

var scenarioA = filepath.Join("..", "sim", "scenario", "testdata", "scenario_a.txt")

func baseConfig() *RunConfig {
	return &RunConfig{
		Scenario:      scenarioA,
		Format:        "text",
		Trace:         "none",
		RunID:         "run-test",
		ExportTimeout: 5 * time.Second,
	}
}

// countingProducer accepts every message. Unused SyncProducer methods panic.
type countingProducer struct {
	sarama.SyncProducer
	messages []*sarama.ProducerMessage
	closed   bool
}

func (p *countingProducer) SendMessage(msg *sarama.ProducerMessage) (int32, int64, error) {
	p.messages = append(p.messages, msg)
	return 0, int64(len(p.messages)), nil
}

func (p *countingProducer) Close() error {
	p.closed = true
	return nil
}

type recordingS3 struct {
	key  string
	body []byte
}

func (r *recordingS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	r.key = aws.ToString(in.Key)
	body, err := io.ReadAll(in.Body)
	r.body = body
	return &s3.PutObjectOutput{}, err
}

func TestRunScenario_TextReportToStdout(t *testing.T) {
	// GIVEN the single-delivery scenario
	var out bytes.Buffer

	// WHEN it runs with the default text report
	res, err := runScenario(context.Background(), baseConfig(), &out)

	// THEN the original report layout is printed
	require.NoError(t, err)
	assert.True(t, res.Finished)
	assert.Equal(t, int64(6), res.Clock)
	assert.True(t, strings.HasPrefix(out.String(), "3 100 0 0 3 1 1 Yes 5\n\n"), out.String())
	assert.Contains(t, out.String(), "Delivered: 1\n")
	assert.Contains(t, out.String(), "On-Time Rate: 100%\n")
}

func TestRunScenario_FastForwardSameOutcome(t *testing.T) {
	var plain, ff bytes.Buffer
	_, err := runScenario(context.Background(), baseConfig(), &plain)
	require.NoError(t, err)

	cfg := baseConfig()
	cfg.FastForward = true
	cfg.Trace = "decisions"
	_, err = runScenario(context.Background(), cfg, &ff)
	require.NoError(t, err)

	assert.Equal(t, plain.String(), ff.String())
}

func TestRunScenario_Parquet(t *testing.T) {
	cfg := baseConfig()
	cfg.Format = "parquet"
	_, err := runScenario(context.Background(), cfg, io.Discard)
	require.Error(t, err, "parquet needs a file")

	cfg.Report = filepath.Join(t.TempDir(), "report.parquet")
	_, err = runScenario(context.Background(), cfg, io.Discard)
	require.NoError(t, err)

	rows, err := report.ReadParquetFile(cfg.Report)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(100), rows[0].OrderID)
	assert.Equal(t, "run-test", rows[0].RunID)
}

func TestRunScenario_TickLimit(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxTicks = 2
	_, err := runScenario(context.Background(), cfg, io.Discard)
	assert.True(t, errors.Is(err, sim.ErrTickLimit), "got %v", err)
}

func TestRunScenario_InvalidInputs(t *testing.T) {
	for name, mutate := range map[string]func(*RunConfig){
		"format":   func(c *RunConfig) { c.Format = "xml" },
		"trace":    func(c *RunConfig) { c.Trace = "everything" },
		"scenario": func(c *RunConfig) { c.Scenario = "does-not-exist.txt" },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := baseConfig()
			mutate(cfg)
			_, err := runScenario(context.Background(), cfg, io.Discard)
			assert.Error(t, err)
		})
	}
}

func TestRunScenario_KafkaAndS3(t *testing.T) {
	// GIVEN fake Kafka and S3 backends
	producer := &countingProducer{}
	origProducer, origS3 := newKafkaProducer, newS3Client
	t.Cleanup(func() { newKafkaProducer, newS3Client = origProducer, origS3 })
	var brokers []string
	newKafkaProducer = func(b []string) (sarama.SyncProducer, error) {
		brokers = b
		return producer, nil
	}
	bucket := &recordingS3{}
	newS3Client = func(context.Context, string) (export.PutObjectAPI, error) { return bucket, nil }

	cfg := baseConfig()
	cfg.Format = "csv"
	cfg.KafkaBrokers = []string{"localhost:9092"}
	cfg.KafkaTopic = "notifications"
	cfg.S3Bucket = "reports"
	cfg.S3Prefix = "runs"
	var out bytes.Buffer

	// WHEN the run completes
	res, err := runScenario(context.Background(), cfg, &out)

	// THEN notifications were published and the rendered report uploaded
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:9092"}, brokers)
	assert.NotEmpty(t, producer.messages)
	assert.True(t, producer.closed)
	for _, m := range producer.messages {
		assert.Equal(t, "notifications", m.Topic)
		assert.Equal(t, sarama.StringEncoder("run-test"), m.Key)
	}
	assert.Equal(t, "runs/run-test/report.csv", bucket.key)
	assert.Equal(t, out.Bytes(), bucket.body)
	assert.Equal(t, "s3://reports/runs/run-test/report.csv", res.ReportURI)
}

func TestRunScenario_GeneratesRunID(t *testing.T) {
	cfg := baseConfig()
	cfg.RunID = ""
	res, err := runScenario(context.Background(), cfg, io.Discard)
	require.NoError(t, err)
	assert.Len(t, res.RunID, 36)
}

func TestLogTraceSummary_StableOrder(t *testing.T) {
	// GIVEN a summary whose maps hold several keys
	sum := &trace.TraceSummary{
		DeferralsByReason:     map[string]int{"no_vehicle": 2, "insufficient_stock": 5, "capacity": 1},
		WarehouseDistribution: map[int]int{3: 1, 1: 4, 2: 2},
	}
	var buf bytes.Buffer
	prevOut, prevLevel := logrus.StandardLogger().Out, logrus.GetLevel()
	logrus.SetOutput(&buf)
	logrus.SetLevel(logrus.InfoLevel)
	t.Cleanup(func() {
		logrus.SetOutput(prevOut)
		logrus.SetLevel(prevLevel)
	})

	// WHEN it is logged repeatedly
	var runs []string
	for i := 0; i < 5; i++ {
		buf.Reset()
		logTraceSummary(sum)
		runs = append(runs, buf.String())
	}

	// THEN every run logs the same lines, with keys in ascending order
	for _, out := range runs[1:] {
		assert.Equal(t, runs[0], out)
	}
	out := runs[0]
	assert.Less(t, strings.Index(out, "for capacity"), strings.Index(out, "for insufficient_stock"))
	assert.Less(t, strings.Index(out, "for insufficient_stock"), strings.Index(out, "for no_vehicle"))
	assert.Less(t, strings.Index(out, "warehouse 1 "), strings.Index(out, "warehouse 2 "))
	assert.Less(t, strings.Index(out, "warehouse 2 "), strings.Index(out, "warehouse 3 "))
}

// Package export ships simulation output to external systems: notifications to Kafka,
// run results to Postgres, rendered reports to S3.
package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"

	"github.com/dispatchsim/dispatchsim/sim"
)

// NewKafkaProducer connects a synchronous producer to brokers.
func NewKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Retry.Backoff = 100 * time.Millisecond
	cfg.Producer.Return.Successes = true // required by SyncProducer
	cfg.Net.DialTimeout = 30 * time.Second
	cfg.Net.ReadTimeout = 30 * time.Second
	cfg.Net.WriteTimeout = 30 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	logrus.Infof("Kafka producer connected to %v", brokers)
	return producer, nil
}

// KafkaMessage is the JSON value of every published record.
type KafkaMessage struct {
	RunID        string           `json:"run_id"`
	Notification sim.Notification `json:"notification"`
}

// KafkaSink publishes every notification to one topic, keyed by run id so a run's
// records stay in one partition and in order.
//
// Publishing failures do not stop the simulation. They are logged, and the first one
// is kept for Err.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
	runID    string

	sent     int
	failures int
	firstErr error
}

// NewKafkaSink wraps producer. The sink owns the producer and closes it in Close.
func NewKafkaSink(producer sarama.SyncProducer, topic, runID string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic, runID: runID}
}

// Notify implements sim.Sink.
func (k *KafkaSink) Notify(n sim.Notification) {
	value, err := json.Marshal(KafkaMessage{RunID: k.runID, Notification: n})
	if err != nil {
		k.fail(fmt.Errorf("encoding notification: %w", err))
		return
	}
	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(k.runID),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		k.fail(fmt.Errorf("sending %s notification to topic %s: %w", n.Kind, k.topic, err))
		return
	}
	k.sent++
}

func (k *KafkaSink) fail(err error) {
	k.failures++
	if k.firstErr == nil {
		k.firstErr = err
	}
	logrus.Warnf("kafka sink: %v", err)
}

// Sent returns the number of notifications published.
func (k *KafkaSink) Sent() int { return k.sent }

// Err returns the first publishing error, annotated with the total failure count.
func (k *KafkaSink) Err() error {
	if k.firstErr == nil {
		return nil
	}
	return fmt.Errorf("%d notification(s) not published, first: %w", k.failures, k.firstErr)
}

// Close closes the underlying producer.
func (k *KafkaSink) Close() error {
	if k.producer == nil {
		return nil
	}
	return k.producer.Close()
}

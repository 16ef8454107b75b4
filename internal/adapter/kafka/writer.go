// Package kafka publishes report artifacts to a Kafka topic.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/nyc-collision-analytics/internal/config"
	"github.com/couchcryptid/nyc-collision-analytics/internal/domain"
	"github.com/couchcryptid/nyc-collision-analytics/internal/report"
)

// KindRun is the kind header of the message that closes a run.
const KindRun = "run"

// maxBatchBytes keeps each produced record batch under the broker's default
// message.max.bytes. A full-size heat map is a few hundred kilobytes.
const maxBatchBytes = 1 << 20

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces one message per artifact, followed by a run message
// listing them. It implements pipeline.Sink.
type Publisher struct {
	writer  messageWriter
	timeout time.Duration
	logger  *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured report topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		WriteTimeout: cfg.KafkaTimeout,
		BatchBytes:   maxBatchBytes,
		Compression:  kafkago.Snappy,
	}
	return &Publisher{writer: w, timeout: cfg.KafkaTimeout, logger: logger}
}

// Name identifies the sink in logs and metrics.
func (p *Publisher) Name() string { return "kafka" }

// Publish writes the whole report in a single WriteMessages call. Artifacts
// with the same ID hash to the same partition, so consumers compacting the
// topic keep the latest run's version of each chart.
func (p *Publisher) Publish(ctx context.Context, rep *report.Report) error {
	msgs := make([]kafkago.Message, 0, len(rep.Artifacts)+1)
	for i := range rep.Artifacts {
		msg, err := artifactMessage(rep.Run, &rep.Artifacts[i])
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	msg, err := runMessage(rep)
	if err != nil {
		return err
	}
	msgs = append(msgs, msg)

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	p.logger.Info("report published", "run_id", rep.Run.ID, "messages", len(msgs))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// artifactMessage marshals an artifact into a Kafka message.
func artifactMessage(run domain.RunInfo, a *report.Artifact) (kafkago.Message, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize artifact %s: %w", a.ID, err)
	}
	return kafkago.Message{
		Key:     []byte(a.ID),
		Value:   data,
		Headers: headers(run, string(a.Kind)),
	}, nil
}

// runSummary is the payload of the closing run message.
type runSummary struct {
	Run       domain.RunInfo    `json:"run"`
	Stats     domain.CleanStats `json:"stats"`
	Artifacts []string          `json:"artifacts"`
}

func runMessage(rep *report.Report) (kafkago.Message, error) {
	ids := make([]string, len(rep.Artifacts))
	for i, a := range rep.Artifacts {
		ids[i] = a.ID
	}
	data, err := json.Marshal(runSummary{Run: rep.Run, Stats: rep.Stats, Artifacts: ids})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize run summary: %w", err)
	}
	return kafkago.Message{
		Key:     []byte("run/" + rep.Run.ID),
		Value:   data,
		Headers: headers(rep.Run, KindRun),
	}, nil
}

func headers(run domain.RunInfo, kind string) []kafkago.Header {
	return []kafkago.Header{
		{Key: "run_id", Value: []byte(run.ID)},
		{Key: "generated_at", Value: []byte(run.GeneratedAt.Format(time.RFC3339))},
		{Key: "kind", Value: []byte(kind)},
	}
}

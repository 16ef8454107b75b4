//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/nyc-collision-analytics/internal/adapter/csvfile"
	"github.com/couchcryptid/nyc-collision-analytics/internal/adapter/export"
	"github.com/couchcryptid/nyc-collision-analytics/internal/adapter/kafka"
	"github.com/couchcryptid/nyc-collision-analytics/internal/aggregate"
	"github.com/couchcryptid/nyc-collision-analytics/internal/config"
	"github.com/couchcryptid/nyc-collision-analytics/internal/domain"
	"github.com/couchcryptid/nyc-collision-analytics/internal/mockdata"
	"github.com/couchcryptid/nyc-collision-analytics/internal/observability"
	"github.com/couchcryptid/nyc-collision-analytics/internal/pipeline"
	"github.com/couchcryptid/nyc-collision-analytics/internal/report"
)

const testTopic = "test-collision-reports"

// publishedMessage holds a message read back from the report topic.
type publishedMessage struct {
	Key     string
	Value   []byte
	Headers map[string]string
}

func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from report topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return publishedMessage{Key: string(msg.Key), Value: msg.Value, Headers: headers}
}

// TestPipelineEndToEnd runs the whole pipeline on generated data with both
// the file and Kafka sinks, then reads the report back from the topic.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	years := domain.YearRange{First: 2018, Last: 2019}
	input := filepath.Join(t.TempDir(), "collisions.csv")
	f, err := os.Create(input)
	require.NoError(t, err)
	_, err = mockdata.Generate(f, mockdata.Options{Years: years, PerYear: 300, Seed: 99})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	cfg := &config.Config{
		KafkaBrokers: []string{broker},
		KafkaTopic:   testTopic,
		KafkaTimeout: 20 * time.Second,
	}
	publisher := kafka.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	metrics := observability.NewMetricsForTesting()
	outDir := t.TempDir()
	catalog := report.NewCatalog(aggregate.New(years, false, discardLogger()),
		report.Options{GridSize: 100, CurvePoints: 200}, discardLogger(), metrics)

	p := pipeline.New(
		csvfile.NewReader(input, discardLogger()),
		nil,
		catalog,
		[]pipeline.Sink{export.NewWriter(outDir, discardLogger()), publisher},
		pipeline.Options{Input: input, Years: years},
		discardLogger(),
		metrics,
	)
	rep, err := p.Run(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, rep.Artifacts)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-reports-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make([]publishedMessage, 0, len(rep.Artifacts)+1)
	for len(received) < len(rep.Artifacts)+1 {
		received = append(received, readPublished(ctx, t, consumer))
	}

	for i, a := range rep.Artifacts {
		msg := received[i]
		assert.Equal(t, a.ID, msg.Key)
		assert.Equal(t, rep.Run.ID, msg.Headers["run_id"])
		assert.Equal(t, string(a.Kind), msg.Headers["kind"])
		_, err := time.Parse(time.RFC3339, msg.Headers["generated_at"])
		assert.NoError(t, err, "generated_at should be RFC3339")
	}

	last := received[len(received)-1]
	assert.True(t, strings.HasPrefix(last.Key, "run/"))
	assert.Equal(t, kafka.KindRun, last.Headers["kind"])

	// The Kafka copy of an artifact matches the exported file.
	var fromTopic, fromFile report.Artifact
	require.NoError(t, json.Unmarshal(received[0].Value, &fromTopic))
	data, err := os.ReadFile(filepath.Join(outDir, rep.Artifacts[0].FileName()))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &fromFile))
	assert.Equal(t, fromFile, fromTopic)
}

// TestPublisherUnreachableBroker verifies that a dead broker fails the run
// after the file sink has still written its output.
func TestPublisherUnreachableBroker(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	years := domain.YearRange{First: 2018, Last: 2018}
	input := filepath.Join(t.TempDir(), "collisions.csv")
	f, err := os.Create(input)
	require.NoError(t, err)
	_, err = mockdata.Generate(f, mockdata.Options{Years: years, PerYear: 50, Seed: 1})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	publisher := kafka.NewPublisher(&config.Config{
		KafkaBrokers: []string{"127.0.0.1:1"},
		KafkaTopic:   testTopic,
		KafkaTimeout: 2 * time.Second,
	}, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	metrics := observability.NewMetricsForTesting()
	outDir := t.TempDir()
	p := pipeline.New(
		csvfile.NewReader(input, discardLogger()),
		nil,
		report.NewCatalog(aggregate.New(years, false, discardLogger()), report.Options{GridSize: 10, CurvePoints: 20}, discardLogger(), metrics),
		[]pipeline.Sink{publisher, export.NewWriter(outDir, discardLogger())},
		pipeline.Options{Input: input, Years: years},
		discardLogger(),
		metrics,
	)

	_, err = p.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink kafka")
	assert.FileExists(t, filepath.Join(outDir, export.ManifestFile))
}

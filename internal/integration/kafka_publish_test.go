//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/groundwater-hmpi-service/internal/adapter/kafka"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/config"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/domain"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/observability"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/pipeline"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/store"
)

const testScoredTopic = "test-hmpi-scored"

// scoredMessage holds a deserialized message read from the scored topic.
type scoredMessage struct {
	Sample  domain.ScoredSample
	Key     string
	Headers map[string]string
}

func readScored(ctx context.Context, t *testing.T, consumer *kafkago.Reader) scoredMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from scored topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var sample domain.ScoredSample
	require.NoError(t, json.Unmarshal(msg.Value, &sample), "unmarshal scored message")

	return scoredMessage{Sample: sample, Key: string(msg.Key), Headers: headers}
}

// TestAnalyzeBatchPublishesScoredSamples ingests a batch, analyzes it, and
// reads every scored sample back from the topic.
func TestAnalyzeBatchPublishesScoredSamples(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testScoredTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaScoredTopic: testScoredTopic,
	}
	publisher := kafka.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	metrics := observability.NewMetricsForTesting()
	svc := pipeline.New(store.NewMemory(), discardLogger(), metrics, pipeline.Options{
		Workers:    2,
		MaxRetries: 5,
		Publisher:  publisher,
	})

	res, err := svc.Ingest(ctx, "survey.csv", []domain.RawRow{
		{"S. No.": "G1", "Locations": "Kanpur", "As μg/L": "20"},
		{"S. No.": "G2", "Locations": "Unnao", "Cd": "150"},
	})
	require.NoError(t, err)

	a, err := svc.AnalyzeBatch(ctx, res.BatchID)
	require.NoError(t, err)
	require.Equal(t, 2, a.Count)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testScoredTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	got := map[string]scoredMessage{}
	for range 2 {
		m := readScored(ctx, t, consumer)
		got[m.Sample.SampleID] = m
	}

	g1 := got["G1"]
	assert.Equal(t, res.BatchID+"/G1", g1.Key)
	assert.Equal(t, res.BatchID, g1.Headers["scope"])
	assert.Equal(t, string(domain.StatusSafe), g1.Headers["status"])
	assert.Equal(t, a.AnalyzedAt.Format(time.RFC3339), g1.Headers["analyzed_at"])
	assert.InDelta(t, 2.22, g1.Sample.CalculatedHMPI, 0)

	g2 := got["G2"]
	assert.Equal(t, domain.StatusHigh, g2.Sample.Status)
	assert.Equal(t, "Unnao", g2.Sample.Location)
}

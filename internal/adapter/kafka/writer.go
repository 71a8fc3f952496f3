package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/groundwater-hmpi-service/internal/config"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/domain"
)

// Publisher produces scored samples to a Kafka topic, one message per sample.
// It implements pipeline.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured scored-sample topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaScoredTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishScored serializes every scored sample and writes them in a single
// WriteMessages call.
func (p *Publisher) PublishScored(ctx context.Context, scope string, scored []domain.ScoredSample, analyzedAt time.Time) error {
	if len(scored) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(scored))
	for i := range scored {
		msg, err := serializeToMessage(scope, scored[i], analyzedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write scored samples: %w", err)
	}
	p.logger.Debug("scored samples published", "scope", scope, "count", len(msgs), "topic", p.writer.Topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a ScoredSample into a Kafka message keyed by
// scope and sample id.
func serializeToMessage(scope string, sample domain.ScoredSample, analyzedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(sample)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize scored sample: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(scope + "/" + sample.SampleID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "scope", Value: []byte(scope)},
			{Key: "status", Value: []byte(sample.Status)},
			{Key: "analyzed_at", Value: []byte(analyzedAt.Format(time.RFC3339))},
		},
	}, nil
}

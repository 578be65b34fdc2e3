package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/couchcryptid/homefit-engine/internal/config"
	"github.com/couchcryptid/homefit-engine/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// ResultWriter publishes finished assessments to a Kafka topic.
// It implements pipeline.ResultSink.
type ResultWriter struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewResultWriter creates a Kafka producer for the configured result topic.
func NewResultWriter(cfg *config.Config, logger *slog.Logger) *ResultWriter {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaResultTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &ResultWriter{writer: w, logger: logger}
}

// Publish serializes one assessment and writes it keyed by request ID so all
// results for a request land on the same partition.
func (w *ResultWriter) Publish(ctx context.Context, result domain.ScoreResult) error {
	msg, err := serializeToMessage(result)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish assessment %s: %w", result.Diagnostics.RequestID, err)
	}
	w.logger.Debug("assessment published",
		"request_id", result.Diagnostics.RequestID,
		"topic", w.writer.Topic,
	)
	return nil
}

func (w *ResultWriter) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ScoreResult into a Kafka message.
func serializeToMessage(result domain.ScoreResult) (kafkago.Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize assessment: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(result.Diagnostics.RequestID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "request_id", Value: []byte(result.Diagnostics.RequestID)},
			{Key: "personalized", Value: []byte(strconv.FormatBool(result.IsPersonalized))},
		},
	}, nil
}

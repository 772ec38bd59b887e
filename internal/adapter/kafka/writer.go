package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/pw-import/internal/config"
	"github.com/couchcryptid/pw-import/internal/domain"
)

// Writer publishes appended output rows to a Kafka topic.
// It implements pipeline.RowPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured row topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.LeastBytes{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes one output row and writes it to the topic, keyed by date.
func (w *Writer) Publish(ctx context.Context, row domain.OutputRow) error {
	msg, err := serializeToMessage(row)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish row %s: %w", domain.FormatDate(row.Date), err)
	}
	w.logger.Debug("row published", "date", domain.FormatDate(row.Date), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// RowMessage is the JSON value published for each output row.
type RowMessage struct {
	Date     string            `json:"date"`
	Stations [2]string         `json:"stations"`
	Fields   map[string]string `json:"fields"`
	Line     string            `json:"line"`
}

// serializeToMessage marshals an OutputRow into a Kafka message.
func serializeToMessage(row domain.OutputRow) (kafkago.Message, error) {
	data, err := json.Marshal(RowMessage{
		Date:     domain.FormatDate(row.Date),
		Stations: row.Stations,
		Fields:   row.Named(),
		Line:     row.Line(),
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize output row: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(domain.DateKey(row.Date)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("pw-import")},
			{Key: "processed_at", Value: []byte(row.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}

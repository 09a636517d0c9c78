package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/soil-analysis-service/internal/config"
	"github.com/couchcryptid/soil-analysis-service/internal/domain"
)

// Writer publishes completed analysis reports to a Kafka topic.
// It implements analysis.ReportPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured report topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReportTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishReport serializes and publishes one analysis report. The report ID
// is the message key, so replays land on the same partition and downstream
// upserts stay idempotent.
func (w *Writer) PublishReport(ctx context.Context, report domain.AnalysisReport) error {
	msg, err := serializeReport(report)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeReport marshals an AnalysisReport into a Kafka message.
func serializeReport(report domain.AnalysisReport) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize analysis report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "analysis_depth", Value: []byte(report.Depth)},
			{Key: "analyzed_at", Value: []byte(report.AnalyzedAt.Format(time.RFC3339))},
		},
	}, nil
}

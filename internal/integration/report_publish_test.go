//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/soil-analysis-service/internal/adapter/kafka"
	"github.com/couchcryptid/soil-analysis-service/internal/config"
	"github.com/couchcryptid/soil-analysis-service/internal/domain"
)

const testReportTopic = "test-soil-analysis-reports"

// TestReportPublish publishes a completed analysis report through the Kafka
// writer and verifies the message key, headers, and payload on the topic.
func TestReportPublish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testReportTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaReportTopic: testReportTopic,
	}

	ph := 4.8
	payload := domain.PropertyPayload{
		Property: map[string][]domain.PropertyLayer{
			"ph": {{
				Depth: domain.DepthLabel{Value: "0-20"},
				Value: domain.LayerValue{Value: domain.MeasuredValue{Number: &ph}, Unit: "pH"},
			}},
		},
	}
	report := domain.NewAnalysisReport(-1.2921, 36.8219, "0-20", "maize", payload)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.PublishReport(ctx, report))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testReportTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from report topic")

	assert.Equal(t, report.ID, string(msg.Key))

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "0-20", headers["analysis_depth"])
	_, err = time.Parse(time.RFC3339, headers["analyzed_at"])
	assert.NoError(t, err, "analyzed_at should be valid RFC3339")

	var got domain.AnalysisReport
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, report.ID, got.ID)
	assert.Equal(t, -1.2921, got.Latitude)
	assert.Equal(t, 36.8219, got.Longitude)
	assert.Equal(t, "maize", got.CropType)

	// pH 4.8 is acidic: expect the lime recommendation at top priority.
	require.NotEmpty(t, got.Recommendations)
	assert.Equal(t, "Apply Lime", got.Recommendations[0].Title)
	assert.Equal(t, 1, got.Recommendations[0].Priority)
	assert.Equal(t, 80.0, got.Health.OverallScore)
}

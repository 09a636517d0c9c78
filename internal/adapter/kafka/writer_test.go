package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/soil-analysis-service/internal/domain"
)

func sampleReport() domain.AnalysisReport {
	return domain.AnalysisReport{
		ID:        "soil-deadbeef01020304",
		Latitude:  -1.2921,
		Longitude: 36.8219,
		Depth:     "0-20",
		CropType:  "maize",
		Health: domain.HealthSummary{
			OverallScore: 62.5,
			Category:     domain.HealthGood,
			PropertyScores: map[domain.Property]float64{
				domain.PropertyPH: 83.3,
			},
		},
		Recommendations: []domain.Recommendation{
			{Type: "amendment", Title: "Apply Lime", Priority: 1},
		},
		AnalyzedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestSerializeReport(t *testing.T) {
	report := sampleReport()

	msg, err := serializeReport(report)
	require.NoError(t, err)

	// The report ID keys the message so replays stay on one partition.
	assert.Equal(t, []byte(report.ID), msg.Key)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "0-20", headers["analysis_depth"])
	assert.Equal(t, "2026-03-14T09:30:00Z", headers["analyzed_at"])

	var got domain.AnalysisReport
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, report.ID, got.ID)
	assert.Equal(t, report.Latitude, got.Latitude)
	assert.Equal(t, report.CropType, got.CropType)
	assert.Equal(t, report.Health.Category, got.Health.Category)
	require.Len(t, got.Recommendations, 1)
	assert.Equal(t, "Apply Lime", got.Recommendations[0].Title)
}

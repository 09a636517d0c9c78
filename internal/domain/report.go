package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// AnalysisReport is the complete result of one soil analysis: the scored
// health summary plus the prioritized recommendation list. The service does
// not persist reports; they are handed to the caller and optionally emitted
// as events for downstream storage.
type AnalysisReport struct {
	ID              string           `json:"id"`
	Latitude        float64          `json:"latitude"`
	Longitude       float64          `json:"longitude"`
	Depth           string           `json:"depth"`
	CropType        string           `json:"crop_type,omitempty"`
	Health          HealthSummary    `json:"health"`
	Recommendations []Recommendation `json:"recommendations"`
	AnalyzedAt      time.Time        `json:"analyzed_at"`
}

// NewAnalysisReport scores the payload and evaluates the recommendation
// rules at the requested depth, producing a report timestamped from the
// package clock.
func NewAnalysisReport(lat, lon float64, depth, cropType string, payload PropertyPayload) AnalysisReport {
	analyzedAt := clock.Now().UTC()
	health := ComputeHealthScore(payload, depth)
	return AnalysisReport{
		ID:              newReportID(lat, lon, depth, analyzedAt),
		Latitude:        lat,
		Longitude:       lon,
		Depth:           depth,
		CropType:        cropType,
		Health:          health,
		Recommendations: GenerateRecommendations(payload, cropType, depth),
		AnalyzedAt:      analyzedAt,
	}
}

// newReportID produces a deterministic ID from the analysis key fields.
// Reprocessing the same coordinate at the same instant yields the same ID,
// so downstream consumers can upsert idempotently.
func newReportID(lat, lon float64, depth string, analyzedAt time.Time) string {
	input := fmt.Sprintf("%.6f|%.6f|%s|%d", lat, lon, depth, analyzedAt.UnixNano())
	hash := sha256.Sum256([]byte(input))
	return "soil-" + hex.EncodeToString(hash[:8])
}

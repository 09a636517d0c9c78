package domain

import (
	"math"
	"time"
)

// OptimalRange is the agronomic reference interval a property is scored
// against, expressed in the unit values are normalized to.
type OptimalRange struct {
	Min  float64
	Max  float64
	Unit string
}

// optimalRanges is the fixed reference table for scored properties.
// Never mutated at runtime.
var optimalRanges = map[Property]OptimalRange{
	PropertyPH:            {Min: 6.0, Max: 7.2, Unit: "pH"},
	PropertyOrganicCarbon: {Min: 1.5, Max: 3.0, Unit: "%"},
	PropertyTotalNitrogen: {Min: 0.15, Max: 0.3, Unit: "%"},
	PropertyPhosphorus:    {Min: 25, Max: 50, Unit: "ppm"},
	PropertyPotassium:     {Min: 150, Max: 300, Unit: "ppm"},
	PropertyCEC:           {Min: 10, Max: 25, Unit: "cmol(+)/kg"},
	PropertySulphur:       {Min: 10, Max: 20, Unit: "ppm"},
	PropertyZinc:          {Min: 1.5, Max: 5.0, Unit: "ppm"},
}

// HealthCategory buckets an overall score for user-facing display.
type HealthCategory string

const (
	HealthExcellent HealthCategory = "Excellent"
	HealthGood      HealthCategory = "Good"
	HealthFair      HealthCategory = "Fair"
	HealthPoor      HealthCategory = "Poor"
)

// HealthSummary is the scored view of one analysis. Built once per
// invocation and never mutated afterwards.
type HealthSummary struct {
	OverallScore   float64              `json:"overall_score"`
	Category       HealthCategory       `json:"health_category"`
	PropertyScores map[Property]float64 `json:"property_scores"`
	Depth          string               `json:"analysis_depth"`
	AnalyzedAt     time.Time            `json:"analyzed_at"`
}

// ScoreProperty maps a normalized value onto a 0–100 scale against the
// property's optimal range: 100 inside [Min,Max], a linear ramp from 0 at
// the origin below Min, and a linear decay reaching 0 at 2·Max above.
// The result is clamped to [0,100]. The second return is false for
// properties without a reference range (texture).
func ScoreProperty(prop Property, value float64) (float64, bool) {
	r, ok := optimalRanges[prop]
	if !ok {
		return 0, false
	}
	return scoreAgainst(value, r), true
}

func scoreAgainst(v float64, r OptimalRange) float64 {
	switch {
	case v >= r.Min && v <= r.Max:
		return 100
	case v < r.Min:
		return clampScore(100 * v / r.Min)
	default:
		return clampScore(100 * (1 - (v-r.Max)/r.Max))
	}
}

func clampScore(s float64) float64 {
	return math.Min(100, math.Max(0, s))
}

// ComputeHealthScore scores every resolvable property at the requested depth
// and aggregates them into an overall 0–100 score. Properties with no layer
// at the depth are excluded from both numerator and denominator. With zero
// resolvable properties the summary degenerates to score 0 / Poor with an
// empty score map; callers should read that as "no data" rather than a
// genuine poor-health finding.
func ComputeHealthScore(payload PropertyPayload, depth string) HealthSummary {
	scores := make(map[Property]float64)
	var total float64

	for _, prop := range ScoredProperties {
		raw, unit, ok := payload.ValueAt(prop, depth)
		if !ok {
			continue
		}
		value, _ := Normalize(prop, raw, unit)
		score, ok := ScoreProperty(prop, value)
		if !ok {
			continue
		}
		scores[prop] = score
		total += score
	}

	var overall float64
	if len(scores) > 0 {
		overall = roundScore(total / float64(len(scores)))
	}

	return HealthSummary{
		OverallScore:   overall,
		Category:       categorize(overall),
		PropertyScores: scores,
		Depth:          depth,
		AnalyzedAt:     clock.Now().UTC(),
	}
}

func categorize(overall float64) HealthCategory {
	switch {
	case overall >= 80:
		return HealthExcellent
	case overall >= 60:
		return HealthGood
	case overall >= 40:
		return HealthFair
	default:
		return HealthPoor
	}
}

// roundScore rounds to one decimal place for display stability.
func roundScore(s float64) float64 {
	return math.Round(s*10) / 10
}

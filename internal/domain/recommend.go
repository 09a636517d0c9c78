package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Recommendation is one actionable agronomic measure. Priority 1 is the most
// urgent; lists are always sorted ascending by priority.
type Recommendation struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Dosage      string `json:"dosage,omitempty"`
	Timing      string `json:"timing,omitempty"`
	Priority    int    `json:"priority"`
}

const (
	recTypeAmendment  = "amendment"
	recTypeFertilizer = "fertilizer"
	recTypeManagement = "management"
)

// thresholdRule evaluates one numeric property against its trigger. build
// returns the recommendation and whether the rule fired; a rule emits at
// most one record per analysis.
type thresholdRule struct {
	property Property
	build    func(v float64) (Recommendation, bool)
}

// thresholdRules holds one rule per scored property, in evaluation order.
// Evaluation order breaks priority ties during the final stable sort.
var thresholdRules = []thresholdRule{
	{property: PropertyPH, build: phRule},
	{property: PropertyTotalNitrogen, build: nitrogenRule},
	{property: PropertyOrganicCarbon, build: organicCarbonRule},
	{property: PropertyPhosphorus, build: phosphorusRule},
	{property: PropertyPotassium, build: potassiumRule},
	{property: PropertyCEC, build: cecRule},
	{property: PropertySulphur, build: sulphurRule},
	{property: PropertyZinc, build: zincRule},
}

// GenerateRecommendations evaluates every rule against the normalized values
// at the requested depth and returns the fired recommendations sorted by
// ascending priority. Properties without a resolvable value produce nothing
// and do not affect other rules. cropType is accepted for forward
// compatibility but does not alter any threshold yet.
func GenerateRecommendations(payload PropertyPayload, cropType, depth string) []Recommendation {
	_ = cropType

	recs := make([]Recommendation, 0, len(thresholdRules)+1)

	for _, rule := range thresholdRules {
		raw, unit, ok := payload.ValueAt(rule.property, depth)
		if !ok {
			continue
		}
		value, _ := Normalize(rule.property, raw, unit)
		if rec, fired := rule.build(value); fired {
			recs = append(recs, rec)
		}
	}

	if texture, ok := payload.TextAt(PropertyTextureClass, depth); ok {
		if rec, fired := textureRule(texture); fired {
			recs = append(recs, rec)
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority < recs[j].Priority
	})
	return recs
}

func phRule(v float64) (Recommendation, bool) {
	switch {
	case v < 5.5:
		return Recommendation{
			Type:        recTypeAmendment,
			Title:       "Apply Lime",
			Description: fmt.Sprintf("Soil pH is %.1f, which is too acidic. Apply agricultural lime to raise pH toward the optimal range (6.0-7.2). This improves nutrient availability and reduces aluminium toxicity.", v),
			Dosage:      "2-4 tons per hectare",
			Timing:      "Apply 3-4 months before planting",
			Priority:    1,
		}, true
	case v > 7.8:
		return Recommendation{
			Type:        recTypeAmendment,
			Title:       "Apply Sulphur",
			Description: fmt.Sprintf("Soil pH is %.1f, which is too alkaline. Apply elemental sulphur to lower pH toward the optimal range (6.0-7.2).", v),
			Dosage:      "200-500 kg per hectare",
			Timing:      "Apply 2-3 months before planting",
			Priority:    1,
		}, true
	}
	return Recommendation{}, false
}

func nitrogenRule(v float64) (Recommendation, bool) {
	if v >= 0.1 {
		return Recommendation{}, false
	}
	return Recommendation{
		Type:        recTypeFertilizer,
		Title:       "Apply Nitrogen Fertilizer",
		Description: fmt.Sprintf("Total nitrogen is %.2f%%, which is low. Apply nitrogen fertilizer to support crop growth.", v),
		Dosage:      "100-150 kg N per hectare",
		Timing:      "Split application: 1/3 at planting, 2/3 at 6 weeks",
		Priority:    1,
	}, true
}

func organicCarbonRule(v float64) (Recommendation, bool) {
	if v >= 1.0 {
		return Recommendation{}, false
	}
	return Recommendation{
		Type:        recTypeAmendment,
		Title:       "Add Organic Matter",
		Description: fmt.Sprintf("Organic carbon is %.1f%%, which is low. Incorporate compost, manure, or crop residues to improve soil structure and fertility.", v),
		Dosage:      "5-10 tons compost per hectare",
		Timing:      "Apply before planting season",
		Priority:    2,
	}, true
}

func phosphorusRule(v float64) (Recommendation, bool) {
	if v >= 20 {
		return Recommendation{}, false
	}
	return Recommendation{
		Type:        recTypeFertilizer,
		Title:       "Apply Phosphorus Fertilizer",
		Description: fmt.Sprintf("Available phosphorus is %.1f ppm, which is low. Apply phosphorus fertilizer to support root development and flowering.", v),
		Dosage:      "40-60 kg P2O5 per hectare",
		Timing:      "Apply at planting",
		Priority:    2,
	}, true
}

func potassiumRule(v float64) (Recommendation, bool) {
	if v >= 120 {
		return Recommendation{}, false
	}
	return Recommendation{
		Type:        recTypeFertilizer,
		Title:       "Apply Potassium Fertilizer",
		Description: fmt.Sprintf("Available potassium is %.1f ppm, which is low. Apply potassium fertilizer to improve disease resistance and water use efficiency.", v),
		Dosage:      "50-80 kg K2O per hectare",
		Timing:      "Apply at planting",
		Priority:    2,
	}, true
}

func cecRule(v float64) (Recommendation, bool) {
	if v >= 8 {
		return Recommendation{}, false
	}
	return Recommendation{
		Type:        recTypeAmendment,
		Title:       "Improve Nutrient Retention",
		Description: fmt.Sprintf("Cation exchange capacity is %.1f cmol(+)/kg, which is low. Incorporate compost or well-decomposed manure to improve the soil's nutrient holding capacity.", v),
		Dosage:      "10-15 tons organic matter per hectare",
		Timing:      "Apply before land preparation",
		Priority:    3,
	}, true
}

func sulphurRule(v float64) (Recommendation, bool) {
	if v >= 8 {
		return Recommendation{}, false
	}
	return Recommendation{
		Type:        recTypeFertilizer,
		Title:       "Apply Sulphur Fertilizer",
		Description: fmt.Sprintf("Extractable sulphur is %.1f ppm, which is low. Apply a sulphur-containing fertilizer such as ammonium sulphate or gypsum.", v),
		Dosage:      "20-40 kg S per hectare",
		Timing:      "Apply at planting",
		Priority:    3,
	}, true
}

func zincRule(v float64) (Recommendation, bool) {
	if v >= 1.0 {
		return Recommendation{}, false
	}
	return Recommendation{
		Type:        recTypeFertilizer,
		Title:       "Apply Zinc Supplement",
		Description: fmt.Sprintf("Extractable zinc is %.1f ppm, which is low. Apply zinc sulphate to correct the micronutrient deficiency.", v),
		Dosage:      "5-10 kg zinc sulphate per hectare",
		Timing:      "Apply at planting or as a foliar spray",
		Priority:    4,
	}, true
}

// textureRule flags texture classes that need management attention. The clay
// check runs first so compound labels like "Sandy Clay Loam" produce exactly
// one recommendation.
func textureRule(texture string) (Recommendation, bool) {
	switch {
	case strings.Contains(texture, "Clay"):
		return Recommendation{
			Type:        recTypeManagement,
			Title:       "Manage Heavy Clay Soil",
			Description: fmt.Sprintf("Soil texture is %s. Improve drainage and avoid working the soil when wet to prevent compaction.", texture),
			Priority:    5,
		}, true
	case strings.Contains(texture, "Sandy"):
		return Recommendation{
			Type:        recTypeManagement,
			Title:       "Manage Sandy Soil",
			Description: fmt.Sprintf("Soil texture is %s. Add organic matter and split fertilizer applications to reduce nutrient leaching.", texture),
			Priority:    5,
		}, true
	}
	return Recommendation{}, false
}

package domain

import (
	"encoding/json"
	"strconv"
)

// Property identifies a soil property tracked by the analysis. The string
// values are the iSDA API property names and appear verbatim as keys in the
// provider payload.
type Property string

const (
	PropertyPH            Property = "ph"
	PropertyOrganicCarbon Property = "carbon_organic"
	PropertyTotalNitrogen Property = "nitrogen_total"
	PropertyPhosphorus    Property = "phosphorous_extractable"
	PropertyPotassium     Property = "potassium_extractable"
	PropertyCEC           Property = "cation_exchange_capacity"
	PropertySulphur       Property = "sulphur_extractable"
	PropertyZinc          Property = "zinc_extractable"
	PropertyTextureClass  Property = "texture_class"
)

// ScoredProperties lists the numeric properties that contribute to the health
// score, in evaluation order. PropertyTextureClass is categorical and only
// participates in recommendations.
var ScoredProperties = []Property{
	PropertyPH,
	PropertyOrganicCarbon,
	PropertyTotalNitrogen,
	PropertyPhosphorus,
	PropertyPotassium,
	PropertyCEC,
	PropertySulphur,
	PropertyZinc,
}

// PropertyPayload is the raw iSDA soilproperty response. The schema is owned
// by the provider, not by this service: unknown properties are carried
// through untouched and missing keys never fault.
type PropertyPayload struct {
	Property map[string][]PropertyLayer `json:"property"`
}

// PropertyLayer is one depth layer of one property.
type PropertyLayer struct {
	Depth       DepthLabel         `json:"depth"`
	Value       LayerValue         `json:"value"`
	Uncertainty []UncertaintyBound `json:"uncertainty,omitempty"`
}

// DepthLabel identifies the layer's depth interval, e.g. {"value": "0-20", "unit": "cm"}.
type DepthLabel struct {
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// LayerValue carries the measured value and its source unit.
type LayerValue struct {
	Value MeasuredValue `json:"value"`
	Unit  string        `json:"unit,omitempty"`
}

// UncertaintyBound is one entry of a layer's uncertainty array.
type UncertaintyBound struct {
	LowerBound *float64 `json:"lower_bound,omitempty"`
	UpperBound *float64 `json:"upper_bound,omitempty"`
}

// MeasuredValue is a provider measurement that may be numeric (most
// properties) or a class label (texture_class). Null and unrecognized
// encodings decode to the zero value, which reads as absent.
type MeasuredValue struct {
	Number *float64
	Text   string
}

// UnmarshalJSON accepts a JSON number, a JSON string, or null.
func (v *MeasuredValue) UnmarshalJSON(data []byte) error {
	*v = MeasuredValue{}
	if string(data) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		v.Number = &n
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v.Text = s
		return nil
	}
	// Tolerate shapes this service does not understand; the property is
	// simply treated as unresolved.
	return nil
}

// MarshalJSON restores the provider encoding.
func (v MeasuredValue) MarshalJSON() ([]byte, error) {
	if v.Number != nil {
		return strconv.AppendFloat(nil, *v.Number, 'g', -1, 64), nil
	}
	if v.Text != "" {
		return json.Marshal(v.Text)
	}
	return []byte("null"), nil
}

// LayerAt returns the named property's layer whose depth label exactly
// matches the requested depth string, e.g. "0-20".
func (p PropertyPayload) LayerAt(prop Property, depth string) (PropertyLayer, bool) {
	for _, layer := range p.Property[string(prop)] {
		if layer.Depth.Value == depth {
			return layer, true
		}
	}
	return PropertyLayer{}, false
}

// ValueAt resolves the numeric value and source unit for a property at the
// requested depth. The second return is false when the property, the depth
// layer, or the numeric value is absent.
func (p PropertyPayload) ValueAt(prop Property, depth string) (float64, string, bool) {
	layer, ok := p.LayerAt(prop, depth)
	if !ok || layer.Value.Value.Number == nil {
		return 0, "", false
	}
	return *layer.Value.Value.Number, layer.Value.Unit, true
}

// TextAt resolves the categorical value for a property at the requested
// depth, e.g. the texture class label.
func (p PropertyPayload) TextAt(prop Property, depth string) (string, bool) {
	layer, ok := p.LayerAt(prop, depth)
	if !ok || layer.Value.Value.Text == "" {
		return "", false
	}
	return layer.Value.Value.Text, true
}

// UncertaintyBounds returns the layer's lower and upper prediction-interval
// bounds. The provider puts the bounds pair in the second array entry.
func (l PropertyLayer) UncertaintyBounds() (lower, upper float64, ok bool) {
	if len(l.Uncertainty) < 2 {
		return 0, 0, false
	}
	b := l.Uncertainty[1]
	if b.LowerBound == nil || b.UpperBound == nil {
		return 0, 0, false
	}
	return *b.LowerBound, *b.UpperBound, true
}

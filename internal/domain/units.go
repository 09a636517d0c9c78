package domain

// ConversionRule rescales a provider unit into the unit the optimal-range
// table is expressed in.
type ConversionRule struct {
	FromUnit string
	ToUnit   string
	Factor   float64
}

// conversions holds the per-property unit conversions. The scorer and the
// rule evaluator both normalize through this table, so a new conversion only
// needs to be declared once.
var conversions = map[Property]ConversionRule{
	PropertyOrganicCarbon: {FromUnit: "g/kg", ToUnit: "%", Factor: 0.1},
	PropertyTotalNitrogen: {FromUnit: "g/kg", ToUnit: "%", Factor: 0.1},
}

// Normalize converts a measured value into the property's reference unit.
// Properties without a conversion rule, and values already reported in the
// target unit, pass through unchanged. An empty source unit is treated as the
// rule's source unit: the provider omits the unit on some layers but always
// measures the convertible properties in g/kg.
func Normalize(prop Property, value float64, unit string) (float64, string) {
	rule, ok := conversions[prop]
	if !ok {
		return value, unit
	}
	if unit == rule.ToUnit {
		return value, unit
	}
	if unit != "" && unit != rule.FromUnit {
		return value, unit
	}
	return value * rule.Factor, rule.ToUnit
}

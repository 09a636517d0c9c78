// Package domain models iSDA Africa soil-property data and the agronomic
// analysis derived from it.
//
// # Data Source
//
// Soil measurements come from the iSDA Africa soil data API
// (https://api.isda-africa.com), a 30m-resolution raster of predicted soil
// properties across the African continent. The service requests the full
// property set for a coordinate in a single call; the response maps each
// property name to an ordered list of depth layers.
//
// # iSDA Data Conventions
//
// Depth labels:
//
//	"0-20"  → topsoil, 0–20 cm. Used for all recommendations by default.
//	"20-50" → subsoil. Some properties are only modeled for the topsoil
//	          layer, so a depth lookup can legitimately come back empty.
//
// Layer values:
//
//	Most properties carry a numeric {"value": 6.1, "unit": "g/kg"} pair.
//	texture_class carries a class label instead: {"value": "Sandy Clay Loam"}.
//	[MeasuredValue] accepts both encodings; anything else decodes to absent.
//
// Units:
//
//	The API reports carbon_organic and nitrogen_total in g/kg while the
//	agronomic reference ranges are in %. The conversion table in units.go
//	is consulted uniformly before scoring and rule evaluation (g/kg ÷ 10 = %).
//	Remaining properties already match their reference range's unit.
//
// Uncertainty:
//
//	Each layer may carry an "uncertainty" array; the second element holds the
//	{lower_bound, upper_bound} pair for the 90% prediction interval.
//
// # Scoring
//
// Each tracked property is scored 0–100 against a fixed optimal range:
// 100 inside the range, a linear ramp from 0 at the origin up to the lower
// bound, and a linear decay reaching 0 at twice the upper bound. The overall
// health score is the mean over properties that resolved at the requested
// depth; unresolved properties are excluded entirely rather than scored zero.
//
// # ID Generation
//
// Report IDs are deterministic SHA-256 hashes of lat|lon|depth|analyzed-at.
// This enables idempotent upserts downstream (ON CONFLICT DO NOTHING) and
// replay safety without distributed coordination. See [newReportID].
package domain

package domain

import (
	"context"
	"encoding/json"
)

// SoilDataSource retrieves raw soil-property data for a coordinate.
type SoilDataSource interface {
	// EnsureAuthenticated refreshes the provider credential if the cached one
	// is missing or expired. Safe for concurrent use.
	EnsureAuthenticated(ctx context.Context) error

	// SoilProperties fetches the full, unfiltered property payload for a
	// coordinate in one round trip.
	SoilProperties(ctx context.Context, lat, lon float64) (PropertyPayload, error)

	// AvailableLayers returns the provider's layer metadata. The schema is
	// provider-owned, so it is passed through opaquely.
	AvailableLayers(ctx context.Context) (json.RawMessage, error)
}

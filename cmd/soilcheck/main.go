// Command soilcheck runs a single soil analysis for a coordinate and prints
// the resulting report as JSON. It talks to the live iSDA API using the same
// client, scoring, and recommendation code as the service.
//
// Usage:
//
//	ISDA_USERNAME=... ISDA_PASSWORD=... go run ./cmd/soilcheck \
//	  -lat -1.2921 -lon 36.8219 -depth 0-20 -crop maize
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/soil-analysis-service/internal/adapter/isda"
	"github.com/couchcryptid/soil-analysis-service/internal/analysis"
	"github.com/couchcryptid/soil-analysis-service/internal/config"
	"github.com/couchcryptid/soil-analysis-service/internal/observability"
)

func main() {
	lat := flag.Float64("lat", 0, "latitude (-90..90)")
	lon := flag.Float64("lon", 0, "longitude (-180..180)")
	depth := flag.String("depth", analysis.DefaultDepth, "depth label, e.g. 0-20 or 20-50")
	crop := flag.String("crop", "", "crop type (optional)")
	flag.Parse()

	if err := run(*lat, *lon, *depth, *crop); err != nil {
		fmt.Fprintln(os.Stderr, "soilcheck:", err)
		os.Exit(1)
	}
}

func run(lat, lon float64, depth, crop string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetricsForTesting()

	client := isda.NewClient(isda.Config{
		BaseURL:      cfg.ISDABaseURL,
		Username:     cfg.ISDAUsername,
		Password:     cfg.ISDAPassword,
		AuthTimeout:  cfg.ISDAAuthTimeout,
		FetchTimeout: cfg.ISDAFetchTimeout,
	}, metrics, logger)

	svc := analysis.NewService(client, nil, logger, metrics)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := svc.Analyze(ctx, analysis.Request{
		Latitude:  lat,
		Longitude: lon,
		Depth:     depth,
		CropType:  crop,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// Package analysis orchestrates one soil analysis: validate the request,
// ensure a provider credential, fetch the raw payload in a single round trip,
// score it, evaluate the recommendation rules, and optionally publish the
// report for downstream persistence.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/soil-analysis-service/internal/domain"
	"github.com/couchcryptid/soil-analysis-service/internal/observability"
)

// DefaultDepth is the topsoil layer used when a request does not name one.
const DefaultDepth = "0-20"

// ErrInvalidRequest means the analysis request failed validation. No I/O has
// happened when it is returned.
var ErrInvalidRequest = errors.New("invalid analysis request")

// Request describes one soil analysis to perform.
type Request struct {
	Latitude  float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
	Depth     string  `json:"depth,omitempty"`
	CropType  string  `json:"crop_type,omitempty"`
}

// ReportPublisher emits a completed report for downstream consumers.
type ReportPublisher interface {
	PublishReport(ctx context.Context, report domain.AnalysisReport) error
}

// Service runs soil analyses against a soil data source. Pass a nil
// publisher to disable report publishing.
type Service struct {
	source    domain.SoilDataSource
	publisher ReportPublisher
	validate  *validator.Validate
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// NewService creates an analysis Service.
func NewService(source domain.SoilDataSource, publisher ReportPublisher, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		source:    source,
		publisher: publisher,
		validate:  validator.New(),
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once the service has completed at least one
// provider interaction, or an error describing why it is not yet ready.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("no successful provider interaction yet")
	}
	return nil
}

// WarmUp authenticates with the provider ahead of the first request. Failure
// is non-fatal; the first analysis will retry.
func (s *Service) WarmUp(ctx context.Context) {
	if err := s.source.EnsureAuthenticated(ctx); err != nil {
		s.logger.Warn("startup authentication failed", "error", err)
		return
	}
	s.ready.Store(true)
}

// Analyze performs one complete soil analysis. The raw payload is fetched in
// a single unfiltered round trip; scoring and rule evaluation then run
// locally on the same payload.
func (s *Service) Analyze(ctx context.Context, req Request) (domain.AnalysisReport, error) {
	if err := s.validate.Struct(req); err != nil {
		return domain.AnalysisReport{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.Depth == "" {
		req.Depth = DefaultDepth
	}

	start := time.Now()

	if err := s.source.EnsureAuthenticated(ctx); err != nil {
		s.metrics.AnalysisErrors.Inc()
		s.logger.Error("provider authentication failed", "error", err)
		return domain.AnalysisReport{}, err
	}

	payload, err := s.source.SoilProperties(ctx, req.Latitude, req.Longitude)
	if err != nil {
		s.metrics.AnalysisErrors.Inc()
		s.logger.Error("soil property fetch failed",
			"lat", req.Latitude,
			"lon", req.Longitude,
			"error", err,
		)
		return domain.AnalysisReport{}, err
	}

	report := domain.NewAnalysisReport(req.Latitude, req.Longitude, req.Depth, req.CropType, payload)

	s.metrics.AnalysesCompleted.Inc()
	s.metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	s.metrics.RecommendationsPer.Observe(float64(len(report.Recommendations)))
	s.ready.Store(true)

	s.logger.Info("soil analysis completed",
		"report_id", report.ID,
		"lat", req.Latitude,
		"lon", req.Longitude,
		"depth", req.Depth,
		"overall_score", report.Health.OverallScore,
		"category", report.Health.Category,
		"recommendations", len(report.Recommendations),
	)

	s.publish(ctx, report)
	return report, nil
}

// AvailableLayers proxies the provider's layer metadata, authenticating first
// if needed.
func (s *Service) AvailableLayers(ctx context.Context) (json.RawMessage, error) {
	if err := s.source.EnsureAuthenticated(ctx); err != nil {
		s.logger.Error("provider authentication failed", "error", err)
		return nil, err
	}
	layers, err := s.source.AvailableLayers(ctx)
	if err != nil {
		return nil, err
	}
	s.ready.Store(true)
	return layers, nil
}

// publish emits the report best-effort: the analysis already succeeded, so a
// publish failure is logged and counted but never surfaced to the caller.
func (s *Service) publish(ctx context.Context, report domain.AnalysisReport) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishReport(ctx, report); err != nil {
		s.metrics.PublishErrors.Inc()
		s.logger.Warn("report publish failed", "report_id", report.ID, "error", err)
		return
	}
	s.metrics.ReportsPublished.Inc()
}

package isda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/soil-analysis-service/internal/domain"
	"github.com/couchcryptid/soil-analysis-service/internal/observability"
)

// Sentinel errors returned by the client. Callers branch with errors.Is; the
// HTTP adapter maps them to 400/503 responses.
var (
	// ErrInvalidCoordinates means the request failed validation before any I/O.
	ErrInvalidCoordinates = errors.New("coordinates out of range")

	// ErrNotAuthenticated means no valid credential is cached. Callers should
	// run EnsureAuthenticated first.
	ErrNotAuthenticated = errors.New("no valid access token")

	// ErrAuthFailed means the provider rejected the configured credentials.
	ErrAuthFailed = errors.New("isda authentication failed")

	// ErrUnavailable covers network failures, timeouts, and non-2xx provider
	// responses on data calls.
	ErrUnavailable = errors.New("isda api unavailable")
)

// Config carries the client's connection settings.
type Config struct {
	BaseURL      string
	Username     string
	Password     string
	AuthTimeout  time.Duration
	FetchTimeout time.Duration
}

// Client implements domain.SoilDataSource against the iSDA Africa API.
// It owns the cached access credential; all other state is per-call.
type Client struct {
	baseURL  string
	username string
	password string

	// Separate HTTP clients because the unfiltered soilproperty payload
	// needs a longer deadline than login and metadata calls.
	authClient  *http.Client
	fetchClient *http.Client

	tokens *tokenCache

	// refreshMu serializes the check-then-refresh sequence in
	// EnsureAuthenticated so concurrent analyses trigger one refresh.
	refreshMu sync.Mutex

	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewClient creates an iSDA API client.
func NewClient(cfg Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		username:    cfg.Username,
		password:    cfg.Password,
		authClient:  &http.Client{Timeout: cfg.AuthTimeout},
		fetchClient: &http.Client{Timeout: cfg.FetchTimeout},
		tokens:      newTokenCache(clockwork.NewRealClock()),
		metrics:     metrics,
		logger:      logger,
	}
}

// Authenticate exchanges the configured credentials for an access token via
// POST /login. On success the cached credential is replaced; on any failure
// the existing credential is left untouched.
func (c *Client) Authenticate(ctx context.Context) error {
	form := url.Values{
		"username": {c.username},
		"password": {c.password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.authClient.Do(req)
	c.metrics.ProviderRequestDuration.WithLabelValues("login").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues("login", "error").Inc()
		c.logger.Error("isda authentication request failed", "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.metrics.ProviderRequests.WithLabelValues("login", "error").Inc()
		c.logger.Error("isda authentication rejected", "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("%w: status %d", ErrAuthFailed, resp.StatusCode)
	}

	var loginResp loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		c.metrics.ProviderRequests.WithLabelValues("login", "error").Inc()
		return fmt.Errorf("%w: decode login response: %v", ErrAuthFailed, err)
	}
	if loginResp.AccessToken == "" {
		c.metrics.ProviderRequests.WithLabelValues("login", "error").Inc()
		return fmt.Errorf("%w: empty access token", ErrAuthFailed)
	}

	c.tokens.set(loginResp.AccessToken)
	c.metrics.ProviderRequests.WithLabelValues("login", "success").Inc()
	c.metrics.TokenRefreshes.Inc()
	c.logger.Info("authenticated with isda api")
	return nil
}

// TokenValid reports whether the cached credential is still usable. Validity
// is evaluated lazily; the client never refreshes on its own.
func (c *Client) TokenValid() bool {
	return c.tokens.valid()
}

// EnsureAuthenticated checks the cached credential and re-authenticates if it
// is missing or expired. The check-then-refresh sequence runs under a lock so
// concurrent callers produce at most one login round trip.
func (c *Client) EnsureAuthenticated(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if c.tokens.valid() {
		return nil
	}
	return c.Authenticate(ctx)
}

// AvailableLayers fetches the provider's soil-property layer metadata.
// The schema is provider-owned and returned opaquely.
func (c *Client) AvailableLayers(ctx context.Context) (json.RawMessage, error) {
	body, err := c.authorizedGet(ctx, c.authClient, "layers", c.baseURL+"/isdasoil/v2/layers")
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// SoilProperties fetches the full, unfiltered property set for a coordinate
// in a single round trip. Coordinates are validated before any network call.
func (c *Client) SoilProperties(ctx context.Context, lat, lon float64) (domain.PropertyPayload, error) {
	if lat < -90 || lat > 90 {
		return domain.PropertyPayload{}, fmt.Errorf("%w: latitude %v", ErrInvalidCoordinates, lat)
	}
	if lon < -180 || lon > 180 {
		return domain.PropertyPayload{}, fmt.Errorf("%w: longitude %v", ErrInvalidCoordinates, lon)
	}

	params := url.Values{
		"lat": {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon": {strconv.FormatFloat(lon, 'f', -1, 64)},
	}

	body, err := c.authorizedGet(ctx, c.fetchClient, "soilproperty", c.baseURL+"/isdasoil/v2/soilproperty?"+params.Encode())
	if err != nil {
		return domain.PropertyPayload{}, err
	}

	var payload domain.PropertyPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.logger.Error("isda soilproperty response malformed", "error", err)
		return domain.PropertyPayload{}, fmt.Errorf("%w: decode soilproperty response: %v", ErrUnavailable, err)
	}
	return payload, nil
}

// authorizedGet issues a bearer-authenticated GET and returns the response
// body. Network failures and non-2xx statuses are logged and converted to
// sentinel errors; nothing else crosses this boundary.
func (c *Client) authorizedGet(ctx context.Context, httpClient *http.Client, endpoint, fullURL string) ([]byte, error) {
	token, ok := c.tokens.bearer()
	if !ok {
		return nil, ErrNotAuthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := httpClient.Do(req)
	c.metrics.ProviderRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(endpoint, "error").Inc()
		c.logger.Error("isda request failed", "endpoint", endpoint, "error", err)
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.metrics.ProviderRequests.WithLabelValues(endpoint, "error").Inc()
		c.logger.Error("isda request rejected", "endpoint", endpoint, "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("%w: %s: status %d", ErrUnavailable, endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("%w: %s: read body: %v", ErrUnavailable, endpoint, err)
	}

	c.metrics.ProviderRequests.WithLabelValues(endpoint, "success").Inc()
	return body, nil
}

// iSDA API response types.

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

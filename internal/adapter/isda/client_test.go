package isda

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/soil-analysis-service/internal/observability"
)

const (
	testUsername = "test-user"
	testPassword = "test-pass"
	testToken    = "test-access-token"

	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(baseURL string, clock clockwork.Clock) *Client {
	return &Client{
		baseURL:     baseURL,
		username:    testUsername,
		password:    testPassword,
		authClient:  &http.Client{Timeout: 5 * time.Second},
		fetchClient: &http.Client{Timeout: 5 * time.Second},
		tokens:      newTokenCache(clock),
		metrics:     testMetrics(),
		logger:      discardLogger(),
	}
}

func loginHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, testUsername, r.PostForm.Get("username"))
		assert.Equal(t, testPassword, r.PostForm.Get("password"))

		w.Header().Set(headerContentType, contentTypeJSON)
		w.Write([]byte(`{"access_token":"` + testToken + `"}`)) //nolint:errcheck
	}
}

func TestClient_Authenticate_Success(t *testing.T) {
	srv := httptest.NewServer(loginHandler(t))
	defer srv.Close()

	fake := clockwork.NewFakeClock()
	c := testClient(srv.URL, fake)

	require.NoError(t, c.Authenticate(context.Background()))
	assert.True(t, c.TokenValid())

	// Valid strictly before expiry: 55 minutes after issue it is stale.
	fake.Advance(55*time.Minute - time.Second)
	assert.True(t, c.TokenValid())
	fake.Advance(time.Second)
	assert.False(t, c.TokenValid())
}

func TestClient_Authenticate_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Incorrect username or password"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := testClient(srv.URL, clockwork.NewFakeClock())

	err := c.Authenticate(context.Background())
	require.ErrorIs(t, err, ErrAuthFailed)
	assert.False(t, c.TokenValid())
}

func TestClient_Authenticate_FailureKeepsExistingToken(t *testing.T) {
	var rejecting atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rejecting.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		loginHandler(t)(w, r)
	}))
	defer srv.Close()

	fake := clockwork.NewFakeClock()
	c := testClient(srv.URL, fake)

	require.NoError(t, c.Authenticate(context.Background()))
	require.True(t, c.TokenValid())

	rejecting.Store(true)
	err := c.Authenticate(context.Background())
	require.ErrorIs(t, err, ErrAuthFailed)

	// The still-valid credential survives the failed refresh.
	assert.True(t, c.TokenValid())
}

func TestClient_Authenticate_EmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		w.Write([]byte(`{}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := testClient(srv.URL, clockwork.NewFakeClock())
	require.ErrorIs(t, c.Authenticate(context.Background()), ErrAuthFailed)
}

func TestClient_Authenticate_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	srv.Close() // immediately unreachable

	c := testClient(srv.URL, clockwork.NewFakeClock())
	require.ErrorIs(t, c.Authenticate(context.Background()), ErrUnavailable)
}

func TestClient_Authenticate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL, clockwork.NewFakeClock())
	c.authClient = &http.Client{Timeout: 50 * time.Millisecond}

	require.ErrorIs(t, c.Authenticate(context.Background()), ErrUnavailable)
}

func TestClient_EnsureAuthenticated(t *testing.T) {
	var logins atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		loginHandler(t)(w, r)
	}))
	defer srv.Close()

	fake := clockwork.NewFakeClock()
	c := testClient(srv.URL, fake)

	require.NoError(t, c.EnsureAuthenticated(context.Background()))
	assert.Equal(t, int32(1), logins.Load())

	// A valid credential short-circuits; no second login round trip.
	require.NoError(t, c.EnsureAuthenticated(context.Background()))
	assert.Equal(t, int32(1), logins.Load())

	// Past expiry the credential is refreshed.
	fake.Advance(56 * time.Minute)
	require.NoError(t, c.EnsureAuthenticated(context.Background()))
	assert.Equal(t, int32(2), logins.Load())
}

func TestClient_SoilProperties_Success(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", loginHandler(t))
	mux.HandleFunc("/isdasoil/v2/soilproperty", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		assert.Equal(t, "-1.2921", r.URL.Query().Get("lat"))
		assert.Equal(t, "36.8219", r.URL.Query().Get("lon"))
		// The full property set is requested: no depth or property filter.
		assert.Empty(t, r.URL.Query().Get("depth"))
		assert.Empty(t, r.URL.Query().Get("property"))

		w.Header().Set(headerContentType, contentTypeJSON)
		w.Write([]byte(`{"property":{"ph":[{"depth":{"value":"0-20"},"value":{"value":6.1,"unit":"pH"}}]}}`)) //nolint:errcheck
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testClient(srv.URL, clockwork.NewFakeClock())
	require.NoError(t, c.Authenticate(context.Background()))

	payload, err := c.SoilProperties(context.Background(), -1.2921, 36.8219)
	require.NoError(t, err)

	v, unit, ok := payload.ValueAt("ph", "0-20")
	require.True(t, ok)
	assert.Equal(t, 6.1, v)
	assert.Equal(t, "pH", unit)
}

func TestClient_SoilProperties_InvalidCoordinates(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL, clockwork.NewFakeClock())

	tests := []struct {
		name     string
		lat, lon float64
	}{
		{"latitude too high", 90.1, 0},
		{"latitude too low", -90.1, 0},
		{"longitude too high", 0, 180.1},
		{"longitude too low", 0, -180.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.SoilProperties(context.Background(), tt.lat, tt.lon)
			require.ErrorIs(t, err, ErrInvalidCoordinates)
		})
	}

	// Validation fails fast, before any network call.
	assert.Equal(t, int32(0), requests.Load())
}

func TestClient_SoilProperties_NotAuthenticated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL, clockwork.NewFakeClock())

	_, err := c.SoilProperties(context.Background(), 0, 0)
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestClient_SoilProperties_UpstreamError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", loginHandler(t))
	mux.HandleFunc("/isdasoil/v2/soilproperty", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testClient(srv.URL, clockwork.NewFakeClock())
	require.NoError(t, c.Authenticate(context.Background()))

	_, err := c.SoilProperties(context.Background(), 0, 0)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_AvailableLayers(t *testing.T) {
	const layersJSON = `{"layers":{"ph":{"depths":["0-20","20-50"]}}}`

	mux := http.NewServeMux()
	mux.HandleFunc("/login", loginHandler(t))
	mux.HandleFunc("/isdasoil/v2/layers", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		w.Header().Set(headerContentType, contentTypeJSON)
		w.Write([]byte(layersJSON)) //nolint:errcheck
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testClient(srv.URL, clockwork.NewFakeClock())
	require.NoError(t, c.Authenticate(context.Background()))

	layers, err := c.AvailableLayers(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, layersJSON, string(layers))
}

func TestClient_AvailableLayers_NotAuthenticated(t *testing.T) {
	c := testClient("http://unused", clockwork.NewFakeClock())
	_, err := c.AvailableLayers(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

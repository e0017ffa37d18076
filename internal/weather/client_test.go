package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{
	"name": "São Paulo",
	"main": {"temp": 27.4, "feels_like": 29.6, "humidity": 65, "pressure": 1013},
	"weather": [{"main": "Clear", "description": "céu limpo"}],
	"wind": {"speed": 3.5},
	"sys": {"country": "BR"},
	"coord": {"lat": -23.55, "lon": -46.63}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", 2*time.Second)
}

func TestFetchSuccessNormalizesPayload(t *testing.T) {
	var gotQuery map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"q": q.Get("q"), "appid": q.Get("appid"),
			"units": q.Get("units"), "lang": q.Get("lang"),
		}
		assert.Equal(t, "Contact-Manager-Enhanced/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(okBody))
	})

	obs, err := c.Fetch(context.Background(), "São Paulo")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"q": "São Paulo", "appid": "test-key", "units": "metric", "lang": "pt_br",
	}, gotQuery)

	w := obs.Weather
	assert.Equal(t, 27, w.Temperature, "temperature rounded to whole °C")
	assert.Equal(t, "Clear", w.Condition)
	assert.Equal(t, "céu limpo", w.Description)
	assert.Equal(t, "São Paulo, BR", w.City)
	require.NotNil(t, w.FeelsLike)
	assert.Equal(t, 30, *w.FeelsLike)
	require.NotNil(t, w.WindSpeed)
	assert.Equal(t, 13, *w.WindSpeed, "3.5 m/s -> 12.6 km/h rounds to 13")
	require.NotNil(t, w.Humidity)
	assert.Equal(t, 65, *w.Humidity)

	assert.Equal(t, "BR", obs.APIInfo.Country)
	require.NotNil(t, obs.APIInfo.Coordinates)
	assert.InDelta(t, -23.55, obs.APIInfo.Coordinates.Lat, 0.001)
	assert.GreaterOrEqual(t, obs.APIInfo.ResponseTimeMS, int64(0))
}

func TestFetchStatusClassification(t *testing.T) {
	cases := []struct {
		status       int
		wantCategory string
	}{
		{http.StatusUnauthorized, CategoryUnauthorized},
		{http.StatusNotFound, CategoryNotFound},
		{http.StatusTooManyRequests, CategoryRateLimit},
		{http.StatusBadGateway, CategoryNetworkError},
		{http.StatusInternalServerError, CategoryNetworkError},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			})
			_, err := c.Fetch(context.Background(), "Recife")
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.wantCategory, apiErr.Category)
			assert.Equal(t, tc.status, apiErr.HTTPStatus)
		})
	}
}

func TestFetchIncompleteBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name": "Recife"}`)) // no main, no weather
	})
	_, err := c.Fetch(context.Background(), "Recife")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CategoryInvalidResponse, apiErr.Category)
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(okBody))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "test-key", 50*time.Millisecond)
	_, err := c.Fetch(context.Background(), "Recife")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CategoryNetworkError, apiErr.Category)
}

func TestFetchWithoutKey(t *testing.T) {
	c := NewClient("http://unused.invalid", "", time.Second)
	assert.False(t, c.HasKey())
	_, err := c.Fetch(context.Background(), "Recife")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CategoryUnauthorized, apiErr.Category)
}

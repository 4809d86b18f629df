package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidbea/forecast-go/internal/cache"
	"github.com/kidbea/forecast-go/internal/config"
)

func newTestClient(store cache.Store, geocodingURL, forecastURL string) *Client {
	c := NewClient(config.WeatherConfig{TimeoutSeconds: 5, MaxRetries: 3}, store)
	c.geocodingURL = geocodingURL
	c.forecastURL = forecastURL
	c.minDelay = 0
	c.sleep = func(time.Duration) {}
	return c
}

func TestGeocodeCachesResult(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "Mumbai", r.URL.Query().Get("name"))
		w.Write([]byte(`{"results":[{"name":"Mumbai","latitude":19.07,"longitude":72.88,"country":"India","timezone":"Asia/Kolkata"}]}`))
	}))
	defer server.Close()

	store := cache.NewMemoryStore()
	client := newTestClient(store, server.URL, server.URL)

	location, err := client.Geocode(context.Background(), "Mumbai")
	require.NoError(t, err)
	assert.Equal(t, 19.07, location.Latitude)
	assert.Equal(t, 72.88, location.Longitude)

	// Second lookup is served from cache.
	_, err = client.Geocode(context.Background(), "Mumbai")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestGeocodeNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	client := newTestClient(cache.NewMemoryStore(), server.URL, server.URL)
	_, err := client.Geocode(context.Background(), "Atlantis")
	assert.Error(t, err)
}

func TestCurrentWeather(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"current":{"temperature_2m":31.4,"relative_humidity_2m":78,"precipitation":0.2,"weather_code":63,"wind_speed_10m":12.5,"time":"2026-08-24T09:00"}}`))
	}))
	defer server.Close()

	client := newTestClient(cache.NewMemoryStore(), server.URL, server.URL)
	observation, err := client.CurrentWeather(context.Background(), 19.07, 72.88)
	require.NoError(t, err)

	require.NotNil(t, observation.Temperature)
	assert.Equal(t, 31.4, *observation.Temperature)
	assert.Equal(t, 63, observation.WeatherCode)
	assert.Equal(t, "Moderate rain", observation.Description)
}

func TestDailyForecast(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("forecast_days"))
		w.Write([]byte(`{"daily":{
			"time":["2026-08-25","2026-08-26"],
			"temperature_2m_max":[33.0,30.0],
			"temperature_2m_min":[27.0,25.0],
			"precipitation_sum":[4.2,0.0],
			"weather_code":[80,1]
		}}`))
	}))
	defer server.Close()

	client := newTestClient(cache.NewMemoryStore(), server.URL, server.URL)
	outlooks, err := client.DailyForecast(context.Background(), 19.07, 72.88, 7)
	require.NoError(t, err)
	require.Len(t, outlooks, 2)

	require.NotNil(t, outlooks[0].TemperatureAvg)
	assert.Equal(t, 30.0, *outlooks[0].TemperatureAvg)
	assert.Equal(t, "Slight rain showers", outlooks[0].Description)
	assert.Equal(t, "Mainly clear", outlooks[1].Description)
}

func TestRetriesExhaustedReturnUnavailable(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(cache.NewMemoryStore(), server.URL, server.URL)
	_, err := client.CurrentWeather(context.Background(), 19.07, 72.88)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 3, calls)
}

func TestTransientFailureRecovers(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"current":{"temperature_2m":28.0,"weather_code":0,"time":"2026-08-24T09:00"}}`))
	}))
	defer server.Close()

	client := newTestClient(cache.NewMemoryStore(), server.URL, server.URL)
	observation, err := client.CurrentWeather(context.Background(), 19.07, 72.88)

	require.NoError(t, err)
	assert.Equal(t, "Clear sky", observation.Description)
	assert.Equal(t, 2, calls)
}

func TestCollectForLocation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/geocode", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"results":[{"name":"Pune","latitude":18.52,"longitude":73.85}]}`))
	})
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("current") != "" {
			w.Write([]byte(`{"current":{"temperature_2m":26.0,"weather_code":2,"time":"2026-08-24T09:00"}}`))
			return
		}
		w.Write([]byte(`{"daily":{"time":["2026-08-25"],"temperature_2m_max":[30.0],"temperature_2m_min":[24.0],"precipitation_sum":[0.0],"weather_code":[1]}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(cache.NewMemoryStore(), server.URL+"/geocode", server.URL+"/forecast")
	client.now = func() time.Time { return time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC) }

	collected, err := client.CollectForLocation(context.Background(), "Pune")
	require.NoError(t, err)
	assert.Equal(t, "Pune", collected.Location.Name)
	require.NotNil(t, collected.Current)
	assert.Equal(t, "Partly cloudy", collected.Current.Description)
	require.Len(t, collected.Forecast, 1)
}

func TestCodeDescriptionUnknown(t *testing.T) {
	assert.Equal(t, "Unknown", CodeDescription(42))
}

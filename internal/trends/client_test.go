package trends

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

func newTestClient(endpoint string, store cache.Store) *Client {
	c := NewClient(config.TrendsConfig{
		Endpoint:       endpoint,
		Geo:            "IN",
		Timeframe:      "today 3-m",
		TimeoutSeconds: 5,
		MaxRetries:     3,
	}, store)
	c.minDelay = 0
	c.sleep = func(time.Duration) {}
	return c
}

func TestInterestOverTimeCaches(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "kids toys,baby toys", r.URL.Query().Get("keywords"))
		assert.Equal(t, "IN", r.URL.Query().Get("geo"))
		w.Write([]byte(`{"series":{"kids toys":[40,45,50],"baby toys":[30,30,35]}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, cache.NewMemoryStore())

	series, err := client.InterestOverTime(context.Background(), []string{"kids toys", "baby toys"})
	require.NoError(t, err)
	assert.Equal(t, []float64{40, 45, 50}, series["kids toys"])

	_, err = client.InterestOverTime(context.Background(), []string{"kids toys", "baby toys"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "second call must be served from cache")
}

func TestInterestOverTimeUnconfigured(t *testing.T) {
	client := newTestClient("", cache.NewMemoryStore())
	_, err := client.InterestOverTime(context.Background(), []string{"kids toys"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCategoryTrend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"series":{"board games":[40,40,50,60]}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, cache.NewMemoryStore())
	client.now = func() time.Time { return time.Date(2026, 8, 24, 2, 0, 0, 0, time.UTC) }

	trend, err := client.CategoryTrend(context.Background(), "games", nil)
	require.NoError(t, err)
	assert.Equal(t, "games", trend.Category)
	assert.Equal(t, 47.5, trend.Score)
	assert.Equal(t, "increasing", trend.Direction)
}

func TestCategoryTrendUnknownCategory(t *testing.T) {
	client := newTestClient("http://unused.invalid", cache.NewMemoryStore())
	_, err := client.CategoryTrend(context.Background(), "furniture", nil)
	assert.Error(t, err)
}

func TestCategoryTrendAllBatchesFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL, cache.NewMemoryStore())
	_, err := client.CategoryTrend(context.Background(), "toys", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDirection(t *testing.T) {
	assert.Equal(t, "increasing", Direction([]float64{40, 40, 50, 60}))
	assert.Equal(t, "decreasing", Direction([]float64{60, 50, 40, 40}))
	assert.Equal(t, "stable", Direction([]float64{50, 50, 51, 49}))
	assert.Equal(t, "stable", Direction([]float64{50}))
	assert.Equal(t, "stable", Direction([]float64{0, 0, 10, 10}))
}

func TestAverageSeries(t *testing.T) {
	averaged := averageSeries(Series{
		"a": {10, 20, 30},
		"b": {30, 40},
	})
	assert.Equal(t, []float64{20, 30, 30}, averaged)
}

func TestMeanNonZero(t *testing.T) {
	assert.Equal(t, 20.0, meanNonZero([]float64{0, 10, 30, 0}))
	assert.Equal(t, 0.0, meanNonZero([]float64{0, 0}))
}

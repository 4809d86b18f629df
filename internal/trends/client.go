// Package trends collects search-interest series for product categories from
// a configurable trends endpoint. Like weather, the provider is optional:
// an unset endpoint or exhausted retries surface ErrUnavailable and callers
// degrade to neutral trend features.
package trends

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kidbea/forecast-go/internal/cache"
	"github.com/kidbea/forecast-go/internal/config"
)

const (
	interestCacheTTL      = 7 * 24 * time.Hour
	retryBaseDelay        = 5 * time.Second
	maxKeywordsPerRequest = 5

	interestKeyPrefix = "trends:interest:"
)

// ErrUnavailable marks the trends provider as down or unconfigured.
var ErrUnavailable = errors.New("trends provider unavailable")

// DefaultKeywords maps product categories to their search keywords.
var DefaultKeywords = map[string][]string{
	"toys":        {"kids toys", "baby toys", "educational toys", "outdoor games"},
	"clothing":    {"baby clothes", "kids clothing", "children dress", "kids wear"},
	"books":       {"children books", "kids books", "story books"},
	"games":       {"board games", "puzzle games", "card games"},
	"outdoor":     {"outdoor toys", "bicycles kids", "sports equipment"},
	"educational": {"learning toys", "educational games", "building blocks"},
}

// Series maps a keyword to its interest values over time, oldest first.
type Series map[string][]float64

// CategoryTrend is the aggregated trend for one product category.
type CategoryTrend struct {
	Category    string    `json:"category"`
	Keywords    []string  `json:"keywords"`
	Score       float64   `json:"score"`
	Direction   string    `json:"direction"`
	CollectedAt time.Time `json:"collected_at"`
}

// Client fetches interest series with a minimum inter-call delay and bounded
// retries.
type Client struct {
	httpClient *http.Client
	store      cache.Store
	endpoint   string
	geo        string
	timeframe  string
	minDelay   time.Duration
	maxRetries int

	mu       sync.Mutex
	lastCall time.Time

	sleep func(time.Duration)
	now   func() time.Time
}

func NewClient(cfg config.TrendsConfig, store cache.Store) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		store:      store,
		endpoint:   cfg.Endpoint,
		geo:        cfg.Geo,
		timeframe:  cfg.Timeframe,
		minDelay:   time.Duration(cfg.MinDelayMillis) * time.Millisecond,
		maxRetries: retries,
		sleep:      time.Sleep,
		now:        time.Now,
	}
}

// InterestOverTime fetches the interest series for up to five keywords,
// cached for seven days.
func (c *Client) InterestOverTime(ctx context.Context, keywords []string) (Series, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("trends endpoint not configured: %w", ErrUnavailable)
	}
	if len(keywords) == 0 {
		return Series{}, nil
	}
	if len(keywords) > maxKeywordsPerRequest {
		keywords = keywords[:maxKeywordsPerRequest]
	}

	cacheKey := c.interestCacheKey(keywords)
	if c.store != nil {
		if payload, ok, err := c.store.Get(ctx, cacheKey); err != nil {
			log.Warn().Err(err).Str("key", cacheKey).Msg("trends cache read failed")
		} else if ok {
			var series Series
			if err := json.Unmarshal(payload, &series); err == nil {
				return series, nil
			}
		}
	}

	params := url.Values{}
	params.Set("keywords", strings.Join(keywords, ","))
	params.Set("timeframe", c.timeframe)
	params.Set("geo", c.geo)

	var response struct {
		Series Series `json:"series"`
	}
	if err := c.getJSON(ctx, params, &response); err != nil {
		return nil, fmt.Errorf("fetch interest for %v: %w", keywords, err)
	}
	if len(response.Series) == 0 {
		return nil, fmt.Errorf("fetch interest for %v: empty series", keywords)
	}

	if c.store != nil {
		if payload, err := json.Marshal(response.Series); err == nil {
			if err := c.store.Set(ctx, cacheKey, payload, interestCacheTTL); err != nil {
				log.Warn().Err(err).Str("key", cacheKey).Msg("trends cache write failed")
			}
		}
	}
	return response.Series, nil
}

// CategoryTrend collects the category's keywords in batches of five and
// reduces them to one score and direction.
func (c *Client) CategoryTrend(ctx context.Context, category string, keywords []string) (*CategoryTrend, error) {
	if len(keywords) == 0 {
		keywords = DefaultKeywords[strings.ToLower(category)]
	}
	if len(keywords) == 0 {
		return nil, fmt.Errorf("no keywords for category %s", category)
	}

	merged := Series{}
	for i := 0; i < len(keywords); i += maxKeywordsPerRequest {
		end := i + maxKeywordsPerRequest
		if end > len(keywords) {
			end = len(keywords)
		}

		series, err := c.InterestOverTime(ctx, keywords[i:end])
		if err != nil {
			log.Warn().Err(err).Str("category", category).Msg("trends batch failed")
			continue
		}
		for keyword, values := range series {
			merged[keyword] = values
		}
	}

	if len(merged) == 0 {
		return nil, fmt.Errorf("collect trends for %s: %w", category, ErrUnavailable)
	}

	averaged := averageSeries(merged)
	return &CategoryTrend{
		Category:    category,
		Keywords:    keywords,
		Score:       meanNonZero(averaged),
		Direction:   Direction(averaged),
		CollectedAt: c.now(),
	}, nil
}

// Direction compares the first and second half means of a series; changes
// beyond +-5% are directional.
func Direction(values []float64) string {
	if len(values) < 2 {
		return "stable"
	}

	mid := len(values) / 2
	first := meanOf(values[:mid])
	second := meanOf(values[mid:])
	if first <= 0 {
		return "stable"
	}

	changePct := (second - first) / first * 100
	switch {
	case changePct > 5:
		return "increasing"
	case changePct < -5:
		return "decreasing"
	default:
		return "stable"
	}
}

func (c *Client) interestCacheKey(keywords []string) string {
	sorted := make([]string, len(keywords))
	copy(sorted, keywords)
	sort.Strings(sorted)
	return interestKeyPrefix + strings.Join(sorted, ":") + ":" + c.timeframe
}

func (c *Client) getJSON(ctx context.Context, params url.Values, out interface{}) error {
	requestURL := c.endpoint + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			c.sleep(retryBaseDelay * time.Duration(attempt))
		}
		c.throttle()

		body, err := c.doGet(ctx, requestURL)
		if err != nil {
			lastErr = err
			log.Warn().Err(err).Int("attempt", attempt+1).Msg("trends request failed")
			continue
		}

		if err := json.Unmarshal(body, out); err != nil {
			lastErr = fmt.Errorf("decode response: %w", err)
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (c *Client) doGet(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) throttle() {
	if c.minDelay <= 0 {
		return
	}

	c.mu.Lock()
	elapsed := c.now().Sub(c.lastCall)
	if wait := c.minDelay - elapsed; wait > 0 {
		c.mu.Unlock()
		c.sleep(wait)
		c.mu.Lock()
	}
	c.lastCall = c.now()
	c.mu.Unlock()
}

// averageSeries reduces per-keyword series to one element-wise mean series.
func averageSeries(series Series) []float64 {
	maxLen := 0
	for _, values := range series {
		if len(values) > maxLen {
			maxLen = len(values)
		}
	}

	averaged := make([]float64, maxLen)
	for i := 0; i < maxLen; i++ {
		sum := 0.0
		count := 0
		for _, values := range series {
			if i < len(values) {
				sum += values[i]
				count++
			}
		}
		if count > 0 {
			averaged[i] = sum / float64(count)
		}
	}
	return averaged
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// meanNonZero averages the positive values only, matching how interest
// series treat zeros as "no data".
func meanNonZero(values []float64) float64 {
	sum := 0.0
	count := 0
	for _, v := range values {
		if v > 0 {
			sum += v
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

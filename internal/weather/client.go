// Package weather collects current conditions and daily forecasts from the
// Open-Meteo API (free, no API key). The provider is optional: exhausted
// retries surface ErrUnavailable and the caller degrades to defaults.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kidbea/forecast-go/internal/cache"
	"github.com/kidbea/forecast-go/internal/config"
)

const (
	defaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	defaultForecastURL  = "https://api.open-meteo.com/v1/forecast"

	geocodeCacheTTL  = 30 * 24 * time.Hour
	retryBaseDelay   = 2 * time.Second
	maxForecastDays  = 16
	apiTimezone      = "Asia/Kolkata"
	geocodeKeyPrefix = "weather:geocode:"
)

// ErrUnavailable marks the provider as down after all retries.
var ErrUnavailable = errors.New("weather provider unavailable")

// weatherCodes maps WMO weather interpretation codes to descriptions.
var weatherCodes = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Foggy",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	71: "Slight snow",
	73: "Moderate snow",
	75: "Heavy snow",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// CodeDescription resolves a WMO weather code to a readable label.
func CodeDescription(code int) string {
	if description, ok := weatherCodes[code]; ok {
		return description
	}
	return "Unknown"
}

// Location is a geocoded city.
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country"`
	Admin1    string  `json:"admin1"`
	Timezone  string  `json:"timezone"`
}

// Observation is the current weather at a location.
type Observation struct {
	Temperature         *float64 `json:"temperature"`
	ApparentTemperature *float64 `json:"apparent_temperature"`
	Humidity            *float64 `json:"humidity"`
	Precipitation       *float64 `json:"precipitation"`
	WeatherCode         int      `json:"weather_code"`
	Description         string   `json:"description"`
	WindSpeed           *float64 `json:"wind_speed"`
	ObservedAt          string   `json:"observed_at"`
}

// DailyOutlook is one forecast day.
type DailyOutlook struct {
	Date           string   `json:"date"`
	TemperatureMax *float64 `json:"temperature_max"`
	TemperatureMin *float64 `json:"temperature_min"`
	TemperatureAvg *float64 `json:"temperature"`
	Precipitation  *float64 `json:"precipitation"`
	WeatherCode    int      `json:"weather_code"`
	Description    string   `json:"description"`
}

// LocationWeather bundles everything collected for one city.
type LocationWeather struct {
	Location    Location       `json:"location"`
	Current     *Observation   `json:"current,omitempty"`
	Forecast    []DailyOutlook `json:"forecast,omitempty"`
	CollectedAt time.Time      `json:"collected_at"`
}

// Client talks to Open-Meteo with a minimum inter-call delay and bounded
// retries with exponential backoff.
type Client struct {
	httpClient   *http.Client
	store        cache.Store
	geocodingURL string
	forecastURL  string
	minDelay     time.Duration
	maxRetries   int

	mu       sync.Mutex
	lastCall time.Time

	sleep func(time.Duration)
	now   func() time.Time
}

func NewClient(cfg config.WeatherConfig, store cache.Store) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		store:        store,
		geocodingURL: defaultGeocodingURL,
		forecastURL:  defaultForecastURL,
		minDelay:     time.Duration(cfg.MinDelayMillis) * time.Millisecond,
		maxRetries:   retries,
		sleep:        time.Sleep,
		now:          time.Now,
	}
}

// Geocode resolves a city name to coordinates, cached for 30 days.
func (c *Client) Geocode(ctx context.Context, name string) (*Location, error) {
	cacheKey := geocodeKeyPrefix + strings.ToLower(name)
	if c.store != nil {
		if payload, ok, err := c.store.Get(ctx, cacheKey); err != nil {
			log.Warn().Err(err).Str("location", name).Msg("geocode cache read failed")
		} else if ok {
			var location Location
			if err := json.Unmarshal(payload, &location); err == nil {
				return &location, nil
			}
		}
	}

	params := url.Values{}
	params.Set("name", name)
	params.Set("country", "India")
	params.Set("count", "1")
	params.Set("language", "en")

	var response struct {
		Results []Location `json:"results"`
	}
	if err := c.getJSON(ctx, c.geocodingURL, params, &response); err != nil {
		return nil, fmt.Errorf("geocode %s: %w", name, err)
	}
	if len(response.Results) == 0 {
		return nil, fmt.Errorf("geocode %s: no results", name)
	}

	location := response.Results[0]
	if c.store != nil {
		if payload, err := json.Marshal(location); err == nil {
			if err := c.store.Set(ctx, cacheKey, payload, geocodeCacheTTL); err != nil {
				log.Warn().Err(err).Str("location", name).Msg("geocode cache write failed")
			}
		}
	}
	return &location, nil
}

// CurrentWeather fetches current conditions for coordinates.
func (c *Client) CurrentWeather(ctx context.Context, latitude, longitude float64) (*Observation, error) {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.4f", latitude))
	params.Set("longitude", fmt.Sprintf("%.4f", longitude))
	params.Set("current", "temperature_2m,relative_humidity_2m,apparent_temperature,precipitation,weather_code,wind_speed_10m")
	params.Set("timezone", apiTimezone)

	var response struct {
		Current *struct {
			Temperature         *float64 `json:"temperature_2m"`
			ApparentTemperature *float64 `json:"apparent_temperature"`
			Humidity            *float64 `json:"relative_humidity_2m"`
			Precipitation       *float64 `json:"precipitation"`
			WeatherCode         int      `json:"weather_code"`
			WindSpeed           *float64 `json:"wind_speed_10m"`
			Time                string   `json:"time"`
		} `json:"current"`
	}
	if err := c.getJSON(ctx, c.forecastURL, params, &response); err != nil {
		return nil, fmt.Errorf("fetch current weather: %w", err)
	}
	if response.Current == nil {
		return nil, fmt.Errorf("fetch current weather: empty response")
	}

	return &Observation{
		Temperature:         response.Current.Temperature,
		ApparentTemperature: response.Current.ApparentTemperature,
		Humidity:            response.Current.Humidity,
		Precipitation:       response.Current.Precipitation,
		WeatherCode:         response.Current.WeatherCode,
		Description:         CodeDescription(response.Current.WeatherCode),
		WindSpeed:           response.Current.WindSpeed,
		ObservedAt:          response.Current.Time,
	}, nil
}

// DailyForecast fetches up to 16 days of daily forecasts.
func (c *Client) DailyForecast(ctx context.Context, latitude, longitude float64, days int) ([]DailyOutlook, error) {
	if days > maxForecastDays {
		days = maxForecastDays
	}
	if days <= 0 {
		days = 7
	}

	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.4f", latitude))
	params.Set("longitude", fmt.Sprintf("%.4f", longitude))
	params.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,weather_code")
	params.Set("timezone", apiTimezone)
	params.Set("forecast_days", fmt.Sprintf("%d", days))

	var response struct {
		Daily *struct {
			Time           []string   `json:"time"`
			TemperatureMax []*float64 `json:"temperature_2m_max"`
			TemperatureMin []*float64 `json:"temperature_2m_min"`
			Precipitation  []*float64 `json:"precipitation_sum"`
			WeatherCode    []int      `json:"weather_code"`
		} `json:"daily"`
	}
	if err := c.getJSON(ctx, c.forecastURL, params, &response); err != nil {
		return nil, fmt.Errorf("fetch daily forecast: %w", err)
	}
	if response.Daily == nil {
		return nil, fmt.Errorf("fetch daily forecast: empty response")
	}

	daily := response.Daily
	outlooks := make([]DailyOutlook, 0, len(daily.Time))
	for i, date := range daily.Time {
		outlook := DailyOutlook{Date: date}
		if i < len(daily.TemperatureMax) {
			outlook.TemperatureMax = daily.TemperatureMax[i]
		}
		if i < len(daily.TemperatureMin) {
			outlook.TemperatureMin = daily.TemperatureMin[i]
		}
		if outlook.TemperatureMax != nil && outlook.TemperatureMin != nil {
			avg := (*outlook.TemperatureMax + *outlook.TemperatureMin) / 2
			outlook.TemperatureAvg = &avg
		}
		if i < len(daily.Precipitation) {
			outlook.Precipitation = daily.Precipitation[i]
		}
		if i < len(daily.WeatherCode) {
			outlook.WeatherCode = daily.WeatherCode[i]
		}
		outlook.Description = CodeDescription(outlook.WeatherCode)
		outlooks = append(outlooks, outlook)
	}
	return outlooks, nil
}

// CollectForLocation geocodes a city and fetches its current conditions and
// a 7 day outlook. Partial data is acceptable; both missing is an error.
func (c *Client) CollectForLocation(ctx context.Context, name string) (*LocationWeather, error) {
	location, err := c.Geocode(ctx, name)
	if err != nil {
		return nil, err
	}

	result := &LocationWeather{Location: *location, CollectedAt: c.now()}

	current, err := c.CurrentWeather(ctx, location.Latitude, location.Longitude)
	if err != nil {
		log.Warn().Err(err).Str("location", name).Msg("current weather unavailable")
	} else {
		result.Current = current
	}

	forecast, err := c.DailyForecast(ctx, location.Latitude, location.Longitude, 7)
	if err != nil {
		log.Warn().Err(err).Str("location", name).Msg("daily forecast unavailable")
	} else {
		result.Forecast = forecast
	}

	if result.Current == nil && len(result.Forecast) == 0 {
		return nil, fmt.Errorf("collect weather for %s: %w", name, ErrUnavailable)
	}
	return result, nil
}

// getJSON issues a throttled GET and decodes the body, retrying transient
// failures with exponential backoff.
func (c *Client) getJSON(ctx context.Context, baseURL string, params url.Values, out interface{}) error {
	requestURL := baseURL + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			c.sleep(retryBaseDelay << (attempt - 1))
		}
		c.throttle()

		body, err := c.doGet(ctx, requestURL)
		if err != nil {
			lastErr = err
			log.Warn().Err(err).Int("attempt", attempt+1).Str("url", baseURL).Msg("weather request failed")
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

// throttle enforces the minimum inter-call delay across goroutines.
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

package jobs

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kidbea/forecast-go/internal/domain"
	"github.com/kidbea/forecast-go/internal/repository"
	"github.com/kidbea/forecast-go/internal/weather"
)

const JobCollectWeather = "collect_weather"

// WeatherCollectionJob fetches current conditions and the 7 day outlook for
// each configured city and stores them as external signals.
type WeatherCollectionJob struct {
	client    *weather.Client
	signals   repository.SignalRepository
	locations []string
	now       func() time.Time
}

func NewWeatherCollectionJob(client *weather.Client, signals repository.SignalRepository, locations []string) *WeatherCollectionJob {
	return &WeatherCollectionJob{
		client:    client,
		signals:   signals,
		locations: locations,
		now:       time.Now,
	}
}

func (j *WeatherCollectionJob) Name() string { return JobCollectWeather }

func (j *WeatherCollectionJob) Run(ctx context.Context, _ string) (domain.JobSummary, string, error) {
	summary := domain.JobSummary{Job: JobCollectWeather, Timestamp: j.now()}

	for _, location := range j.locations {
		if err := j.collectLocation(ctx, location); err != nil {
			log.Warn().Err(err).Str("location", location).Msg("weather collection failed for location")
			summary.Failed++
			continue
		}
		summary.Succeeded++
	}

	// A run where no location succeeded is a job failure; partial coverage
	// is fine.
	if summary.Succeeded == 0 && len(j.locations) > 0 {
		return summary, "", weather.ErrUnavailable
	}
	return summary, "", nil
}

func (j *WeatherCollectionJob) collectLocation(ctx context.Context, location string) error {
	collected, err := j.client.CollectForLocation(ctx, location)
	if err != nil {
		return err
	}

	locationCode := strings.ToLower(location)
	today := truncateToDay(j.now())

	if collected.Current != nil {
		if err := j.storeObservation(ctx, locationCode, today, collected.Current); err != nil {
			return err
		}
	}

	for _, outlook := range collected.Forecast {
		date, err := time.Parse("2006-01-02", outlook.Date)
		if err != nil {
			continue
		}
		if err := j.storeOutlook(ctx, locationCode, date, outlook); err != nil {
			return err
		}
	}
	return nil
}

func (j *WeatherCollectionJob) storeObservation(ctx context.Context, locationCode string, date time.Time, observation *weather.Observation) error {
	payload, err := json.Marshal(map[string]interface{}{
		"temperature":   observation.Temperature,
		"humidity":      observation.Humidity,
		"precipitation": observation.Precipitation,
		"weather_code":  observation.WeatherCode,
		"description":   observation.Description,
	})
	if err != nil {
		return err
	}

	value := 0.0
	if observation.Temperature != nil {
		value = *observation.Temperature
	}

	return j.signals.Upsert(ctx, &domain.ExternalSignal{
		SignalType:   domain.SignalWeather,
		SubjectCode:  locationCode,
		LocationCode: locationCode,
		SignalDate:   date,
		Value:        value,
		RawData:      payload,
		Source:       "open-meteo",
	})
}

func (j *WeatherCollectionJob) storeOutlook(ctx context.Context, locationCode string, date time.Time, outlook weather.DailyOutlook) error {
	payload, err := json.Marshal(map[string]interface{}{
		"temperature":   outlook.TemperatureAvg,
		"precipitation": outlook.Precipitation,
		"weather_code":  outlook.WeatherCode,
		"description":   outlook.Description,
	})
	if err != nil {
		return err
	}

	value := 0.0
	if outlook.TemperatureAvg != nil {
		value = *outlook.TemperatureAvg
	}

	return j.signals.Upsert(ctx, &domain.ExternalSignal{
		SignalType:   domain.SignalWeatherForecast,
		SubjectCode:  locationCode,
		LocationCode: locationCode,
		SignalDate:   date,
		Value:        value,
		RawData:      payload,
		Source:       "open-meteo",
	})
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// cmd/jobs/main.go
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/kidbea/forecast-go/internal/accuracy"
	"github.com/kidbea/forecast-go/internal/cache"
	"github.com/kidbea/forecast-go/internal/config"
	"github.com/kidbea/forecast-go/internal/features"
	"github.com/kidbea/forecast-go/internal/forecast"
	"github.com/kidbea/forecast-go/internal/jobs"
	"github.com/kidbea/forecast-go/internal/refdata"
	"github.com/kidbea/forecast-go/internal/repository"
	"github.com/kidbea/forecast-go/internal/repository/postgres"
	"github.com/kidbea/forecast-go/internal/storage"
	"github.com/kidbea/forecast-go/internal/trends"
	"github.com/kidbea/forecast-go/internal/weather"
	"github.com/kidbea/forecast-go/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "jobs",
		Usage: "Run the scheduled pipeline jobs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "info",
			},
		},
		Before: func(c *cli.Context) error {
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			jobCommand(jobs.JobCollectWeather, "Collect current weather and forecasts for the configured locations"),
			jobCommand(jobs.JobCollectTrends, "Collect search trend scores per product category"),
			jobCommand(jobs.JobFestivalCalendar, "Refresh the festival calendar and store upcoming festival signals"),
			jobCommand(jobs.JobGenerateForecasts, "Generate demand forecasts for active SKUs"),
			jobCommand(jobs.JobGenerateAlerts, "Evaluate stock health and raise inventory alerts"),
			jobCommand(jobs.JobCalculateAccuracy, "Reconcile past forecasts against realized sales"),
			jobCommand(jobs.JobTrainModels, "Placeholder for model training"),
			{
				Name:      "runs",
				Usage:     "Show recent runs of a job",
				ArgsUsage: "<job-name>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("expected exactly one job name")
					}

					cfg := config.Load()
					db, err := postgres.NewDB(&cfg.Database)
					if err != nil {
						return fmt.Errorf("connect database: %w", err)
					}
					defer db.Close()

					runs, err := repository.NewJobRunRepository(db.DB).ListRecent(c.Context, c.Args().First(), c.Int("limit"))
					if err != nil {
						return err
					}
					for _, run := range runs {
						completed := "-"
						if run.CompletedAt != nil {
							completed = run.CompletedAt.Format(time.RFC3339)
						}
						fmt.Printf("%s\t%s\tattempt=%d\tsucceeded=%d\tfailed=%d\tstarted=%s\tcompleted=%s\n",
							run.JobName, run.Status, run.Attempt, run.Succeeded, run.Failed,
							run.StartedAt.Format(time.RFC3339), completed)
					}
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "List registered jobs",
				Action: func(c *cli.Context) error {
					runner, cleanup, err := buildRunner()
					if err != nil {
						return err
					}
					defer cleanup()
					for _, name := range runner.Names() {
						fmt.Println(name)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("job execution failed")
	}
}

func jobCommand(name, usage string) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Action: func(c *cli.Context) error {
			runner, cleanup, err := buildRunner()
			if err != nil {
				return err
			}
			defer cleanup()

			summary, err := runner.Execute(c.Context, name)
			if err != nil {
				return err
			}
			logger.Log.Info().
				Str("job", summary.Job).
				Int("succeeded", summary.Succeeded).
				Int("failed", summary.Failed).
				Msg("job finished")
			return nil
		},
	}
}

// buildRunner wires every job with its dependencies. The cleanup function
// closes the database connection.
func buildRunner() (*jobs.Runner, func(), error) {
	cfg := config.Load()

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	cleanup := func() { db.Close() }

	store, err := cache.NewStore(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("cache store unavailable, using in-memory store")
		store = cache.NewMemoryStore()
	}
	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("forecast cache unavailable, caching disabled")
		forecastCache = cache.NewNoopForecastCache()
	}

	refdataOpts := []refdata.Option{}
	if cfg.RefData.Endpoint != "" {
		objects, err := storage.NewMinioClient(storage.MinioConfig{
			Endpoint:  cfg.RefData.Endpoint,
			AccessKey: cfg.RefData.AccessKey,
			SecretKey: cfg.RefData.SecretKey,
			Bucket:    cfg.RefData.Bucket,
			Region:    cfg.RefData.Region,
			UseSSL:    cfg.RefData.UseSSL,
		})
		if err != nil {
			logger.Log.Warn().Err(err).Msg("object storage unavailable, using local reference data")
		} else {
			refdataOpts = append(refdataOpts, refdata.WithObjectStorage(objects))
		}
	}
	provider := refdata.NewSource(store, cfg.RefData.LocalDir, cfg.RefData.Version, refdataOpts...)

	skuRepo := repository.NewSKURepository(db.DB)
	salesRepo := repository.NewSalesRepository(db)
	signalRepo := repository.NewSignalRepository(db.DB)
	forecastRepo := repository.NewForecastRepository(db)
	alertRepo := repository.NewAlertRepository(db.DB)
	accuracyRepo := repository.NewAccuracyRepository(db.DB)
	jobRunRepo := repository.NewJobRunRepository(db.DB)

	assembler := features.NewAssembler(salesRepo, signalRepo, provider, cfg.Weather.DefaultLocation)
	engine := forecast.NewEngine(skuRepo, assembler, forecast.NewMultiplicativeComposer(), forecastCache)
	tracker := accuracy.NewTracker(forecastRepo, salesRepo, accuracyRepo)

	weatherClient := weather.NewClient(cfg.Weather, store)
	trendsClient := trends.NewClient(cfg.Trends, store)

	runner := jobs.NewRunner(jobRunRepo, cfg.Jobs)
	runner.Register(jobs.NewWeatherCollectionJob(weatherClient, signalRepo, cfg.Weather.Locations))
	runner.Register(jobs.NewTrendsCollectionJob(trendsClient, skuRepo, signalRepo))
	runner.Register(jobs.NewFestivalCalendarJob(provider, signalRepo))
	runner.Register(jobs.NewForecastGenerationJob(skuRepo, forecastRepo, engine, cfg.Jobs.ForecastSKUCap, cfg.Jobs.ForecastHorizonDays))
	runner.Register(jobs.NewAlertGenerationJob(skuRepo, alertRepo, engine, cfg.Jobs.AlertSKUCap, cfg.Jobs.AlertHorizonDays))
	runner.Register(jobs.NewAccuracyJob(tracker, cfg.Jobs.AccuracyRecordCap))
	runner.Register(jobs.NewModelTrainingJob())

	return runner, cleanup, nil
}
